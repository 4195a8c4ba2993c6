package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/prompts"
)

var (
	genderizeGender string
	genderizeFile   string
)

// genderizeCmd harmonizes prompts from the command line
var genderizeCmd = &cobra.Command{
	Use:   "genderize [prompt]...",
	Short: "Harmonize video prompts for a gender presentation",
	Long: `Inject the gender presentation style tag into one or more video
prompts and harmonize their pronouns. Prompts come from the arguments
or from a prompts file. Prints one result per line.`,
	Args: cobra.ArbitraryArgs,
	RunE: runGenderize,
}

func init() {
	genderizeCmd.Flags().StringVarP(
		&genderizeGender, "gender", "g", "",
		"gender presentation code, M or F",
	)
	genderizeCmd.Flags().StringVarP(
		&genderizeFile, "file", "f", "",
		"read prompts from a file, one per line",
	)
	genderizeCmd.MarkFlagRequired("gender")
	rootCmd.AddCommand(genderizeCmd)
}

func runGenderize(cmd *cobra.Command, args []string) error {

	input := args
	if genderizeFile != "" {
		fromFile, err := prompts.ReadPrompts(genderizeFile)
		if err != nil {
			return err
		}
		input = append(input, fromFile...)
	}

	if len(input) == 0 {
		return errors.New("no prompts given, pass arguments or --file")
	}

	genderizer := config.New().Genderizer()

	results, err := genderizer.GenderizeBatch(input, genderizeGender)
	if err != nil {
		var invalidCode *prompts.InvalidCodeError
		if errors.As(err, &invalidCode) {
			return fmt.Errorf("%w; pass -g M or -g F", invalidCode)
		}
		return err
	}

	for _, result := range results {
		fmt.Fprintln(cmd.OutOrStdout(), result)
	}

	return nil
}
