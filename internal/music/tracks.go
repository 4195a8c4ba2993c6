package music

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gosimple/slug"

	"github.com/vlatan/anime-studio/internal/models"
)

// CSV header columns of the track library
const (
	colFilenames = "filenames"
	colSafeName  = "s3_safe_name"
	colMarked    = "marked"
)

// SafeName turns an arbitrary track filename into a storage safe
// name, lowercase ASCII with underscores and no extension
func SafeName(filename string) string {
	name := filename
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}

// LoadTracks reads the track library CSV. A row may carry several
// source filenames separated by semicolons, the first one wins.
// Rows without a filename or a safe name are skipped.
func LoadTracks(path string) ([]models.Track, error) {

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the track library %s: %w", path, err)
	}
	defer file.Close()

	return parseTracks(file)
}

// parseTracks decodes the track library from a reader
func parseTracks(r io.Reader) ([]models.Track, error) {

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("couldn't read the track library header: %w", err)
	}

	// Map the column names to their positions
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}

	for _, required := range []string{colFilenames, colSafeName} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("track library missing the %q column", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var tracks []models.Track
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("couldn't read a track library row: %w", err)
		}

		filenames := field(record, colFilenames)
		safeName := field(record, colSafeName)
		if filenames == "" || safeName == "" {
			continue
		}

		// First filename wins when a track lists several
		filename, _, _ := strings.Cut(filenames, ";")
		filename = strings.TrimSpace(filename)
		if filename == "" {
			continue
		}

		tracks = append(tracks, models.Track{
			Filename: filename,
			SafeName: safeName,
			Marked:   strings.EqualFold(field(record, colMarked), "x"),
		})
	}

	return tracks, nil
}

// SaveTracks writes the track library back to disk
func SaveTracks(path string, tracks []models.Track) error {

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("couldn't create the track library %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{colFilenames, colSafeName, colMarked}); err != nil {
		return fmt.Errorf("couldn't write the track library header: %w", err)
	}

	for _, track := range tracks {
		marked := ""
		if track.Marked {
			marked = "x"
		}
		record := []string{track.Filename, track.SafeName, marked}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("couldn't write a track library row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
