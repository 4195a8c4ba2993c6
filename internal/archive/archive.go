package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/integrations/s3"
)

type Service struct {
	config *config.Config
	s3     s3.Service
}

// New creates an archive service
func New(cfg *config.Config, s3 s3.Service) *Service {
	return &Service{config: cfg, s3: s3}
}

// Run packs the output directory into a tarball and uploads it to S3
// under a timestamped key. Returns the uploaded object key.
func (s *Service) Run(ctx context.Context) (string, error) {

	name := fmt.Sprintf("archive-%v.tar.gz", time.Now().Format("2006-01-02T15-04"))
	dest := filepath.Join(os.TempDir(), name)

	if err := CompressDir(s.config.OutputDir, dest); err != nil {
		return "", err
	}
	defer os.Remove(dest)

	key := s.config.VideoPrefix + name
	if err := s.s3.UploadFile(ctx, s.config.S3Bucket, os.TempDir(), key, name); err != nil {
		return "", err
	}

	log.Printf("archived %q to %q", s.config.OutputDir, key)
	return key, nil
}

// CompressDir packs a directory into a gzipped tarball.
// Paths inside the tarball are relative to the source directory.
func CompressDir(src, dest string) error {

	archive, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archive.Close()

	gzipWriter, err := gzip.NewWriterLevel(archive, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(tarWriter, file)
		return err
	})

	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", src, err)
	}

	return nil
}
