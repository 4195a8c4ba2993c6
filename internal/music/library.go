package music

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/integrations/s3"
	"github.com/vlatan/anime-studio/internal/models"
)

// Library manages the music tracks stored in the bucket
type Library struct {
	cfg *config.Config
	s3  s3.Service
}

// NewLibrary creates new music library service
func NewLibrary(cfg *config.Config, s3 s3.Service) *Library {
	return &Library{cfg, s3}
}

// ListKeys returns the object keys of all uploaded tracks
func (l *Library) ListKeys(ctx context.Context) ([]string, error) {
	return l.s3.ListKeys(ctx, l.cfg.S3Bucket, l.cfg.MusicPrefix)
}

// UploadMissing uploads every track from the library CSV whose object
// is not in the bucket yet. Local files live under musicDir named by
// the track's source filename. Returns the number of uploaded tracks.
// A missing local file is logged and skipped, not fatal.
func (l *Library) UploadMissing(ctx context.Context, csvPath, musicDir string) (int, error) {

	tracks, err := LoadTracks(csvPath)
	if err != nil {
		return 0, err
	}

	existing, err := l.ListKeys(ctx)
	if err != nil {
		return 0, err
	}

	var uploaded int
	for _, track := range tracks {
		if track.Marked {
			continue
		}

		key := track.Key(l.cfg.MusicPrefix)
		if slices.Contains(existing, key) {
			continue
		}

		err := l.s3.UploadFile(ctx, l.cfg.S3Bucket, musicDir, key, track.Filename)
		if err != nil {
			log.Printf("skipping track %q; %v", track.Filename, err)
			continue
		}

		log.Printf("uploaded track %q as %q", track.Filename, key)
		uploaded++
	}

	return uploaded, nil
}

// DeleteMarked removes every marked track from the bucket and drops
// it from the library CSV. Returns the number of deleted tracks.
func (l *Library) DeleteMarked(ctx context.Context, csvPath string) (int, error) {

	tracks, err := LoadTracks(csvPath)
	if err != nil {
		return 0, err
	}

	var deleted int
	var kept []models.Track
	for _, track := range tracks {
		if !track.Marked {
			kept = append(kept, track)
			continue
		}

		key := track.Key(l.cfg.MusicPrefix)
		if err := l.s3.DeleteObject(ctx, l.cfg.S3Bucket, key); err != nil {
			return deleted, fmt.Errorf("couldn't delete track %q: %w", key, err)
		}
		deleted++
	}

	if deleted == 0 {
		return 0, nil
	}

	if err := SaveTracks(csvPath, kept); err != nil {
		return deleted, err
	}

	return deleted, nil
}
