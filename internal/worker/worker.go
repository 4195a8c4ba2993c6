package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/drivers/rdb"
	"github.com/vlatan/anime-studio/internal/integrations/gemini"
	"github.com/vlatan/anime-studio/internal/integrations/kling"
	"github.com/vlatan/anime-studio/internal/integrations/s3"
	"github.com/vlatan/anime-studio/internal/models"
	"github.com/vlatan/anime-studio/internal/prompts"
	"github.com/vlatan/anime-studio/internal/utils"
)

const (
	runLockKey  = "worker:run:lock"
	statsPrefix = "worker:stats:"
)

type Service struct {
	config     *config.Config
	gemini     *gemini.Service
	kling      *kling.Service
	s3         s3.Service
	rdb        *rdb.Service
	limiter    *gemini.GeminiLimiter
	genderizer *prompts.Genderizer
}

func New(ctx context.Context) *Service {

	// Create essential services
	cfg := config.New()

	// Create the redis client
	redis, err := rdb.New(cfg)
	if err != nil {
		panic(err)
	}

	// Create Gemini client
	gmn, err := gemini.New(ctx, cfg)
	if err != nil {
		panic(err)
	}

	// Create the Gemini quota limiter
	limiter, err := gemini.NewLimiter(cfg, redis)
	if err != nil {
		panic(err)
	}

	return &Service{
		config:     cfg,
		gemini:     gmn,
		kling:      kling.New(cfg),
		s3:         s3.New(ctx, cfg),
		rdb:        redis,
		limiter:    limiter,
		genderizer: cfg.Genderizer(),
	}
}

// item is one selfie moving through the pipeline
type item struct {
	path     string
	mimeType string
	photo    []byte
	analysis *models.PhotoAnalysis
	prompt   string
}

// Run executes the whole pipeline over the input directory.
// Selfies that fail analysis or generation are logged and skipped,
// one bad photo never sinks the batch.
func (s *Service) Run(ctx context.Context) error {

	log.Println("Worker running...")

	// One pipeline run at a time per redis instance
	hostname, _ := os.Hostname()
	owner := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	lock := s.rdb.NewRedisLock(runLockKey, owner, time.Hour)

	acquired, err := lock.TryLock(ctx)
	if err != nil {
		return fmt.Errorf("could not acquire the run lock: %w", err)
	}

	if !acquired {
		return errors.New("another worker run holds the lock")
	}

	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			log.Printf("failed to release the run lock; %v", err)
		}
	}()

	// Resume tasks a previous run left behind before taking new work
	if err := s.resumePending(ctx); err != nil {
		log.Printf("failed to resume pending tasks; %v", err)
	}

	// No point scanning a batch the quota cannot cover at all
	if s.limiter.Exhausted(ctx) {
		return errors.New("gemini daily quota already exhausted")
	}

	namedPrompts, err := prompts.ReadNamedPrompts(s.config.PromptsFile)
	if err != nil {
		return fmt.Errorf("could not read the prompts file: %w", err)
	}

	images, err := listImages(s.config.InputDir)
	if err != nil {
		return fmt.Errorf("could not list the input directory: %w", err)
	}

	if len(images) == 0 {
		return errors.New("found ZERO images in the input directory")
	}

	log.Printf("Analyzing %d images...", len(images))
	items := s.analyzeAll(ctx, images, namedPrompts)
	if len(items) == 0 {
		return errors.New("no image survived the analysis stage")
	}

	log.Printf("Generating videos for %d images...", len(items))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.VideoWorkers)

	var processed, failed atomic.Int64
	for _, it := range items {
		group.Go(func() error {
			if err := s.process(groupCtx, it); err != nil {
				// Context errors abort the whole batch
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				failed.Add(1)
				log.Printf("failed to process %q; %v", it.path, err)
				return nil
			}
			processed.Add(1)
			return nil
		})
	}

	err = group.Wait()
	s.recordStats(ctx, len(images), processed.Load(), failed.Load())
	return err
}

// recordStats keeps a per-run summary around for a while
func (s *Service) recordStats(ctx context.Context, scanned int, processed, failed int64) {

	key := statsPrefix + time.Now().UTC().Format("2006-01-02T15-04-05")
	err := s.rdb.PipeHset(ctx, s.config.TaskTTL, key,
		"scanned", scanned,
		"processed", processed,
		"failed", failed,
	)

	if err != nil {
		log.Printf("failed to record the run stats; %v", err)
	}

	log.Printf("Processed %d %s, %d failed",
		processed, utils.Plural(int(processed), "image"), failed,
	)
}

// analyzeAll fans the vision analysis out over a worker pool and
// keeps only the items with a clear single-person gender reading
func (s *Service) analyzeAll(
	ctx context.Context,
	images []string,
	namedPrompts []prompts.NamedPrompt,
) []*item {

	results := make([]*item, len(images))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.AnalyzeWorkers)

	for i, path := range images {
		group.Go(func() error {
			it, err := s.analyze(groupCtx, path, namedPrompts)
			if err != nil {
				log.Printf("skipping %q; %v", path, err)
				return nil
			}
			results[i] = it
			return nil
		})
	}

	// Workers swallow their own errors, Wait only sees context ones
	if err := group.Wait(); err != nil {
		log.Printf("analysis stage interrupted; %v", err)
	}

	var items []*item
	for _, it := range results {
		if it != nil {
			items = append(items, it)
		}
	}

	return items
}

// analyze runs the vision analysis on one selfie and builds
// its gender harmonized video prompt
func (s *Service) analyze(
	ctx context.Context,
	path string,
	namedPrompts []prompts.NamedPrompt,
) (*item, error) {

	photo, mimeType, err := readImage(path)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.AcquireQuota(ctx); err != nil {
		return nil, err
	}

	analysis, err := s.gemini.AnalyzePhotoWithRetry(ctx, photo, mimeType)
	if err != nil {
		return nil, fmt.Errorf("photo analysis failed: %w", err)
	}

	code, ok := analysis.GenderCode()
	if !ok {
		return nil, fmt.Errorf("unclear gender presentation %q", analysis.Gender)
	}

	style, err := pickPrompt(namedPrompts, s.config.PromptName)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.BuildVideoPrompt(prompts.VideoPromptData{
		Style:      style,
		Background: analysis.Background,
		Caption:    analysis.Caption,
	})
	if err != nil {
		return nil, err
	}

	prompt, err = s.genderizer.Genderize(prompt, code)
	if err != nil {
		return nil, err
	}

	return &item{
		path:     path,
		mimeType: mimeType,
		photo:    photo,
		analysis: analysis,
		prompt:   prompt,
	}, nil
}

// process takes one analyzed selfie all the way to an uploaded video
func (s *Service) process(ctx context.Context, it *item) error {

	base := stem(it.path)

	// Stylize the selfie into an anime still
	if err := s.limiter.AcquireQuota(ctx); err != nil {
		return err
	}

	still, stillMime, err := s.gemini.GenerateAnimeImageWithRetry(
		ctx, it.photo, it.mimeType, prompts.AnimePrompt,
	)
	if err != nil {
		return fmt.Errorf("anime stylization failed: %w", err)
	}

	stillName := base + "_anime" + extForMime(stillMime)
	if err := writeOutput(s.config.OutputDir, stillName, still); err != nil {
		return err
	}

	// Animate the still
	if s.config.VideoProvider == "veo" {
		return s.animateWithVeo(ctx, it, still, stillMime)
	}

	taskID, err := s.kling.CreateImageToVideo(ctx, still, it.prompt)
	if err != nil {
		return fmt.Errorf("video task creation failed: %w", err)
	}

	task := &models.Task{
		ID:          taskID,
		Kind:        models.TaskVideo,
		Status:      models.StatusSubmitted,
		SourceImage: it.path,
		Prompt:      it.prompt,
	}

	if err := s.saveTask(ctx, task); err != nil {
		log.Printf("failed to record task %q; %v", taskID, err)
	}

	return s.finishVideo(ctx, task)
}

// animateWithVeo animates a still with Veo instead of Kling. Veo has
// no resumable task handle, the operation is polled in one sitting.
func (s *Service) animateWithVeo(ctx context.Context, it *item, still []byte, stillMime string) error {

	if err := s.limiter.AcquireQuota(ctx); err != nil {
		return err
	}

	video, err := s.gemini.GenerateVideo(ctx, it.prompt, still, stillMime)
	if err != nil {
		return fmt.Errorf("veo video generation failed: %w", err)
	}

	videoName := stem(it.path) + ".mp4"
	if err := writeOutput(s.config.OutputDir, videoName, video); err != nil {
		return err
	}

	key := s.config.VideoPrefix + videoName
	err = s.s3.UploadFile(ctx, s.config.S3Bucket, s.config.OutputDir, key, videoName)
	if err != nil {
		return fmt.Errorf("video upload for %q failed: %w", it.path, err)
	}

	log.Printf("finished %q, uploaded %q", it.path, key)
	return nil
}

// finishVideo polls a submitted video task to completion, downloads
// the result, stores it locally and uploads it to the bucket
func (s *Service) finishVideo(ctx context.Context, task *models.Task) error {
	return s.finishTask(ctx, task, s.kling.PollVideo, ".mp4")
}

// finishLipSync does the same for a submitted lip sync task
func (s *Service) finishLipSync(ctx context.Context, task *models.Task) error {
	return s.finishTask(ctx, task, s.kling.PollLipSync, "_lipsync.mp4")
}

// finishTask drives a submitted provider task to a terminal status,
// downloading the result, storing it locally and uploading it
func (s *Service) finishTask(
	ctx context.Context,
	task *models.Task,
	poll func(context.Context, string) (string, error),
	suffix string,
) error {

	task.Status = models.StatusRunning
	if err := s.saveTask(ctx, task); err != nil {
		log.Printf("failed to record task %q; %v", task.ID, err)
	}

	url, err := poll(ctx, task.ID)
	if err != nil {
		s.failTask(ctx, task, err)
		return fmt.Errorf("video task %q failed: %w", task.ID, err)
	}

	video, err := s.kling.DownloadVideo(ctx, url)
	if err != nil {
		s.failTask(ctx, task, err)
		return fmt.Errorf("video download for task %q failed: %w", task.ID, err)
	}

	videoName := stem(task.SourceImage) + suffix
	if err := writeOutput(s.config.OutputDir, videoName, video); err != nil {
		s.failTask(ctx, task, err)
		return err
	}

	key := s.config.VideoPrefix + videoName
	err = s.s3.UploadFile(ctx, s.config.S3Bucket, s.config.OutputDir, key, videoName)
	if err != nil {
		s.failTask(ctx, task, err)
		return fmt.Errorf("video upload for task %q failed: %w", task.ID, err)
	}

	task.Status = models.StatusSucceeded
	task.VideoURL = url
	task.OutputKey = key
	if err := s.saveTask(ctx, task); err != nil {
		log.Printf("failed to record task %q; %v", task.ID, err)
	}

	log.Printf("finished %q, uploaded %q", task.SourceImage, key)
	return nil
}

// saveTask records a task with the configured TTL
func (s *Service) saveTask(ctx context.Context, task *models.Task) error {
	return s.rdb.SaveTask(ctx, s.config.TaskTTL, task)
}

// failTask records a terminal failure on a task
func (s *Service) failTask(ctx context.Context, task *models.Task, cause error) {
	task.Status = models.StatusFailed
	task.Error = cause.Error()
	if err := s.saveTask(ctx, task); err != nil {
		log.Printf("failed to record task %q; %v", task.ID, err)
	}
}

// resumePending picks up video and lip sync tasks an interrupted run
// submitted but never finished, so the provider work is not wasted
func (s *Service) resumePending(ctx context.Context) error {

	pending, err := s.rdb.PendingTasks(ctx)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	log.Printf("Resuming %d pending tasks...", len(pending))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.VideoWorkers)

	for _, task := range pending {
		group.Go(func() error {
			var err error
			switch task.Kind {
			case models.TaskVideo:
				err = s.finishVideo(groupCtx, task)
			case models.TaskLipSync:
				err = s.finishLipSync(groupCtx, task)
			default:
				return nil
			}
			if err != nil {
				log.Printf("failed to resume task %q; %v", task.ID, err)
			}
			return nil
		})
	}

	return group.Wait()
}

// Close releases the worker's connections
func (s *Service) Close() {
	if err := s.rdb.Close(); err != nil {
		log.Printf("failed to close the redis connection; %v", err)
	}
}

// stem returns a file's base name without its extension
func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
