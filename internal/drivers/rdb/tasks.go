package rdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vlatan/anime-studio/internal/models"
)

const taskPrefix = "task:"

// SaveTask stores a provider task as JSON under its id, with a TTL,
// so an interrupted batch run can resume polling it.
func (rs *Service) SaveTask(ctx context.Context, ttl time.Duration, task *models.Task) error {

	if task == nil || task.ID == "" {
		return fmt.Errorf("no task or task id provided")
	}

	now := time.Now().UTC()
	if task.CreatedAt == nil {
		task.CreatedAt = &now
	}
	task.UpdatedAt = &now

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("couldn't encode task '%s': %w", task.ID, err)
	}

	return rs.Client.Set(ctx, taskPrefix+task.ID, data, ttl).Err()
}

// GetTask fetches a stored task by provider id.
// A missing task is not an error, it returns nil.
func (rs *Service) GetTask(ctx context.Context, id string) (*models.Task, error) {

	data, err := rs.Client.Get(ctx, taskPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("couldn't fetch task '%s': %w", id, err)
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("couldn't decode task '%s': %w", id, err)
	}

	return &task, nil
}

// PendingTasks returns the stored tasks not yet in a terminal status
func (rs *Service) PendingTasks(ctx context.Context) ([]*models.Task, error) {

	var (
		cursor  uint64
		pending []*models.Task
	)

	for {
		keys, next, err := rs.Client.Scan(ctx, cursor, taskPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("couldn't scan tasks: %w", err)
		}

		for _, key := range keys {
			task, err := rs.GetTask(ctx, key[len(taskPrefix):])
			if err != nil || task == nil {
				continue // expired between scan and get
			}

			if !task.Done() {
				pending = append(pending, task)
			}
		}

		cursor = next
		if cursor == 0 {
			return pending, nil
		}
	}
}
