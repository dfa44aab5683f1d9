package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hificopy/formflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ProgressStore implements ports.ProgressStore using Redis.
// Each form keeps a sorted set of session ids scored by last update, so
// expired sessions are trimmed lazily on List.
type ProgressStore struct {
	store *Store
}

func (p *ProgressStore) key(formID, sessionID string) string {
	return p.store.prefix + "progress:" + formID + ":" + sessionID
}

func (p *ProgressStore) index(formID string) string {
	return p.store.prefix + "progress:" + formID + ":index"
}

func (p *ProgressStore) Save(ctx context.Context, progress *domain.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	client := p.store.client
	pipe := client.TxPipeline()
	pipe.Set(ctx, p.key(progress.FormID, progress.SessionID), data, p.store.ttl)
	pipe.ZAdd(ctx, p.index(progress.FormID), backend.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: progress.SessionID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save progress to redis: %w", err)
	}
	return nil
}

func (p *ProgressStore) Load(ctx context.Context, formID, sessionID string) (*domain.Progress, error) {
	data, err := p.store.client.Get(ctx, p.key(formID, sessionID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress from redis: %w", err)
	}

	var progress domain.Progress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	if progress.Answers == nil {
		progress.Answers = domain.Answers{}
	}
	return &progress, nil
}

func (p *ProgressStore) Delete(ctx context.Context, formID, sessionID string) error {
	pipe := p.store.client.TxPipeline()
	pipe.Del(ctx, p.key(formID, sessionID))
	pipe.ZRem(ctx, p.index(formID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete progress from redis: %w", err)
	}
	return nil
}

func (p *ProgressStore) List(ctx context.Context, formID string) ([]string, error) {
	client := p.store.client
	if ttl := p.store.ttl; ttl > 0 {
		cutoff := time.Now().Add(-ttl).UnixMilli()
		if err := client.ZRemRangeByScore(ctx, p.index(formID), "-inf", "("+strconv.FormatInt(cutoff, 10)).Err(); err != nil {
			return nil, fmt.Errorf("failed to trim progress index: %w", err)
		}
	}

	ids, err := client.ZRange(ctx, p.index(formID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
