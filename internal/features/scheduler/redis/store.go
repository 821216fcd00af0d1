// Package redis implements the durable job store on a Redis sorted set. The
// schedule lives in a ZSET scored by run time; payloads live in a companion
// hash. Claiming removes the schedule entry with ZREM, which succeeds for
// exactly one caller, so concurrent schedulers against the same store never
// both run the same job.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	go_redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"giveaway-engine/internal/common/logger"
	"giveaway-engine/internal/features/scheduler"
	"giveaway-engine/internal/platform/redis"
)

const (
	keySchedule = "scheduler:jobs"
	keyPayloads = "scheduler:payloads"
)

type jobStore struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewJobStore(client *redis.Client) scheduler.JobStore {
	return &jobStore{
		client: client,
		log:    logger.Component("scheduler.store"),
	}
}

func (s *jobStore) Add(ctx context.Context, job scheduler.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, keyPayloads, job.ID, data)
	pipe.ZAdd(ctx, keySchedule, go_redis.Z{
		Score:  float64(job.RunAt),
		Member: job.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist job: %w", err)
	}
	return nil
}

func (s *jobStore) ClaimDue(ctx context.Context, now int64, limit int) ([]scheduler.Job, error) {
	ids, err := s.client.ZRangeByScore(ctx, keySchedule, &go_redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now, 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range due jobs: %w", err)
	}

	var claimed []scheduler.Job
	for _, id := range ids {
		// ZREM succeeds for exactly one claimant; losing the race means
		// another scheduler owns this job.
		removed, err := s.client.ZRem(ctx, keySchedule, id).Result()
		if err != nil {
			return claimed, fmt.Errorf("failed to claim job %s: %w", id, err)
		}
		if removed == 0 {
			continue
		}

		data, err := s.client.HGet(ctx, keyPayloads, id).Bytes()
		if err == go_redis.Nil {
			return claimed, fmt.Errorf("job %s: %w", id, scheduler.ErrJobNotFound)
		}
		if err != nil {
			return claimed, fmt.Errorf("failed to load job %s: %w", id, err)
		}
		// The job is already claimed at this point; a failed payload delete
		// only leaks the hash entry, so it is logged rather than propagated.
		if err := s.client.HDel(ctx, keyPayloads, id).Err(); err != nil {
			s.log.Error().Err(err).Str("job_id", id).Msg("failed to delete claimed job payload")
		}

		var job scheduler.Job
		if err := json.Unmarshal(data, &job); err != nil {
			return claimed, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
		}
		claimed = append(claimed, job)
	}
	return claimed, nil
}
