package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	go_redis "github.com/redis/go-redis/v9"

	"giveaway-engine/internal/features/giveaway/models"
	"giveaway-engine/internal/features/giveaway/repository"
	"giveaway-engine/internal/platform/redis"
)

const (
	keyPrefixGiveaway = "giveaway:"
	keyPrefixChannel  = "channel:"
	keyWinnersStats   = "stats:wins"
)

type redisRepository struct {
	client *redis.Client
}

func NewGiveawayRepository(client *redis.Client) repository.GiveawayRepository {
	return &redisRepository{client: client}
}

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func makeChannelKey(id int64) string {
	return keyPrefixChannel + strconv.FormatInt(id, 10)
}

func (r *redisRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}
	return r.client.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0).Err()
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if err == go_redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var giveaway models.Giveaway
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, err
	}
	return &giveaway, nil
}

func (r *redisRepository) Update(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}
	return r.client.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0).Err()
}

func (r *redisRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, makeGiveawayKey(id)).Err()
}

func (r *redisRepository) UpdateWinnersStats(ctx context.Context, members []models.GiveawayMember) error {
	if len(members) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, m := range members {
		pipe.HIncrBy(ctx, keyWinnersStats, strconv.FormatInt(m.ID, 10), 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update winners stats: %w", err)
	}
	return nil
}

func (r *redisRepository) GetChannelByID(ctx context.Context, id int64) (*models.Channel, error) {
	data, err := r.client.Get(ctx, makeChannelKey(id)).Bytes()
	if err == go_redis.Nil {
		return nil, repository.ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}

	var channel models.Channel
	if err := json.Unmarshal(data, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *redisRepository) SaveChannel(ctx context.Context, channel *models.Channel) error {
	data, err := json.Marshal(channel)
	if err != nil {
		return fmt.Errorf("failed to marshal channel: %w", err)
	}
	return r.client.Set(ctx, makeChannelKey(channel.ID), data, 0).Err()
}
