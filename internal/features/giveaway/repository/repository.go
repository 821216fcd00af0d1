package repository

import (
	"context"
	"errors"

	"giveaway-engine/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrChannelNotFound  = errors.New("channel not found")
)

// GiveawayRepository is the record store consumed by the lifecycle engine.
// The engine only needs read/write primitives; richer queries belong to the
// admin-facing surfaces built on top.
type GiveawayRepository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	Update(ctx context.Context, giveaway *models.Giveaway) error
	Delete(ctx context.Context, id string) error

	// UpdateWinnersStats increments the cumulative win counter of each member.
	// Called once per selection run with the full winner delta.
	UpdateWinnersStats(ctx context.Context, members []models.GiveawayMember) error

	GetChannelByID(ctx context.Context, id int64) (*models.Channel, error)
	SaveChannel(ctx context.Context, channel *models.Channel) error
}
