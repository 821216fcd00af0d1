package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"giveaway-engine/internal/common/logger"
	"giveaway-engine/internal/features/giveaway/models"
	"giveaway-engine/internal/features/giveaway/repository"
	"giveaway-engine/internal/platform/telegram"
	"giveaway-engine/internal/utils/deeplink"
	"giveaway-engine/internal/utils/random"
	"giveaway-engine/internal/utils/timeutil"
)

var ErrNotFound = errors.New("giveaway not found")

// ChatClient is the chat-platform surface the engine consumes. The concrete
// implementation lives in internal/platform/telegram.
type ChatClient interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (telegram.MemberStatus, error)
	CopyMessage(ctx context.Context, chatID, fromChatID, msgID int64, keyboard *telegram.InlineKeyboard) (int64, error)
	CopyMessages(ctx context.Context, chatID, fromChatID int64, msgIDs []int64) ([]int64, error)
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboard) (int64, error)
}

// JobScheduler arms durable one-shot jobs. Satisfied by the scheduler service.
type JobScheduler interface {
	Schedule(ctx context.Context, action string, runAt time.Time, args any) error
}

// Service owns the giveaway lifecycle: scheduling, publishing, winner
// selection and the end orchestration.
type Service struct {
	repo  repository.GiveawayRepository
	chat  ChatClient
	sched JobScheduler
	links *deeplink.Builder
	log   zerolog.Logger
}

func NewService(repo repository.GiveawayRepository, chat ChatClient, sched JobScheduler, links *deeplink.Builder) *Service {
	return &Service{
		repo:  repo,
		chat:  chat,
		sched: sched,
		links: links,
		log:   logger.Component("giveaway"),
	}
}

// GiveawayCreate is the admin-flow input for a new campaign.
type GiveawayCreate struct {
	ButtonText   string  `json:"button_text" binding:"required,min=1,max=64"`
	PreviewText  string  `json:"preview_text"`
	Admin        int64   `json:"admin" binding:"required"`
	Channels     []int64 `json:"channels"`
	SendToID     int64   `json:"send_to_id" binding:"required"`
	WinnersCount int     `json:"winners_count" binding:"required,min=1"`
	MsgIDs       []int64 `json:"msg_ids" binding:"required,min=1"`
	PublishTime  int64   `json:"publish_time"` // 0 = publish almost immediately
	EndType      string  `json:"end_type" binding:"required,oneof=time members"`
	EndTime      int64   `json:"end_time"`
	EndMembers   int     `json:"end_members"`
}

// Create builds a campaign record, persists it and arms its publish and end
// jobs. A zero publish time means "publish almost immediately".
func (s *Service) Create(ctx context.Context, input *GiveawayCreate) (*models.Giveaway, error) {
	if input.WinnersCount < 1 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidWinnersCount, input.WinnersCount)
	}

	id, err := random.ShortID()
	if err != nil {
		return nil, fmt.Errorf("generate giveaway id: %w", err)
	}

	var deadline models.Deadline
	switch models.DeadlineType(input.EndType) {
	case models.DeadlineTime:
		deadline = models.NewTimeDeadline(input.EndTime)
	case models.DeadlineMembers:
		deadline = models.NewMembersDeadline(input.EndMembers)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownDeadline, input.EndType)
	}

	publishTime := input.PublishTime
	if publishTime == 0 {
		publishTime = timeutil.Now() + 10
	}

	giveaway := &models.Giveaway{
		ID:           id,
		Created:      timeutil.Now(),
		PublishTime:  publishTime,
		ButtonText:   input.ButtonText,
		PreviewText:  input.PreviewText,
		Admin:        input.Admin,
		Channels:     input.Channels,
		SendToID:     input.SendToID,
		Members:      []models.GiveawayMember{},
		Status:       models.GiveawayStatusWaiting,
		Winners:      []models.GiveawayMember{},
		WinnersCount: input.WinnersCount,
		MsgIDs:       input.MsgIDs,
		Deadline:     deadline,
	}

	if err := s.repo.Create(ctx, giveaway); err != nil {
		return nil, fmt.Errorf("persist giveaway: %w", err)
	}
	if err := s.ScheduleGiveaway(ctx, giveaway, false); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("giveaway_id", giveaway.ID).
		Str("publish_at", timeutil.Format(giveaway.PublishTime)).
		Msg("giveaway created and scheduled")
	return giveaway, nil
}

// GetByID loads a campaign record.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrGiveawayNotFound) {
		return nil, ErrNotFound
	}
	return giveaway, err
}

// TestPublish posts the campaign preview back to the organizer's own chat.
func (s *Service) TestPublish(ctx context.Context, id string) error {
	giveaway, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.Publish(ctx, giveaway, true)
}

// AddWinnersByID draws up to n extra winners for an already ended campaign
// and returns the incremental placement report.
func (s *Service) AddWinnersByID(ctx context.Context, id string, n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("%w: %d", models.ErrInvalidWinnersCount, n)
	}

	giveaway, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.AddWinners(ctx, giveaway, n)
}

// RegisterChannel upserts the metadata record of a channel the engine posts
// to. The record carries the channel's public link, if any, so permalinks to
// published posts can be resolved later.
func (s *Service) RegisterChannel(ctx context.Context, channel *models.Channel) error {
	if err := s.repo.SaveChannel(ctx, channel); err != nil {
		return fmt.Errorf("persist channel %d: %w", channel.ID, err)
	}
	return nil
}

// MessageLink resolves the permalink of the published giveaway post. Returns
// "" for campaigns that are not published yet and for target channels with no
// stored record: the link is informational and its absence is not an error.
func (s *Service) MessageLink(ctx context.Context, giveaway *models.Giveaway) string {
	if giveaway.TopMsgID == nil {
		return ""
	}
	channel, err := s.repo.GetChannelByID(ctx, giveaway.SendToID)
	if errors.Is(err, repository.ErrChannelNotFound) {
		return ""
	}
	if err != nil {
		s.log.Warn().
			Err(err).
			Int64("channel_id", giveaway.SendToID).
			Msg("failed to load channel record for message link")
		return ""
	}
	return deeplink.MessageLink(channel, giveaway.TopMsgID)
}
