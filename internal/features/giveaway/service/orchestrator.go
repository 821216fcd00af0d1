package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"giveaway-engine/internal/features/giveaway/models"
	"giveaway-engine/internal/features/scheduler"
	"giveaway-engine/internal/platform/telegram"
)

// Durable job actions owned by this service.
const (
	ActionPublish = "giveaway.publish"
	ActionEnd     = "giveaway.end"
)

const resultsButtonText = "🏆 Результаты"

type publishArgs struct {
	GiveawayID string `json:"giveaway_id"`
}

// endArgs carries the deadline value the end job was armed against. The store
// never cancels jobs physically; a rescheduled campaign is detected at fire
// time by comparing this value to the current deadline.
type endArgs struct {
	GiveawayID    string `json:"giveaway_id"`
	ArmedDeadline int64  `json:"armed_deadline"`
}

// RegisterHandlers binds the lifecycle actions to the scheduler. Must run
// before the scheduler starts so jobs persisted by a previous process run can
// fire after a restart.
func (s *Service) RegisterHandlers(sched *scheduler.Service) {
	sched.Register(ActionPublish, s.handleScheduledPublish)
	sched.Register(ActionEnd, s.handleScheduledEnd)
}

// ScheduleGiveaway arms the publish job and, for time-deadline campaigns, the
// end job. Member-threshold campaigns are closed by the enrollment path and
// never receive an end job here.
func (s *Service) ScheduleGiveaway(ctx context.Context, giveaway *models.Giveaway, skipPublishing bool) error {
	if !skipPublishing {
		err := s.sched.Schedule(ctx, ActionPublish, time.Unix(giveaway.PublishTime, 0), publishArgs{
			GiveawayID: giveaway.ID,
		})
		if err != nil {
			return fmt.Errorf("schedule publish: %w", err)
		}
	}

	switch giveaway.Deadline.Type {
	case models.DeadlineMembers:
		return nil
	case models.DeadlineTime:
		err := s.sched.Schedule(ctx, ActionEnd, time.Unix(giveaway.Deadline.Time, 0), endArgs{
			GiveawayID:    giveaway.ID,
			ArmedDeadline: giveaway.Deadline.Time,
		})
		if err != nil {
			return fmt.Errorf("schedule end: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", models.ErrUnknownDeadline, giveaway.Deadline.Type)
	}
}

func (s *Service) handleScheduledPublish(ctx context.Context, raw json.RawMessage) error {
	var args publishArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Errorf("decode publish args: %w", err)
	}

	giveaway, err := s.GetByID(ctx, args.GiveawayID)
	if errors.Is(err, ErrNotFound) {
		// deleted after scheduling, nothing to do
		return nil
	}
	if err != nil {
		return err
	}
	if giveaway.Status != models.GiveawayStatusWaiting {
		s.log.Debug().
			Str("giveaway_id", giveaway.ID).
			Str("status", string(giveaway.Status)).
			Msg("publish job fired for already published giveaway, skipping")
		return nil
	}
	return s.Publish(ctx, giveaway, false)
}

// handleScheduledEnd is the reconciliation point guarding against duplicate
// or stale end execution. The campaign is reloaded from the store and the
// job only proceeds when it still owns the closing: the record must exist,
// must not be ended already, must still close by time, and must close at the
// exact timestamp this job was armed with. A campaign rescheduled to a new
// time has a newer job armed for it; this one aborts silently.
func (s *Service) handleScheduledEnd(ctx context.Context, raw json.RawMessage) error {
	var args endArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Errorf("decode end args: %w", err)
	}

	giveaway, err := s.GetByID(ctx, args.GiveawayID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if giveaway.Status == models.GiveawayStatusEnd {
		s.log.Debug().
			Str("giveaway_id", giveaway.ID).
			Msg("end job fired for already ended giveaway, skipping")
		return nil
	}

	switch giveaway.Deadline.Type {
	case models.DeadlineMembers:
		// converted to a member-threshold campaign, the enrollment path owns it now
		return nil
	case models.DeadlineTime:
		if giveaway.Deadline.Time != args.ArmedDeadline {
			s.log.Debug().
				Str("giveaway_id", giveaway.ID).
				Int64("armed", args.ArmedDeadline).
				Int64("current", giveaway.Deadline.Time).
				Msg("end job is stale after reschedule, skipping")
			return nil
		}
	default:
		return fmt.Errorf("%w: %q", models.ErrUnknownDeadline, giveaway.Deadline.Type)
	}

	return s.endAndReport(ctx, giveaway)
}

// ForceEnd closes a campaign immediately on an administrator's request,
// skipping the staleness checks. Only the existence check holds.
func (s *Service) ForceEnd(ctx context.Context, id string) error {
	giveaway, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.endAndReport(ctx, giveaway)
}

// endAndReport runs the selection engine and delivers the placement report to
// the target channel with a results deep link. The report is computed before
// persistence, so a store failure after selection still delivers the report;
// the error is propagated rather than lost.
func (s *Service) endAndReport(ctx context.Context, giveaway *models.Giveaway) error {
	report, selErr := s.EndGiveaway(ctx, giveaway)
	if report == "" {
		return selErr
	}

	keyboard := telegram.SingleButton(telegram.InlineButton{
		Text: resultsButtonText,
		URL:  s.links.ResultsURL(giveaway.ID),
	})
	if _, err := s.chat.SendMessage(ctx, giveaway.SendToID, report, keyboard); err != nil {
		if selErr != nil {
			return errors.Join(selErr, fmt.Errorf("send placement report: %w", err))
		}
		return fmt.Errorf("send placement report: %w", err)
	}
	return selErr
}
