package service

import (
	"context"
	"fmt"

	"giveaway-engine/internal/features/giveaway/models"
	"giveaway-engine/internal/platform/telegram"
)

// entryKeyboard builds the call-to-action button attached to the published
// control message. Test previews carry an inert callback button instead of
// the mini-app entry link.
func (s *Service) entryKeyboard(giveaway *models.Giveaway, test bool) *telegram.InlineKeyboard {
	if test {
		return telegram.SingleButton(telegram.InlineButton{
			Text:         giveaway.ButtonText,
			CallbackData: "magic",
		})
	}
	return telegram.SingleButton(telegram.InlineButton{
		Text: giveaway.ButtonText,
		URL:  s.links.EntryURL(giveaway.ID),
	})
}

// Publish replicates the campaign content from the organizer's chat. With a
// single source message one copy carries the entry button; otherwise all but
// the last message go out as a plain batch first and the last copy carries
// the button, so the button always sits at the bottom of the published set.
//
// Test mode posts back to the organizer and leaves the record untouched.
// Live mode posts to the target channel and only then records the control
// message id, advances the status and persists, so a failed send leaves the
// campaign in "waiting" and retryable.
func (s *Service) Publish(ctx context.Context, giveaway *models.Giveaway, test bool) error {
	if len(giveaway.MsgIDs) == 0 {
		return fmt.Errorf("giveaway %s has no source messages", giveaway.ID)
	}

	peer := giveaway.SendToID
	if test {
		peer = giveaway.Admin
	}

	keyboard := s.entryKeyboard(giveaway, test)
	last := giveaway.MsgIDs[len(giveaway.MsgIDs)-1]

	if len(giveaway.MsgIDs) > 1 {
		if _, err := s.chat.CopyMessages(ctx, peer, giveaway.Admin, giveaway.MsgIDs[:len(giveaway.MsgIDs)-1]); err != nil {
			return fmt.Errorf("copy message batch: %w", err)
		}
	}
	topMsgID, err := s.chat.CopyMessage(ctx, peer, giveaway.Admin, last, keyboard)
	if err != nil {
		return fmt.Errorf("copy control message: %w", err)
	}

	if test {
		return nil
	}

	giveaway.TopMsgID = &topMsgID
	giveaway.Status = models.GiveawayStatusStart
	if err := s.repo.Update(ctx, giveaway); err != nil {
		return fmt.Errorf("persist published giveaway: %w", err)
	}

	s.log.Info().
		Str("giveaway_id", giveaway.ID).
		Int64("channel_id", giveaway.SendToID).
		Int64("top_msg_id", topMsgID).
		Msg("giveaway published")
	return nil
}
