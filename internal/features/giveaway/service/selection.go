package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"giveaway-engine/internal/features/giveaway/models"
	"giveaway-engine/internal/platform/telegram"
	"giveaway-engine/internal/utils/random"
)

const (
	reportCompletedHeader  = "🎉 Розыгрыш завершен! Победители:\n\n"
	reportAdditionalHeader = "🎉 Дополнительные победители:\n\n"
	reportNoAdditional     = "Не нашлось участников, выполнивших условия розыгрыша, " +
		"дополнительных победителей нет!"
)

// checkConditions reports whether the member is still subscribed to every
// channel the campaign requires, the target channel included. A forbidden
// response means the bot lost visibility into that channel; the channel is
// skipped rather than treated as a failed condition, so losing admin rights
// somewhere never disqualifies the whole participant pool.
func (s *Service) checkConditions(ctx context.Context, memberID int64, giveaway *models.Giveaway) (bool, error) {
	for _, channelID := range giveaway.RequiredChannels() {
		status, err := s.chat.GetChatMember(ctx, channelID, memberID)
		if errors.Is(err, telegram.ErrForbidden) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("check member %d in channel %d: %w", memberID, channelID, err)
		}
		if !status.Subscribed() {
			return false, nil
		}
	}
	return true, nil
}

// EndGiveaway selects winners and closes the campaign. Members are shuffled
// uniformly; winners already present on the record are kept and appended to,
// and selection stops once WinnersCount is reached. The placement report is
// built before any write, so a store failure still leaves the caller with a
// report to deliver; in that case the report is returned together with the
// error.
func (s *Service) EndGiveaway(ctx context.Context, giveaway *models.Giveaway) (string, error) {
	candidates := append([]models.GiveawayMember{}, giveaway.Members...)
	if err := random.Shuffle(candidates); err != nil {
		return "", fmt.Errorf("shuffle members: %w", err)
	}

	approved := append([]models.GiveawayMember{}, giveaway.Winners...)
	selected := make(map[int64]struct{}, len(approved))
	for _, w := range approved {
		selected[w.ID] = struct{}{}
	}

	for _, member := range candidates {
		if len(approved) >= giveaway.WinnersCount {
			break
		}
		if _, ok := selected[member.ID]; ok {
			continue
		}
		eligible, err := s.checkConditions(ctx, member.ID, giveaway)
		if err != nil {
			return "", err
		}
		if !eligible {
			continue
		}
		approved = append(approved, member)
		selected[member.ID] = struct{}{}
	}

	giveaway.Status = models.GiveawayStatusEnd
	giveaway.Winners = approved
	report := formatPlacements(reportCompletedHeader, approved)

	if err := s.repo.Update(ctx, giveaway); err != nil {
		return report, fmt.Errorf("persist ended giveaway: %w", err)
	}
	if err := s.repo.UpdateWinnersStats(ctx, approved); err != nil {
		return report, fmt.Errorf("persist winners stats: %w", err)
	}

	s.log.Info().
		Str("giveaway_id", giveaway.ID).
		Int("winners", len(approved)).
		Int("members", len(giveaway.Members)).
		Msg("giveaway ended")
	return report, nil
}

// AddWinners draws up to n additional winners from the members that have not
// won yet. Existing winners are never replaced; the returned report covers
// only the increment and restarts placement numbering at 1. When nobody in
// the remaining pool passes the membership check the record is left untouched
// and a distinct no-additional-winners message is returned.
func (s *Service) AddWinners(ctx context.Context, giveaway *models.Giveaway, n int) (string, error) {
	won := make(map[int64]struct{}, len(giveaway.Winners))
	for _, w := range giveaway.Winners {
		won[w.ID] = struct{}{}
	}

	var pool []models.GiveawayMember
	for _, m := range giveaway.Members {
		if _, ok := won[m.ID]; !ok {
			pool = append(pool, m)
		}
	}
	if err := random.Shuffle(pool); err != nil {
		return "", fmt.Errorf("shuffle members: %w", err)
	}

	var added []models.GiveawayMember
	for _, member := range pool {
		if len(added) >= n {
			break
		}
		if _, ok := won[member.ID]; ok {
			continue
		}
		eligible, err := s.checkConditions(ctx, member.ID, giveaway)
		if err != nil {
			return "", err
		}
		if eligible {
			added = append(added, member)
			won[member.ID] = struct{}{}
		}
	}

	if len(added) == 0 {
		return reportNoAdditional, nil
	}

	giveaway.Winners = append(giveaway.Winners, added...)
	report := formatPlacements(reportAdditionalHeader, added)

	if err := s.repo.Update(ctx, giveaway); err != nil {
		return report, fmt.Errorf("persist giveaway: %w", err)
	}
	if err := s.repo.UpdateWinnersStats(ctx, added); err != nil {
		return report, fmt.Errorf("persist winners stats: %w", err)
	}

	s.log.Info().
		Str("giveaway_id", giveaway.ID).
		Int("added", len(added)).
		Msg("additional winners selected")
	return report, nil
}

// formatPlacements renders the 1-indexed placement list with a mention link
// per winner, trimmed of trailing whitespace.
func formatPlacements(header string, winners []models.GiveawayMember) string {
	var b strings.Builder
	b.WriteString(header)
	for place, winner := range winners {
		fmt.Fprintf(&b, "%d. %s ([%d](tg://user?id=%d))\n", place+1, winner.Name, winner.ID, winner.ID)
	}
	return strings.TrimSpace(b.String())
}
