// Package deeplink builds t.me entry points for giveaways and permalinks for
// published messages.
package deeplink

import (
	"fmt"
	"strings"

	"giveaway-engine/internal/features/giveaway/models"
)

// Builder formats deep links for a specific mini-app bot.
type Builder struct {
	botUsername string
}

func NewBuilder(botUsername string) *Builder {
	return &Builder{botUsername: strings.TrimPrefix(botUsername, "@")}
}

// EntryURL is the mini-app start link participants follow to join a giveaway.
func (b *Builder) EntryURL(giveawayID string) string {
	return fmt.Sprintf("https://t.me/%s/start?startapp=%s", b.botUsername, giveawayID)
}

// ResultsURL is the mini-app link attached to the end-of-giveaway report.
func (b *Builder) ResultsURL(giveawayID string) string {
	return fmt.Sprintf("https://t.me/%s/start?startapp=giveaway_%s", b.botUsername, giveawayID)
}

// MessageLink builds a permalink to a message in the given channel, or ""
// when the message id is unknown. Private channels (no public link) use the
// internal numeric t.me/c form with the -100 prefix stripped.
func MessageLink(channel *models.Channel, topMsgID *int64) string {
	if topMsgID == nil {
		return ""
	}
	if channel.Link == nil {
		internal := strings.TrimPrefix(fmt.Sprintf("%d", channel.ID), "-100")
		return fmt.Sprintf("https://t.me/c/%s/%d", internal, *topMsgID)
	}
	return fmt.Sprintf("%s/%d", *channel.Link, *topMsgID)
}
