package deeplink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"giveaway-engine/internal/features/giveaway/models"
)

func TestEntryAndResultsURLs(t *testing.T) {
	b := NewBuilder("@iselectbot")
	assert.Equal(t, "https://t.me/iselectbot/start?startapp=abc123", b.EntryURL("abc123"))
	assert.Equal(t, "https://t.me/iselectbot/start?startapp=giveaway_abc123", b.ResultsURL("abc123"))
}

func TestMessageLinkPublicChannel(t *testing.T) {
	link := "https://t.me/mychannel"
	top := int64(55)
	ch := &models.Channel{ID: -1001234567890, ChannelName: "My Channel", Link: &link}
	assert.Equal(t, "https://t.me/mychannel/55", MessageLink(ch, &top))
}

func TestMessageLinkPrivateChannel(t *testing.T) {
	top := int64(55)
	ch := &models.Channel{ID: -1001234567890, ChannelName: "Private"}
	assert.Equal(t, "https://t.me/c/1234567890/55", MessageLink(ch, &top))
}

func TestMessageLinkWithoutPublishedMessage(t *testing.T) {
	ch := &models.Channel{ID: -1001234567890}
	assert.Empty(t, MessageLink(ch, nil))
}
