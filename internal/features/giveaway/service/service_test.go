package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-engine/internal/features/giveaway/models"
)

func TestCreateRejectsNonPositiveWinnersCount(t *testing.T) {
	repo := newFakeRepo()
	chat := newFakeChat()
	svc, sched := newTestService(repo, chat)

	input := &GiveawayCreate{
		ButtonText:   "Join",
		Admin:        42,
		SendToID:     -100333,
		WinnersCount: 0,
		MsgIDs:       []int64{10},
		EndType:      "members",
		EndMembers:   100,
	}

	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, models.ErrInvalidWinnersCount)
	assert.Empty(t, repo.giveaways, "nothing must be persisted")
	assert.Empty(t, sched.jobs, "nothing must be scheduled")
}

func TestAddWinnersByIDRejectsNonPositiveCount(t *testing.T) {
	repo := newFakeRepo()
	chat := newFakeChat()
	svc, _ := newTestService(repo, chat)

	g := testGiveaway()
	require.NoError(t, repo.Create(context.Background(), g))

	_, err := svc.AddWinnersByID(context.Background(), g.ID, 0)
	require.ErrorIs(t, err, models.ErrInvalidWinnersCount)
}

func TestMessageLinkForPrivateChannel(t *testing.T) {
	repo := newFakeRepo()
	chat := newFakeChat()
	svc, _ := newTestService(repo, chat)

	require.NoError(t, svc.RegisterChannel(context.Background(), &models.Channel{
		ID:          -1001234567,
		ChannelName: "prizes",
		Admin:       42,
	}))

	g := testGiveaway()
	g.SendToID = -1001234567
	topMsgID := int64(77)
	g.TopMsgID = &topMsgID

	assert.Equal(t, "https://t.me/c/1234567/77", svc.MessageLink(context.Background(), g))
}

func TestMessageLinkForPublicChannel(t *testing.T) {
	repo := newFakeRepo()
	chat := newFakeChat()
	svc, _ := newTestService(repo, chat)

	link := "https://t.me/prizes"
	require.NoError(t, svc.RegisterChannel(context.Background(), &models.Channel{
		ID:          -100333,
		ChannelName: "prizes",
		Admin:       42,
		Link:        &link,
	}))

	g := testGiveaway()
	topMsgID := int64(77)
	g.TopMsgID = &topMsgID

	assert.Equal(t, "https://t.me/prizes/77", svc.MessageLink(context.Background(), g))
}

func TestMessageLinkUnavailable(t *testing.T) {
	repo := newFakeRepo()
	chat := newFakeChat()
	svc, _ := newTestService(repo, chat)

	// not published yet
	g := testGiveaway()
	assert.Empty(t, svc.MessageLink(context.Background(), g))

	// published, but the target channel record was never registered
	topMsgID := int64(77)
	g.TopMsgID = &topMsgID
	assert.Empty(t, svc.MessageLink(context.Background(), g))
}
