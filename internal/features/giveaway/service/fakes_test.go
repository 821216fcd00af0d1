package service

import (
	"context"
	"sync"
	"time"

	"giveaway-engine/internal/features/giveaway/models"
	"giveaway-engine/internal/features/giveaway/repository"
	"giveaway-engine/internal/platform/telegram"
)

// fakeRepo is an in-memory record store.
type fakeRepo struct {
	mu        sync.Mutex
	giveaways map[string]*models.Giveaway
	channels  map[int64]*models.Channel
	winsStats map[int64]int
	updateErr error

	updateCalls int
	statsCalls  [][]models.GiveawayMember
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		giveaways: make(map[string]*models.Giveaway),
		channels:  make(map[int64]*models.Channel),
		winsStats: make(map[int64]int),
	}
}

func (r *fakeRepo) Create(ctx context.Context, g *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	r.giveaways[g.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.giveaways[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeRepo) Update(ctx context.Context, g *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	cp := *g
	r.giveaways[g.ID] = &cp
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.giveaways, id)
	return nil
}

func (r *fakeRepo) UpdateWinnersStats(ctx context.Context, members []models.GiveawayMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsCalls = append(r.statsCalls, members)
	for _, m := range members {
		r.winsStats[m.ID]++
	}
	return nil
}

func (r *fakeRepo) GetChannelByID(ctx context.Context, id int64) (*models.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[id]
	if !ok {
		return nil, repository.ErrChannelNotFound
	}
	return ch, nil
}

func (r *fakeRepo) SaveChannel(ctx context.Context, ch *models.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.ID] = ch
	return nil
}

type copiedMessage struct {
	ChatID   int64
	From     int64
	MsgID    int64
	Keyboard *telegram.InlineKeyboard
}

type copiedBatch struct {
	ChatID int64
	From   int64
	MsgIDs []int64
}

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *telegram.InlineKeyboard
}

// fakeChat implements ChatClient. Memberships are keyed by channel then user;
// channels listed in forbidden yield ErrForbidden on any check.
type fakeChat struct {
	mu          sync.Mutex
	memberships map[int64]map[int64]telegram.MemberStatus
	forbidden   map[int64]bool
	checkErr    error
	copyErr     error
	sendErr     error

	nextMsgID int64
	copies    []copiedMessage
	batches   []copiedBatch
	sent      []sentMessage
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		memberships: make(map[int64]map[int64]telegram.MemberStatus),
		forbidden:   make(map[int64]bool),
		nextMsgID:   1000,
	}
}

func (c *fakeChat) setMember(chatID, userID int64, status telegram.MemberStatus) {
	if c.memberships[chatID] == nil {
		c.memberships[chatID] = make(map[int64]telegram.MemberStatus)
	}
	c.memberships[chatID][userID] = status
}

// subscribeAll marks every given user as a member of every given channel.
func (c *fakeChat) subscribeAll(chatIDs []int64, userIDs ...int64) {
	for _, chatID := range chatIDs {
		for _, userID := range userIDs {
			c.setMember(chatID, userID, telegram.MemberStatusMember)
		}
	}
}

func (c *fakeChat) GetChatMember(ctx context.Context, chatID, userID int64) (telegram.MemberStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checkErr != nil {
		return "", c.checkErr
	}
	if c.forbidden[chatID] {
		return "", telegram.ErrForbidden
	}
	status, ok := c.memberships[chatID][userID]
	if !ok {
		return telegram.MemberStatusLeft, nil
	}
	return status, nil
}

func (c *fakeChat) CopyMessage(ctx context.Context, chatID, fromChatID, msgID int64, keyboard *telegram.InlineKeyboard) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.copyErr != nil {
		return 0, c.copyErr
	}
	c.nextMsgID++
	c.copies = append(c.copies, copiedMessage{ChatID: chatID, From: fromChatID, MsgID: msgID, Keyboard: keyboard})
	return c.nextMsgID, nil
}

func (c *fakeChat) CopyMessages(ctx context.Context, chatID, fromChatID int64, msgIDs []int64) ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.copyErr != nil {
		return nil, c.copyErr
	}
	sent := make([]int64, len(msgIDs))
	for i := range msgIDs {
		c.nextMsgID++
		sent[i] = c.nextMsgID
	}
	c.batches = append(c.batches, copiedBatch{ChatID: chatID, From: fromChatID, MsgIDs: msgIDs})
	return sent, nil
}

func (c *fakeChat) SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboard) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return 0, c.sendErr
	}
	c.nextMsgID++
	c.sent = append(c.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return c.nextMsgID, nil
}

type scheduledJob struct {
	Action string
	RunAt  time.Time
	Args   any
}

// fakeScheduler records armed jobs without firing them.
type fakeScheduler struct {
	mu   sync.Mutex
	jobs []scheduledJob
	err  error
}

func (s *fakeScheduler) Schedule(ctx context.Context, action string, runAt time.Time, args any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, scheduledJob{Action: action, RunAt: runAt, Args: args})
	return nil
}
