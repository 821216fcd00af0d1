package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidWinnersCount = errors.New("winners count must be positive")
	ErrUnknownDeadline     = errors.New("unknown deadline type")
)

// GiveawayStatus represents the lifecycle state of a giveaway.
// Transitions are monotonic: waiting -> start -> end.
type GiveawayStatus string

const (
	GiveawayStatusWaiting GiveawayStatus = "waiting" // created, not yet published
	GiveawayStatusStart   GiveawayStatus = "start"   // published, accepting participants
	GiveawayStatusEnd     GiveawayStatus = "end"     // closed, winners selected
)

// DeadlineType discriminates the two ways a giveaway can close.
type DeadlineType string

const (
	DeadlineTime    DeadlineType = "time"    // closes at a fixed wall-clock time
	DeadlineMembers DeadlineType = "members" // closes once enough members joined
)

// Deadline is a tagged union: exactly one of Time or Members is meaningful,
// selected by Type. Every site that branches on it must switch exhaustively
// over both kinds.
type Deadline struct {
	Type    DeadlineType
	Time    int64 // epoch seconds, valid when Type == DeadlineTime
	Members int   // participant threshold, valid when Type == DeadlineMembers
}

// NewTimeDeadline returns a deadline closing at the given epoch time.
func NewTimeDeadline(at int64) Deadline {
	return Deadline{Type: DeadlineTime, Time: at}
}

// NewMembersDeadline returns a deadline closing at the given member threshold.
func NewMembersDeadline(threshold int) Deadline {
	return Deadline{Type: DeadlineMembers, Members: threshold}
}

// MarshalJSON implements json.Marshaler. Only the field matching the tag is
// written, so stored records stay in the same shape external tooling expects.
func (d Deadline) MarshalJSON() ([]byte, error) {
	switch d.Type {
	case DeadlineTime:
		return json.Marshal(struct {
			Type DeadlineType `json:"type"`
			Time int64        `json:"time"`
		}{d.Type, d.Time})
	case DeadlineMembers:
		return json.Marshal(struct {
			Type    DeadlineType `json:"type"`
			Members int          `json:"members"`
		}{d.Type, d.Members})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDeadline, d.Type)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Deadline) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    DeadlineType `json:"type"`
		Time    int64        `json:"time"`
		Members int          `json:"members"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case DeadlineTime:
		*d = Deadline{Type: DeadlineTime, Time: raw.Time}
	case DeadlineMembers:
		*d = Deadline{Type: DeadlineMembers, Members: raw.Members}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDeadline, raw.Type)
	}
	return nil
}

// GiveawayMember is a participant. Identity is the Telegram user ID; two
// members with the same ID are the same member regardless of name.
type GiveawayMember struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Giveaway represents one scheduled promotional draw.
type Giveaway struct {
	ID           string           `json:"id"`
	Created      int64            `json:"created"`      // epoch seconds
	PublishTime  int64            `json:"publish_time"` // epoch seconds
	ButtonText   string           `json:"button_text"`
	Admin        int64            `json:"admin"` // organizer chat, source of msg_ids
	Channels     []int64          `json:"channels"`
	SendToID     int64            `json:"send_to_id"`
	Members      []GiveawayMember `json:"members"`
	Status       GiveawayStatus   `json:"status"`
	Winners      []GiveawayMember `json:"winners"` // insertion order = placement
	WinnersCount int              `json:"winners_count"`
	MsgIDs       []int64          `json:"msg_ids"` // last one carries the entry button
	Deadline     Deadline         `json:"deadline"`
	TopMsgID     *int64           `json:"top_msg_id"` // published control message, nil until live publish
	PreviewText  string           `json:"preview_text"`
}

// RequiredChannels returns the set of channels a participant must be in:
// the explicit requirement list plus the target channel itself, de-duplicated.
func (g *Giveaway) RequiredChannels() []int64 {
	seen := make(map[int64]struct{}, len(g.Channels)+1)
	out := make([]int64, 0, len(g.Channels)+1)
	for _, id := range append(append([]int64{}, g.Channels...), g.SendToID) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Channel is a membership target known to the bot. Link is nil for private
// channels, which forces the t.me/c permalink form at display time.
type Channel struct {
	ID          int64   `json:"id"`
	ChannelName string  `json:"channel_name"`
	Admin       int64   `json:"admin"`
	Link        *string `json:"link"`
}
