package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrForbidden is returned when the bot account has no access to a chat,
// typically because it was removed as an admin there. Callers that perform
// membership checks treat this as "no visibility", not as a failure.
var ErrForbidden = errors.New("telegram: forbidden")

// MemberStatus is the membership standing of a user in a chat.
type MemberStatus string

const (
	MemberStatusCreator       MemberStatus = "creator"
	MemberStatusAdministrator MemberStatus = "administrator"
	MemberStatusMember        MemberStatus = "member"
	MemberStatusRestricted    MemberStatus = "restricted"
	MemberStatusLeft          MemberStatus = "left"
	MemberStatusKicked        MemberStatus = "kicked"
)

// Subscribed reports whether the status counts as being in the chat.
func (s MemberStatus) Subscribed() bool {
	switch s {
	case MemberStatusCreator, MemberStatusAdministrator, MemberStatusMember:
		return true
	}
	return false
}

// InlineButton is a single inline keyboard button. Exactly one of URL or
// CallbackData should be set.
type InlineButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InlineKeyboard is a reply_markup payload with one button per row.
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// SingleButton builds a one-button keyboard.
func SingleButton(b InlineButton) *InlineKeyboard {
	return &InlineKeyboard{InlineKeyboard: [][]InlineButton{{b}}}
}

// Client is a minimal Telegram Bot API client covering the calls the
// giveaway engine makes: membership checks, message replication and reports.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient builds a client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.telegram.org",
		token:      token,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type tgResponse[T any] struct {
	Ok          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Result      T      `json:"result"`
}

type chatMember struct {
	Status MemberStatus `json:"status"`
}

type messageID struct {
	MessageID int64 `json:"message_id"`
}

// GetChatMember fetches the membership status of a user in a chat. Returns
// ErrForbidden when the bot has no visibility into the chat.
func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (MemberStatus, error) {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	}
	var result tgResponse[chatMember]
	if err := c.call(ctx, "getChatMember", params, &result); err != nil {
		return "", err
	}
	return result.Result.Status, nil
}

// CopyMessage copies a single message and returns the new message id. A
// non-nil keyboard is attached to the copy.
func (c *Client) CopyMessage(ctx context.Context, chatID, fromChatID, msgID int64, keyboard *InlineKeyboard) (int64, error) {
	params := url.Values{
		"chat_id":      {strconv.FormatInt(chatID, 10)},
		"from_chat_id": {strconv.FormatInt(fromChatID, 10)},
		"message_id":   {strconv.FormatInt(msgID, 10)},
	}
	if keyboard != nil {
		markup, err := json.Marshal(keyboard)
		if err != nil {
			return 0, fmt.Errorf("marshal reply markup: %w", err)
		}
		params.Set("reply_markup", string(markup))
	}
	var result tgResponse[messageID]
	if err := c.call(ctx, "copyMessage", params, &result); err != nil {
		return 0, err
	}
	return result.Result.MessageID, nil
}

// CopyMessages copies a batch of messages preserving their order and returns
// the new message ids. Captions are dropped so the batch stays plain content.
func (c *Client) CopyMessages(ctx context.Context, chatID, fromChatID int64, msgIDs []int64) ([]int64, error) {
	ids := make([]string, len(msgIDs))
	for i, id := range msgIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	params := url.Values{
		"chat_id":        {strconv.FormatInt(chatID, 10)},
		"from_chat_id":   {strconv.FormatInt(fromChatID, 10)},
		"message_ids":    {"[" + strings.Join(ids, ",") + "]"},
		"remove_caption": {"true"},
	}
	var result tgResponse[[]messageID]
	if err := c.call(ctx, "copyMessages", params, &result); err != nil {
		return nil, err
	}
	sent := make([]int64, len(result.Result))
	for i, m := range result.Result {
		sent[i] = m.MessageID
	}
	return sent, nil
}

// SendMessage sends a Markdown-formatted text message with an optional
// inline keyboard and returns the new message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboard) (int64, error) {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"text":       {text},
		"parse_mode": {"Markdown"},
	}
	if keyboard != nil {
		markup, err := json.Marshal(keyboard)
		if err != nil {
			return 0, fmt.Errorf("marshal reply markup: %w", err)
		}
		params.Set("reply_markup", string(markup))
	}
	var result tgResponse[messageID]
	if err := c.call(ctx, "sendMessage", params, &result); err != nil {
		return 0, err
	}
	return result.Result.MessageID, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var probe struct {
		Ok          bool   `json:"ok"`
		ErrorCode   int    `json:"error_code"`
		Description string `json:"description"`
	}
	dec := json.NewDecoder(resp.Body)
	raw := json.RawMessage{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !probe.Ok {
		if probe.ErrorCode == http.StatusForbidden {
			return fmt.Errorf("%s: %w: %s", method, ErrForbidden, probe.Description)
		}
		return fmt.Errorf("%s: telegram API error %d: %s", method, probe.ErrorCode, probe.Description)
	}
	return json.Unmarshal(raw, out)
}
