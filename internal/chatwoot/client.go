// Package chatwoot is a minimal client for the Chatwoot application API:
// posting bot messages, flipping a conversation to a human, and updating the
// contact record. Calls are single-shot; there is no retry.
package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"greywaterbot/internal/domain"
	"greywaterbot/internal/metrics"
	"greywaterbot/internal/provider"
)

// ErrNotConfigured is returned by every call when the base URL or bot token
// is missing. Callers treat it as a skipped side effect.
var ErrNotConfigured = errors.New("chatwoot: url or bot token not configured")

// StatusOpen is the conversation status that means a human owns it.
const StatusOpen = "open"

// Client talks to one Chatwoot installation with an agent-bot token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds the connection settings for a Client.
type Config struct {
	URL      string
	BotToken string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// New creates a Client. An empty URL or token yields a client whose calls
// all return ErrNotConfigured.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.BotToken,
		client:  provider.SharedHTTPClient(cfg.Timeout),
		logger:  cfg.Logger,
	}
}

// Configured reports whether outbound calls will be attempted.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.token != ""
}

type messagePayload struct {
	Content           string             `json:"content"`
	MessageType       string             `json:"message_type"`
	Private           bool               `json:"private"`
	ContentType       domain.ContentType `json:"content_type,omitempty"`
	ContentAttributes *contentAttributes `json:"content_attributes,omitempty"`
}

type contentAttributes struct {
	Items any `json:"items"`
}

// SendMessage posts a public outgoing message. Quick replies and cards are
// carried in content_attributes.items. A cards message with no cards is
// not sent.
func (c *Client) SendMessage(ctx context.Context, accountID, conversationID int64, msg domain.OutboundMessage) error {
	p := messagePayload{
		Content:     msg.Text,
		MessageType: domain.MessageOutgoing,
		Private:     false,
		ContentType: msg.ContentType,
	}
	kind := "message"
	switch msg.ContentType {
	case domain.ContentQuickReplies:
		kind = "quick_replies"
		p.ContentAttributes = &contentAttributes{Items: msg.Options}
	case domain.ContentCards:
		kind = "cards"
		if len(msg.Cards) == 0 {
			return nil
		}
		p.ContentAttributes = &contentAttributes{Items: msg.Cards}
	}

	url := fmt.Sprintf("%s/messages", c.conversationURL(accountID, conversationID))
	return c.do(ctx, kind, http.MethodPost, url, p, nil)
}

// ToggleStatus sets the conversation status, e.g. StatusOpen to hand it to
// the human queue.
func (c *Client) ToggleStatus(ctx context.Context, accountID, conversationID int64, status string) error {
	url := fmt.Sprintf("%s/toggle_status", c.conversationURL(accountID, conversationID))
	return c.do(ctx, "toggle_status", http.MethodPost, url, map[string]string{"status": status}, nil)
}

// UpdateContact writes the non-empty fields of u onto the contact record.
func (c *Client) UpdateContact(ctx context.Context, accountID, contactID int64, u domain.ContactUpdate) error {
	body := map[string]string{}
	if u.Name != "" {
		body["name"] = u.Name
	}
	if u.Email != "" {
		body["email"] = u.Email
	}
	if u.Phone != "" {
		body["phone_number"] = u.Phone
	}
	url := fmt.Sprintf("%s/api/v1/accounts/%d/contacts/%d", c.baseURL, accountID, contactID)
	return c.do(ctx, "update_contact", http.MethodPut, url, body, nil)
}

// ConversationStatus fetches the current status ("open", "pending", ...)
// of a conversation.
func (c *Client) ConversationStatus(ctx context.Context, accountID, conversationID int64) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, "get_conversation", http.MethodGet, c.conversationURL(accountID, conversationID), nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) conversationURL(accountID, conversationID int64) string {
	return fmt.Sprintf("%s/api/v1/accounts/%d/conversations/%d", c.baseURL, accountID, conversationID)
}

func (c *Client) do(ctx context.Context, kind, method, url string, body, out any) error {
	if !c.Configured() {
		metrics.Dispatches.WithLabelValues(kind, "unconfigured").Inc()
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("chatwoot %s: marshal: %w", kind, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("chatwoot %s: new request: %w", kind, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("api_access_token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Dispatches.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("chatwoot %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.Dispatches.WithLabelValues(kind, "error").Inc()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("chatwoot %s %d: %s", kind, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	metrics.Dispatches.WithLabelValues(kind, "ok").Inc()

	c.logger.Debug("chatwoot call", "kind", kind, "status", resp.StatusCode)
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("chatwoot %s: decode: %w", kind, err)
		}
	}
	return nil
}
