// Package agent routes Chatwoot webhook events. Each event is classified in
// a fixed order, first match wins, and ends in exactly one Status. Replies,
// cards, and handoffs are sent through the Outbound client; send failures
// are logged and dropped.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"greywaterbot/internal/chatwoot"
	"greywaterbot/internal/contact"
	"greywaterbot/internal/domain"
	"greywaterbot/internal/handoff"
	"greywaterbot/internal/metrics"
	"greywaterbot/internal/responder"
)

const (
	defaultCardDelay               = 800 * time.Millisecond
	defaultFollowupDelay           = 1500 * time.Millisecond
	defaultFollowupAfterCardsDelay = 2500 * time.Millisecond
)

// Outbound is the subset of the Chatwoot API the router drives.
type Outbound interface {
	SendMessage(ctx context.Context, accountID, conversationID int64, msg domain.OutboundMessage) error
	ToggleStatus(ctx context.Context, accountID, conversationID int64, status string) error
	UpdateContact(ctx context.Context, accountID, contactID int64, u domain.ContactUpdate) error
	ConversationStatus(ctx context.Context, accountID, conversationID int64) (string, error)
}

// Composer produces the reply text and cards for a customer message.
type Composer interface {
	Compose(ctx context.Context, message string) responder.Reply
}

// Agent classifies webhook events and performs their side effects.
type Agent struct {
	outbound  Outbound
	composer  Composer
	state     *handoff.State
	scheduler Scheduler
	logger    *slog.Logger

	checkRemoteStatus       bool
	cardDelay               time.Duration
	followupDelay           time.Duration
	followupAfterCardsDelay time.Duration
}

// Config holds the dependencies and dispatch timing for an Agent.
type Config struct {
	Outbound  Outbound
	Composer  Composer
	State     *handoff.State // nil means a fresh in-memory state
	Scheduler Scheduler      // nil means runtime timers
	Logger    *slog.Logger

	// CheckRemoteStatus asks Chatwoot for the conversation status when the
	// payload does not already say it is open.
	CheckRemoteStatus bool

	CardDelay               time.Duration
	FollowupDelay           time.Duration
	FollowupAfterCardsDelay time.Duration
}

func New(cfg Config) *Agent {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.State == nil {
		cfg.State = handoff.NewMemoryState()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewTimerScheduler(cfg.Logger)
	}
	if cfg.CardDelay <= 0 {
		cfg.CardDelay = defaultCardDelay
	}
	if cfg.FollowupDelay <= 0 {
		cfg.FollowupDelay = defaultFollowupDelay
	}
	if cfg.FollowupAfterCardsDelay <= 0 {
		cfg.FollowupAfterCardsDelay = defaultFollowupAfterCardsDelay
	}
	return &Agent{
		outbound:                cfg.Outbound,
		composer:                cfg.Composer,
		state:                   cfg.State,
		scheduler:               cfg.Scheduler,
		logger:                  cfg.Logger,
		checkRemoteStatus:       cfg.CheckRemoteStatus,
		cardDelay:               cfg.CardDelay,
		followupDelay:           cfg.FollowupDelay,
		followupAfterCardsDelay: cfg.FollowupAfterCardsDelay,
	}
}

// Handle classifies e and performs its side effects. An error means the
// payload could not be processed at all; outbound send failures never
// surface here.
func (a *Agent) Handle(ctx context.Context, e *domain.InboundEvent) (Status, error) {
	if e == nil || e.Event == "" {
		return "", fmt.Errorf("%w: missing event name", ErrInvalidPayload)
	}

	switch e.Event {
	case domain.EventConversationCreated:
		// No welcome: this fires on the customer's first message, not on widget open.
		return StatusConversationCreated, nil

	case domain.EventConversationAssigned:
		if err := requireConversation(e); err != nil {
			return "", err
		}
		assignee := e.Assignee
		if assignee == nil && e.Meta != nil {
			assignee = e.Meta.Assignee
		}
		if !assignee.IsHuman() {
			return StatusConversationAssigned, nil
		}
		return a.humanJoined(ctx, e, assignee.Name, "assignment", StatusConversationAssigned)

	case domain.EventConversationUpdated:
		if err := requireConversation(e); err != nil {
			return "", err
		}
		var assignee *domain.Assignee
		if e.Meta != nil {
			assignee = e.Meta.Assignee
		}
		if !assignee.IsHuman() {
			return StatusConversationUpdated, nil
		}
		return a.humanJoined(ctx, e, assignee.Name, "assignment", StatusConversationUpdated)

	case domain.EventMessageCreated:
		if err := requireConversation(e); err != nil {
			return "", err
		}
		return a.handleMessage(ctx, e)
	}

	a.logger.Debug("ignoring event", "event", e.Event)
	return StatusIgnored, nil
}

func (a *Agent) handleMessage(ctx context.Context, e *domain.InboundEvent) (Status, error) {
	convID, accountID := e.ConversationID(), e.AccountID()
	senderType := ""
	if e.Sender != nil {
		senderType = e.Sender.Type
	}

	// A human agent typing in the conversation.
	if e.MessageType == domain.MessageOutgoing && senderType == "user" {
		if _, err := a.humanJoined(ctx, e, e.Sender.Name, "agent_message", StatusHumanAgentMessage); err != nil {
			return "", err
		}
		return StatusHumanAgentMessage, nil
	}

	if !fromContact(e.MessageType, senderType) {
		return StatusIgnored, nil
	}

	open, err := a.humanOwns(ctx, e)
	if err != nil {
		return "", err
	}
	if open {
		a.logger.Info("conversation handled by a human", "conversation_id", convID)
		return StatusHumanHandling, nil
	}

	text := contact.StripHTML(e.Content)

	// Contact details win over every other heuristic, including the
	// human-request phrases.
	if info, ok := contact.ExtractContactInfo(text); ok {
		return a.handoffWithContact(ctx, e, info)
	}

	if text == "" {
		return StatusIgnored, nil
	}

	if contact.WantsHuman(text) {
		a.send(ctx, accountID, convID, domain.OutboundMessage{Text: contactRequestText})
		return StatusContactInfoRequested, nil
	}

	a.answer(ctx, e, text)
	return StatusSuccess, nil
}

// fromContact reports whether a message was written by the customer.
func fromContact(messageType, senderType string) bool {
	if messageType != domain.MessageIncoming {
		return false
	}
	switch senderType {
	case "contact", "Contact", "":
		return true
	}
	// user, agent_bot, AgentBot and anything unrecognized
	return false
}

// humanOwns reports whether a human agent already owns the conversation.
func (a *Agent) humanOwns(ctx context.Context, e *domain.InboundEvent) (bool, error) {
	convID := e.ConversationID()
	if e.Conversation.Status == chatwoot.StatusOpen {
		return true, nil
	}
	if a.checkRemoteStatus {
		status, err := a.outbound.ConversationStatus(ctx, e.AccountID(), convID)
		switch {
		case err != nil:
			a.logger.Warn("conversation status lookup failed", "conversation_id", convID, "err", err)
		case status == chatwoot.StatusOpen:
			return true, nil
		}
	}
	handedOff, err := a.state.HandedOff.Has(ctx, convID)
	if err != nil {
		return false, err
	}
	return handedOff, nil
}

// humanJoined records that a human took over and posts the join notice
// unless it was already posted. Both sets are marked either way. neutral is
// returned when the notice was not needed.
func (a *Agent) humanJoined(ctx context.Context, e *domain.InboundEvent, name, trigger string, neutral Status) (Status, error) {
	convID := e.ConversationID()

	announced, err := a.state.Announced.Has(ctx, convID)
	if err != nil {
		return "", err
	}
	if err := a.state.HandedOff.Add(ctx, convID); err != nil {
		return "", err
	}
	if announced {
		return neutral, nil
	}
	if err := a.state.Announced.Add(ctx, convID); err != nil {
		return "", err
	}

	metrics.Handoffs.WithLabelValues(trigger).Inc()
	a.logger.Info("human agent joined", "conversation_id", convID, "agent", name, "trigger", trigger)
	a.send(ctx, e.AccountID(), convID, domain.OutboundMessage{Text: agentJoinedText(name)})
	return StatusAgentJoined, nil
}

// handoffWithContact stores the captured details on the contact, thanks the
// customer, and moves the conversation to the human queue.
func (a *Agent) handoffWithContact(ctx context.Context, e *domain.InboundEvent, info contact.Info) (Status, error) {
	convID, accountID := e.ConversationID(), e.AccountID()
	a.logger.Info("contact info received", "conversation_id", convID, "name", info.Name)

	if e.Sender != nil && e.Sender.ID != 0 {
		err := a.outbound.UpdateContact(ctx, accountID, e.Sender.ID, domain.ContactUpdate{
			Name:  info.Name,
			Email: info.Email,
			Phone: info.Phone,
		})
		a.logSendError(err, "update contact", convID)
	}

	a.send(ctx, accountID, convID, domain.OutboundMessage{Text: thankYouText(info.Name)})

	a.logSendError(a.outbound.ToggleStatus(ctx, accountID, convID, chatwoot.StatusOpen), "toggle status", convID)

	if err := a.state.HandedOff.Add(ctx, convID); err != nil {
		return "", err
	}
	metrics.Handoffs.WithLabelValues("contact").Inc()
	return StatusHandoffWithContact, nil
}

// answer sends the generated reply now and schedules cards and, on the
// first message of a conversation, the quick-reply follow-up.
func (a *Agent) answer(ctx context.Context, e *domain.InboundEvent, text string) {
	convID, accountID := e.ConversationID(), e.AccountID()
	reply := a.composer.Compose(ctx, text)

	if reply.Text != "" {
		a.send(ctx, accountID, convID, domain.OutboundMessage{Text: reply.Text})
	}

	followupDelay := a.followupDelay
	if len(reply.Cards) > 0 {
		cards := reply.Cards
		a.scheduler.After(a.cardDelay, func() {
			a.send(context.Background(), accountID, convID, domain.OutboundMessage{
				ContentType: domain.ContentCards,
				Cards:       cards,
			})
		})
		followupDelay = a.followupAfterCardsDelay
	}

	if e.MessageCount() == 1 {
		a.scheduler.After(followupDelay, func() {
			a.send(context.Background(), accountID, convID, domain.OutboundMessage{
				Text:        followupText,
				ContentType: domain.ContentQuickReplies,
				Options:     followupOptions,
			})
		})
	}
}

func (a *Agent) send(ctx context.Context, accountID, convID int64, msg domain.OutboundMessage) {
	a.logSendError(a.outbound.SendMessage(ctx, accountID, convID, msg), "send message", convID)
}

func (a *Agent) logSendError(err error, op string, convID int64) {
	switch {
	case err == nil:
	case errors.Is(err, chatwoot.ErrNotConfigured):
		a.logger.Error("chatwoot not configured, skipping", "op", op, "conversation_id", convID)
	default:
		a.logger.Error("chatwoot call failed", "op", op, "conversation_id", convID, "err", err)
	}
}

func requireConversation(e *domain.InboundEvent) error {
	if e.ConversationID() == 0 {
		return fmt.Errorf("%w: %s without conversation id", ErrInvalidPayload, e.Event)
	}
	if e.AccountID() == 0 {
		return fmt.Errorf("%w: %s without account id", ErrInvalidPayload, e.Event)
	}
	return nil
}
