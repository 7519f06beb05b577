package domain

// Event names delivered by the Chatwoot webhook.
const (
	EventConversationCreated  = "conversation_created"
	EventConversationAssigned = "conversation_assigned"
	EventConversationUpdated  = "conversation_updated"
	EventMessageCreated       = "message_created"
)

// Message types carried on message_created events.
const (
	MessageIncoming = "incoming"
	MessageOutgoing = "outgoing"
)

// InboundEvent is the JSON body Chatwoot posts to the webhook.
// Only the fields the router reads are modeled.
type InboundEvent struct {
	Event               string               `json:"event"`
	ID                  int64                `json:"id,omitempty"`
	Content             string               `json:"content,omitempty"`
	ContentType         string               `json:"content_type,omitempty"`
	MessageType         string               `json:"message_type,omitempty"`
	Private             bool                 `json:"private,omitempty"`
	Sender              *Sender              `json:"sender,omitempty"`
	Conversation        *Conversation        `json:"conversation,omitempty"`
	Account             *Account             `json:"account,omitempty"`
	CurrentConversation *CurrentConversation `json:"current_conversation,omitempty"`
	Meta                *EventMeta           `json:"meta,omitempty"`
	Assignee            *Assignee            `json:"assignee,omitempty"`
}

type Sender struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Type  string `json:"type,omitempty"` // contact | user | agent_bot
}

type Conversation struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	InboxID   int64  `json:"inbox_id"`
	Status    string `json:"status,omitempty"`
}

type Account struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CurrentConversation struct {
	Messages []struct {
		ID int64 `json:"id"`
	} `json:"messages,omitempty"`
}

type EventMeta struct {
	Assignee *Assignee `json:"assignee,omitempty"`
}

type Assignee struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Type  string `json:"type,omitempty"`
}

// IsHuman reports whether the assignee looks like a human agent.
// Bot assignments arrive without an email.
func (a *Assignee) IsHuman() bool {
	return a != nil && a.Name != "" && a.Email != ""
}

// ConversationID returns the conversation id, or 0 when absent.
func (e *InboundEvent) ConversationID() int64 {
	if e.Conversation == nil {
		return 0
	}
	return e.Conversation.ID
}

// AccountID returns the account id, falling back to the conversation's account.
func (e *InboundEvent) AccountID() int64 {
	if e.Account != nil && e.Account.ID != 0 {
		return e.Account.ID
	}
	if e.Conversation != nil {
		return e.Conversation.AccountID
	}
	return 0
}

// MessageCount returns how many messages the conversation held when the event fired.
func (e *InboundEvent) MessageCount() int {
	if e.CurrentConversation == nil {
		return 0
	}
	return len(e.CurrentConversation.Messages)
}
