package agent

import "errors"

// Status is the terminal outcome of handling one webhook event. It is
// returned to Chatwoot as {"status": ...}.
type Status string

const (
	StatusConversationCreated  Status = "conversation_created"
	StatusAgentJoined          Status = "agent_joined_notification_sent"
	StatusConversationAssigned Status = "conversation_assigned"
	StatusConversationUpdated  Status = "conversation_updated"
	StatusHumanAgentMessage    Status = "human_agent_message"
	StatusIgnored              Status = "ignored"
	StatusHumanHandling        Status = "human_handling"
	StatusHandoffWithContact   Status = "handoff_with_contact"
	StatusContactInfoRequested Status = "contact_info_requested"
	StatusSuccess              Status = "success"
)

// ErrInvalidPayload marks events that lack fields the router needs.
var ErrInvalidPayload = errors.New("invalid webhook payload")
