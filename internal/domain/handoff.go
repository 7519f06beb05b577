package domain

import "context"

// ConversationSet records conversation ids. Insert-only: there is no removal or TTL.
type ConversationSet interface {
	Has(ctx context.Context, conversationID int64) (bool, error)
	Add(ctx context.Context, conversationID int64) error
}
