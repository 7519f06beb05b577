package domain

// ContentType selects how Chatwoot renders an outgoing message.
type ContentType string

const (
	ContentText         ContentType = ""
	ContentQuickReplies ContentType = "input_select"
	ContentCards        ContentType = "cards"
)

// OutboundMessage is built per send and consumed immediately by the chat client.
type OutboundMessage struct {
	Text        string
	ContentType ContentType
	Options     []QuickReply
	Cards       []Card
}

// QuickReply is one option of an input_select message.
type QuickReply struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Card is one item of a cards message.
type Card struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	MediaURL    string       `json:"media_url,omitempty"`
	Actions     []CardAction `json:"actions"`
}

type CardAction struct {
	Type string `json:"type"`
	Text string `json:"text"`
	URI  string `json:"uri"`
}

// ContactUpdate carries the fields captured from a contact-info submission.
type ContactUpdate struct {
	Name  string
	Email string
	Phone string
}
