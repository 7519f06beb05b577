package agent

import (
	"fmt"

	"greywaterbot/internal/domain"
)

const contactRequestText = "I'd be happy to connect you with our team! Please share your name and email so they can follow up with you.\n\nFor example: \"John Smith, john@email.com\""

const followupText = "What else can I help you with?"

// followupOptions are offered as quick replies after the first answer.
var followupOptions = []domain.QuickReply{
	{Title: "More Questions", Value: "I have another question"},
	{Title: "Get a Quote", Value: "I'd like to get a quote"},
	{Title: "Talk to Human", Value: "I'd like to speak with a representative"},
}

func thankYouText(name string) string {
	return fmt.Sprintf("Thank you, %s! I'll connect you with our team now. Someone will be with you shortly.\n\nYou can also reach us at:\n📞 (678) 809-3008\n📧 sales@waterwisegroup.com", name)
}

func agentJoinedText(name string) string {
	if name == "" {
		name = "A member of our team"
	}
	return fmt.Sprintf("%s has joined the conversation and will take it from here.", name)
}
