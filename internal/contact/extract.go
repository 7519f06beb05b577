// Package contact recognizes contact details and human-handoff requests in
// customer messages. These are literal heuristics, not validators.
package contact

import (
	"regexp"
	"strings"
)

// MaxWords is the word count at or above which a message is never treated
// as a contact-info submission.
const MaxWords = 20

// DefaultName is used when no name precedes the email.
const DefaultName = "Customer"

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	emailPattern   = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern   = regexp.MustCompile(`[\d\s\-().]{10,}`)
	// one greeting or intro phrase at the start of the name part
	namePrefixPattern = regexp.MustCompile(`(?i)^(?:my name is|i'm|im|i am|name:|hi|hello|it's|its)(?:[\s,]+|$)`)
	trailingPattern   = regexp.MustCompile(`[,.\s]+$`)
)

// humanRequestPhrases trigger the contact-info prompt. Matched as
// case-insensitive substrings.
var humanRequestPhrases = []string{
	"talk to human",
	"speak to human",
	"human agent",
	"real person",
	"customer service",
	"representative",
	"talk to someone",
	"speak to someone",
	"live agent",
	"human please",
	"operator",
	"speak with someone",
	"agent please",
}

// Info is a contact submission pulled out of a message.
type Info struct {
	Name  string
	Email string
	Phone string // empty when none was found
}

// StripHTML removes markup tags and surrounding whitespace.
func StripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

// ExtractContactInfo reports whether message looks like a contact-info
// submission: it holds an email address and is shorter than MaxWords words.
// message is expected to be HTML-stripped already.
func ExtractContactInfo(message string) (Info, bool) {
	loc := emailPattern.FindStringIndex(message)
	if loc == nil {
		return Info{}, false
	}
	if len(strings.Fields(message)) >= MaxWords {
		return Info{}, false
	}

	info := Info{
		Email: message[loc[0]:loc[1]],
		Name:  extractName(message[:loc[0]]),
	}
	if phone := phonePattern.FindString(message); phone != "" {
		info.Phone = strings.TrimSpace(phone)
	}
	return info, true
}

// extractName strips intro phrases ("hi", "i'm", ...) and trailing
// punctuation from the text before the email. Casing is kept as typed.
func extractName(before string) string {
	name := strings.TrimSpace(before)
	for {
		stripped := namePrefixPattern.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = stripped
	}
	name = strings.TrimSpace(trailingPattern.ReplaceAllString(name, ""))
	if name == "" {
		return DefaultName
	}
	return name
}

// WantsHuman reports whether message asks for a person.
func WantsHuman(message string) bool {
	lower := strings.ToLower(message)
	for _, p := range humanRequestPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
