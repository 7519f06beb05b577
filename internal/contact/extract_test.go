package contact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hi there", StripHTML("<p>Hi <b>there</b></p>\n"))
	assert.Equal(t, "", StripHTML("<br/>  "))
	assert.Equal(t, "plain", StripHTML("plain"))
}

func TestExtractContactInfo(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Info
	}{
		{
			name:    "name and email",
			message: "John Smith, john@email.com",
			want:    Info{Name: "John Smith", Email: "john@email.com"},
		},
		{
			name:    "stacked intro prefixes and phone",
			message: "hi im jane, jane@x.com call me at 555-123-4567",
			want:    Info{Name: "jane", Email: "jane@x.com", Phone: "555-123-4567"},
		},
		{
			name:    "my name is",
			message: "My name is Bob bob@example.org",
			want:    Info{Name: "Bob", Email: "bob@example.org"},
		},
		{
			name:    "greeting with comma then i'm",
			message: "Hello, I'm Ann. ann@x.io",
			want:    Info{Name: "Ann", Email: "ann@x.io"},
		},
		{
			name:    "email only defaults name",
			message: "bob@example.org",
			want:    Info{Name: DefaultName, Email: "bob@example.org"},
		},
		{
			name:    "greeting only defaults name",
			message: "hi bob@example.org",
			want:    Info{Name: DefaultName, Email: "bob@example.org"},
		},
		{
			name:    "prefix needs a word boundary",
			message: "Hillary h@example.com",
			want:    Info{Name: "Hillary", Email: "h@example.com"},
		},
		{
			name:    "phone before the email",
			message: "Sam (678) 809-3008 sam@example.com",
			want:    Info{Name: "Sam (678) 809-3008", Email: "sam@example.com", Phone: "(678) 809-3008"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractContactInfo(tt.message)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractContactInfo_NoEmail(t *testing.T) {
	_, ok := ExtractContactInfo("John Smith 555-123-4567")
	assert.False(t, ok)
}

func TestExtractContactInfo_TooLong(t *testing.T) {
	long := strings.Repeat("word ", MaxWords-1) + "me@example.com"
	_, ok := ExtractContactInfo(long)
	assert.False(t, ok, "%d words must not count as a contact submission", MaxWords)

	short := strings.Repeat("word ", MaxWords-2) + "me@example.com"
	_, ok = ExtractContactInfo(short)
	assert.True(t, ok)
}

func TestWantsHuman(t *testing.T) {
	for _, msg := range []string{
		"I'd like to speak with a representative please",
		"Can I talk to someone?",
		"OPERATOR",
		"is there a live agent available",
		"real person pls",
	} {
		assert.True(t, WantsHuman(msg), msg)
	}
	for _, msg := range []string{
		"How much is the gravity model?",
		"my pump stopped working",
		"",
	} {
		assert.False(t, WantsHuman(msg), msg)
	}
}
