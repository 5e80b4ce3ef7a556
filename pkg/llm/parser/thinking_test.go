package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// collect feeds chunks through the parser and returns the accumulated
// thinking and message text.
func collect(chunks ...string) (string, string) {
	p := NewThinkingParser()
	var thinking, message strings.Builder
	for _, c := range chunks {
		th, msg := p.Parse(c)
		if th != nil {
			thinking.WriteString(th.Content)
		}
		if msg != nil {
			message.WriteString(msg.Content)
		}
	}
	th, msg := p.Flush()
	if th != nil {
		thinking.WriteString(th.Content)
	}
	if msg != nil {
		message.WriteString(msg.Content)
	}
	return thinking.String(), message.String()
}

func TestThinkingParser(t *testing.T) {
	tests := []struct {
		name         string
		chunks       []string
		wantThinking string
		wantMessage  string
	}{
		{
			name:        "plain message",
			chunks:      []string{"The opinion of the day"},
			wantMessage: "The opinion of the day",
		},
		{
			name:         "thinking tag in one chunk",
			chunks:       []string{"<thinking>spanish to english</thinking>The war"},
			wantThinking: "spanish to english",
			wantMessage:  "The war",
		},
		{
			name:         "think tag split across chunks",
			chunks:       []string{"<thi", "nk>hmm</th", "ink>Peace talks"},
			wantThinking: "hmm",
			wantMessage:  "Peace talks",
		},
		{
			name:        "non thinking tags kept",
			chunks:      []string{"a <b>bold</b> move"},
			wantMessage: "a <b>bold</b> move",
		},
		{
			name:        "less than sign in text",
			chunks:      []string{"3 < 4 and 5 <", " 6"},
			wantMessage: "3 < 4 and 5 < 6",
		},
		{
			name:         "unterminated thinking",
			chunks:       []string{"<think>still going"},
			wantThinking: "still going",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thinking, message := collect(tt.chunks...)
			assert.Equal(t, tt.wantThinking, thinking)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestThinkingParser_Reset(t *testing.T) {
	p := NewThinkingParser()
	p.Parse("<thinking>abc")
	assert.True(t, p.IsInThinking())

	p.Reset()
	assert.False(t, p.IsInThinking())
	_, msg := p.Parse("fresh")
	if assert.NotNil(t, msg) {
		assert.Equal(t, "fresh", msg.Content)
	}
}
