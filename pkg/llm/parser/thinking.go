// Package parser separates reasoning output from the answer in streamed
// completions.
package parser

import (
	"strings"

	"github.com/entrhq/headlines/pkg/llm"
)

// Reasoning models wrap their scratch work in one of these tag pairs.
var thinkingTags = map[string]bool{
	"<thinking>": true,
	"<think>":    true,
}

var closingThinkingTags = map[string]bool{
	"</thinking>": true,
	"</think>":    true,
}

// ThinkingParser splits streamed content into thinking and message parts.
// Tags may span chunk boundaries; a '<' starts buffering until '>' decides
// whether it was a thinking tag.
type ThinkingParser struct {
	buffer     strings.Builder
	tagBuffer  strings.Builder
	inThinking bool
	inTag      bool
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse consumes a content chunk. Either returned chunk may be nil.
func (p *ThinkingParser) Parse(content string) (thinkingChunk, messageChunk *llm.StreamChunk) {
	var thinking, message strings.Builder

	emit := func(text string) {
		if text == "" {
			return
		}
		if p.inThinking {
			thinking.WriteString(text)
		} else {
			message.WriteString(text)
		}
	}
	flushBuffer := func() {
		emit(p.buffer.String())
		p.buffer.Reset()
	}

	for _, ch := range content {
		switch {
		case ch == '<':
			if p.inTag {
				// The previous '<' did not open a tag.
				emit(p.tagBuffer.String())
			}
			flushBuffer()
			p.inTag = true
			p.tagBuffer.Reset()
			p.tagBuffer.WriteRune(ch)
		case ch == '>' && p.inTag:
			p.tagBuffer.WriteRune(ch)
			raw := p.tagBuffer.String()
			tag := strings.ToLower(raw)
			p.tagBuffer.Reset()
			p.inTag = false
			switch {
			case thinkingTags[tag]:
				p.inThinking = true
			case closingThinkingTags[tag]:
				p.inThinking = false
			default:
				emit(raw)
			}
		case p.inTag:
			p.tagBuffer.WriteRune(ch)
		default:
			p.buffer.WriteRune(ch)
		}
	}
	flushBuffer()

	return toChunk(thinking.String(), llm.ContentTypeThinking), toChunk(message.String(), llm.ContentTypeMessage)
}

// Flush returns content still buffered at the end of a stream, including an
// unterminated '<...' sequence.
func (p *ThinkingParser) Flush() (thinkingChunk, messageChunk *llm.StreamChunk) {
	var pending string
	if p.inTag {
		pending = p.tagBuffer.String()
		p.tagBuffer.Reset()
		p.inTag = false
	}
	pending += p.buffer.String()
	p.buffer.Reset()

	if p.inThinking {
		return toChunk(pending, llm.ContentTypeThinking), nil
	}
	return nil, toChunk(pending, llm.ContentTypeMessage)
}

// IsInThinking returns true if currently parsing thinking content.
func (p *ThinkingParser) IsInThinking() bool {
	return p.inThinking
}

// Reset resets the parser state for a new stream.
func (p *ThinkingParser) Reset() {
	p.buffer.Reset()
	p.tagBuffer.Reset()
	p.inThinking = false
	p.inTag = false
}

func toChunk(text string, kind llm.ContentType) *llm.StreamChunk {
	if text == "" {
		return nil
	}
	return &llm.StreamChunk{Content: text, Type: kind}
}
