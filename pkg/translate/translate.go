// Package translate turns source-language headlines into the analysis
// language.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/entrhq/headlines/pkg/llm"
)

// DefaultFallbackPrefix marks a title that could not be translated.
const DefaultFallbackPrefix = "untranslated "

// ErrEmptyTranslation is returned when the provider answers with nothing.
var ErrEmptyTranslation = errors.New("empty translation")

// Translator translates a single piece of text.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Func adapts a plain function to Translator.
type Func func(ctx context.Context, text, targetLang string) (string, error)

// Translate calls f.
func (f Func) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return f(ctx, text, targetLang)
}

// Identity returns text unchanged. Used when translation is disabled.
var Identity Translator = Func(func(_ context.Context, text, _ string) (string, error) {
	return text, nil
})

// Fallback builds the deterministic marker for an untranslated title.
func Fallback(prefix, original string) string {
	return prefix + original
}

const systemPrompt = `You translate news headlines. Reply with the translation of the user's text into %s and nothing else: no quotes, no notes, no explanation.`

// LLMTranslator translates through a chat-completion provider.
type LLMTranslator struct {
	provider llm.Provider
	limiter  *rate.Limiter
	timeout  time.Duration
	source   string
}

// Option configures an LLMTranslator.
type Option func(*LLMTranslator)

// WithRateLimit caps requests per second with the given burst. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(t *LLMTranslator) {
		if rps <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(t *LLMTranslator) {
		t.timeout = d
	}
}

// WithSourceLanguage names the source language in the prompt.
func WithSourceLanguage(lang string) Option {
	return func(t *LLMTranslator) {
		t.source = lang
	}
}

// NewLLMTranslator creates a translator over provider.
func NewLLMTranslator(provider llm.Provider, opts ...Option) *LLMTranslator {
	t := &LLMTranslator{
		provider: provider,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate implements Translator.
func (t *LLMTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyTranslation
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	lang := targetLang
	if t.source != "" {
		lang = fmt.Sprintf("%s (the source is %s)", targetLang, t.source)
	}

	reply, err := t.provider.Complete(ctx, []*llm.Message{
		llm.NewSystemMessage(fmt.Sprintf(systemPrompt, lang)),
		llm.NewUserMessage(text),
	})
	if err != nil {
		return "", fmt.Errorf("translate %q: %w", text, err)
	}

	out := cleanReply(reply.Content)
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}

// cleanReply strips whitespace and a single pair of wrapping quotes.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}} {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
		}
	}
	return s
}
