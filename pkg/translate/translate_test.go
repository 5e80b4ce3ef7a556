package translate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/headlines/pkg/llm"
)

type fakeProvider struct {
	mu       sync.Mutex
	model    string
	reply    string
	err      error
	delay    time.Duration
	received [][]*llm.Message
}

func (f *fakeProvider) StreamCompletion(ctx context.Context, messages []*llm.Message) (<-chan *llm.StreamChunk, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) Complete(ctx context.Context, messages []*llm.Message) (*llm.Message, error) {
	f.mu.Lock()
	f.received = append(f.received, messages)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Message{Role: llm.RoleAssistant, Content: f.reply}, nil
}

func (f *fakeProvider) GetModel() string   { return f.model }
func (f *fakeProvider) GetBaseURL() string { return "fake://" }

func (f *fakeProvider) CloneWithModel(model string) llm.Provider {
	return &fakeProvider{model: model, reply: f.reply, err: f.err}
}

func TestLLMTranslator_Translate(t *testing.T) {
	p := &fakeProvider{reply: "  \"The day's opinion\"\n"}
	tr := NewLLMTranslator(p, WithSourceLanguage("Spanish"))

	out, err := tr.Translate(context.Background(), "La opinión del día", "English")
	require.NoError(t, err)
	assert.Equal(t, "The day's opinion", out)

	require.Len(t, p.received, 1)
	msgs := p.received[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "English")
	assert.Contains(t, msgs[0].Content, "Spanish")
	assert.Equal(t, "La opinión del día", msgs[1].Content)
}

func TestLLMTranslator_Errors(t *testing.T) {
	t.Run("provider error is wrapped", func(t *testing.T) {
		cause := errors.New("boom")
		tr := NewLLMTranslator(&fakeProvider{err: cause})
		_, err := tr.Translate(context.Background(), "hola", "English")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("empty reply", func(t *testing.T) {
		tr := NewLLMTranslator(&fakeProvider{reply: "   "})
		_, err := tr.Translate(context.Background(), "hola", "English")
		assert.ErrorIs(t, err, ErrEmptyTranslation)
	})

	t.Run("empty input never reaches the provider", func(t *testing.T) {
		p := &fakeProvider{reply: "x"}
		tr := NewLLMTranslator(p)
		_, err := tr.Translate(context.Background(), " ", "English")
		assert.ErrorIs(t, err, ErrEmptyTranslation)
		assert.Empty(t, p.received)
	})

	t.Run("per call timeout", func(t *testing.T) {
		tr := NewLLMTranslator(&fakeProvider{reply: "x", delay: time.Second}, WithTimeout(20*time.Millisecond))
		_, err := tr.Translate(context.Background(), "hola", "English")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestLLMTranslator_RateLimitHonoursContext(t *testing.T) {
	tr := NewLLMTranslator(&fakeProvider{reply: "x"}, WithRateLimit(0.001, 1))

	_, err := tr.Translate(context.Background(), "uno", "English")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tr.Translate(ctx, "dos", "English")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "untranslated Hola", Fallback(DefaultFallbackPrefix, "Hola"))
	assert.Equal(t, "[es] Hola", Fallback("[es] ", "Hola"))
}

func TestIdentity(t *testing.T) {
	out, err := Identity.Translate(context.Background(), "Hola", "English")
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)
}

func TestLLMFactory_ClonesPerSession(t *testing.T) {
	base := &fakeProvider{model: "base", reply: "hi"}
	f := &LLMFactory{Provider: base, Model: "mini", RequestsPerSec: 5, Burst: 2}

	a := f.NewTranslator("a").(*LLMTranslator)
	b := f.NewTranslator("b").(*LLMTranslator)

	assert.NotSame(t, a, b)
	assert.NotSame(t, a.limiter, b.limiter)
	assert.Equal(t, "mini", a.provider.GetModel())
	assert.NotSame(t, base, a.provider)

	out, err := a.Translate(context.Background(), "hola", "English")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestCleanReply(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{` "quoted" `, "quoted"},
		{"“curly”", "curly"},
		{"'single'", "single"},
		{`"`, `"`},
		{`"unbalanced`, `"unbalanced`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanReply(tt.in), tt.in)
	}
}
