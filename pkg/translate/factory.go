package translate

import (
	"time"

	"github.com/entrhq/headlines/pkg/llm"
)

// Factory hands out one Translator per session so that rate limiting and
// provider state are never shared between sessions.
type Factory interface {
	NewTranslator(session string) Translator
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(session string) Translator

// NewTranslator calls f.
func (f FactoryFunc) NewTranslator(session string) Translator {
	return f(session)
}

// Static returns a Factory that always hands out t.
func Static(t Translator) Factory {
	return FactoryFunc(func(string) Translator { return t })
}

// LLMFactory builds an LLMTranslator per session. Providers implementing
// llm.ModelCloner are cloned so each session holds its own copy.
type LLMFactory struct {
	Provider       llm.Provider
	Model          string
	RequestsPerSec float64
	Burst          int
	Timeout        time.Duration
	SourceLanguage string
}

// NewTranslator implements Factory.
func (f *LLMFactory) NewTranslator(string) Translator {
	provider := f.Provider
	if cloner, ok := provider.(llm.ModelCloner); ok {
		provider = cloner.CloneWithModel(f.Model)
	}

	opts := []Option{WithRateLimit(f.RequestsPerSec, f.Burst)}
	if f.Timeout > 0 {
		opts = append(opts, WithTimeout(f.Timeout))
	}
	if f.SourceLanguage != "" {
		opts = append(opts, WithSourceLanguage(f.SourceLanguage))
	}
	return NewLLMTranslator(provider, opts...)
}
