// Package provider adapts external translation APIs to a common batch
// contract.
package provider

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/glossary"
)

// Request carries the per-batch language pair and glossary hints.
type Request struct {
	SourceLang string
	TargetLang string
	Glossary   glossary.Glossary
}

// Translator translates a batch of items. Output ids equal input ids.
type Translator interface {
	Translate(ctx context.Context, items []domain.TranslationItem, req Request) ([]domain.TranslationItem, error)
	Name() domain.Provider
}

// Options tune transport details. Zero values select production defaults.
type Options struct {
	OpenAIBaseURL string
	DeepLBaseURL  string
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

const (
	openAITimeout = 120 * time.Second
	deeplTimeout  = 60 * time.Second
)

// New selects the translator for the configured provider.
func New(settings domain.TranslationSettings, opts Options) (Translator, error) {
	if settings.APIKey == "" {
		return nil, &domain.ConfigError{Field: "api_key", Reason: "is required"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch settings.Provider {
	case domain.ProviderOpenAI:
		return NewOpenAI(settings.APIKey, settings.Model, OpenAIConfig{
			BaseURL:    opts.OpenAIBaseURL,
			HTTPClient: clientOrDefault(opts.HTTPClient, openAITimeout),
			Logger:     logger,
		}), nil
	case domain.ProviderDeepL:
		return NewDeepL(settings.APIKey, DeepLConfig{
			BaseURL:    opts.DeepLBaseURL,
			HTTPClient: clientOrDefault(opts.HTTPClient, deeplTimeout),
			Logger:     logger,
		}), nil
	default:
		return nil, &domain.ConfigError{Field: "provider", Reason: "unsupported provider " + string(settings.Provider)}
	}
}

func clientOrDefault(c *http.Client, timeout time.Duration) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: timeout}
}
