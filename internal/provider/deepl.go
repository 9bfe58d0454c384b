package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/domain"
)

const (
	deeplFreeBaseURL = "https://api-free.deepl.com"
	deeplProBaseURL  = "https://api.deepl.com"
	deeplPath        = "/v2/translate"
)

// DeepLConfig configures the DeepL transport.
type DeepLConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// DeepLTranslator translates every non-blank field with its own request.
type DeepLTranslator struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDeepL creates a DeepL translator. Keys ending in ":fx" are free-tier
// keys and go to the free endpoint.
func NewDeepL(apiKey string, cfg DeepLConfig) *DeepLTranslator {
	base := cfg.BaseURL
	if base == "" {
		base = deeplProBaseURL
		if strings.HasSuffix(apiKey, ":fx") {
			base = deeplFreeBaseURL
		}
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: deeplTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeepLTranslator{
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(base, "/") + deeplPath,
		httpClient: client,
		logger:     logger,
	}
}

func (d *DeepLTranslator) Name() domain.Provider {
	return domain.ProviderDeepL
}

// Translate makes one call per non-blank field; blank fields stay empty
// without a call.
func (d *DeepLTranslator) Translate(ctx context.Context, items []domain.TranslationItem, req Request) ([]domain.TranslationItem, error) {
	out := make([]domain.TranslationItem, 0, len(items))

	for _, it := range items {
		translated := domain.TranslationItem{ID: it.ID}
		src := it.Fields()
		dst := translated.Fields()

		for i, text := range src {
			if strings.TrimSpace(*text) == "" {
				continue
			}
			result, err := d.translateText(ctx, *text, req.SourceLang, req.TargetLang)
			if err != nil {
				return nil, fmt.Errorf("product %d: %w", it.ID, err)
			}
			*dst[i] = result
		}

		out = append(out, translated)
	}

	return out, nil
}

func (d *DeepLTranslator) translateText(ctx context.Context, text, source, target string) (string, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("source_lang", strings.ToUpper(source))
	form.Set("target_lang", strings.ToUpper(target))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return "", &domain.TransportError{Provider: domain.ProviderDeepL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.TransportError{Provider: domain.ProviderDeepL, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.TransportError{
			Provider: domain.ProviderDeepL,
			Status:   resp.StatusCode,
			Body:     domain.Truncate(string(body), domain.MaxBodySnippet),
		}
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", &domain.TransportError{
			Provider: domain.ProviderDeepL,
			Status:   resp.StatusCode,
			Body:     domain.Truncate(string(body), domain.MaxBodySnippet),
			Err:      fmt.Errorf("invalid JSON response: %w", err),
		}
	}
	if _, ok := decoded.(map[string]any); !ok {
		return "", &domain.ResponseShapeError{Provider: domain.ProviderDeepL, Reason: "response is not a JSON object"}
	}

	var deeplResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &deeplResp); err != nil {
		return "", &domain.ResponseShapeError{Provider: domain.ProviderDeepL, Reason: err.Error()}
	}

	if len(deeplResp.Translations) == 0 {
		d.logger.Debug("deepl returned no translation", zap.String("target_lang", target))
		return "", nil
	}
	return deeplResp.Translations[0].Text, nil
}
