package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/domain"
)

const (
	defaultOpenAIModel = openai.GPT3Dot5Turbo
	openAITemperature  = 0.1
	openAIMaxTokens    = 3000
)

// OpenAIConfig configures the OpenAI transport.
type OpenAIConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// OpenAITranslator sends a whole batch in one chat completion and parses a
// JSON array back.
type OpenAITranslator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAI creates an OpenAI translator. An empty model selects gpt-3.5-turbo.
func NewOpenAI(apiKey, model string, cfg OpenAIConfig) *OpenAITranslator {
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		httpClient = &c
	}
	httpClient.Transport = capturingTransport{base: httpClient.Transport}
	clientCfg.HTTPClient = httpClient
	if model == "" {
		model = defaultOpenAIModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAITranslator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}
}

func (o *OpenAITranslator) Name() domain.Provider {
	return domain.ProviderOpenAI
}

// Translate issues a single chat completion for the batch.
func (o *OpenAITranslator) Translate(ctx context.Context, items []domain.TranslationItem, req Request) ([]domain.TranslationItem, error) {
	if len(items) == 0 {
		return []domain.TranslationItem{}, nil
	}

	capture := &responseCapture{}
	resp, err := o.client.CreateChatCompletion(context.WithValue(ctx, captureKey{}, capture), openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.SourceLang, req.TargetLang)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(items, req)},
		},
		Temperature: openAITemperature,
		MaxTokens:   openAIMaxTokens,
	})
	if err != nil {
		return nil, o.transportError(err, capture)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &domain.ResponseShapeError{Provider: domain.ProviderOpenAI, Reason: "empty response from OpenAI"}
	}
	content := resp.Choices[0].Message.Content

	raw, ok := ExtractJSON(content)
	if !ok {
		return nil, &domain.ResponseShapeError{
			Provider: domain.ProviderOpenAI,
			Reason:   "no JSON found in response: " + domain.Truncate(content, 300),
		}
	}

	parsed, err := parseItems(domain.ProviderOpenAI, raw)
	if err != nil {
		return nil, err
	}

	return o.keepRequested(items, parsed), nil
}

// keepRequested drops records whose id was not part of the batch.
func (o *OpenAITranslator) keepRequested(items, parsed []domain.TranslationItem) []domain.TranslationItem {
	requested := make(map[int64]bool, len(items))
	for _, it := range items {
		requested[it.ID] = true
	}

	out := make([]domain.TranslationItem, 0, len(parsed))
	for _, it := range parsed {
		if !requested[it.ID] {
			o.logger.Warn("discarding translation for unrequested product", zap.Int64("product_id", it.ID))
			continue
		}
		out = append(out, it)
	}
	return out
}

func (o *OpenAITranslator) transportError(err error, capture *responseCapture) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.TransportError{
			Provider: domain.ProviderOpenAI,
			Status:   apiErr.HTTPStatusCode,
			Body:     domain.Truncate(apiErr.Message, domain.MaxBodySnippet),
			Err:      err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.TransportError{
			Provider: domain.ProviderOpenAI,
			Status:   reqErr.HTTPStatusCode,
			Body:     domain.Truncate(string(reqErr.Body), domain.MaxBodySnippet),
			Err:      err,
		}
	}

	// A 2xx reply the client could not decode still has a status and a body.
	return &domain.TransportError{
		Provider: domain.ProviderOpenAI,
		Status:   capture.status,
		Body:     domain.Truncate(string(capture.body), domain.MaxBodySnippet),
		Err:      err,
	}
}

type captureKey struct{}

// responseCapture records the status and body of a successful reply so
// decode failures inside the client keep them.
type responseCapture struct {
	status int
	body   []byte
}

type capturingTransport struct {
	base http.RoundTripper
}

func (t capturingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	capture, ok := req.Context().Value(captureKey{}).(*responseCapture)
	if !ok {
		return resp, nil
	}
	capture.status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	capture.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func systemPrompt(source, target string) string {
	return fmt.Sprintf("You are a professional translator. Translate product fields from %s to %s. "+
		"Return a JSON array of objects with keys: id, title, excerpt, content, slug. "+
		"Keep HTML tags intact. DO NOT output any explanation or additional text.", source, target)
}

func userPrompt(items []domain.TranslationItem, req Request) string {
	var b strings.Builder
	b.WriteString(req.Glossary.Prompt())
	b.WriteString("Translate the following products:\n\n")
	for _, it := range items {
		fmt.Fprintf(&b, "###PRODUCT_ID:%d\n", it.ID)
		fmt.Fprintf(&b, "TITLE: %s\n", it.Title)
		fmt.Fprintf(&b, "EXCERPT: %s\n", it.Excerpt)
		fmt.Fprintf(&b, "CONTENT: %s\n", it.Content)
		fmt.Fprintf(&b, "SLUG: %s\n\n", it.Slug)
	}
	b.WriteString("\nReturn JSON only.")
	return b.String()
}
