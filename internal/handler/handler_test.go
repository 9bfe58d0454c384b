package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/settings"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name        string
		request     Request
		expectError bool
		errorMsg    string
	}{
		{
			name:    "valid request",
			request: Request{ProductIDs: []int64{1, 2}, TargetLang: "fr"},
		},
		{
			name:    "blank target uses settings",
			request: Request{ProductIDs: []int64{1}},
		},
		{
			name:    "empty ids array is valid",
			request: Request{ProductIDs: []int64{}},
		},
		{
			name:        "nil ids",
			request:     Request{TargetLang: "fr"},
			expectError: true,
			errorMsg:    "product_ids is required",
		},
		{
			name:        "non-positive id",
			request:     Request{ProductIDs: []int64{3, 0}},
			expectError: true,
			errorMsg:    "product_ids must be positive integers, got 0",
		},
		{
			name:        "bad target",
			request:     Request{ProductIDs: []int64{1}, TargetLang: "klingon please"},
			expectError: true,
			errorMsg:    `target_lang "klingon please" is not a language code`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.request)

			if tt.expectError {
				if err == nil {
					t.Errorf("ValidateRequest() should have returned error")
				} else if err.Error() != tt.errorMsg {
					t.Errorf("ValidateRequest() error = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateRequest() unexpected error: %v", err)
				}
			}
		})
	}
}

type runCall struct {
	ids    []int64
	target string
	s      domain.TranslationSettings
}

type fakeRunner struct {
	calls []runCall
	err   error
}

func (f *fakeRunner) Run(_ context.Context, ids []int64, target string, s domain.TranslationSettings) (domain.RunSummary, error) {
	f.calls = append(f.calls, runCall{ids, target, s})
	return domain.RunSummary{RunID: "run", BatchesQueued: 1, ItemsTranslated: len(ids)}, f.err
}

type recordingQueue struct {
	payloads []domain.BatchPayload
	failAt   int
}

func (q *recordingQueue) Enqueue(_ context.Context, p domain.BatchPayload) error {
	if q.failAt > 0 && len(q.payloads)+1 == q.failAt {
		return errors.New("queue unavailable")
	}
	q.payloads = append(q.payloads, p)
	return nil
}

func validSettings() settings.Static {
	return settings.Static{Provider: domain.ProviderDeepL, APIKey: "k", SourceLang: "en", TargetLang: "fr", BatchSize: 2}
}

func TestEnqueue_ChunksByBatchSize(t *testing.T) {
	q := &recordingQueue{}
	h := New(validSettings(), &fakeRunner{}, q, nil)

	resp, err := h.Enqueue(t.Context(), Request{ProductIDs: []int64{1, 2, 3, 4, 5}, TargetLang: "de"})
	require.NoError(t, err)
	assert.Equal(t, &Response{Success: true, Queued: 3}, resp)
	assert.Equal(t, []domain.BatchPayload{
		{ProductIDs: []int64{1, 2}, TargetLang: "de"},
		{ProductIDs: []int64{3, 4}, TargetLang: "de"},
		{ProductIDs: []int64{5}, TargetLang: "de"},
	}, q.payloads)
}

func TestEnqueue_Errors(t *testing.T) {
	t.Run("invalid request", func(t *testing.T) {
		q := &recordingQueue{}
		resp, err := New(validSettings(), &fakeRunner{}, q, nil).Enqueue(t.Context(), Request{})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, "product_ids is required", resp.Error)
		assert.Empty(t, q.payloads)
	})

	t.Run("invalid settings", func(t *testing.T) {
		bad := validSettings()
		bad.APIKey = ""
		resp, err := New(bad, &fakeRunner{}, &recordingQueue{}, nil).Enqueue(t.Context(), Request{ProductIDs: []int64{1}})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "api_key")
	})

	t.Run("queue failure reports partial count", func(t *testing.T) {
		q := &recordingQueue{failAt: 2}
		resp, err := New(validSettings(), &fakeRunner{}, q, nil).Enqueue(t.Context(), Request{ProductIDs: []int64{1, 2, 3}})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, 1, resp.Queued)
		assert.Equal(t, "queue unavailable", resp.Error)
	})
}

func TestEnqueueProduct(t *testing.T) {
	q := &recordingQueue{}
	h := New(validSettings(), &fakeRunner{}, q, nil)

	resp, err := h.EnqueueProduct(t.Context(), 42, "it")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, []domain.BatchPayload{{ProductIDs: []int64{42}, TargetLang: "it"}}, q.payloads)
}

func TestEnqueue_InlineWithoutQueue(t *testing.T) {
	runner := &fakeRunner{}
	h := New(validSettings(), runner, nil, nil)

	resp, err := h.Enqueue(t.Context(), Request{ProductIDs: []int64{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Queued)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, []int64{1, 2}, runner.calls[0].ids)
	assert.Equal(t, []int64{3}, runner.calls[1].ids)
}

func TestProcessBatch(t *testing.T) {
	runner := &fakeRunner{}
	h := New(validSettings(), runner, nil, nil)

	resp, err := h.ProcessBatch(t.Context(), domain.BatchPayload{ProductIDs: []int64{7}, TargetLang: "es"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 1, resp.Summary.ItemsTranslated)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "es", runner.calls[0].target)
	assert.Equal(t, "k", runner.calls[0].s.APIKey)
	assert.Equal(t, 2, runner.calls[0].s.BatchSize)
}

func TestProcessBatch_Errors(t *testing.T) {
	runner := &fakeRunner{err: &domain.ConfigError{Field: "target_lang", Reason: "bad"}}
	resp, err := New(validSettings(), runner, nil, nil).ProcessBatch(t.Context(), domain.BatchPayload{ProductIDs: []int64{1}})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid setting target_lang: bad", resp.Error)
	assert.NotNil(t, resp.Summary)

	bad := validSettings()
	bad.APIKey = ""
	runner = &fakeRunner{}
	resp, err = New(bad, runner, nil, nil).ProcessBatch(t.Context(), domain.BatchPayload{ProductIDs: []int64{1}})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Empty(t, runner.calls)
}
