package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	// WarmupSource identifies warmup events from CloudWatch
	WarmupSource = "warmup"

	// WarmupDelay keeps this instance busy long enough for the self-invoked
	// ones to land on separate instances.
	WarmupDelay = 75 * time.Millisecond
)

// WarmupEvent is the scheduled payload that keeps instances warm.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse is returned for warmup events.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// invoker fires an asynchronous invocation of this function.
type invoker interface {
	InvokeAsync(ctx context.Context, payload []byte) error
}

// IsWarmupEvent checks if the event is a warmup event
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var probe struct {
		Source      *string  `json:"source"`
		Concurrency *float64 `json:"concurrency"`
	}
	if err := json.Unmarshal(event, &probe); err != nil {
		return nil, false
	}
	if probe.Source == nil || *probe.Source != WarmupSource {
		return nil, false
	}

	w := &WarmupEvent{Source: WarmupSource}
	if probe.Concurrency != nil && *probe.Concurrency > 0 {
		w.Concurrency = int(*probe.Concurrency)
	}
	return w, true
}

// HandleWarmup answers a warmup event, fanning out to Concurrency more
// instances when an invoker is available.
func HandleWarmup(ctx context.Context, w *WarmupEvent, inv invoker) (any, error) {
	warmed := 1
	if w.Concurrency > 0 && inv != nil {
		warmed += selfInvoke(ctx, inv, w.Concurrency)
	}

	time.Sleep(WarmupDelay)

	return map[string]any{
		"statusCode": 200,
		"body":       WarmupResponse{Status: "warm", InstancesWarmed: warmed},
	}, nil
}

// selfInvoke fires count child warmups in parallel and returns how many were
// accepted. Children get concurrency 0 so they do not fan out again.
func selfInvoke(ctx context.Context, inv invoker, count int) int {
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return 0
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range count {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := inv.InvokeAsync(ctx, payload); err != nil {
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return ok
}
