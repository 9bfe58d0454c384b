// Package queue hands batch payloads to a durable task queue. Retry and
// crash recovery are the queue's business, not the orchestrator's.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/pricofy/catalog-translator/internal/domain"
)

// Enqueuer schedules one batch for later processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload domain.BatchPayload) error
}

// Invoker is the part of the Lambda client the queue needs.
type Invoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// Lambda queues payloads as asynchronous (Event) invocations of a worker
// function. Lambda persists the event and retries failed runs.
type Lambda struct {
	client       Invoker
	functionName string
}

// NewLambda creates a queue using the default AWS configuration.
func NewLambda(ctx context.Context, functionName string) (*Lambda, error) {
	if functionName == "" {
		return nil, &domain.ConfigError{Field: "TRANSLATION_QUEUE_FUNCTION", Reason: "is required"}
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewLambdaWithClient(lambdasdk.NewFromConfig(cfg), functionName), nil
}

// NewLambdaWithClient creates a queue around an existing client.
func NewLambdaWithClient(client Invoker, functionName string) *Lambda {
	return &Lambda{client: client, functionName: functionName}
}

func (l *Lambda) Enqueue(ctx context.Context, payload domain.BatchPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := l.InvokeAsync(ctx, body); err != nil {
		return fmt.Errorf("enqueue %d products: %w", len(payload.ProductIDs), err)
	}
	return nil
}

// InvokeAsync fires an Event invocation of the worker with a raw payload.
func (l *Lambda) InvokeAsync(ctx context.Context, payload []byte) error {
	out, err := l.client.Invoke(ctx, &lambdasdk.InvokeInput{
		FunctionName:   aws.String(l.functionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("invoke %s: %w", l.functionName, err)
	}
	if out != nil && out.FunctionError != nil {
		return fmt.Errorf("invoke %s: %s", l.functionName, aws.ToString(out.FunctionError))
	}
	return nil
}

// Inline processes payloads immediately in the caller's goroutine. It is the
// fallback when no queue is configured.
type Inline func(ctx context.Context, payload domain.BatchPayload) error

func (f Inline) Enqueue(ctx context.Context, payload domain.BatchPayload) error {
	if f == nil {
		return errors.New("inline queue has no processor")
	}
	return f(ctx, payload)
}
