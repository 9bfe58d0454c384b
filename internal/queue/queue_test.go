package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricofy/catalog-translator/internal/domain"
)

type fakeInvoker struct {
	inputs []*lambdasdk.InvokeInput
	out    *lambdasdk.InvokeOutput
	err    error
}

func (f *fakeInvoker) Invoke(_ context.Context, in *lambdasdk.InvokeInput, _ ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error) {
	f.inputs = append(f.inputs, in)
	return f.out, f.err
}

func TestLambda_Enqueue(t *testing.T) {
	inv := &fakeInvoker{out: &lambdasdk.InvokeOutput{StatusCode: 202}}
	q := NewLambdaWithClient(inv, "catalog-translator")

	err := q.Enqueue(t.Context(), domain.BatchPayload{ProductIDs: []int64{1, 2}, TargetLang: "fr"})
	require.NoError(t, err)

	require.Len(t, inv.inputs, 1)
	in := inv.inputs[0]
	assert.Equal(t, "catalog-translator", aws.ToString(in.FunctionName))
	assert.Equal(t, types.InvocationTypeEvent, in.InvocationType)
	assert.JSONEq(t, `{"product_ids":[1,2],"target_lang":"fr"}`, string(in.Payload))
}

func TestLambda_EnqueueErrors(t *testing.T) {
	tests := []struct {
		name string
		inv  *fakeInvoker
	}{
		{"invoke error", &fakeInvoker{err: errors.New("throttled")}},
		{"function error", &fakeInvoker{out: &lambdasdk.InvokeOutput{FunctionError: aws.String("Unhandled")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewLambdaWithClient(tt.inv, "fn")
			assert.Error(t, q.Enqueue(t.Context(), domain.BatchPayload{ProductIDs: []int64{1}}))
		})
	}
}

func TestNewLambda_RequiresFunction(t *testing.T) {
	_, err := NewLambda(t.Context(), "")
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestInline(t *testing.T) {
	var got []domain.BatchPayload
	q := Inline(func(_ context.Context, p domain.BatchPayload) error {
		got = append(got, p)
		return nil
	})

	require.NoError(t, q.Enqueue(t.Context(), domain.BatchPayload{ProductIDs: []int64{7}, TargetLang: "de"}))
	assert.Equal(t, []domain.BatchPayload{{ProductIDs: []int64{7}, TargetLang: "de"}}, got)

	var empty Inline
	assert.Error(t, empty.Enqueue(t.Context(), domain.BatchPayload{}))
}
