package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNewError_Classification(t *testing.T) {
	tests := []struct {
		status   int
		wantKind Kind
		wantIs   error
		wantMsg  string
	}{
		{429, KindRateLimited, ErrRateLimited, MessageRateLimited},
		{402, KindPaymentRequired, ErrPaymentRequired, MessagePaymentRequired},
		{500, KindGeneric, ErrBackend, MessageGeneric},
		{400, KindGeneric, ErrBackend, MessageGeneric},
		{0, KindGeneric, ErrBackend, MessageGeneric},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := NewError(tt.status, "boom", nil)
			if err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", err.Kind, tt.wantKind)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}
			if got := UserMessage(err); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestError_WrappedKeepsKind(t *testing.T) {
	cause := errors.New("socket closed")
	err := fmt.Errorf("generate round 1: %w", NewError(429, "slow down", cause))

	if KindOf(err) != KindRateLimited {
		t.Errorf("KindOf() = %q, want rate_limited", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to remain reachable")
	}
	if errors.Is(err, ErrBackend) {
		t.Error("rate limit should not match the generic sentinel")
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if KindOf(context.DeadlineExceeded) != KindGeneric {
		t.Error("plain errors should classify as generic")
	}
	if UserMessage(errors.New("x")) != MessageGeneric {
		t.Error("plain errors should use the generic message")
	}
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(ctx context.Context, req Request) (Response, error) {
		return Response{Content: req.System}, nil
	})
	resp, err := g.Generate(context.Background(), Request{System: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hi" || resp.HasToolCalls() {
		t.Errorf("unexpected response %+v", resp)
	}
}
