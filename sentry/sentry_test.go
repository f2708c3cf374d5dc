package sentry

import (
	"context"
	"errors"
	"testing"

	sentry "github.com/getsentry/sentry-go"
)

func TestHubFromContext(t *testing.T) {
	if got := HubFromContext(context.Background()); got != sentry.CurrentHub() {
		t.Error("HubFromContext(background) did not fall back to the current hub")
	}

	hub := sentry.CurrentHub().Clone()
	ctx := sentry.SetHubOnContext(context.Background(), hub)
	if got := HubFromContext(ctx); got != hub {
		t.Error("HubFromContext() did not return the hub bound to the context")
	}
}

func TestInitWithoutDSN(t *testing.T) {
	if err := Init("", "test", "test"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	// Disabled reporting must still accept calls.
	CaptureException(context.Background(), errors.New("boom"))
	CaptureWithTags(context.Background(), errors.New("boom"), map[string]string{"error_kind": "unknown"})
}

func TestFinishSpan(t *testing.T) {
	span := StartSpan(context.Background(), "musicapi.search", "Search tracks")
	FinishSpan(span, errors.New("upstream"))
	if span.Status != sentry.SpanStatusInternalError {
		t.Errorf("Status = %v; want internal error", span.Status)
	}

	span = StartSpan(context.Background(), "musicapi.track", "Get track")
	FinishSpan(span, nil)
	if span.Status != sentry.SpanStatusOK {
		t.Errorf("Status = %v; want ok", span.Status)
	}
	if span.Description != "Get track" {
		t.Errorf("Description = %q", span.Description)
	}
}
