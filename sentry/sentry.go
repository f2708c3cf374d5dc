// Package sentry wires error reporting and tracing. Request handlers get a
// per-request hub from the gin middleware; everything else falls back to the
// current hub.
package sentry

import (
	"context"
	"fmt"
	"time"

	sentry "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Init configures the global client. An empty DSN leaves reporting disabled
// but every helper in this package stays safe to call.
func Init(dsn string, release string, environment string) error {
	if dsn == "" {
		log.WithFields(log.Fields{"module": "sentry"}).Info("SENTRY_DSN not set, error reporting disabled")
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		Environment:      environment,
		TracesSampleRate: 1.0,
	}); err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	return nil
}

func Middleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

func Flush() {
	sentry.Flush(2 * time.Second)
}

// HubFromContext returns the hub bound to ctx by the middleware, or the
// current hub.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}

// CaptureWithTags captures err with tags that apply to this event only.
func CaptureWithTags(ctx context.Context, err error, tags map[string]string) {
	hub := HubFromContext(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// StartSpan starts a child of the transaction in ctx, if any.
func StartSpan(ctx context.Context, operation string, description string) *sentry.Span {
	span := sentry.StartSpan(ctx, operation)
	span.Description = description
	return span
}

// FinishSpan marks the span status from err and finishes it.
func FinishSpan(span *sentry.Span, err error) {
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Finish()
}
