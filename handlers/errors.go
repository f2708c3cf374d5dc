package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"hpmusic/musicapi"
	"hpmusic/sentry"
)

type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindUpstream   ErrorKind = "upstream"
	KindNetwork    ErrorKind = "network"
	KindValidation ErrorKind = "validation"
	KindUnknown    ErrorKind = "unknown"
)

// ValidationError reports a missing or malformed request parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Classify names the kind of failure behind err. Callers still answer with a
// generic status; the kind is only logged and reported.
func Classify(err error) ErrorKind {
	var validationErr *ValidationError
	var authErr *musicapi.AuthenticationError
	var urlErr *url.Error
	var netErr net.Error
	var requestErr *musicapi.RequestError

	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &authErr):
		return KindAuth
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &urlErr), errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &requestErr):
		return KindUpstream
	default:
		return KindUnknown
	}
}

// rejectRequest answers 400 with the validation message and logs it at debug.
func (manager *Manager) rejectRequest(c *gin.Context, err *ValidationError) ErrorKind {
	kind := Classify(err)
	log.WithFields(log.Fields{
		"module": "handlers",
		"kind":   kind,
		"field":  err.Field,
		"path":   c.FullPath(),
	}).Debugf("Rejected request: %v", err)

	c.JSON(http.StatusBadRequest, errorResponse(err.Message))
	return kind
}

func (manager *Manager) reportError(c *gin.Context, err error) ErrorKind {
	kind := Classify(err)
	log.WithFields(log.Fields{
		"module": "handlers",
		"kind":   kind,
		"path":   c.FullPath(),
	}).Errorf("Request failed: %v", err)

	sentry.CaptureWithTags(c.Request.Context(), err, map[string]string{
		"error_kind": string(kind),
		"route":      c.FullPath(),
	})
	return kind
}
