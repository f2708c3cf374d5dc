package musicapi

import (
	"errors"
	"fmt"
	"net/http"
)

type Operation string

const (
	OpSearch Operation = "search"
	OpTrack  Operation = "track"
	OpArtist Operation = "artist"
	OpAlbum  Operation = "album"
)

var (
	ErrSearch       = errors.New("failed to search tracks")
	ErrTrackFetch   = errors.New("failed to fetch track")
	ErrArtistFetch  = errors.New("failed to fetch artist")
	ErrAlbumFetch   = errors.New("failed to fetch album")
	ErrUnauthorized = errors.New("access token rejected")
)

// AuthenticationError is returned when the client-credentials exchange fails.
// StatusCode is zero when no response was received.
type AuthenticationError struct {
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to authenticate with music API: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to authenticate with music API: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// RequestError is returned by every resource call. It matches the sentinel for
// its operation with errors.Is, and ErrUnauthorized when the upstream answered
// 401 even after re-authenticating.
type RequestError struct {
	Op         Operation
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: status %d: %v", e.sentinel(), e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.sentinel(), e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.StatusCode == http.StatusUnauthorized
	}
	return target == e.sentinel()
}

func (e *RequestError) sentinel() error {
	switch e.Op {
	case OpSearch:
		return ErrSearch
	case OpTrack:
		return ErrTrackFetch
	case OpArtist:
		return ErrArtistFetch
	case OpAlbum:
		return ErrAlbumFetch
	default:
		return fmt.Errorf("music API %s failed", e.Op)
	}
}
