package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// ParseLimit reads an optional result limit. Anything that is not an integer
// in [1, MaxLimit] yields DefaultLimit.
func ParseLimit(raw string) int {
	if raw == "" {
		return DefaultLimit
	}
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit < 1 || limit > MaxLimit {
		return DefaultLimit
	}
	return limit
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}

// writePayload forwards an upstream JSON body unchanged.
func writePayload(c *gin.Context, payload json.RawMessage) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

func (manager *Manager) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		manager.rejectRequest(c, &ValidationError{Field: "q", Message: "Search query is required"})
		return
	}
	limit := ParseLimit(c.Query("limit"))

	result, err := manager.Client.SearchTracks(c.Request.Context(), query, limit)
	if err != nil {
		manager.reportError(c, err)
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to search tracks"))
		return
	}
	writePayload(c, result.Raw())
}

// pathID returns the trimmed :id parameter, answering 400 when it is blank.
func (manager *Manager) pathID(c *gin.Context, message string) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		manager.rejectRequest(c, &ValidationError{Field: "id", Message: message})
		return "", false
	}
	return id, true
}

func (manager *Manager) handleTrack(c *gin.Context) {
	id, ok := manager.pathID(c, "Track ID is required")
	if !ok {
		return
	}

	logger := log.WithFields(log.Fields{"module": "handlers", "trackID": id})
	if manager.cache != nil {
		payload, hit, err := manager.cache.GetTrack(id, manager.cacheTTL)
		if err != nil {
			logger.Warnf("Track cache lookup failed: %v", err)
		}
		if hit {
			logger.Trace("Serving track from cache")
			writePayload(c, payload)
			return
		}
	}

	track, err := manager.Client.GetTrack(c.Request.Context(), id)
	if err != nil {
		manager.reportError(c, err)
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch track"))
		return
	}

	if manager.cache != nil {
		if err := manager.cache.PutTrack(id, track.Raw()); err != nil {
			logger.Warnf("Failed to cache track: %v", err)
		}
	}
	writePayload(c, track.Raw())
}

func (manager *Manager) handleArtist(c *gin.Context) {
	id, ok := manager.pathID(c, "Artist ID is required")
	if !ok {
		return
	}

	artist, err := manager.Client.GetArtist(c.Request.Context(), id)
	if err != nil {
		manager.reportError(c, err)
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch artist"))
		return
	}
	writePayload(c, artist.Raw())
}

func (manager *Manager) handleAlbum(c *gin.Context) {
	id, ok := manager.pathID(c, "Album ID is required")
	if !ok {
		return
	}

	album, err := manager.Client.GetAlbum(c.Request.Context(), id)
	if err != nil {
		manager.reportError(c, err)
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch album"))
		return
	}
	writePayload(c, album.Raw())
}
