package handlers

// handlers turn HTTP requests into music API calls and dashboard session
// operations, and shape the results into responses.

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"hpmusic/controller"
	"hpmusic/musicapi"
	"hpmusic/pages"
	"hpmusic/sentry"
)

// MusicClient is the music API surface the routes need.
type MusicClient interface {
	SearchTracks(ctx context.Context, query string, limit int) (*musicapi.SearchResult, error)
	GetTrack(ctx context.Context, id string) (*musicapi.Track, error)
	GetArtist(ctx context.Context, id string) (*musicapi.Artist, error)
	GetAlbum(ctx context.Context, id string) (*musicapi.Album, error)
}

// TrackCache stores raw track payloads.
type TrackCache interface {
	GetTrack(trackID string, maxAge time.Duration) ([]byte, bool, error)
	PutTrack(trackID string, payload []byte) error
}

type Manager struct {
	Client     MusicClient
	Controller *controller.Controller
	cache      TrackCache
	cacheTTL   time.Duration
}

func NewManager(client MusicClient, controller *controller.Controller) *Manager {
	return &Manager{
		Client:     client,
		Controller: controller,
	}
}

// WithTrackCache serves track lookups from cache while entries are younger
// than ttl.
func (manager *Manager) WithTrackCache(cache TrackCache, ttl time.Duration) *Manager {
	manager.cache = cache
	manager.cacheTTL = ttl
	return manager
}

func NewRouter(manager *Manager) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery(), sentry.Middleware())
	manager.Register(router)
	return router
}

func (manager *Manager) Register(router gin.IRouter) {
	router.GET("/", manager.handleLanding)
	router.GET("/privacy", manager.handleDocument("Privacy Policy", pages.PrivacyPolicy))
	router.GET("/terms", manager.handleDocument("Terms of Service", pages.TermsOfService))
	router.GET("/health", manager.handleHealth)

	music := router.Group("/api/music")
	music.GET("/search", manager.handleSearch)
	music.GET("/track/:id", manager.handleTrack)
	music.GET("/artist/:id", manager.handleArtist)
	music.GET("/album/:id", manager.handleAlbum)

	manager.registerDashboard(router.Group("/api/dashboard"))
}

func (manager *Manager) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (manager *Manager) handleLanding(c *gin.Context) {
	mode := string(controller.SearchFixture)
	if manager.Controller != nil {
		mode = string(manager.Controller.Mode())
	}

	var buf bytes.Buffer
	if err := pages.RenderLanding(&buf, pages.DefaultLanding(mode)); err != nil {
		manager.reportError(c, err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (manager *Manager) handleDocument(title string, body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		if err := pages.RenderDocument(&buf, title, body); err != nil {
			manager.reportError(c, err)
			c.String(http.StatusInternalServerError, "Internal Server Error")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"module":  "http",
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warn("Request failed")
		case c.Request.URL.Path == "/health":
			entry.Trace("Request handled")
		default:
			entry.Debug("Request handled")
		}
	}
}
