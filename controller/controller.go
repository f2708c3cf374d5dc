package controller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"hpmusic/audio"
	"hpmusic/models"
	"hpmusic/musicapi"
)

type SearchMode string

const (
	SearchFixture SearchMode = "fixture"
	SearchLive    SearchMode = "live"
)

const defaultIdleTimeout = 60 * time.Minute

// Searcher is the part of the music API client the dashboard uses in live mode.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) (*musicapi.SearchResult, error)
}

type Options struct {
	Catalog     []models.Song
	Mode        SearchMode
	Client      Searcher
	SearchLimit int
	IdleTimeout time.Duration
	// Engine builds the playback engine for each new session. Nil means
	// audio.NopEngine.
	Engine func() audio.PlaybackEngine
}

type Controller struct {
	// This is a map of session id to the dashboard session
	sessions map[string]*Session
	options  Options
	mutex    sync.Mutex
	now      func() time.Time
}

func NewController(options Options) *Controller {
	if options.Mode == SearchLive && options.Client == nil {
		log.WithFields(log.Fields{"module": "controller"}).Warn("Live search requested without a music API client, using the catalog")
		options.Mode = SearchFixture
	}
	if options.Mode == "" {
		options.Mode = SearchFixture
	}
	if options.IdleTimeout <= 0 {
		options.IdleTimeout = defaultIdleTimeout
	}
	if options.SearchLimit <= 0 {
		options.SearchLimit = musicapi.DefaultSearchLimit
	}

	return &Controller{
		sessions: make(map[string]*Session),
		options:  options,
		now:      time.Now,
	}
}

func (c *Controller) Mode() SearchMode {
	return c.options.Mode
}

// NewSession creates a dashboard session seeded with the example playlists.
func (c *Controller) NewSession() *Session {
	var engine audio.PlaybackEngine = audio.NopEngine{}
	if c.options.Engine != nil {
		engine = c.options.Engine()
	}

	session := newSession(uuid.NewString(), c.options, engine, c.now)

	c.mutex.Lock()
	c.sessions[session.ID] = session
	count := len(c.sessions)
	c.mutex.Unlock()

	log.WithFields(log.Fields{
		"module":    "controller",
		"sessionID": session.ID,
	}).Debugf("Session created, %d active", count)
	return session
}

// Session returns the session and marks it as recently used.
func (c *Controller) Session(id string) (*Session, bool) {
	c.mutex.Lock()
	session, ok := c.sessions[id]
	c.mutex.Unlock()
	if !ok {
		return nil, false
	}

	session.touch(c.now())
	return session, true
}

func (c *Controller) EndSession(id string) bool {
	c.mutex.Lock()
	session, ok := c.sessions[id]
	delete(c.sessions, id)
	c.mutex.Unlock()

	if !ok {
		return false
	}
	session.close()
	log.WithFields(log.Fields{"module": "controller", "sessionID": id}).Debug("Session ended")
	return true
}

func (c *Controller) SessionCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.sessions)
}

// SweepIdle ends sessions unused for longer than the idle timeout and returns
// how many were removed.
func (c *Controller) SweepIdle() int {
	cutoff := c.now().Add(-c.options.IdleTimeout)

	c.mutex.Lock()
	var expired []*Session
	for id, session := range c.sessions {
		if session.idleSince().Before(cutoff) {
			expired = append(expired, session)
			delete(c.sessions, id)
		}
	}
	c.mutex.Unlock()

	for _, session := range expired {
		session.close()
	}
	if len(expired) > 0 {
		log.WithFields(log.Fields{"module": "controller"}).Infof("Expired %d idle sessions, %d active", len(expired), c.SessionCount())
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	interval := c.options.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SweepIdle()
		}
	}
}
