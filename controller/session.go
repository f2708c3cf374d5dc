package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"hpmusic/audio"
	"hpmusic/catalog"
	"hpmusic/models"
)

type QueueSource string

const (
	SourcePlaylist QueueSource = "playlist"
	SourceSearch   QueueSource = "search"
	SourceTrending QueueSource = "trending"
)

const historySize = 20

var (
	ErrUnknownEvent  = errors.New("unknown player event")
	ErrUnknownSource = errors.New("unknown queue source")
)

// Snapshot is the full dashboard view of a session.
type Snapshot struct {
	ID                 string             `json:"id"`
	Playlists          []models.Playlist  `json:"playlists"`
	SelectedPlaylistID string             `json:"selected_playlist_id,omitempty"`
	SearchQuery        string             `json:"search_query"`
	SearchResults      []models.Song      `json:"search_results"`
	QueueSource        QueueSource        `json:"queue_source,omitempty"`
	RecentlyPlayed     []SongHistoryEntry `json:"recently_played"`
	Player             audio.PlayerState  `json:"player"`
}

// Session is one dashboard visit. Its mutex serialises every mutation so
// player and playlist updates never interleave. Lock order is session, then
// player.
type Session struct {
	ID                 string
	player             *audio.Player
	playlists          *PlaylistStore
	history            *SongHistory
	catalog            []models.Song
	options            Options
	selectedPlaylistID string
	searchQuery        string
	searchResults      []models.Song
	queue              []models.Song
	queueSource        QueueSource
	queueIndex         int
	lastSeen           time.Time
	now                func() time.Time
	logger             *log.Entry
	mutex              sync.Mutex
}

func newSession(id string, options Options, engine audio.PlaybackEngine, now func() time.Time) *Session {
	songs := options.Catalog
	if songs == nil {
		songs = catalog.Default()
	}

	s := &Session{
		ID:            id,
		player:        audio.NewPlayer(engine),
		playlists:     NewPlaylistStore(),
		history:       NewSongHistory(historySize),
		catalog:       songs,
		options:       options,
		searchResults: []models.Song{},
		lastSeen:      now(),
		now:           now,
		logger: log.WithFields(log.Fields{
			"module":    "controller",
			"sessionID": id,
		}),
	}
	s.playlists.now = now

	split := min(2, len(songs))
	s.playlists.seed("1", "My Favorites", songs[:split])
	s.playlists.seed("2", "Chill Vibes", songs[split:])

	s.player.SetOnNext(func() {
		s.Next()
	})
	s.listenForPlaybackEvents(s.player.Notifications)
	return s
}

func (s *Session) listenForPlaybackEvents(notifications <-chan audio.PlaybackNotification) {
	go func() {
		for notification := range notifications {
			s.logger.WithFields(log.Fields{
				"songID":   notification.SongID,
				"position": audio.FormatTime(notification.Position),
			}).Tracef("Playback %s", notification.Event)
		}
	}()
}

func (s *Session) touch(at time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastSeen = at
}

func (s *Session) idleSince() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.player.Close()
}

func (s *Session) Snapshot() Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return Snapshot{
		ID:                 s.ID,
		Playlists:          s.playlists.Playlists(),
		SelectedPlaylistID: s.selectedPlaylistID,
		SearchQuery:        s.searchQuery,
		SearchResults:      append([]models.Song{}, s.searchResults...),
		QueueSource:        s.queueSource,
		RecentlyPlayed:     s.history.GetRecent(historySize),
		Player:             s.player.State(),
	}
}

func (s *Session) Playlists() []models.Playlist {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.playlists.Playlists()
}

func (s *Session) Playlist(id string) (models.Playlist, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.playlists.Playlist(id)
}

func (s *Session) CreatePlaylist(name string) (models.Playlist, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	playlist, ok := s.playlists.CreatePlaylist(name)
	if ok {
		s.logger.Debugf("Created playlist %q (%s)", playlist.Name, playlist.ID)
	}
	return playlist, ok
}

func (s *Session) AddSongToPlaylist(song models.Song, playlistID string) (models.Playlist, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	playlist, ok := s.playlists.AddSongToPlaylist(song, playlistID)
	if !ok {
		s.logger.Debugf("Playlist %s not found, song %s not added", playlistID, song.ID)
	}
	return playlist, ok
}

// SelectPlaylist records id as the selected playlist.
func (s *Session) SelectPlaylist(id string) (models.Playlist, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	playlist, ok := s.playlists.Playlist(id)
	if ok {
		s.selectedPlaylistID = id
	}
	return playlist, ok
}

func (s *Session) ExportM3U(playlistID string, w io.Writer) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.playlists.ExportM3U(playlistID, w)
}

// Search runs the dashboard search and stores the results on the session. A
// blank query clears the results. In live mode the upstream call runs without
// the session lock held.
func (s *Session) Search(ctx context.Context, query string) ([]models.Song, error) {
	results := []models.Song{}

	if strings.TrimSpace(query) != "" {
		if s.options.Mode == SearchLive {
			result, err := s.options.Client.SearchTracks(ctx, query, s.options.SearchLimit)
			if err != nil {
				s.logger.Errorf("Live search for %q failed: %v", query, err)
				return nil, fmt.Errorf("dashboard search: %w", err)
			}
			results = result.Songs()
		} else {
			results = catalog.Filter(s.catalog, query)
		}
	}

	s.mutex.Lock()
	s.searchQuery = query
	s.searchResults = results
	s.mutex.Unlock()

	return append([]models.Song{}, results...), nil
}

// Trending is the whole catalog.
func (s *Session) Trending() []models.Song {
	return append([]models.Song{}, s.catalog...)
}

// LookupSong finds a song the session knows about by id: catalog, last search
// results, then playlists.
func (s *Session) LookupSong(id string) (models.Song, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, song := range s.catalog {
		if song.ID == id {
			return song, true
		}
	}
	for _, song := range s.searchResults {
		if song.ID == id {
			return song, true
		}
	}
	for _, playlist := range s.playlists.Playlists() {
		for _, song := range playlist.Songs {
			if song.ID == id {
				return song, true
			}
		}
	}
	return models.Song{}, false
}

// PlaySong starts song and remembers the list it was picked from, so Next and
// Previous move through that list.
func (s *Session) PlaySong(song models.Song, source QueueSource) (audio.PlayerState, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var queue []models.Song
	switch source {
	case SourcePlaylist:
		if playlist, ok := s.playlists.Playlist(s.selectedPlaylistID); ok {
			queue = playlist.Songs
		}
	case SourceSearch:
		queue = append([]models.Song{}, s.searchResults...)
	case SourceTrending, "":
		source = SourceTrending
		queue = append([]models.Song{}, s.catalog...)
	default:
		return audio.PlayerState{}, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}

	index := indexOf(queue, song.ID)
	if index < 0 {
		queue = []models.Song{song}
		index = 0
	}

	s.queue = queue
	s.queueSource = source
	s.playAt(index)
	return s.player.State(), nil
}

// Next plays the following song in the queue. At the end of the queue the
// player is left as it is and ok is false.
func (s *Session) Next() (audio.PlayerState, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.queueIndex+1 >= len(s.queue) {
		return s.player.State(), false
	}
	s.playAt(s.queueIndex + 1)
	return s.player.State(), true
}

// Previous plays the song before the current one. On the first song it
// restarts it instead.
func (s *Session) Previous() (audio.PlayerState, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.queue) == 0 {
		return s.player.State(), false
	}
	if s.queueIndex == 0 {
		_ = s.player.Seek(0)
		return s.player.State(), true
	}
	s.playAt(s.queueIndex - 1)
	return s.player.State(), true
}

// playAt must be called with the mutex held.
func (s *Session) playAt(index int) {
	song := s.queue[index]
	s.queueIndex = index
	s.player.Select(song)
	s.history.Add(SongHistoryEntry{
		SongID:   song.ID,
		Title:    song.Title,
		Artist:   song.Artist,
		PlayedAt: s.now(),
	})
}

func (s *Session) Player() audio.PlayerState {
	return s.player.State()
}

func (s *Session) TogglePlayPause() audio.PlayerState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.player.TogglePlayPause()
	return s.player.State()
}

func (s *Session) Seek(seconds float64) (audio.PlayerState, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	err := s.player.Seek(seconds)
	return s.player.State(), err
}

func (s *Session) SetVolume(volume float64) audio.PlayerState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.player.SetVolume(volume)
	return s.player.State()
}

func (s *Session) ToggleMute() audio.PlayerState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.player.ToggleMute()
	return s.player.State()
}

type PlayerEvent string

const (
	EventTimeUpdate     PlayerEvent = "timeupdate"
	EventLoadedMetadata PlayerEvent = "loadedmetadata"
	EventEnded          PlayerEvent = "ended"
)

// HandleEvent applies an event reported by the media element. The ended event
// is delivered without the session lock, since it advances the queue.
func (s *Session) HandleEvent(event PlayerEvent, position float64, duration float64) (audio.PlayerState, error) {
	switch event {
	case EventTimeUpdate:
		s.mutex.Lock()
		s.player.TimeUpdate(position)
		s.mutex.Unlock()
	case EventLoadedMetadata:
		s.mutex.Lock()
		s.player.MetadataLoaded(duration)
		s.mutex.Unlock()
	case EventEnded:
		s.player.Ended()
	default:
		return s.player.State(), fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	return s.player.State(), nil
}

func indexOf(songs []models.Song, id string) int {
	for i, song := range songs {
		if song.ID == id {
			return i
		}
	}
	return -1
}
