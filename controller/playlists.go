package controller

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ushis/m3u"

	"hpmusic/models"
)

// PlaylistStore keeps playlists in creation order. It is not safe for
// concurrent use; a Session serialises access to its store.
type PlaylistStore struct {
	playlists []models.Playlist
	now       func() time.Time
	newID     func() string
}

func NewPlaylistStore() *PlaylistStore {
	return &PlaylistStore{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// CreatePlaylist adds an empty playlist. A blank name is ignored and reported
// with ok == false. The name is stored as given.
func (s *PlaylistStore) CreatePlaylist(name string) (models.Playlist, bool) {
	if strings.TrimSpace(name) == "" {
		return models.Playlist{}, false
	}

	playlist := models.Playlist{
		ID:        s.newID(),
		Name:      name,
		Songs:     []models.Song{},
		CreatedAt: s.now(),
	}
	s.playlists = append(s.playlists, playlist)
	return playlist.Clone(), true
}

// AddSongToPlaylist appends song to the playlist with the given id. Duplicates
// are kept. An unknown id leaves every playlist untouched.
func (s *PlaylistStore) AddSongToPlaylist(song models.Song, playlistID string) (models.Playlist, bool) {
	for i := range s.playlists {
		if s.playlists[i].ID != playlistID {
			continue
		}
		s.playlists[i].Songs = append(s.playlists[i].Songs, song)
		return s.playlists[i].Clone(), true
	}
	return models.Playlist{}, false
}

func (s *PlaylistStore) Playlists() []models.Playlist {
	playlists := make([]models.Playlist, 0, len(s.playlists))
	for _, playlist := range s.playlists {
		playlists = append(playlists, playlist.Clone())
	}
	return playlists
}

func (s *PlaylistStore) Playlist(id string) (models.Playlist, bool) {
	for _, playlist := range s.playlists {
		if playlist.ID == id {
			return playlist.Clone(), true
		}
	}
	return models.Playlist{}, false
}

func (s *PlaylistStore) seed(id string, name string, songs []models.Song) {
	playlist := models.Playlist{
		ID:        id,
		Name:      name,
		Songs:     append([]models.Song{}, songs...),
		CreatedAt: s.now(),
	}
	s.playlists = append(s.playlists, playlist)
}

// ExportM3U writes the playlist as extended M3U. Songs without a preview URL
// get an hpmusic:track:<id> path so the entry still identifies the track.
func (s *PlaylistStore) ExportM3U(playlistID string, w io.Writer) (bool, error) {
	playlist, ok := s.Playlist(playlistID)
	if !ok {
		return false, nil
	}

	plist := make(m3u.Playlist, len(playlist.Songs))
	for i, song := range playlist.Songs {
		seconds, ok := models.ParseDuration(song.Duration)
		if !ok {
			seconds = -1
		}
		path := song.PreviewURL
		if path == "" {
			path = "hpmusic:track:" + song.ID
		}
		title := song.Title
		if song.Artist != "" {
			title = song.Artist + " - " + song.Title
		}
		plist[i] = m3u.Track{
			Title: title,
			Path:  path,
			Time:  int64(seconds),
		}
	}

	if _, err := plist.WriteTo(w); err != nil {
		return true, fmt.Errorf("failed to write playlist %s: %w", playlistID, err)
	}
	return true, nil
}
