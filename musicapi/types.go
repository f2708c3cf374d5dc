package musicapi

import (
	"encoding/json"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"

	"hpmusic/models"
)

// The result types decode into typed views for callers that need fields, and
// marshal back to the exact upstream bytes so routes can forward them as-is.

type SearchResult struct {
	spotify.SearchResult
	raw json.RawMessage
}

type Track struct {
	spotify.FullTrack
	raw json.RawMessage
}

type Artist struct {
	spotify.FullArtist
	raw json.RawMessage
}

type Album struct {
	spotify.FullAlbum
	raw json.RawMessage
}

func (r SearchResult) Raw() json.RawMessage { return r.raw }
func (t Track) Raw() json.RawMessage        { return t.raw }
func (a Artist) Raw() json.RawMessage       { return a.raw }
func (a Album) Raw() json.RawMessage        { return a.raw }

func (r SearchResult) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(r.SearchResult)
}

func (t Track) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	return json.Marshal(t.FullTrack)
}

func (a Artist) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	return json.Marshal(a.FullArtist)
}

func (a Album) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	return json.Marshal(a.FullAlbum)
}

// ParseSearchResult keeps an upstream search payload. Only invalid JSON is
// rejected; a payload that does not fit the typed view is kept with an empty
// view.
func ParseSearchResult(body []byte) (*SearchResult, error) {
	view, err := decodeView[spotify.SearchResult](body)
	if err != nil {
		return nil, err
	}
	return &SearchResult{SearchResult: view, raw: body}, nil
}

func ParseTrack(body []byte) (*Track, error) {
	view, err := decodeView[spotify.FullTrack](body)
	if err != nil {
		return nil, err
	}
	return &Track{FullTrack: view, raw: body}, nil
}

func ParseArtist(body []byte) (*Artist, error) {
	view, err := decodeView[spotify.FullArtist](body)
	if err != nil {
		return nil, err
	}
	return &Artist{FullArtist: view, raw: body}, nil
}

func ParseAlbum(body []byte) (*Album, error) {
	view, err := decodeView[spotify.FullAlbum](body)
	if err != nil {
		return nil, err
	}
	return &Album{FullAlbum: view, raw: body}, nil
}

func decodeView[T any](body []byte) (T, error) {
	var view T
	if !json.Valid(body) {
		return view, errors.New("upstream returned invalid JSON")
	}
	if err := json.Unmarshal(body, &view); err != nil {
		log.WithFields(log.Fields{"module": "musicapi"}).Debugf("Payload does not match %T, forwarding it untyped: %v", view, err)
		var zero T
		return zero, nil
	}
	return view, nil
}

// Songs maps the track page to dashboard songs. A result without a tracks
// page yields an empty list.
func (r SearchResult) Songs() []models.Song {
	songs := []models.Song{}
	if r.Tracks == nil {
		return songs
	}
	for _, track := range r.Tracks.Tracks {
		songs = append(songs, songFromTrack(track))
	}
	return songs
}

func (t Track) Song() models.Song {
	return songFromTrack(t.FullTrack)
}

func songFromTrack(track spotify.FullTrack) models.Song {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	image := ""
	if len(track.Album.Images) > 0 {
		image = track.Album.Images[0].URL
	}

	return models.Song{
		ID:         string(track.ID),
		Title:      track.Name,
		Artist:     strings.Join(artists, ", "),
		Album:      track.Album.Name,
		Duration:   models.FormatDuration(float64(track.Duration) / 1000),
		Image:      image,
		PreviewURL: track.PreviewURL,
	}
}
