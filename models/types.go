package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Song is a playable item as the dashboard sees it. It is built either from an
// upstream track or from the local catalog and never mutated afterwards.
type Song struct {
	ID         string `json:"id" toml:"id"`
	Title      string `json:"title" toml:"title"`
	Artist     string `json:"artist" toml:"artist"`
	Album      string `json:"album" toml:"album"`
	Duration   string `json:"duration" toml:"duration"`
	Image      string `json:"image" toml:"image"`
	PreviewURL string `json:"preview_url,omitempty" toml:"preview_url"`
}

// Playlist is a named, ordered list of songs. Duplicates are allowed.
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Songs     []Song    `json:"songs"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a copy whose song slice does not alias the receiver's.
func (p Playlist) Clone() Playlist {
	songs := make([]Song, len(p.Songs))
	copy(songs, p.Songs)
	p.Songs = songs
	return p
}

// FormatDuration renders seconds as m:ss. Negative and NaN values render as 0:00.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	minutes := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// ParseDuration is the inverse of FormatDuration. It returns false when the
// value is not in m:ss form.
func ParseDuration(value string) (int, bool) {
	minutes, seconds, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return 0, false
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 {
		return 0, false
	}
	s, err := strconv.Atoi(seconds)
	if err != nil || s < 0 || s > 59 || len(seconds) != 2 {
		return 0, false
	}
	return m*60 + s, true
}
