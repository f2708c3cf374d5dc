// Package catalog holds the fixed song set the dashboard works with when no
// live search is configured.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"hpmusic/models"
)

//go:embed songs.toml
var defaultSongs []byte

type file struct {
	Songs []models.Song `toml:"songs"`
}

// Load parses a TOML catalog. Every song needs an id and a title.
func Load(r io.Reader) ([]models.Song, error) {
	var f file
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Songs))
	for i, song := range f.Songs {
		if song.ID == "" || song.Title == "" {
			return nil, fmt.Errorf("catalog song %d is missing an id or title", i)
		}
		if seen[song.ID] {
			return nil, fmt.Errorf("catalog song id %q is duplicated", song.ID)
		}
		seen[song.ID] = true
		if _, ok := models.ParseDuration(song.Duration); !ok {
			log.WithFields(log.Fields{"module": "catalog"}).Warnf("Song %s has an unreadable duration %q", song.ID, song.Duration)
		}
	}

	return f.Songs, nil
}

func LoadFile(path string) ([]models.Song, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer fh.Close()
	return Load(fh)
}

// Default returns the embedded catalog. The embedded file is validated by the
// package tests, so a decode failure here is a build defect.
func Default() []models.Song {
	songs, err := Load(bytes.NewReader(defaultSongs))
	if err != nil {
		panic(err)
	}
	return songs
}

// Filter keeps songs whose title, artist or album contains query, ignoring
// case. A blank query matches nothing.
func Filter(songs []models.Song, query string) []models.Song {
	results := []models.Song{}
	if strings.TrimSpace(query) == "" {
		return results
	}

	needle := strings.ToLower(query)
	for _, song := range songs {
		if strings.Contains(strings.ToLower(song.Title), needle) ||
			strings.Contains(strings.ToLower(song.Artist), needle) ||
			strings.Contains(strings.ToLower(song.Album), needle) {
			results = append(results, song)
		}
	}
	return results
}
