package models

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "0:00"},
		{"negative", -4, "0:00"},
		{"under_minute", 9.7, "0:09"},
		{"minutes", 200, "3:20"},
		{"long", 3725, "62:05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q; want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		value  string
		want   int
		wantOK bool
	}{
		{"3:20", 200, true},
		{"0:09", 9, true},
		{" 2:54 ", 174, true},
		{"3:2", 0, false},
		{"3:75", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := ParseDuration(tt.value)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, %v; want %d, %v", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPlaylistCloneDoesNotAlias(t *testing.T) {
	original := Playlist{ID: "1", Songs: []Song{{ID: "a"}}}
	clone := original.Clone()
	clone.Songs[0].ID = "b"
	clone.Songs = append(clone.Songs, Song{ID: "c"})

	if original.Songs[0].ID != "a" || len(original.Songs) != 1 {
		t.Errorf("original mutated through clone: %+v", original.Songs)
	}
}
