package audio

import "hpmusic/models"

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoaded  Status = "loaded"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

type PlaybackNotificationType string

const (
	PlaybackLoaded    PlaybackNotificationType = "loaded"
	PlaybackStarted   PlaybackNotificationType = "started"
	PlaybackPaused    PlaybackNotificationType = "paused"
	PlaybackResumed   PlaybackNotificationType = "resumed"
	PlaybackSeeked    PlaybackNotificationType = "seeked"
	PlaybackCompleted PlaybackNotificationType = "completed"
)

type PlaybackNotification struct {
	Event    PlaybackNotificationType
	SongID   string
	Position float64
}

// PlayerState is the externally visible player state. Times are in seconds.
type PlayerState struct {
	CurrentSong *models.Song `json:"currentSong"`
	IsPlaying   bool         `json:"isPlaying"`
	CurrentTime float64      `json:"currentTime"`
	Duration    float64      `json:"duration"`
	Volume      float64      `json:"volume"`
	IsMuted     bool         `json:"isMuted"`
	Status      Status       `json:"status"`
}

// PlaybackEngine is the media element the player drives. Errors from the
// element surface later as events, so the calls do not return them.
type PlaybackEngine interface {
	Load(song models.Song)
	Play()
	Pause()
	Seek(seconds float64)
	SetVolume(volume float64)
}

// NopEngine is used on the server, where the media element lives in the
// browser and only reports events back.
type NopEngine struct{}

func (NopEngine) Load(models.Song)  {}
func (NopEngine) Play()             {}
func (NopEngine) Pause()            {}
func (NopEngine) Seek(float64)      {}
func (NopEngine) SetVolume(float64) {}
