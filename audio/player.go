package audio

import (
	"errors"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"hpmusic/models"
)

var ErrNoSong = errors.New("no song loaded")

type Player struct {
	Notifications  chan PlaybackNotification
	logger         *log.Entry
	engine         PlaybackEngine
	state          PlayerState
	previousVolume float64
	onNext         func()
	mutex          sync.Mutex
}

func NewPlayer(engine PlaybackEngine) *Player {
	if engine == nil {
		engine = NopEngine{}
	}
	return &Player{
		Notifications: make(chan PlaybackNotification, 100),
		logger: log.WithFields(log.Fields{
			"module": "player",
		}),
		engine:         engine,
		state:          PlayerState{Volume: 1, Status: StatusIdle},
		previousVolume: 1,
	}
}

// SetOnNext registers the callback run after a song ends. It is called without
// the player lock held, so it may select the next song.
func (p *Player) SetOnNext(onNext func()) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.onNext = onNext
}

// Select loads song and starts it from the beginning.
func (p *Player) Select(song models.Song) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.state.CurrentSong = &song
	p.state.CurrentTime = 0
	p.state.Duration = 0
	p.state.IsPlaying = false
	p.state.Status = StatusLoaded
	p.engine.Load(song)
	p.notify(PlaybackLoaded)

	p.engine.Play()
	p.state.IsPlaying = true
	p.state.Status = StatusPlaying
	p.logger.Debugf("Playing %s (%s)", song.Title, song.ID)
	p.notify(PlaybackStarted)
}

// TogglePlayPause flips between playing and paused. It does nothing while idle.
func (p *Player) TogglePlayPause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	switch p.state.Status {
	case StatusIdle:
		return
	case StatusPlaying:
		p.engine.Pause()
		p.state.IsPlaying = false
		p.state.Status = StatusPaused
		p.notify(PlaybackPaused)
	case StatusEnded:
		p.state.CurrentTime = 0
		p.engine.Seek(0)
		fallthrough
	default:
		p.engine.Play()
		p.state.IsPlaying = true
		p.state.Status = StatusPlaying
		p.notify(PlaybackResumed)
	}
}

// Seek moves the position, clamped to the song. The upper bound only applies
// once the engine has reported a duration.
func (p *Player) Seek(seconds float64) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.state.CurrentSong == nil {
		return ErrNoSong
	}
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	if p.state.Duration > 0 && seconds > p.state.Duration {
		seconds = p.state.Duration
	}

	p.engine.Seek(seconds)
	p.state.CurrentTime = seconds
	p.notify(PlaybackSeeked)
	return nil
}

// SetVolume clamps volume to [0, 1]. Zero mutes, anything above unmutes.
func (p *Player) SetVolume(volume float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	volume = clampVolume(volume)
	if volume > 0 {
		p.previousVolume = volume
	}
	p.state.Volume = volume
	p.state.IsMuted = volume == 0
	p.engine.SetVolume(volume)
}

// ToggleMute silences the engine without touching the stored volume, and
// restores it on un-mute. If the volume itself was dragged to zero the last
// audible volume comes back instead.
func (p *Player) ToggleMute() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.state.IsMuted {
		p.state.IsMuted = true
		p.engine.SetVolume(0)
		return
	}

	if p.state.Volume == 0 {
		p.state.Volume = p.previousVolume
	}
	p.state.IsMuted = false
	p.engine.SetVolume(p.state.Volume)
}

func (p *Player) TimeUpdate(seconds float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.state.CurrentSong == nil || math.IsNaN(seconds) || seconds < 0 {
		return
	}
	p.state.CurrentTime = seconds
}

func (p *Player) MetadataLoaded(duration float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.state.CurrentSong == nil || math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return
	}
	p.state.Duration = duration
	if p.state.CurrentTime > duration {
		p.state.CurrentTime = duration
	}
}

// Ended marks the song finished and hands over to the onNext callback, if any.
func (p *Player) Ended() {
	p.mutex.Lock()
	if p.state.CurrentSong == nil {
		p.mutex.Unlock()
		return
	}
	p.state.IsPlaying = false
	p.state.Status = StatusEnded
	p.notify(PlaybackCompleted)
	onNext := p.onNext
	p.mutex.Unlock()

	if onNext != nil {
		onNext()
	}
}

// State returns a copy of the current state.
func (p *Player) State() PlayerState {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	state := p.state
	if state.CurrentSong != nil {
		song := *state.CurrentSong
		state.CurrentSong = &song
	}
	return state
}

// Close stops notifications. The player must not be used afterwards.
func (p *Player) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.Notifications != nil {
		close(p.Notifications)
		p.Notifications = nil
	}
}

// notify must be called with the mutex held.
func (p *Player) notify(event PlaybackNotificationType) {
	if p.Notifications == nil {
		return
	}
	notification := PlaybackNotification{Event: event, Position: p.state.CurrentTime}
	if p.state.CurrentSong != nil {
		notification.SongID = p.state.CurrentSong.ID
	}
	select {
	case p.Notifications <- notification:
	default:
		p.logger.Warnf("Notification channel full, dropping %s", event)
	}
}

func clampVolume(volume float64) float64 {
	if math.IsNaN(volume) || volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}

// FormatTime renders a playback position as m:ss.
func FormatTime(seconds float64) string {
	return models.FormatDuration(seconds)
}
