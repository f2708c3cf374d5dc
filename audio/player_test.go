package audio

import (
	"sync"
	"testing"
	"time"

	"github.com/go-test/deep"

	"hpmusic/models"
)

// recordingEngine records the calls the player makes.
type recordingEngine struct {
	mutex  sync.Mutex
	calls  []string
	volume float64
	seek   float64
}

func (e *recordingEngine) record(call string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.calls = append(e.calls, call)
}

func (e *recordingEngine) Load(song models.Song) { e.record("load:" + song.ID) }
func (e *recordingEngine) Play()                 { e.record("play") }
func (e *recordingEngine) Pause()                { e.record("pause") }
func (e *recordingEngine) Seek(seconds float64) {
	e.record("seek")
	e.mutex.Lock()
	e.seek = seconds
	e.mutex.Unlock()
}
func (e *recordingEngine) SetVolume(volume float64) {
	e.record("volume")
	e.mutex.Lock()
	e.volume = volume
	e.mutex.Unlock()
}

var testSong = models.Song{ID: "1", Title: "Blinding Lights", Artist: "The Weeknd", Duration: "3:20"}

// TestPlayerInitialState verifies a fresh Player is idle at full volume.
func TestPlayerInitialState(t *testing.T) {
	p := NewPlayer(nil)
	want := PlayerState{Volume: 1, Status: StatusIdle}
	if diff := deep.Equal(p.State(), want); diff != nil {
		t.Error(diff)
	}
}

// TestPlayerSelectResetsAndPlays verifies selecting a song resets position
// and starts playback, even over a song that was mid-way.
func TestPlayerSelectResetsAndPlays(t *testing.T) {
	engine := &recordingEngine{}
	p := NewPlayer(engine)

	p.Select(testSong)
	p.MetadataLoaded(200)
	p.TimeUpdate(42)
	p.TogglePlayPause()

	next := models.Song{ID: "2", Title: "Watermelon Sugar"}
	p.Select(next)

	state := p.State()
	if state.CurrentSong == nil || state.CurrentSong.ID != "2" {
		t.Fatalf("CurrentSong = %+v; want song 2", state.CurrentSong)
	}
	if state.CurrentTime != 0 || state.Duration != 0 || !state.IsPlaying || state.Status != StatusPlaying {
		t.Errorf("state after Select = %+v", state)
	}

	want := []string{"load:1", "play", "pause", "load:2", "play"}
	if diff := deep.Equal(engine.calls, want); diff != nil {
		t.Error(diff)
	}
}

// TestPlayerTogglePlayPause walks the playing and paused transitions.
func TestPlayerTogglePlayPause(t *testing.T) {
	engine := &recordingEngine{}
	p := NewPlayer(engine)

	p.TogglePlayPause()
	if state := p.State(); state.Status != StatusIdle || state.IsPlaying {
		t.Fatalf("toggle while idle changed state: %+v", state)
	}
	if len(engine.calls) != 0 {
		t.Fatalf("toggle while idle drove the engine: %v", engine.calls)
	}

	p.Select(testSong)
	p.TogglePlayPause()
	if state := p.State(); state.Status != StatusPaused || state.IsPlaying {
		t.Errorf("after first toggle = %+v; want paused", state)
	}
	p.TogglePlayPause()
	if state := p.State(); state.Status != StatusPlaying || !state.IsPlaying {
		t.Errorf("after second toggle = %+v; want playing", state)
	}
}

// TestPlayerSeekClamps checks the position bounds.
func TestPlayerSeekClamps(t *testing.T) {
	p := NewPlayer(nil)
	if err := p.Seek(10); err != ErrNoSong {
		t.Fatalf("Seek() without song error = %v; want ErrNoSong", err)
	}

	p.Select(testSong)

	// Duration is unknown until metadata arrives, so only the lower bound applies.
	if err := p.Seek(500); err != nil {
		t.Fatal(err)
	}
	if got := p.State().CurrentTime; got != 500 {
		t.Errorf("CurrentTime = %v; want 500", got)
	}

	p.MetadataLoaded(200)
	if got := p.State().CurrentTime; got != 200 {
		t.Errorf("CurrentTime after metadata = %v; want 200", got)
	}

	tests := []struct {
		seek float64
		want float64
	}{
		{-5, 0},
		{50, 50},
		{200, 200},
		{201, 200},
	}
	for _, tt := range tests {
		if err := p.Seek(tt.seek); err != nil {
			t.Fatal(err)
		}
		if got := p.State().CurrentTime; got != tt.want {
			t.Errorf("Seek(%v) -> CurrentTime = %v; want %v", tt.seek, got, tt.want)
		}
	}
}

// TestPlayerSetVolumeClamps verifies volume limits and the zero-means-muted rule.
func TestPlayerSetVolumeClamps(t *testing.T) {
	tests := []struct {
		volume    float64
		want      float64
		wantMuted bool
	}{
		{-1, 0, true},
		{0, 0, true},
		{0.4, 0.4, false},
		{1, 1, false},
		{3, 1, false},
	}
	for _, tt := range tests {
		engine := &recordingEngine{}
		p := NewPlayer(engine)
		p.SetVolume(tt.volume)
		state := p.State()
		if state.Volume != tt.want || state.IsMuted != tt.wantMuted {
			t.Errorf("SetVolume(%v) -> volume %v muted %v; want %v %v", tt.volume, state.Volume, state.IsMuted, tt.want, tt.wantMuted)
		}
		if engine.volume != tt.want {
			t.Errorf("SetVolume(%v) engine volume = %v; want %v", tt.volume, engine.volume, tt.want)
		}
	}
}

// TestPlayerMuteRoundTrip verifies un-muting restores the pre-mute volume.
func TestPlayerMuteRoundTrip(t *testing.T) {
	engine := &recordingEngine{}
	p := NewPlayer(engine)

	p.SetVolume(0.7)
	p.ToggleMute()
	if state := p.State(); !state.IsMuted || state.Volume != 0.7 {
		t.Errorf("muted state = %+v", state)
	}
	if engine.volume != 0 {
		t.Errorf("engine volume while muted = %v; want 0", engine.volume)
	}

	p.ToggleMute()
	if state := p.State(); state.IsMuted || state.Volume != 0.7 {
		t.Errorf("un-muted state = %+v; want volume 0.7 not muted", state)
	}
	if engine.volume != 0.7 {
		t.Errorf("engine volume after un-mute = %v; want 0.7", engine.volume)
	}
}

// TestPlayerUnmuteAfterVolumeZero verifies un-muting a volume dragged to zero
// brings back the last audible volume.
func TestPlayerUnmuteAfterVolumeZero(t *testing.T) {
	p := NewPlayer(nil)
	p.SetVolume(0.3)
	p.SetVolume(0)
	p.ToggleMute()

	if state := p.State(); state.IsMuted || state.Volume != 0.3 {
		t.Errorf("state = %+v; want volume 0.3 not muted", state)
	}
}

// TestPlayerEndedCallsOnNext verifies the ended transition and that the
// callback may re-enter the player.
func TestPlayerEndedCallsOnNext(t *testing.T) {
	p := NewPlayer(nil)
	next := models.Song{ID: "2"}
	called := 0
	p.SetOnNext(func() {
		called++
		p.Select(next)
	})

	p.Select(testSong)

	done := make(chan struct{})
	go func() {
		p.Ended()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Ended() deadlocked while calling onNext")
	}

	if called != 1 {
		t.Errorf("onNext called %d times; want 1", called)
	}
	if state := p.State(); state.CurrentSong.ID != "2" || state.Status != StatusPlaying {
		t.Errorf("state after onNext = %+v", state)
	}
}

// TestPlayerEndedWithoutOnNext verifies the player stays ended with the song shown.
func TestPlayerEndedWithoutOnNext(t *testing.T) {
	p := NewPlayer(nil)
	p.Select(testSong)
	p.Ended()

	state := p.State()
	if state.Status != StatusEnded || state.IsPlaying || state.CurrentSong == nil {
		t.Errorf("state = %+v; want ended with current song", state)
	}

	p.TogglePlayPause()
	if state := p.State(); state.Status != StatusPlaying || state.CurrentTime != 0 {
		t.Errorf("replay after end = %+v", state)
	}
}

// TestPlayerNotifications verifies events are emitted and a full channel never blocks.
func TestPlayerNotifications(t *testing.T) {
	p := NewPlayer(nil)
	p.Select(testSong)

	first := <-p.Notifications
	second := <-p.Notifications
	if first.Event != PlaybackLoaded || second.Event != PlaybackStarted || second.SongID != "1" {
		t.Errorf("notifications = %+v, %+v", first, second)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 250; i++ {
			p.TogglePlayPause()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("player blocked on a full notification channel")
	}

	p.Close()
	p.TogglePlayPause()
}

// TestPlayerStateIsACopy verifies callers cannot mutate the player through State.
func TestPlayerStateIsACopy(t *testing.T) {
	p := NewPlayer(nil)
	p.Select(testSong)

	state := p.State()
	state.CurrentSong.Title = "changed"
	if got := p.State().CurrentSong.Title; got != "Blinding Lights" {
		t.Errorf("CurrentSong.Title = %q; want unchanged", got)
	}
}

// TestPlayerConcurrent is a race-detector test for concurrent controls.
// Run with: go test -race ./audio/...
func TestPlayerConcurrent(t *testing.T) {
	p := NewPlayer(nil)
	p.Select(testSong)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 4 {
			case 0:
				p.TogglePlayPause()
			case 1:
				p.SetVolume(float64(i) / 50)
			case 2:
				p.TimeUpdate(float64(i))
			default:
				_ = p.State()
			}
		}(i)
	}
	wg.Wait()
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(83.9); got != "1:23" {
		t.Errorf("FormatTime(83.9) = %q; want 1:23", got)
	}
}
