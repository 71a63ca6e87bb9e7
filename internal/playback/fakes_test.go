package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeHandle records every operation so tests can assert ordering and
// single-ownership.
type fakeHandle struct {
	mu         sync.Mutex
	videoID    string
	title      string
	onState    StateChangeFunc
	playing    bool
	destroyed  bool
	volume     int
	quality    string
	current    float64
	playCalls  int
	pauseCalls int
	seeks      []float64
}

func (h *fakeHandle) Play() {
	h.mu.Lock()
	h.playing = true
	h.playCalls++
	onState := h.onState
	h.mu.Unlock()
	if onState != nil {
		onState(StatePlaying)
	}
}

func (h *fakeHandle) Pause() {
	h.mu.Lock()
	h.playing = false
	h.pauseCalls++
	onState := h.onState
	h.mu.Unlock()
	if onState != nil {
		onState(StatePaused)
	}
}

func (h *fakeHandle) Seek(seconds float64, allowSeekAhead bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = seconds
	h.seeks = append(h.seeks, seconds)
}

func (h *fakeHandle) Volume() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *fakeHandle) SetVolume(volume int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volume = volume
}

func (h *fakeHandle) Quality() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.quality
}

func (h *fakeHandle) SetQuality(quality string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quality = quality
}

func (h *fakeHandle) CurrentTime() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *fakeHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.playing {
		return StatePlaying
	}
	return StatePaused
}

func (h *fakeHandle) VideoID() string { return h.videoID }
func (h *fakeHandle) Title() string   { return h.title }

func (h *fakeHandle) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed = true
	h.playing = false
}

func (h *fakeHandle) isDestroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// fakeAPI is an in-memory widget boundary. Creation of specific videos can be
// gated to exercise the async races the controller must survive.
type fakeAPI struct {
	mu         sync.Mutex
	containers map[string]bool
	handles    []*fakeHandle
	loadCalls  int
	loadGate   chan struct{} // nil: Load returns immediately
	loadErr    error
	createGate map[string]chan struct{} // per-video gate for NewPlayer
	createErr  map[string]error

	// createStarted, when set, receives the videoID as NewPlayer is entered,
	// before any gate. Lets tests order events around a blocked creation.
	createStarted chan string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		containers: make(map[string]bool),
		createGate: make(map[string]chan struct{}),
		createErr:  make(map[string]error),
	}
}

func (a *fakeAPI) Load(ctx context.Context) error {
	a.mu.Lock()
	a.loadCalls++
	gate := a.loadGate
	err := a.loadErr
	a.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

func (a *fakeAPI) CreateContainer(containerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.containers[containerID] = true
}

func (a *fakeAPI) RemoveContainer(containerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.containers, containerID)
}

func (a *fakeAPI) HasContainer(containerID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.containers[containerID]
}

func (a *fakeAPI) NewPlayer(containerID, videoID string, onStateChange StateChangeFunc) (Handle, error) {
	a.mu.Lock()
	gate := a.createGate[videoID]
	err := a.createErr[videoID]
	started := a.createStarted
	a.mu.Unlock()

	if started != nil {
		started <- videoID
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	handle := &fakeHandle{videoID: videoID, onState: onStateChange}

	a.mu.Lock()
	a.handles = append(a.handles, handle)
	a.mu.Unlock()

	return handle, nil
}

func (a *fakeAPI) liveHandles() []*fakeHandle {
	a.mu.Lock()
	defer a.mu.Unlock()

	live := []*fakeHandle{}
	for _, h := range a.handles {
		if !h.isDestroyed() {
			live = append(live, h)
		}
	}
	return live
}

func (a *fakeAPI) handleCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.handles)
}

// blockingLikes blocks Like/Unlike until released, counting calls.
type blockingLikes struct {
	mu      sync.Mutex
	release chan struct{}
	liked   map[string]bool
	likes   int
	unlikes int
}

func newBlockingLikes() *blockingLikes {
	return &blockingLikes{
		release: make(chan struct{}),
		liked:   make(map[string]bool),
	}
}

func (l *blockingLikes) IsLiked(ctx context.Context, videoID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.liked[videoID], nil
}

func (l *blockingLikes) Like(ctx context.Context, videoID, title, thumbnail string) error {
	<-l.release
	l.mu.Lock()
	defer l.mu.Unlock()
	l.likes++
	l.liked[videoID] = true
	return nil
}

func (l *blockingLikes) Unlike(ctx context.Context, videoID string) error {
	<-l.release
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlikes++
	delete(l.liked, videoID)
	return nil
}

func (l *blockingLikes) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.likes, l.unlikes
}

var errCreateFailed = errors.New("widget construction failed")

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}
