package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Status is the controller's session state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// LikeStore is the slice of the library bindings the controller needs for the
// like toggle.
type LikeStore interface {
	IsLiked(ctx context.Context, videoID string) (bool, error)
	Like(ctx context.Context, videoID, title, thumbnail string) error
	Unlike(ctx context.Context, videoID string) error
}

// ErrLikeInFlight reports a like toggle arriving while a previous one is
// still being confirmed by the server. The control is disabled during flight.
var ErrLikeInFlight = errors.New("like toggle already in flight")

// restoreState carries position and play state across a player recreation.
type restoreState struct {
	at      float64
	playing bool
}

// Controller owns the playback session: the current track, the single live
// widget handle, and the UI-facing flags. Every track change destroys the old
// handle before a new one is created; an epoch counter discards async results
// that lose a race against a newer selection.
type Controller struct {
	factory     *Factory
	likes       LikeStore
	settleDelay time.Duration
	log         *log.Logger

	mu          sync.Mutex
	epoch       uint64
	status      Status
	videoID     string
	title       string
	thumbnail   string
	containerID string
	handle      Handle
	playing     bool
	wantPlaying bool
	volume      int
	quality     string
	visible     bool
	minimized   bool
	liked       bool
	likeBusy    bool
	lastErr     error

	unsubscribe func()
}

type Option func(*Controller)

// WithSettleDelay overrides the grace delay used after recreations and
// visibility changes before playback is resumed.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) { c.settleDelay = d }
}

func WithVolume(volume int) Option {
	return func(c *Controller) { c.volume = clampVolume(volume) }
}

func WithQuality(quality string) Option {
	return func(c *Controller) { c.quality = quality }
}

func NewController(factory *Factory, likes LikeStore, opts ...Option) *Controller {
	c := &Controller{
		factory:     factory,
		likes:       likes,
		settleDelay: 500 * time.Millisecond,
		log:         log.WithPrefix("playback"),
		status:      StatusIdle,
		volume:      50,
		quality:     QualityTiny,
		visible:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes the controller to track selections. Signals are consumed
// until Close is called.
func (c *Controller) Start(bus *Bus) {
	ch, cancel := bus.Subscribe()

	c.mu.Lock()
	c.unsubscribe = cancel
	c.mu.Unlock()

	go func() {
		for sel := range ch {
			c.PlayTrack(sel)
		}
	}()
}

// Close tears the session down: unsubscribes, destroys any live handle and
// removes its container. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel := c.unsubscribe
	c.unsubscribe = nil
	c.epoch++
	handle := c.handle
	containerID := c.containerID
	c.handle = nil
	c.containerID = ""
	c.videoID = ""
	c.status = StatusIdle
	c.playing = false
	c.wantPlaying = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if handle != nil {
		handle.Destroy()
	}
	if containerID != "" {
		c.factory.API().RemoveContainer(containerID)
	}
}

// PlayTrack switches the session to a new track. The previous handle is
// destroyed before creation begins, and the widget gets a fresh container so
// it never binds stale DOM state.
func (c *Controller) PlayTrack(sel TrackSelection) {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	old := c.handle
	oldContainer := c.containerID
	c.handle = nil
	c.videoID = sel.VideoID
	c.title = sel.Title
	c.thumbnail = sel.Thumbnail
	c.status = StatusLoading
	c.playing = false
	// Selecting a track is a request to play it. The flag only clears on an
	// explicit user pause, never on the widget's own PAUSED signals.
	c.wantPlaying = true
	c.liked = false
	c.minimized = false
	c.lastErr = nil
	containerID := fmt.Sprintf("player-container-%d", epoch)
	c.containerID = containerID
	c.mu.Unlock()

	if old != nil {
		old.Destroy()
	}

	api := c.factory.API()
	if oldContainer != "" {
		api.RemoveContainer(oldContainer)
	}
	api.CreateContainer(containerID)

	go c.createPlayer(epoch, containerID, sel.VideoID, nil)
	go c.refreshLiked(epoch, sel.VideoID)
}

// createPlayer runs the async creation for one epoch. A result arriving after
// a newer selection is discarded and its handle destroyed immediately, so the
// session never holds two live instances.
func (c *Controller) createPlayer(epoch uint64, containerID, videoID string, restore *restoreState) {
	handle, err := c.factory.CreatePlayer(context.Background(), containerID, videoID, func(s State) {
		c.onStateChange(epoch, s)
	})

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		if handle != nil {
			handle.Destroy()
		}
		return
	}

	if err != nil {
		c.status = StatusError
		c.lastErr = err
		c.mu.Unlock()
		c.log.Error("player creation failed", "video", videoID, "err", err)
		return
	}

	c.handle = handle
	c.status = StatusReady
	volume := c.volume
	quality := c.quality
	c.mu.Unlock()

	handle.SetVolume(volume)
	handle.SetQuality(quality)

	if restore != nil {
		c.resumeAfterSettle(epoch, handle, restore)
	}
}

// resumeAfterSettle seeks back to the captured position and resumes playback
// once the fresh instance has had a moment to settle.
func (c *Controller) resumeAfterSettle(epoch uint64, handle Handle, restore *restoreState) {
	time.AfterFunc(c.settleDelay, func() {
		c.mu.Lock()
		stale := epoch != c.epoch || c.handle != handle
		c.mu.Unlock()
		if stale {
			return
		}

		handle.Seek(restore.at, true)
		if restore.playing {
			handle.Play()
		}
	})
}

func (c *Controller) onStateChange(epoch uint64, s State) {
	if s != StatePlaying && s != StatePaused {
		return
	}

	c.mu.Lock()
	if epoch == c.epoch {
		c.playing = s == StatePlaying
	}
	c.mu.Unlock()
}

func (c *Controller) refreshLiked(epoch uint64, videoID string) {
	if c.likes == nil {
		return
	}

	liked, err := c.likes.IsLiked(context.Background(), videoID)
	if err != nil {
		c.log.Warn("failed to fetch liked status", "video", videoID, "err", err)
		return
	}

	c.mu.Lock()
	if epoch == c.epoch {
		c.liked = liked
	}
	c.mu.Unlock()
}

// TogglePlay flips between play and pause on the live handle. This is the only
// place a pause clears the playback intent; pauses reported by the widget
// itself (layout changes, buffering) leave it set.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	handle := c.handle
	playing := c.playing
	if handle != nil {
		c.wantPlaying = !playing
	}
	c.mu.Unlock()

	if handle == nil {
		return
	}
	if playing {
		handle.Pause()
	} else {
		handle.Play()
	}
}

// Seek jumps to the given position in seconds.
func (c *Controller) Seek(seconds float64) {
	c.mu.Lock()
	handle := c.handle
	c.mu.Unlock()

	if handle != nil {
		handle.Seek(seconds, true)
	}
}

// SetVolume stores and applies the volume, clamped to 0..100.
func (c *Controller) SetVolume(volume int) {
	volume = clampVolume(volume)

	c.mu.Lock()
	c.volume = volume
	handle := c.handle
	c.mu.Unlock()

	if handle != nil {
		handle.SetVolume(volume)
	}
}

// SetQuality changes the playback quality. The widget does not reliably apply
// quality changes to a running instance, so the player is recreated at the
// same video, preserving position and play state.
// TODO: switch to Handle.SetQuality in place once the widget binding applies
// it reliably mid-playback.
func (c *Controller) SetQuality(quality string) {
	c.mu.Lock()
	if c.quality == quality {
		c.mu.Unlock()
		return
	}
	c.quality = quality

	handle := c.handle
	if handle == nil || c.videoID == "" {
		// Applied when the next player is created.
		c.mu.Unlock()
		return
	}

	c.epoch++
	epoch := c.epoch
	videoID := c.videoID
	wasPlaying := c.wantPlaying
	oldContainer := c.containerID
	containerID := fmt.Sprintf("player-container-%d", epoch)
	c.containerID = containerID
	c.handle = nil
	c.status = StatusLoading
	c.mu.Unlock()

	at := handle.CurrentTime()
	handle.Destroy()

	api := c.factory.API()
	if oldContainer != "" {
		api.RemoveContainer(oldContainer)
	}
	api.CreateContainer(containerID)

	go c.createPlayer(epoch, containerID, videoID, &restoreState{at: at, playing: wasPlaying})
}

// ToggleVideoVisible shows or hides the video view. Hiding must not stop
// audio: the widget may pause on the layout change, and that pause can land
// before the toggle runs, so the resume decision reads the user's playback
// intent rather than the widget's reported state.
func (c *Controller) ToggleVideoVisible() {
	c.mu.Lock()
	c.visible = !c.visible
	hidden := !c.visible
	handle := c.handle
	wantPlaying := c.wantPlaying
	epoch := c.epoch
	c.mu.Unlock()

	if hidden && wantPlaying && handle != nil {
		time.AfterFunc(c.settleDelay, func() {
			c.mu.Lock()
			stale := epoch != c.epoch || c.handle != handle || !c.wantPlaying
			c.mu.Unlock()
			if !stale {
				handle.Play()
			}
		})
	}
}

// ToggleMinimized collapses or expands the player UI.
func (c *Controller) ToggleMinimized() {
	c.mu.Lock()
	c.minimized = !c.minimized
	c.mu.Unlock()
}

// ToggleLike likes or unlikes the current track against the library store.
// Toggles arriving while a mutation is in flight return ErrLikeInFlight so
// the UI keeps the control disabled instead of issuing a duplicate mutation.
func (c *Controller) ToggleLike(ctx context.Context) error {
	if c.likes == nil {
		return nil
	}

	c.mu.Lock()
	if c.videoID == "" {
		c.mu.Unlock()
		return nil
	}
	if c.likeBusy {
		c.mu.Unlock()
		return ErrLikeInFlight
	}
	c.likeBusy = true
	videoID := c.videoID
	title := c.title
	thumbnail := c.thumbnail
	liked := c.liked
	c.mu.Unlock()

	var err error
	if liked {
		err = c.likes.Unlike(ctx, videoID)
	} else {
		err = c.likes.Like(ctx, videoID, title, thumbnail)
	}

	c.mu.Lock()
	c.likeBusy = false
	if err == nil && c.videoID == videoID {
		c.liked = !liked
	}
	c.mu.Unlock()

	return err
}

// Snapshot is a copy of the UI-facing session state.
type Snapshot struct {
	Status       Status
	VideoID      string
	Title        string
	Playing      bool
	Volume       int
	Quality      string
	VideoVisible bool
	Minimized    bool
	Liked        bool
	LikeBusy     bool
	Err          error
}

// Snapshot returns the current session state for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Status:       c.status,
		VideoID:      c.videoID,
		Title:        c.title,
		Playing:      c.playing,
		Volume:       c.volume,
		Quality:      c.quality,
		VideoVisible: c.visible,
		Minimized:    c.minimized,
		Liked:        c.liked,
		LikeBusy:     c.likeBusy,
		Err:          c.lastErr,
	}
}

// Handle returns the live handle, or nil while no player exists.
func (c *Controller) Handle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}
