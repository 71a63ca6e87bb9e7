package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State mirrors the external widget's playback-state signals.
type State int

const (
	StateUnstarted State = -1
	StateEnded     State = 0
	StatePlaying   State = 1
	StatePaused    State = 2
	StateBuffering State = 3
	StateCued      State = 5
)

// Quality levels from lowest to highest data usage.
const (
	QualityTiny   = "tiny"
	QualitySmall  = "small"
	QualityMedium = "medium"
	QualityLarge  = "large"
	QualityHD720  = "hd720"
	QualityAuto   = "auto"
)

// QualityLevel describes one selectable playback quality for the UI.
type QualityLevel struct {
	Value     string
	Label     string
	DataUsage string
}

var QualityLevels = []QualityLevel{
	{QualityTiny, "Lowest (144p)", "~50MB/hour"},
	{QualitySmall, "Low (240p)", "~100MB/hour"},
	{QualityMedium, "Medium (360p)", "~250MB/hour"},
	{QualityLarge, "High (480p)", "~500MB/hour"},
	{QualityHD720, "HD (720p)", "~1GB/hour"},
	{QualityAuto, "Auto", "Variable"},
}

// StateChangeFunc receives every state signal emitted by a live widget instance.
type StateChangeFunc func(State)

// Handle is the capability object controlling one live widget instance.
// Destroy must be idempotent: calling it twice, or on an already-destroyed
// handle, must not panic.
type Handle interface {
	Play()
	Pause()
	Seek(seconds float64, allowSeekAhead bool)
	Volume() int
	SetVolume(volume int)
	Quality() string
	SetQuality(quality string)
	CurrentTime() float64
	State() State
	VideoID() string
	Title() string
	Destroy()
}

// WidgetAPI is the boundary to the host page and the external widget script:
// container elements, the one-time script load, and widget construction.
type WidgetAPI interface {
	// Load injects the external API script. Called at most once per process;
	// it may block until the API reports ready.
	Load(ctx context.Context) error
	CreateContainer(containerID string)
	RemoveContainer(containerID string)
	HasContainer(containerID string) bool
	NewPlayer(containerID, videoID string, onStateChange StateChangeFunc) (Handle, error)
}

var ErrContainerNotFound = errors.New("container element not found")

// PlayerInitError reports a failed widget construction. The session stays
// usable; the caller may retry with another track.
type PlayerInitError struct {
	ContainerID string
	VideoID     string
	Err         error
}

func (e *PlayerInitError) Error() string {
	return fmt.Sprintf("player init failed for video %q in container %q: %v", e.VideoID, e.ContainerID, e.Err)
}

func (e *PlayerInitError) Unwrap() error {
	return e.Err
}

// Factory creates widget instances, loading the external API script exactly
// once process-wide. Concurrent CreatePlayer calls made before the script
// finishes loading all proceed once the API becomes ready.
type Factory struct {
	api WidgetAPI

	mu      sync.Mutex
	started bool
	ready   chan struct{}
	loadErr error
}

func NewFactory(api WidgetAPI) *Factory {
	return &Factory{api: api}
}

// API exposes the underlying widget boundary for container management.
func (f *Factory) API() WidgetAPI {
	return f.api
}

// CreatePlayer constructs a widget instance in the given container. It blocks
// until the external API is ready; there is no readiness timeout, so a script
// that never loads leaves the caller waiting until ctx cancels.
func (f *Factory) CreatePlayer(ctx context.Context, containerID, videoID string, onStateChange StateChangeFunc) (Handle, error) {
	if !f.api.HasContainer(containerID) {
		return nil, &PlayerInitError{ContainerID: containerID, VideoID: videoID, Err: ErrContainerNotFound}
	}

	if err := f.ensureLoaded(ctx); err != nil {
		return nil, &PlayerInitError{ContainerID: containerID, VideoID: videoID, Err: err}
	}

	handle, err := f.api.NewPlayer(containerID, videoID, onStateChange)
	if err != nil {
		return nil, &PlayerInitError{ContainerID: containerID, VideoID: videoID, Err: err}
	}

	return handle, nil
}

// ensureLoaded starts the script load on the first call and parks every
// caller on the same ready channel. A load failure is sticky, matching the
// one-shot nature of script injection.
func (f *Factory) ensureLoaded(ctx context.Context) error {
	f.mu.Lock()
	if !f.started {
		f.started = true
		f.ready = make(chan struct{})
		go func() {
			f.loadErr = f.api.Load(context.Background())
			close(f.ready)
		}()
	}
	ready := f.ready
	f.mu.Unlock()

	select {
	case <-ready:
		return f.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
