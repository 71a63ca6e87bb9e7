package playback

import (
	"sync"
)

// TrackSelection is the "play this track" signal broadcast from search and
// library views and consumed by the Controller.
type TrackSelection struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

const subscriberBuffer = 8

// Bus fans track selections out to subscribers. Publish never blocks: when a
// subscriber's buffer is full the oldest selection is dropped, so the latest
// signal is always delivered.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan TrackSelection
	nextID int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan TrackSelection)}
}

// Subscribe registers a subscriber. The returned cancel func closes the
// channel and removes the subscription; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan TrackSelection, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan TrackSelection, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers the selection to every subscriber.
func (b *Bus) Publish(sel TrackSelection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		for {
			select {
			case ch <- sel:
			default:
				// Full buffer: drop the oldest queued selection.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
