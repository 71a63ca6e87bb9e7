package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	EventTypeSongLiked       EventType = "song_liked"
	EventTypeSongUnliked     EventType = "song_unliked"
	EventTypePlaylistCreated EventType = "playlist_created"
	EventTypePlaylistDeleted EventType = "playlist_deleted"
	EventTypeTrackAdded      EventType = "track_added"
	EventTypeTrackSelected   EventType = "track_selected"
)

// Event is the envelope written to and read from the event stream. UserID is
// the internal user the event belongs to; fan-out is scoped by it.
type Event struct {
	Type      EventType       `json:"type"`
	UserID    int             `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Publisher is the subset of the Kafka client library mutations depend on.
// Services treat a nil Publisher as the event stream being disabled.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType EventType, userID int, payload interface{}) error
}

type KafkaClient struct {
	writer *kafka.Writer
	reader *kafka.Reader
}

func NewKafkaClient(brokers []string, topic string, groupID string) *KafkaClient {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
	})

	return &KafkaClient{
		writer: writer,
		reader: reader,
	}
}

func (k *KafkaClient) PublishEvent(ctx context.Context, eventType EventType, userID int, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := Event{
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payloadJSON,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(uuid.New().String()),
		Value: eventJSON,
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (k *KafkaClient) ConsumeEvents(ctx context.Context, handler func(Event) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := k.reader.ReadMessage(ctx)
			if err != nil {
				return fmt.Errorf("failed to read message: %w", err)
			}

			var event Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal event: %w", err)
			}

			if err := handler(event); err != nil {
				return fmt.Errorf("failed to handle event: %w", err)
			}
		}
	}
}

func (k *KafkaClient) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	if err := k.reader.Close(); err != nil {
		return fmt.Errorf("failed to close reader: %w", err)
	}
	return nil
}

// Event payload types
type SongLikedPayload struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
}

type SongUnlikedPayload struct {
	VideoID string `json:"video_id"`
}

type PlaylistCreatedPayload struct {
	PlaylistID int    `json:"playlist_id"`
	Name       string `json:"name"`
}

type PlaylistDeletedPayload struct {
	PlaylistID int `json:"playlist_id"`
}

type TrackAddedPayload struct {
	PlaylistID int    `json:"playlist_id"`
	VideoID    string `json:"video_id"`
	Title      string `json:"title"`
}

type TrackSelectedPayload struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
}
