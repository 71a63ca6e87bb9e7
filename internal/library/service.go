package library

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/music-streaming-system/pkg/events"
	"github.com/music-streaming-system/pkg/models"
)

const (
	playlistKeyPrefix = "playlist:"
	playlistCacheTTL  = 24 * time.Hour
)

// Service wraps a Storage with Redis cache-aside reads and Kafka event
// publishing. Both redis and publisher may be nil; cache and event failures
// are logged and never fail the request.
type Service struct {
	storage   Storage
	redis     *redis.Client
	publisher events.Publisher
	log       *log.Logger
}

func NewService(storage Storage, redisClient *redis.Client, publisher events.Publisher) *Service {
	return &Service{
		storage:   storage,
		redis:     redisClient,
		publisher: publisher,
		log:       log.WithPrefix("library"),
	}
}

func (s *Service) UpsertUser(ctx context.Context, externalID, displayName, email string) (*models.User, error) {
	user, err := s.storage.UpsertUserByExternalID(externalID, displayName, email)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (s *Service) ResolveUser(ctx context.Context, externalID string) (*models.User, error) {
	user, err := s.storage.GetUserByExternalID(externalID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) GetPlaylists(ctx context.Context, userID int) ([]*models.Playlist, error) {
	return s.storage.GetPlaylists(userID)
}

func (s *Service) GetPlaylist(ctx context.Context, id int) (*models.Playlist, error) {
	// Try cache first
	if s.redis != nil {
		key := fmt.Sprintf("%s%d", playlistKeyPrefix, id)
		playlistJSON, err := s.redis.Get(ctx, key).Bytes()
		if err == nil {
			var playlist models.Playlist
			if err := json.Unmarshal(playlistJSON, &playlist); err == nil {
				return &playlist, nil
			}
		}
	}

	playlist, err := s.storage.GetPlaylist(id)
	if err != nil {
		return nil, err
	}

	s.cachePlaylist(ctx, playlist)
	return playlist, nil
}

func (s *Service) CreatePlaylist(ctx context.Context, userID int, name string) (*models.Playlist, error) {
	playlist, err := s.storage.CreatePlaylist(userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	s.cachePlaylist(ctx, playlist)
	s.publish(ctx, events.EventTypePlaylistCreated, userID, events.PlaylistCreatedPayload{
		PlaylistID: playlist.ID,
		Name:       playlist.Name,
	})

	return playlist, nil
}

// DeletePlaylist removes the playlist and its tracks. Deletion is scoped to
// the owner; a playlist belonging to someone else reads as missing.
func (s *Service) DeletePlaylist(ctx context.Context, userID, id int) error {
	playlist, err := s.storage.GetPlaylist(id)
	if err != nil {
		return err
	}
	if playlist.UserID != userID {
		return ErrNotFound
	}

	if err := s.storage.DeletePlaylist(id); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	if s.redis != nil {
		key := fmt.Sprintf("%s%d", playlistKeyPrefix, id)
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			s.log.Warn("failed to evict playlist cache", "playlist", id, "err", err)
		}
	}

	s.publish(ctx, events.EventTypePlaylistDeleted, userID, events.PlaylistDeletedPayload{PlaylistID: id})
	return nil
}

func (s *Service) GetPlaylistTracks(ctx context.Context, playlistID int) ([]*models.PlaylistTrack, error) {
	return s.storage.GetPlaylistTracks(playlistID)
}

func (s *Service) AddPlaylistTrack(ctx context.Context, playlistID int, videoID, title, thumbnail string, position int) (*models.PlaylistTrack, error) {
	track, err := s.storage.AddPlaylistTrack(playlistID, videoID, title, thumbnail, position)
	if err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	s.publish(ctx, events.EventTypeTrackAdded, 0, events.TrackAddedPayload{
		PlaylistID: playlistID,
		VideoID:    videoID,
		Title:      title,
	})

	return track, nil
}

func (s *Service) RemovePlaylistTrack(ctx context.Context, id int) error {
	return s.storage.RemovePlaylistTrack(id)
}

func (s *Service) UpdateTrackPosition(ctx context.Context, id, position int) error {
	return s.storage.UpdateTrackPosition(id, position)
}

func (s *Service) GetLikedSongs(ctx context.Context, userID int) ([]*models.LikedSong, error) {
	return s.storage.GetLikedSongs(userID)
}

func (s *Service) AddLikedSong(ctx context.Context, userID int, videoID, title, thumbnail string) (*models.LikedSong, error) {
	song, err := s.storage.AddLikedSong(userID, videoID, title, thumbnail)
	if err != nil {
		return nil, fmt.Errorf("failed to add liked song: %w", err)
	}

	s.publish(ctx, events.EventTypeSongLiked, userID, events.SongLikedPayload{
		VideoID: videoID,
		Title:   title,
	})

	return song, nil
}

func (s *Service) RemoveLikedSong(ctx context.Context, userID int, videoID string) error {
	if err := s.storage.RemoveLikedSong(userID, videoID); err != nil {
		return fmt.Errorf("failed to remove liked song: %w", err)
	}

	s.publish(ctx, events.EventTypeSongUnliked, userID, events.SongUnlikedPayload{VideoID: videoID})
	return nil
}

func (s *Service) IsLikedSong(ctx context.Context, userID int, videoID string) (bool, error) {
	return s.storage.IsLikedSong(userID, videoID)
}

func (s *Service) cachePlaylist(ctx context.Context, playlist *models.Playlist) {
	if s.redis == nil {
		return
	}

	playlistJSON, err := json.Marshal(playlist)
	if err != nil {
		return
	}

	key := fmt.Sprintf("%s%d", playlistKeyPrefix, playlist.ID)
	if err := s.redis.Set(ctx, key, playlistJSON, playlistCacheTTL).Err(); err != nil {
		s.log.Warn("failed to cache playlist", "playlist", playlist.ID, "err", err)
	}
}

func (s *Service) publish(ctx context.Context, eventType events.EventType, userID int, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, userID, payload); err != nil {
		s.log.Warn("failed to publish event", "type", eventType, "err", err)
	}
}
