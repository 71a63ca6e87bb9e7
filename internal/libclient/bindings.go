package libclient

import (
	"context"
	"fmt"

	"github.com/music-streaming-system/pkg/models"
)

const (
	playlistsKey  = "/api/playlists"
	likedSongsKey = "/api/liked-songs"
)

func playlistTracksKey(playlistID int) string {
	return fmt.Sprintf("/api/playlists/%d/tracks", playlistID)
}

func likedStatusKey(videoID string) string {
	return likedSongsKey + "/" + videoID
}

// Bindings is the cached query layer between the UI and the library API.
// Reads serve from cache when present; mutations hit the server and, on
// success, invalidate the cache keys they affect. There are no optimistic
// writes: state only changes once the server confirms.
type Bindings struct {
	client *Client
	cache  *QueryCache
}

func NewBindings(client *Client) *Bindings {
	return &Bindings{
		client: client,
		cache:  NewQueryCache(),
	}
}

// Cache exposes the underlying query cache.
func (b *Bindings) Cache() *QueryCache {
	return b.cache
}

func (b *Bindings) Playlists(ctx context.Context) ([]*models.Playlist, error) {
	if cached, ok := b.cache.Get(playlistsKey); ok {
		return cached.([]*models.Playlist), nil
	}

	playlists, err := b.client.Playlists(ctx)
	if err != nil {
		return nil, err
	}

	b.cache.Set(playlistsKey, playlists)
	return playlists, nil
}

func (b *Bindings) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	playlist, err := b.client.CreatePlaylist(ctx, name)
	if err != nil {
		return nil, err
	}

	b.cache.Invalidate(playlistsKey)
	return playlist, nil
}

func (b *Bindings) DeletePlaylist(ctx context.Context, id int) error {
	if err := b.client.DeletePlaylist(ctx, id); err != nil {
		return err
	}

	b.cache.Invalidate(playlistsKey, playlistTracksKey(id))
	return nil
}

func (b *Bindings) PlaylistTracks(ctx context.Context, playlistID int) ([]*models.PlaylistTrack, error) {
	key := playlistTracksKey(playlistID)
	if cached, ok := b.cache.Get(key); ok {
		return cached.([]*models.PlaylistTrack), nil
	}

	tracks, err := b.client.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	b.cache.Set(key, tracks)
	return tracks, nil
}

func (b *Bindings) AddPlaylistTrack(ctx context.Context, playlistID int, videoID, title, thumbnail string, position int) (*models.PlaylistTrack, error) {
	track, err := b.client.AddPlaylistTrack(ctx, playlistID, videoID, title, thumbnail, position)
	if err != nil {
		return nil, err
	}

	b.cache.Invalidate(playlistTracksKey(playlistID))
	return track, nil
}

func (b *Bindings) LikedSongs(ctx context.Context) ([]*models.LikedSong, error) {
	if cached, ok := b.cache.Get(likedSongsKey); ok {
		return cached.([]*models.LikedSong), nil
	}

	songs, err := b.client.LikedSongs(ctx)
	if err != nil {
		return nil, err
	}

	b.cache.Set(likedSongsKey, songs)
	return songs, nil
}

// IsLiked implements playback.LikeStore.
func (b *Bindings) IsLiked(ctx context.Context, videoID string) (bool, error) {
	key := likedStatusKey(videoID)
	if cached, ok := b.cache.Get(key); ok {
		return cached.(bool), nil
	}

	liked, err := b.client.IsLikedSong(ctx, videoID)
	if err != nil {
		return false, err
	}

	b.cache.Set(key, liked)
	return liked, nil
}

// Like implements playback.LikeStore. Invalidates both the aggregate list and
// the per-video status key so every view refetches.
func (b *Bindings) Like(ctx context.Context, videoID, title, thumbnail string) error {
	if _, err := b.client.AddLikedSong(ctx, videoID, title, thumbnail); err != nil {
		return err
	}

	b.cache.Invalidate(likedSongsKey, likedStatusKey(videoID))
	return nil
}

// Unlike implements playback.LikeStore.
func (b *Bindings) Unlike(ctx context.Context, videoID string) error {
	if err := b.client.RemoveLikedSong(ctx, videoID); err != nil {
		return err
	}

	b.cache.Invalidate(likedSongsKey, likedStatusKey(videoID))
	return nil
}
