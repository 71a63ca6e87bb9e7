package library

import (
	"errors"

	"github.com/music-streaming-system/pkg/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUserNotFound = errors.New("user not found")
)

// Storage is the persistence contract for users, playlists and liked songs.
// Implementations: MemStorage (tests, local dev) and database.MySQLDB.
type Storage interface {
	// User operations
	GetUser(id int) (*models.User, error)
	GetUserByExternalID(externalID string) (*models.User, error)
	UpsertUserByExternalID(externalID, displayName, email string) (*models.User, error)

	// Playlist operations
	GetPlaylists(userID int) ([]*models.Playlist, error)
	GetPlaylist(id int) (*models.Playlist, error)
	CreatePlaylist(userID int, name string) (*models.Playlist, error)
	// DeletePlaylist removes the playlist and all of its tracks atomically.
	DeletePlaylist(id int) error

	// Playlist track operations. Tracks are ordered by position ascending.
	GetPlaylistTracks(playlistID int) ([]*models.PlaylistTrack, error)
	AddPlaylistTrack(playlistID int, videoID, title, thumbnail string, position int) (*models.PlaylistTrack, error)
	RemovePlaylistTrack(id int) error
	UpdateTrackPosition(id int, position int) error

	// Liked song operations. Songs are ordered by createdAt descending.
	// At most one row exists per (userID, videoID).
	GetLikedSongs(userID int) ([]*models.LikedSong, error)
	AddLikedSong(userID int, videoID, title, thumbnail string) (*models.LikedSong, error)
	RemoveLikedSong(userID int, videoID string) error
	IsLikedSong(userID int, videoID string) (bool, error)
}
