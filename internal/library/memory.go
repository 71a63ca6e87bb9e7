package library

import (
	"sort"
	"sync"
	"time"

	"github.com/music-streaming-system/pkg/models"
)

// MemStorage is an in-memory Storage implementation. It backs tests and local
// development when no MySQL instance is configured.
type MemStorage struct {
	mu             sync.RWMutex
	users          map[int]*models.User
	playlists      map[int]*models.Playlist
	playlistTracks map[int]*models.PlaylistTrack
	likedSongs     map[int]*models.LikedSong
	nextUserID     int
	nextPlaylistID int
	nextTrackID    int
	nextSongID     int
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:          make(map[int]*models.User),
		playlists:      make(map[int]*models.Playlist),
		playlistTracks: make(map[int]*models.PlaylistTrack),
		likedSongs:     make(map[int]*models.LikedSong),
		nextUserID:     1,
		nextPlaylistID: 1,
		nextTrackID:    1,
		nextSongID:     1,
	}
}

func (s *MemStorage) GetUser(id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *MemStorage) GetUserByExternalID(externalID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findUserByExternalID(externalID)
}

func (s *MemStorage) findUserByExternalID(externalID string) (*models.User, error) {
	for _, user := range s.users {
		if user.ExternalID == externalID {
			u := *user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStorage) UpsertUserByExternalID(externalID, displayName, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, err := s.findUserByExternalID(externalID); err == nil {
		return user, nil
	}

	user := &models.User{
		ID:          s.nextUserID,
		ExternalID:  externalID,
		DisplayName: displayName,
		Email:       email,
	}
	s.nextUserID++
	s.users[user.ID] = user

	u := *user
	return &u, nil
}

func (s *MemStorage) GetPlaylists(userID int) ([]*models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlists := []*models.Playlist{}
	for _, playlist := range s.playlists {
		if playlist.UserID == userID {
			p := *playlist
			playlists = append(playlists, &p)
		}
	}
	sort.Slice(playlists, func(i, j int) bool { return playlists[i].ID < playlists[j].ID })
	return playlists, nil
}

func (s *MemStorage) GetPlaylist(id int) (*models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := *playlist
	return &p, nil
}

func (s *MemStorage) CreatePlaylist(userID int, name string) (*models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist := &models.Playlist{
		ID:        s.nextPlaylistID,
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	s.nextPlaylistID++
	s.playlists[playlist.ID] = playlist

	p := *playlist
	return &p, nil
}

// DeletePlaylist removes the playlist and its tracks under one lock section so
// no reader observes the playlist gone with tracks remaining.
func (s *MemStorage) DeletePlaylist(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.playlists, id)
	for trackID, track := range s.playlistTracks {
		if track.PlaylistID == id {
			delete(s.playlistTracks, trackID)
		}
	}
	return nil
}

func (s *MemStorage) GetPlaylistTracks(playlistID int) ([]*models.PlaylistTrack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracks := []*models.PlaylistTrack{}
	for _, track := range s.playlistTracks {
		if track.PlaylistID == playlistID {
			t := *track
			tracks = append(tracks, &t)
		}
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Position < tracks[j].Position })
	return tracks, nil
}

func (s *MemStorage) AddPlaylistTrack(playlistID int, videoID, title, thumbnail string, position int) (*models.PlaylistTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	track := &models.PlaylistTrack{
		ID:         s.nextTrackID,
		PlaylistID: playlistID,
		VideoID:    videoID,
		Title:      title,
		Thumbnail:  thumbnail,
		Position:   position,
	}
	s.nextTrackID++
	s.playlistTracks[track.ID] = track

	t := *track
	return &t, nil
}

func (s *MemStorage) RemovePlaylistTrack(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.playlistTracks, id)
	return nil
}

func (s *MemStorage) UpdateTrackPosition(id int, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if track, ok := s.playlistTracks[id]; ok {
		track.Position = position
	}
	return nil
}

func (s *MemStorage) GetLikedSongs(userID int) ([]*models.LikedSong, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	songs := []*models.LikedSong{}
	for _, song := range s.likedSongs {
		if song.UserID == userID {
			ls := *song
			songs = append(songs, &ls)
		}
	}
	sort.Slice(songs, func(i, j int) bool {
		if songs[i].CreatedAt.Equal(songs[j].CreatedAt) {
			return songs[i].ID > songs[j].ID
		}
		return songs[i].CreatedAt.After(songs[j].CreatedAt)
	})
	return songs, nil
}

func (s *MemStorage) AddLikedSong(userID int, videoID, title, thumbnail string) (*models.LikedSong, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// One row per (userID, videoID): liking an already-liked song returns the
	// existing row instead of creating a duplicate.
	for _, song := range s.likedSongs {
		if song.UserID == userID && song.VideoID == videoID {
			ls := *song
			return &ls, nil
		}
	}

	song := &models.LikedSong{
		ID:        s.nextSongID,
		UserID:    userID,
		VideoID:   videoID,
		Title:     title,
		Thumbnail: thumbnail,
		CreatedAt: time.Now(),
	}
	s.nextSongID++
	s.likedSongs[song.ID] = song

	ls := *song
	return &ls, nil
}

func (s *MemStorage) RemoveLikedSong(userID int, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, song := range s.likedSongs {
		if song.UserID == userID && song.VideoID == videoID {
			delete(s.likedSongs, id)
		}
	}
	return nil
}

func (s *MemStorage) IsLikedSong(userID int, videoID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, song := range s.likedSongs {
		if song.UserID == userID && song.VideoID == videoID {
			return true, nil
		}
	}
	return false, nil
}
