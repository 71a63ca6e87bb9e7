package library

import (
	"errors"
	"testing"
)

func TestUpsertUserIdempotent(t *testing.T) {
	s := NewMemStorage()

	first, err := s.UpsertUserByExternalID("u1", "A", "a@b.com")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := s.UpsertUserByExternalID("u1", "A", "a@b.com")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same user id, got %d and %d", first.ID, second.ID)
	}
}

func TestAddLikedSongDoesNotDuplicate(t *testing.T) {
	s := NewMemStorage()
	user, _ := s.UpsertUserByExternalID("u1", "A", "a@b.com")

	if _, err := s.AddLikedSong(user.ID, "abc", "T", "thumb"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddLikedSong(user.ID, "abc", "T", "thumb"); err != nil {
		t.Fatalf("second add: %v", err)
	}

	songs, err := s.GetLikedSongs(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("expected 1 liked song, got %d", len(songs))
	}

	liked, err := s.IsLikedSong(user.ID, "abc")
	if err != nil {
		t.Fatalf("isLiked: %v", err)
	}
	if !liked {
		t.Error("expected song to remain liked")
	}
}

func TestLikedSongsOrderedMostRecentFirst(t *testing.T) {
	s := NewMemStorage()
	user, _ := s.UpsertUserByExternalID("u1", "A", "a@b.com")

	for _, videoID := range []string{"first", "second", "third"} {
		if _, err := s.AddLikedSong(user.ID, videoID, "T", "thumb"); err != nil {
			t.Fatalf("add %s: %v", videoID, err)
		}
	}

	songs, err := s.GetLikedSongs(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []string{"third", "second", "first"}
	if len(songs) != len(want) {
		t.Fatalf("expected %d songs, got %d", len(want), len(songs))
	}
	for i, videoID := range want {
		if songs[i].VideoID != videoID {
			t.Errorf("position %d: expected %s, got %s", i, videoID, songs[i].VideoID)
		}
	}
}

func TestPlaylistTracksOrderedByPosition(t *testing.T) {
	s := NewMemStorage()
	user, _ := s.UpsertUserByExternalID("u1", "A", "a@b.com")
	playlist, _ := s.CreatePlaylist(user.ID, "mix")

	// Insert out of order
	for _, position := range []int{2, 0, 1} {
		if _, err := s.AddPlaylistTrack(playlist.ID, "v", "T", "thumb", position); err != nil {
			t.Fatalf("add track: %v", err)
		}
	}

	tracks, err := s.GetPlaylistTracks(playlist.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(tracks))
	}
	for i, track := range tracks {
		if track.Position != i {
			t.Errorf("index %d: expected position %d, got %d", i, i, track.Position)
		}
	}
}

func TestDeletePlaylistCascades(t *testing.T) {
	s := NewMemStorage()
	user, _ := s.UpsertUserByExternalID("u1", "A", "a@b.com")
	playlist, _ := s.CreatePlaylist(user.ID, "mix")
	other, _ := s.CreatePlaylist(user.ID, "other")

	s.AddPlaylistTrack(playlist.ID, "v1", "T", "thumb", 0)
	s.AddPlaylistTrack(playlist.ID, "v2", "T", "thumb", 1)
	kept, _ := s.AddPlaylistTrack(other.ID, "v3", "T", "thumb", 0)

	if err := s.DeletePlaylist(playlist.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := s.GetPlaylist(playlist.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	tracks, err := s.GetPlaylistTracks(playlist.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("expected no tracks after cascade, got %d", len(tracks))
	}

	otherTracks, _ := s.GetPlaylistTracks(other.ID)
	if len(otherTracks) != 1 || otherTracks[0].ID != kept.ID {
		t.Error("cascade delete touched another playlist's tracks")
	}
}

func TestAddTrackToMissingPlaylist(t *testing.T) {
	s := NewMemStorage()

	// No existence check on the playlist: the track record is created
	// regardless. Pinned so a future foreign-key check is a deliberate change.
	track, err := s.AddPlaylistTrack(5, "abc", "T", "u", 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if track.PlaylistID != 5 {
		t.Errorf("expected playlistId 5, got %d", track.PlaylistID)
	}

	tracks, _ := s.GetPlaylistTracks(5)
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
}

func TestMissingRowMutationsAreNoops(t *testing.T) {
	s := NewMemStorage()
	user, _ := s.UpsertUserByExternalID("u1", "A", "a@b.com")

	if err := s.RemoveLikedSong(user.ID, "missing"); err != nil {
		t.Errorf("remove missing liked song: %v", err)
	}
	if err := s.UpdateTrackPosition(99, 3); err != nil {
		t.Errorf("update missing track: %v", err)
	}
	if err := s.RemovePlaylistTrack(99); err != nil {
		t.Errorf("remove missing track: %v", err)
	}
}
