package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/music-streaming-system/internal/auth"
	"github.com/music-streaming-system/pkg/models"
	"github.com/music-streaming-system/pkg/redis"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := NewService(NewMemStorage(), nil, nil)
	sessions := redis.NewMemSessionStore()

	authHandler := auth.NewHandler(service, sessions, false)
	handler := NewHandler(service)

	router := gin.New()
	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	handler.RegisterPublicRoutes(api)

	protected := api.Group("/")
	protected.Use(auth.SessionMiddleware(sessions))
	handler.RegisterProtectedRoutes(protected)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return server, &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &reqBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func signIn(t *testing.T, client *http.Client, baseURL, uid string) models.User {
	t.Helper()

	resp, body := doJSON(t, client, http.MethodPost, baseURL+"/api/auth", map[string]string{
		"uid":         uid,
		"email":       "a@b.com",
		"displayName": "A",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("auth: expected 200, got %d: %s", resp.StatusCode, body)
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return user
}

func TestAuthUpsertIdempotent(t *testing.T) {
	server, client := newTestServer(t)

	first := signIn(t, client, server.URL, "u1")
	second := signIn(t, client, server.URL, "u1")

	if first.ID != second.ID {
		t.Errorf("expected same user id on repeated auth, got %d and %d", first.ID, second.ID)
	}
}

func TestSessionGuardedRoutesReject(t *testing.T) {
	server, client := newTestServer(t)

	for _, path := range []string{"/api/playlists", "/api/liked-songs", "/api/liked-songs/abc"} {
		resp, body := doJSON(t, client, http.MethodGet, server.URL+path, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, resp.StatusCode)
		}
		var msg map[string]string
		if err := json.Unmarshal(body, &msg); err != nil || msg["message"] != "Unauthorized" {
			t.Errorf("GET %s: expected Unauthorized message, got %s", path, body)
		}
	}
}

func TestLikeRoundTrip(t *testing.T) {
	server, client := newTestServer(t)
	signIn(t, client, server.URL, "u1")

	resp, body := doJSON(t, client, http.MethodPost, server.URL+"/api/liked-songs", map[string]string{
		"videoId":   "abc",
		"title":     "T",
		"thumbnail": "u",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("like: expected 200, got %d: %s", resp.StatusCode, body)
	}

	var status struct {
		IsLiked bool `json:"isLiked"`
	}
	resp, body = doJSON(t, client, http.MethodGet, server.URL+"/api/liked-songs/abc", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &status); err != nil || !status.IsLiked {
		t.Fatalf("expected isLiked true, got %s", body)
	}

	resp, _ = doJSON(t, client, http.MethodDelete, server.URL+"/api/liked-songs/abc", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unlike: expected 204, got %d", resp.StatusCode)
	}

	_, body = doJSON(t, client, http.MethodGet, server.URL+"/api/liked-songs/abc", nil)
	if err := json.Unmarshal(body, &status); err != nil || status.IsLiked {
		t.Fatalf("expected isLiked false after delete, got %s", body)
	}
}

func TestLikeTwiceKeepsOneRow(t *testing.T) {
	server, client := newTestServer(t)
	signIn(t, client, server.URL, "u1")

	song := map[string]string{"videoId": "abc", "title": "T", "thumbnail": "u"}
	doJSON(t, client, http.MethodPost, server.URL+"/api/liked-songs", song)
	doJSON(t, client, http.MethodPost, server.URL+"/api/liked-songs", song)

	_, body := doJSON(t, client, http.MethodGet, server.URL+"/api/liked-songs", nil)
	var songs []models.LikedSong
	if err := json.Unmarshal(body, &songs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(songs) != 1 {
		t.Errorf("expected 1 liked song, got %d", len(songs))
	}
}

func TestCreatePlaylistValidation(t *testing.T) {
	server, client := newTestServer(t)
	signIn(t, client, server.URL, "u1")

	resp, body := doJSON(t, client, http.MethodPost, server.URL+"/api/playlists", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var msg map[string]string
	if err := json.Unmarshal(body, &msg); err != nil || msg["message"] != "Invalid playlist data" {
		t.Errorf("expected invalid playlist message, got %s", body)
	}
}

func TestGetPlaylistNotFound(t *testing.T) {
	server, client := newTestServer(t)

	resp, body := doJSON(t, client, http.MethodGet, server.URL+"/api/playlists/999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.StatusCode, body)
	}
}

func TestAddTrackToNonexistentPlaylistSucceeds(t *testing.T) {
	server, client := newTestServer(t)

	// Track routes are public and the store does not verify playlist
	// existence; the record lands under the given id.
	resp, body := doJSON(t, client, http.MethodPost, server.URL+"/api/playlists/5/tracks", map[string]interface{}{
		"videoId":   "abc",
		"title":     "T",
		"thumbnail": "u",
		"position":  0,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var track models.PlaylistTrack
	if err := json.Unmarshal(body, &track); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if track.PlaylistID != 5 {
		t.Errorf("expected playlistId 5, got %d", track.PlaylistID)
	}
}

func TestDeletePlaylistScopedToOwner(t *testing.T) {
	server, owner := newTestServer(t)
	signIn(t, owner, server.URL, "u1")

	_, body := doJSON(t, owner, http.MethodPost, server.URL+"/api/playlists", map[string]string{"name": "mix"})
	var playlist models.Playlist
	if err := json.Unmarshal(body, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	intruder := &http.Client{Jar: jar}
	signIn(t, intruder, server.URL, "u2")

	resp, body := doJSON(t, intruder, http.MethodDelete, fmt.Sprintf("%s/api/playlists/%d", server.URL, playlist.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's playlist, got %d: %s", resp.StatusCode, body)
	}
	var msg map[string]string
	if err := json.Unmarshal(body, &msg); err != nil || msg["message"] != "Playlist not found" {
		t.Errorf("expected playlist not found message, got %s", body)
	}

	resp, _ = doJSON(t, owner, http.MethodGet, fmt.Sprintf("%s/api/playlists/%d", server.URL, playlist.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected playlist to survive the foreign delete, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, owner, http.MethodDelete, server.URL+"/api/playlists/999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing playlist, got %d", resp.StatusCode)
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	server, client := newTestServer(t)
	signIn(t, client, server.URL, "u1")

	_, body := doJSON(t, client, http.MethodPost, server.URL+"/api/playlists", map[string]string{"name": "mix"})
	var playlist models.Playlist
	if err := json.Unmarshal(body, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}

	trackURL := fmt.Sprintf("%s/api/playlists/%d/tracks", server.URL, playlist.ID)
	for i, videoID := range []string{"v1", "v2"} {
		resp, _ := doJSON(t, client, http.MethodPost, trackURL, map[string]interface{}{
			"videoId":   videoID,
			"title":     "T",
			"thumbnail": "u",
			"position":  i,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add track %s: got %d", videoID, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/api/playlists/%d", server.URL, playlist.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, client, http.MethodGet, fmt.Sprintf("%s/api/playlists/%d", server.URL, playlist.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}

	_, body = doJSON(t, client, http.MethodGet, trackURL, nil)
	var tracks []models.PlaylistTrack
	if err := json.Unmarshal(body, &tracks); err != nil {
		t.Fatalf("decode tracks: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("expected no tracks after cascade delete, got %d", len(tracks))
	}
}
