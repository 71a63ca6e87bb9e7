package libclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/music-streaming-system/pkg/models"
)

// APIError is a non-2xx response from the library API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Client wraps the library REST API. The session cookie issued by
// Authenticate is held in the client's cookie jar and sent on every
// subsequent request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyJSON)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Authenticate establishes the session for the given external identity.
func (c *Client) Authenticate(ctx context.Context, uid, displayName, email string) (*models.User, error) {
	body := map[string]string{
		"uid":         uid,
		"displayName": displayName,
		"email":       email,
	}

	var user models.User
	if err := c.do(ctx, http.MethodPost, "/api/auth", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Playlists(ctx context.Context) ([]*models.Playlist, error) {
	var playlists []*models.Playlist
	if err := c.do(ctx, http.MethodGet, "/api/playlists", nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

func (c *Client) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := c.do(ctx, http.MethodPost, "/api/playlists", map[string]string{"name": name}, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

func (c *Client) Playlist(ctx context.Context, id int) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/playlists/%d", id), nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

func (c *Client) DeletePlaylist(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/playlists/%d", id), nil, nil)
}

func (c *Client) PlaylistTracks(ctx context.Context, playlistID int) ([]*models.PlaylistTrack, error) {
	var tracks []*models.PlaylistTrack
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/playlists/%d/tracks", playlistID), nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (c *Client) AddPlaylistTrack(ctx context.Context, playlistID int, videoID, title, thumbnail string, position int) (*models.PlaylistTrack, error) {
	body := map[string]interface{}{
		"videoId":   videoID,
		"title":     title,
		"thumbnail": thumbnail,
		"position":  position,
	}

	var track models.PlaylistTrack
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/playlists/%d/tracks", playlistID), body, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

func (c *Client) LikedSongs(ctx context.Context) ([]*models.LikedSong, error) {
	var songs []*models.LikedSong
	if err := c.do(ctx, http.MethodGet, "/api/liked-songs", nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func (c *Client) AddLikedSong(ctx context.Context, videoID, title, thumbnail string) (*models.LikedSong, error) {
	body := map[string]string{
		"videoId":   videoID,
		"title":     title,
		"thumbnail": thumbnail,
	}

	var song models.LikedSong
	if err := c.do(ctx, http.MethodPost, "/api/liked-songs", body, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

func (c *Client) RemoveLikedSong(ctx context.Context, videoID string) error {
	return c.do(ctx, http.MethodDelete, "/api/liked-songs/"+videoID, nil, nil)
}

func (c *Client) IsLikedSong(ctx context.Context, videoID string) (bool, error) {
	var status struct {
		IsLiked bool `json:"isLiked"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/liked-songs/"+videoID, nil, &status); err != nil {
		return false, err
	}
	return status.IsLiked, nil
}
