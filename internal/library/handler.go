package library

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/music-streaming-system/internal/auth"
	"github.com/music-streaming-system/pkg/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes registers the routes that are not session-guarded.
// Single-playlist reads and track mutations are unscoped: any client holding
// a playlist id may read it and append tracks, which is what makes shared
// playlist links work.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/playlists/:id", h.getPlaylist)
	r.GET("/playlists/:id/tracks", h.getPlaylistTracks)
	r.POST("/playlists/:id/tracks", h.addPlaylistTrack)
	r.DELETE("/playlists/:id/tracks/:trackId", h.removePlaylistTrack)
	r.PATCH("/playlists/:id/tracks/:trackId", h.updateTrackPosition)
}

// RegisterProtectedRoutes registers the session-guarded routes. The group is
// expected to carry auth.SessionMiddleware.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/playlists", h.getPlaylists)
	r.POST("/playlists", h.createPlaylist)
	r.DELETE("/playlists/:id", h.deletePlaylist)

	r.GET("/liked-songs", h.getLikedSongs)
	r.POST("/liked-songs", h.addLikedSong)
	r.GET("/liked-songs/:videoId", h.isLikedSong)
	r.DELETE("/liked-songs/:videoId", h.removeLikedSong)
}

// currentUser resolves the session's external identity to a User row. A valid
// session without a matching row yields 401, prompting re-authentication.
func (h *Handler) currentUser(c *gin.Context) (*models.User, bool) {
	externalID := c.GetString(auth.ContextExternalID)
	if externalID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return nil, false
	}

	user, err := h.service.ResolveUser(c.Request.Context(), externalID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
		return nil, false
	}

	return user, true
}

// Playlist routes

func (h *Handler) getPlaylists(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	playlists, err := h.service.GetPlaylists(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list playlists"})
		return
	}

	c.JSON(http.StatusOK, playlists)
}

type CreatePlaylistRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) createPlaylist(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid playlist data"})
		return
	}

	playlist, err := h.service.CreatePlaylist(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create playlist"})
		return
	}

	c.JSON(http.StatusOK, playlist)
}

func (h *Handler) getPlaylist(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid playlist id"})
		return
	}

	playlist, err := h.service.GetPlaylist(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Playlist not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get playlist"})
		return
	}

	c.JSON(http.StatusOK, playlist)
}

func (h *Handler) deletePlaylist(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid playlist id"})
		return
	}

	if err := h.service.DeletePlaylist(c.Request.Context(), user.ID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Playlist not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete playlist"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Playlist track routes

func (h *Handler) getPlaylistTracks(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid playlist id"})
		return
	}

	tracks, err := h.service.GetPlaylistTracks(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list tracks"})
		return
	}

	c.JSON(http.StatusOK, tracks)
}

type AddTrackRequest struct {
	VideoID   string `json:"videoId" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Thumbnail string `json:"thumbnail" binding:"required"`
	Position  *int   `json:"position" binding:"required"`
}

func (h *Handler) addPlaylistTrack(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid playlist id"})
		return
	}

	var req AddTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid track data"})
		return
	}

	track, err := h.service.AddPlaylistTrack(c.Request.Context(), id, req.VideoID, req.Title, req.Thumbnail, *req.Position)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to add track"})
		return
	}

	c.JSON(http.StatusOK, track)
}

func (h *Handler) removePlaylistTrack(c *gin.Context) {
	trackID, err := strconv.Atoi(c.Param("trackId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid track id"})
		return
	}

	if err := h.service.RemovePlaylistTrack(c.Request.Context(), trackID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to remove track"})
		return
	}

	c.Status(http.StatusNoContent)
}

type UpdatePositionRequest struct {
	Position *int `json:"position" binding:"required"`
}

func (h *Handler) updateTrackPosition(c *gin.Context) {
	trackID, err := strconv.Atoi(c.Param("trackId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid track id"})
		return
	}

	var req UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid track data"})
		return
	}

	if err := h.service.UpdateTrackPosition(c.Request.Context(), trackID, *req.Position); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update track"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Liked song routes

func (h *Handler) getLikedSongs(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	songs, err := h.service.GetLikedSongs(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list liked songs"})
		return
	}

	c.JSON(http.StatusOK, songs)
}

type AddLikedSongRequest struct {
	VideoID   string `json:"videoId" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Thumbnail string `json:"thumbnail" binding:"required"`
}

func (h *Handler) addLikedSong(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req AddLikedSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid song data"})
		return
	}

	song, err := h.service.AddLikedSong(c.Request.Context(), user.ID, req.VideoID, req.Title, req.Thumbnail)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to like song"})
		return
	}

	c.JSON(http.StatusOK, song)
}

func (h *Handler) removeLikedSong(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.service.RemoveLikedSong(c.Request.Context(), user.ID, c.Param("videoId")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to unlike song"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) isLikedSong(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	isLiked, err := h.service.IsLikedSong(c.Request.Context(), user.ID, c.Param("videoId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check liked status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"isLiked": isLiked})
}
