package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/music-streaming-system/pkg/jwt"
	"github.com/music-streaming-system/pkg/models"
	"github.com/music-streaming-system/pkg/redis"
)

const cookieName = "session_token"

// UserUpserter is the slice of the library service the auth handler needs:
// create-or-return of the user row tied to an external identity.
type UserUpserter interface {
	UpsertUser(ctx context.Context, externalID, displayName, email string) (*models.User, error)
}

type Handler struct {
	library  UserUpserter
	sessions redis.SessionStore
	secure   bool
}

func NewHandler(libraryService UserUpserter, sessions redis.SessionStore, secureCookies bool) *Handler {
	return &Handler{
		library:  libraryService,
		sessions: sessions,
		secure:   secureCookies,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth", h.authenticate)
	r.POST("/auth/logout", h.logout)
}

// AuthRequest carries the identity already verified by the external provider.
// The provider integration itself is a client concern; the server only trusts
// the uid as an opaque external identity.
type AuthRequest struct {
	UID         string `json:"uid" binding:"required"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (h *Handler) authenticate(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user data"})
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = "Anonymous"
	}

	user, err := h.library.UpsertUser(c.Request.Context(), req.UID, displayName, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
		return
	}

	sessionID := uuid.New().String()
	session := &redis.Session{
		ExternalID:  req.UID,
		DisplayName: displayName,
		Email:       req.Email,
		CreatedAt:   time.Now(),
	}

	if err := h.sessions.StoreSession(c.Request.Context(), sessionID, session); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create session"})
		return
	}

	token, err := jwt.GenerateToken(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create session"})
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})

	c.JSON(http.StatusOK, user)
}

func (h *Handler) logout(c *gin.Context) {
	token, err := c.Cookie(cookieName)
	if err == nil {
		if claims, err := jwt.ValidateToken(token); err == nil {
			if err := h.sessions.DeleteSession(c.Request.Context(), claims.SessionID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to end session"})
				return
			}
		}
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
	})

	c.Status(http.StatusNoContent)
}
