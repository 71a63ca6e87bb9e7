package search

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/search", h.search)
}

func (h *Handler) search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid search query"})
		return
	}

	page, err := h.client.Search(c.Request.Context(), query, c.Query("pageToken"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"message": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, page)
}
