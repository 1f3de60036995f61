package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mehmetcanozen/minilink-sub001/internal/repository"
	"github.com/mehmetcanozen/minilink-sub001/internal/services"
	"github.com/mehmetcanozen/minilink-sub001/internal/shortcode"
)

type LinkHandler struct {
	linkService *services.LinkService
}

func NewLinkHandler(linkService *services.LinkService) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
	}
}

// CreateLink shortens a URL.
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req services.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	link, err := h.linkService.CreateLink(c.Request.Context(), req)
	if err != nil {
		var validationErr *shortcode.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var exhausted *shortcode.RetriesExhaustedError
		if errors.As(err, &exhausted) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, link)
}

// Redirect resolves a code and 302s to its target.
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	link, err := h.linkService.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve link"})
		return
	}

	c.Redirect(http.StatusFound, link.TargetURL)
}

// PoolStats returns the code pool snapshot.
func (h *LinkHandler) PoolStats(c *gin.Context) {
	stats, collisionProbability := h.linkService.PoolStats(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"pool":                  stats,
		"collision_probability": collisionProbability,
	})
}

// Health is a liveness probe.
func (h *LinkHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
