package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thedittmer/daily-riff/internal/app"
	"github.com/thedittmer/daily-riff/internal/config"
	"github.com/thedittmer/daily-riff/internal/logger"
	"github.com/thedittmer/daily-riff/internal/models"
)

type handlers struct {
	svc    Service
	logger *logger.Logger
}

type generateRequest struct {
	Topic string `json:"topic"`
	Model string `json:"model"`
}

type articleRequest struct {
	Title             string   `json:"title" binding:"required"`
	Content           string   `json:"content" binding:"required"`
	SearchAttribution []string `json:"searchAttribution"`
}

func (r articleRequest) article() models.Article {
	return models.Article{
		Title:             r.Title,
		Content:           r.Content,
		SearchAttribution: r.SearchAttribution,
	}
}

type exportResponse struct {
	FileID  string `json:"fileId"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

func (h *handlers) health(c *gin.Context) {
	state, _ := h.svc.DriveStatus()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"timestamp":  time.Now().UTC(),
		"drive":      state.String(),
		"generating": h.svc.Generating(),
	})
}

func (h *handlers) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var model models.Model
	if req.Model != "" {
		m, ok := models.ParseModel(req.Model)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown model"})
			return
		}
		model = m
	}

	gen, err := h.svc.Generate(c.Request.Context(), req.Topic, model)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gen)
}

func (h *handlers) listSaved(c *gin.Context) {
	posts, err := h.svc.ListSaved(c.Request.Context())
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *handlers) saveLocally(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and content are required"})
		return
	}

	post, err := h.svc.SaveLocally(c.Request.Context(), req.article())
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *handlers) deleteSaved(c *gin.Context) {
	if err := h.svc.DeleteSaved(c.Request.Context(), c.Param("id")); err != nil {
		h.abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlers) exportSaved(c *gin.Context) {
	res, post, err := h.svc.ExportSaved(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, exportResponse{FileID: res.FileID, URL: res.URL, Message: app.ExportMessage(post.Title)})
}

func (h *handlers) exportToDrive(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and content are required"})
		return
	}

	res, err := h.svc.ExportToDrive(c.Request.Context(), req.article())
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, exportResponse{FileID: res.FileID, URL: res.URL, Message: app.ExportMessage(req.Title)})
}

func (h *handlers) getSettings(c *gin.Context) {
	s := h.svc.Settings()
	s.APIKey = config.Mask(s.APIKey)
	s.ClientSecret = config.Mask(s.ClientSecret)
	c.JSON(http.StatusOK, s)
}

func (h *handlers) putSettings(c *gin.Context) {
	var req config.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings"})
		return
	}

	// Masked values echoed back from GET keep the stored secret.
	current := h.svc.Settings()
	if config.IsMasked(req.APIKey) {
		req.APIKey = current.APIKey
	}
	if config.IsMasked(req.ClientSecret) {
		req.ClientSecret = current.ClientSecret
	}

	if err := h.svc.SaveSettings(c.Request.Context(), req); err != nil {
		h.abort(c, err)
		return
	}

	s := h.svc.Settings()
	s.APIKey = config.Mask(s.APIKey)
	s.ClientSecret = config.Mask(s.ClientSecret)
	c.JSON(http.StatusOK, s)
}
