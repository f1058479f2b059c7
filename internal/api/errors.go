package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thedittmer/daily-riff/internal/app"
	"github.com/thedittmer/daily-riff/internal/drive"
	"github.com/thedittmer/daily-riff/internal/generator"
	"github.com/thedittmer/daily-riff/internal/normalizer"
	"github.com/thedittmer/daily-riff/internal/storage"
)

// statusFor picks the HTTP status for an error kind.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generator.ErrMissingCredential),
		errors.Is(err, generator.ErrEmptyTopic),
		errors.Is(err, drive.ErrMissingClientConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, normalizer.ErrMalformedOutput),
		errors.Is(err, generator.ErrEmptyOutput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generator.ErrInvalidCredential),
		errors.Is(err, generator.ErrRequestFailed),
		errors.Is(err, drive.ErrNotInitialized),
		errors.Is(err, drive.ErrAuthorizationFailed),
		errors.Is(err, drive.ErrUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abort writes the banner message for err. The raw error only goes to the log.
func (h *handlers) abort(c *gin.Context, err error) {
	status := statusFor(err)
	h.logger.Warn("request failed", "path", c.FullPath(), "status", status, "error", err)
	c.AbortWithStatusJSON(status, gin.H{"error": app.Message(err)})
}
