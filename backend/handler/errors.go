package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnTengye/contractreview/backend/pkg/logger"
	"github.com/AnTengye/contractreview/backend/service"
)

// mapServiceError translates service errors to an HTTP status, an error code
// and a message safe to show the user.
func mapServiceError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, service.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "Unsupported file type; allowed: PDF, DOCX, DOC, TXT"
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the maximum allowed size"
	case errors.Is(err, service.ErrEmptyDocument):
		return http.StatusUnprocessableEntity, "EMPTY_DOCUMENT", "The document contains no readable text"
	case errors.Is(err, service.ErrExtraction):
		return http.StatusUnprocessableEntity, "EXTRACTION_FAILED", "The document could not be read: " + err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code, msg := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "error", err)
	} else {
		logger.Info(c.Request.Context(), "request rejected", "code", code, "error", err)
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}
