package ui

import (
	"errors"
	"net/http"

	"granttrack/domain/core"
	apperrors "granttrack/internal/errors"

	"github.com/gin-gonic/gin"
)

// statusFor maps an application error code onto an HTTP status
func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeValidationFailure:
		if errors.Is(err, core.ErrColumnLocked) {
			return http.StatusConflict
		}
		return http.StatusUnprocessableEntity
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Internal failures are logged and hidden.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": err.Error(), "code": apperrors.GetCode(err)}
	c.JSON(status, body)
}

// badRequest reports a malformed request body or parameter
func (s *Server) badRequest(c *gin.Context, err error) {
	s.respondError(c, apperrors.InvalidInput(err.Error()))
}

func (s *Server) datasetID(c *gin.Context) (core.DatasetID, bool) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		s.badRequest(c, err)
		return "", false
	}
	return id, true
}
