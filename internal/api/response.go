package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/katalyst/internal/apierr"
)

// APIError is the body of a failed response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes an error envelope.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondOK writes a 200 JSON payload.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

var errInternal = errors.New("internal server error")

// respondServiceError maps a catalog or progress error onto the envelope.
// Unclassified errors are logged and reported without their detail.
func (h *Handler) respondServiceError(c *gin.Context, op string, err error) {
	kind := apierr.KindOf(err)
	if kind == "" {
		h.log.Error(op+" failed", "error", err, "request_id", c.GetString(requestIDKey))
		RespondError(c, http.StatusInternalServerError, "internal_error", errInternal)
		return
	}
	RespondError(c, apierr.Status(err), string(kind), err)
}
