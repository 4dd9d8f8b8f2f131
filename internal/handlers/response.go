package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veilrank/veilrank-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAppError maps the error's kind onto an HTTP status. Unknown
// kinds are treated as internal errors and the raw message is withheld.
func RespondAppError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		RespondError(c, http.StatusBadRequest, code, err)
	case apperr.KindNotFound:
		RespondError(c, http.StatusNotFound, code, err)
	case apperr.KindConflict:
		RespondError(c, http.StatusConflict, code, err)
	case apperr.KindUnauthorized:
		RespondError(c, http.StatusUnauthorized, code, err)
	case apperr.KindForbidden:
		RespondError(c, http.StatusForbidden, code, err)
	case apperr.KindUnavailable:
		RespondError(c, http.StatusServiceUnavailable, code, err)
	default:
		c.JSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{Message: "internal error", Code: "internal"},
		})
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
