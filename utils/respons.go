package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondAppError maps the service error kinds onto HTTP status codes.
// Unclassified errors are treated as internal.
func RespondAppError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, ErrNotFound):
		RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, ErrInvalidState):
		RespondError(c, http.StatusConflict, err)
	case errors.Is(err, ErrConflict):
		RespondError(c, http.StatusConflict, err)
	case errors.Is(err, ErrStorage):
		RespondError(c, http.StatusServiceUnavailable, err)
	default:
		RespondError(c, http.StatusInternalServerError, err)
	}
}
