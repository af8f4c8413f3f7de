package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockwatch/internal/watchlist"
)

// apiResponse is the envelope every endpoint replies with. Code is zero
// on success and repeats the HTTP status on errors.
type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// OperationError maps a bulk operation failure: precondition violations
// are the caller's fault, everything else is the backend's.
func OperationError(c *gin.Context, err error) {
	if watchlist.IsValidation(err) {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Error(c, http.StatusBadGateway, err.Error(), nil)
}
