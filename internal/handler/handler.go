package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

// Response is the JSON envelope every /api/v1 endpoint answers with.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{Status: "success", Data: data}
}

func NewErrorResponse(message string) *Response {
	return &Response{Status: "error", Message: message}
}

// StatusFor picks the HTTP status a console response should carry for err.
// Failures of the remote clinic API surface as 502; application errors use their own code.
func StatusFor(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// AbortWithError writes the JSON error envelope for err.
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusFor(err), NewErrorResponse(err.Error()))
}
