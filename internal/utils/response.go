package utils

import (
	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/gin-gonic/gin"
)

// APIResponse is a generic API response wrapper for success and error responses.
type APIResponse[T any] struct {
	Success   bool   `json:"success"`
	Data      T      `json:"data,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// RespondSuccess sends a standardized success response with the given data and status code.
func RespondSuccess[T any](c *gin.Context, statusCode int, data T) {
	c.JSON(statusCode, APIResponse[T]{
		Success: true,
		Data:    data,
	})
}

// RespondError sends a standardized error response built from an APIError.
func RespondError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, APIResponse[any]{
		Success:   false,
		ErrorCode: apiErr.Code,
		ErrorMsg:  apiErr.Message,
	})
}
