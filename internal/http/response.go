package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"budget/internal/codec"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage"
)

// Response is the envelope of every API reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Fail maps a service error to its status code and replies with it.
func Fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.FromGin(c).ErrorContext(c.Request.Context(), "Request failed", log.FieldError, err)
		_ = c.Error(err)
		Error(c, status, "internal error")
		return
	}
	Error(c, status, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, storage.ErrBudgetNotFound),
		errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, core.ErrEntryNotFound),
		errors.Is(err, core.ErrGroupNotFound),
		errors.Is(err, core.ErrTransferNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, codec.ErrMalformedDocument):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidField),
		errors.Is(err, core.ErrUnknownField),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrInvalidMonth):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
