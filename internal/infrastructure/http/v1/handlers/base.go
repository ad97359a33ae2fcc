// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/domain/gate"
	"smartsupply/internal/infrastructure/http/v1/dto"
	"smartsupply/internal/infrastructure/http/v1/middleware"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends 200 with data in the envelope.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, data, "")
}

// Created sends 201 with data in the envelope.
func (h *BaseHandler) Created(c *gin.Context, data any, message string) {
	h.respond(c, http.StatusCreated, data, message)
}

func (h *BaseHandler) respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, dto.Envelope{
		Success:  true,
		Data:     data,
		Message:  message,
		GateType: gate.Tier(c.GetString(middleware.KeyGateType)),
	})
}
