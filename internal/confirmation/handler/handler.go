package handler

import (
	"net/http"

	"salesops_backend/internal/confirmation/service"
	"salesops_backend/internal/confirmation/transport"
	"salesops_backend/platform/httpkit"
	"salesops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for confirmation configuration and tasks
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new confirmation handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the confirmation routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/config", h.GetConfig)
	rg.PUT("/config", h.ReplaceConfig)

	rg.GET("/appointments/:appointmentId/tasks", h.ListTasks)
	rg.GET("/tasks/:id", h.GetTask)
	rg.POST("/tasks/:id/attempts", h.RecordAttempt)
}

// GetConfig handles GET /api/v1/confirmations/config
func (h *Handler) GetConfig(c *gin.Context) {
	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetConfig(c.Request.Context(), teamID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ReplaceConfig handles PUT /api/v1/confirmations/config
func (h *Handler) ReplaceConfig(c *gin.Context) {
	var req transport.ReplaceConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	result, err := h.svc.ReplaceConfig(c.Request.Context(), teamID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ListTasks handles GET /api/v1/confirmations/appointments/:appointmentId/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid appointment id", nil)
		return
	}

	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListTasks(c.Request.Context(), appointmentID, teamID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetTask handles GET /api/v1/confirmations/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid task id", nil)
		return
	}

	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetTask(c.Request.Context(), id, teamID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// RecordAttempt handles POST /api/v1/confirmations/tasks/:id/attempts
func (h *Handler) RecordAttempt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid task id", nil)
		return
	}

	var req transport.RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	result, err := h.svc.RecordAttempt(c.Request.Context(), id, teamID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, result)
}
