package handler

import (
	"net/http"
	"strconv"

	"salesops_backend/internal/automation/service"
	"salesops_backend/internal/automation/transport"
	"salesops_backend/platform/httpkit"
	"salesops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidRuleID    = "invalid rule id"
)

// Handler handles HTTP requests for automation rules and event dispatch
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new automation handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the automation routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rules", h.ListRules)
	rg.POST("/rules", h.CreateRule)
	rg.GET("/rules/:id", h.GetRule)
	rg.PUT("/rules/:id", h.UpdateRule)
	rg.DELETE("/rules/:id", h.DeleteRule)
	rg.PATCH("/rules/:id/active", h.SetRuleActive)
	rg.GET("/rules/:id/logs", h.ListStepLogs)

	rg.POST("/events", h.DispatchEvent)
}

// ListRules handles GET /api/v1/automation/rules
func (h *Handler) ListRules(c *gin.Context) {
	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListRules(c.Request.Context(), teamID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// CreateRule handles POST /api/v1/automation/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req transport.CreateRuleRequest
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

	result, err := h.svc.CreateRule(c.Request.Context(), teamID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, result)
}

// GetRule handles GET /api/v1/automation/rules/:id
func (h *Handler) GetRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRuleID, nil)
		return
	}

	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetRule(c.Request.Context(), id, teamID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// UpdateRule handles PUT /api/v1/automation/rules/:id
func (h *Handler) UpdateRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRuleID, nil)
		return
	}

	var req transport.UpdateRuleRequest
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

	result, err := h.svc.UpdateRule(c.Request.Context(), id, teamID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// DeleteRule handles DELETE /api/v1/automation/rules/:id
func (h *Handler) DeleteRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRuleID, nil)
		return
	}

	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteRule(c.Request.Context(), id, teamID)) {
		return
	}

	httpkit.NoContent(c)
}

// SetRuleActive handles PATCH /api/v1/automation/rules/:id/active
func (h *Handler) SetRuleActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRuleID, nil)
		return
	}

	var req transport.SetRuleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.SetRuleActive(c.Request.Context(), id, teamID, req.IsActive)) {
		return
	}

	httpkit.NoContent(c)
}

// ListStepLogs handles GET /api/v1/automation/rules/:id/logs
func (h *Handler) ListStepLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRuleID, nil)
		return
	}

	teamID, ok := httpkit.MustGetTeamID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	result, err := h.svc.ListStepLogs(c.Request.Context(), id, teamID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// DispatchEvent handles POST /api/v1/automation/events
func (h *Handler) DispatchEvent(c *gin.Context) {
	var req transport.DispatchEventRequest
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

	if httpkit.HandleError(c, h.svc.DispatchEvent(c.Request.Context(), teamID, req)) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "dispatched"})
}
