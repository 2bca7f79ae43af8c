package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/evaluation/repository"
	"crm_messaging_backend/internal/evaluation/transport"
	"crm_messaging_backend/platform/httpkit"
	"crm_messaging_backend/platform/validator"
)

// Service is the evaluation API the handler serves.
type Service interface {
	EvaluateMessage(ctx context.Context, tenantID uuid.UUID, req transport.EvaluateMessageRequest, sync bool) (transport.EvaluateMessageResponse, error)
	EvaluateConversation(ctx context.Context, tenantID uuid.UUID, req transport.EvaluateConversationRequest) (transport.EvaluateConversationResponse, error)
	ListLeadEvaluations(ctx context.Context, tenantID, leadID uuid.UUID, req transport.ListEvaluationsRequest) (transport.EvaluationListResponse, error)
	ListConversationEvaluations(ctx context.Context, tenantID, conversationID uuid.UUID, req transport.ListEvaluationsRequest) (transport.EvaluationListResponse, error)
	GetStats(ctx context.Context, tenantID uuid.UUID, req transport.StatsRequest) (repository.EvaluationStats, error)
	GetConfig(ctx context.Context, tenantID uuid.UUID) (domain.EvaluationConfig, error)
	UpdateConfig(ctx context.Context, tenantID uuid.UUID, req transport.UpdateEvaluationConfigRequest) (domain.EvaluationConfig, error)
	ReplaceSynonyms(ctx context.Context, tenantID, productID uuid.UUID, req transport.ReplaceSynonymsRequest) (transport.SynonymsResponse, error)
}

// Handler handles HTTP requests for lead evaluations.
type Handler struct {
	svc Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
	msgInvalidConvID    = "invalid conversation id"
	msgInvalidProductID = "invalid product id"
)

// New creates a new evaluation handler.
func New(svc Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// EvaluateMessage evaluates one message, queued unless ?sync=true.
// POST /api/v1/evaluations/messages
func (h *Handler) EvaluateMessage(c *gin.Context) {
	var req transport.EvaluateMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	var query transport.EvaluateMessageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.EvaluateMessage(c.Request.Context(), tenantID, req, query.Sync)
	if httpkit.HandleError(c, err) {
		return
	}
	if result.Status == transport.StatusQueued {
		httpkit.JSON(c, http.StatusAccepted, result)
		return
	}
	httpkit.OK(c, result)
}

// EvaluateConversation evaluates every user message of a conversation.
// POST /api/v1/evaluations/conversations
func (h *Handler) EvaluateConversation(c *gin.Context) {
	var req transport.EvaluateConversationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.EvaluateConversation(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	if !req.Sync {
		httpkit.JSON(c, http.StatusAccepted, result)
		return
	}
	httpkit.OK(c, result)
}

// ListLeadEvaluations lists a lead's evaluations, most recent first.
// GET /api/v1/leads/:id/evaluations
func (h *Handler) ListLeadEvaluations(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}
	var req transport.ListEvaluationsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListLeadEvaluations(c.Request.Context(), tenantID, leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListConversationEvaluations lists the evaluations of a conversation.
// GET /api/v1/conversations/:id/evaluations
func (h *Handler) ListConversationEvaluations(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidConvID, nil)
		return
	}
	var req transport.ListEvaluationsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListConversationEvaluations(c.Request.Context(), tenantID, conversationID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetStats returns dashboard statistics.
// GET /api/v1/evaluations/stats
func (h *Handler) GetStats(c *gin.Context) {
	var req transport.StatsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetStats(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/evaluation-config
func (h *Handler) GetConfig(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	result, err := h.svc.GetConfig(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// PUT /api/v1/evaluation-config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req transport.UpdateEvaluationConfigRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.UpdateConfig(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ReplaceSynonyms replaces the curated synonyms of a catalog product.
// PUT /api/v1/catalog/products/:id/synonyms
func (h *Handler) ReplaceSynonyms(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidProductID, nil)
		return
	}
	var req transport.ReplaceSynonymsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.ReplaceSynonyms(c.Request.Context(), tenantID, productID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}
