package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dialhub_backend/internal/calls/transport"
	"dialhub_backend/internal/scheduler"
	"dialhub_backend/platform/httpkit"
	"dialhub_backend/platform/logger"
)

// TokenVerifier checks the per-organization webhook token.
type TokenVerifier interface {
	VerifyWebhookToken(ctx context.Context, orgID uuid.UUID, token string) (bool, error)
}

// WebhookHandler receives provider completion callbacks. It validates the
// delivery structurally, acknowledges, and hands the payload to the durable
// queue; all heavy processing happens in the worker.
type WebhookHandler struct {
	tokens   TokenVerifier
	enqueuer scheduler.CompletionEnqueuer
	log      *logger.Logger
}

func NewWebhookHandler(tokens TokenVerifier, enqueuer scheduler.CompletionEnqueuer, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{tokens: tokens, enqueuer: enqueuer, log: log}
}

func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/call-completed/:orgId", h.CallCompleted)
}

func (h *WebhookHandler) CallCompleted(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid organization id", nil)
		return
	}

	token := extractWebhookToken(c)
	if token == "" {
		httpkit.Error(c, http.StatusUnauthorized, "missing webhook token", nil)
		return
	}

	valid, err := h.tokens.VerifyWebhookToken(c.Request.Context(), orgID, token)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "token verification failed", nil)
		return
	}
	if !valid {
		httpkit.Error(c, http.StatusUnauthorized, "invalid webhook token", nil)
		return
	}

	var event transport.CompletionEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.log.WebhookEvent("", orgID.String(), false)
		httpkit.Error(c, http.StatusBadRequest, "malformed payload", nil)
		return
	}
	if event.CallID == "" {
		h.log.WebhookEvent("", orgID.String(), false)
		httpkit.Error(c, http.StatusBadRequest, "call_id is required", nil)
		return
	}

	if err := h.enqueuer.EnqueueCallCompletion(c.Request.Context(), scheduler.CallCompletionPayload{
		OrganizationID: orgID.String(),
		Event:          event,
	}); err != nil {
		h.log.Error("failed to enqueue completion event", "error", err, "externalCallId", event.CallID)
		httpkit.Error(c, http.StatusInternalServerError, "failed to accept event", nil)
		return
	}

	h.log.WebhookEvent(event.CallID, orgID.String(), true)
	httpkit.OK(c, gin.H{"accepted": true})
}

func extractWebhookToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return strings.TrimSpace(c.GetHeader("X-Webhook-Token"))
}
