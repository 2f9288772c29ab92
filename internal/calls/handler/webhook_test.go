package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dialhub_backend/internal/scheduler"
	"dialhub_backend/platform/logger"
)

type stubVerifier struct {
	valid bool
	err   error
}

func (s stubVerifier) VerifyWebhookToken(ctx context.Context, orgID uuid.UUID, token string) (bool, error) {
	return s.valid, s.err
}

type stubEnqueuer struct {
	enqueued []scheduler.CallCompletionPayload
	err      error
}

func (s *stubEnqueuer) EnqueueCallCompletion(ctx context.Context, payload scheduler.CallCompletionPayload) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, payload)
	return nil
}

func newWebhookRouter(verifier stubVerifier, enqueuer *stubEnqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewWebhookHandler(verifier, enqueuer, logger.New("test"))
	h.RegisterRoutes(engine.Group("/api/v1/webhook"))
	return engine
}

func postWebhook(engine *gin.Engine, orgID, token, body string) *httptest.ResponseRecorder {
	url := "/api/v1/webhook/call-completed/" + orgID
	if token != "" {
		url += "?token=" + token
	}
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhookAcksStructurallyValidPayload(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	engine := newWebhookRouter(stubVerifier{valid: true}, enqueuer)
	orgID := uuid.New()

	rec := postWebhook(engine, orgID.String(), "tok", `{"call_id":"abc123","duration_seconds":42,"no_answer":false}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("expected one enqueued task, got %d", len(enqueuer.enqueued))
	}
	if enqueuer.enqueued[0].Event.CallID != "abc123" {
		t.Fatalf("enqueued call id = %q", enqueuer.enqueued[0].Event.CallID)
	}
	if enqueuer.enqueued[0].OrganizationID != orgID.String() {
		t.Fatalf("enqueued org = %q", enqueuer.enqueued[0].OrganizationID)
	}
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	engine := newWebhookRouter(stubVerifier{valid: true}, enqueuer)

	rec := postWebhook(engine, uuid.New().String(), "tok", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = postWebhook(engine, uuid.New().String(), "tok", `{"duration_seconds":10}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for missing call_id, want 400", rec.Code)
	}

	if len(enqueuer.enqueued) != 0 {
		t.Fatal("nothing should be enqueued for rejected payloads")
	}
}

func TestWebhookRequiresValidToken(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	engine := newWebhookRouter(stubVerifier{valid: false}, enqueuer)

	rec := postWebhook(engine, uuid.New().String(), "wrong", `{"call_id":"abc123"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	rec = postWebhook(engine, uuid.New().String(), "", `{"call_id":"abc123"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d for missing token, want 401", rec.Code)
	}
}

func TestWebhookRejectsInvalidOrgID(t *testing.T) {
	engine := newWebhookRouter(stubVerifier{valid: true}, &stubEnqueuer{})

	rec := postWebhook(engine, "not-a-uuid", "tok", `{"call_id":"abc123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
