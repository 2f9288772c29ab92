package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dialhub_backend/platform/logger"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetProviderBaseURL() string              { return c.baseURL }
func (c testConfig) GetProviderAPIKey() string               { return "test-key" }
func (c testConfig) GetProviderTimeout() time.Duration       { return 2 * time.Second }
func (c testConfig) GetProviderCancelTimeout() time.Duration { return time.Second }
func (c testConfig) GetProviderRatePerSecond() float64       { return 100 }
func (c testConfig) GetWebhookBaseURL() string               { return "http://localhost:8080" }

func TestDispatchSendsAuthorizedRequestAndParsesResponse(t *testing.T) {
	var gotAuth string
	var gotBody DispatchRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/calls" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(DispatchResponse{Success: true, CallID: "abc123"})
	}))
	defer server.Close()

	client := New(testConfig{baseURL: server.URL}, logger.New("test"))

	resp, err := client.Dispatch(context.Background(), DispatchRequest{
		PhoneNumber: "+14155552671",
		ContactName: "Asha",
		CallbackURL: "http://localhost:8080/api/v1/webhook/call-completed/org",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if resp.CallID != "abc123" {
		t.Fatalf("call id = %q, want abc123", resp.CallID)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotBody.PhoneNumber != "+14155552671" {
		t.Fatalf("phone = %q", gotBody.PhoneNumber)
	}
}

func TestDispatchFailsOnProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(DispatchResponse{Success: false, Message: "no capacity"})
	}))
	defer server.Close()

	client := New(testConfig{baseURL: server.URL}, logger.New("test"))
	if _, err := client.Dispatch(context.Background(), DispatchRequest{}); err == nil {
		t.Fatal("expected error for rejected dispatch")
	}
}

func TestDispatchFailsOnNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(testConfig{baseURL: server.URL}, logger.New("test"))
	if _, err := client.Dispatch(context.Background(), DispatchRequest{}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestDispatchFailsOnMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := New(testConfig{baseURL: server.URL}, logger.New("test"))
	if _, err := client.Dispatch(context.Background(), DispatchRequest{}); err == nil {
		t.Fatal("expected error for unparseable response")
	}
}

func TestCancelTargetsCallPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer server.Close()

	client := New(testConfig{baseURL: server.URL}, logger.New("test"))
	if err := client.Cancel(context.Background(), "abc123"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if gotPath != "/v1/calls/abc123/cancel" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestCancelReportsFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(testConfig{baseURL: server.URL}, logger.New("test"))
	if err := client.Cancel(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
