// Package provider implements the HTTP client for the external
// call-execution provider. Dispatch and cancel are the only operations;
// everything after a successful dispatch arrives asynchronously through the
// completion webhook.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"dialhub_backend/internal/callconfig"
	"dialhub_backend/platform/config"
	"dialhub_backend/platform/logger"
)

// DispatchRequest is the payload sent to the provider to start a call.
type DispatchRequest struct {
	PhoneNumber    string                     `json:"phone_number"`
	ContactName    string                     `json:"contact_name"`
	OrganizationID string                     `json:"organization_id"`
	CallbackURL    string                     `json:"callback_url"`
	Config         callconfig.ResolvedPayload `json:"config"`
}

// DispatchResponse is the provider's synchronous answer to a dispatch.
type DispatchResponse struct {
	Success bool   `json:"success"`
	CallID  string `json:"call_id"`
	Message string `json:"message"`
}

// Client talks to the call-execution provider.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	cancelTimeout time.Duration
	limiter       *rate.Limiter
	log           *logger.Logger
}

// New creates a new provider client.
func New(cfg config.ProviderConfig, log *logger.Logger) *Client {
	rps := cfg.GetProviderRatePerSecond()
	if rps <= 0 {
		rps = 5
	}

	timeout := cfg.GetProviderTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cancelTimeout := cfg.GetProviderCancelTimeout()
	if cancelTimeout <= 0 {
		cancelTimeout = 5 * time.Second
	}

	return &Client{
		baseURL:       cfg.GetProviderBaseURL(),
		apiKey:        cfg.GetProviderAPIKey(),
		httpClient:    &http.Client{Timeout: timeout},
		cancelTimeout: cancelTimeout,
		limiter:       rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		log:           log,
	}
}

// Dispatch asks the provider to place an outbound call. A non-2xx status or a
// response that does not parse as JSON is a dispatch failure.
func (c *Client) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return DispatchResponse{}, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return DispatchResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/calls", bytes.NewReader(body))
	if err != nil {
		return DispatchResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return DispatchResponse{}, fmt.Errorf("provider dispatch: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return DispatchResponse{}, fmt.Errorf("provider dispatch: unexpected status %d", httpResp.StatusCode)
	}

	var resp DispatchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return DispatchResponse{}, fmt.Errorf("provider dispatch: invalid response: %w", err)
	}

	if !resp.Success || resp.CallID == "" {
		return DispatchResponse{}, fmt.Errorf("provider dispatch rejected: %s", resp.Message)
	}

	return resp, nil
}

// Cancel sends a best-effort terminate request for an in-flight call. It uses
// its own short timeout regardless of the caller's context deadline; callers
// treat any error as advisory.
func (c *Client) Cancel(ctx context.Context, externalCallID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cancelTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/calls/"+externalCallID+"/cancel", nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("provider cancel: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return fmt.Errorf("provider cancel: unexpected status %d", httpResp.StatusCode)
	}

	return nil
}
