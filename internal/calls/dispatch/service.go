// Package dispatch places single outbound calls and handles manual
// cancellation. Bulk orchestration drives this service; it never reaches
// around it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"dialhub_backend/internal/callconfig"
	"dialhub_backend/internal/calls/domain"
	"dialhub_backend/internal/calls/provider"
	"dialhub_backend/internal/calls/repository"
	"dialhub_backend/internal/calls/transport"
	"dialhub_backend/internal/events"
	"dialhub_backend/platform/apperr"
	"dialhub_backend/platform/logger"
	"dialhub_backend/platform/phone"
)

// CallStore is the call record access dispatch needs.
type CallStore interface {
	CreateInitiating(ctx context.Context, params repository.CreateInitiatingParams) (repository.Call, error)
	SetInProgress(ctx context.Context, id, orgID uuid.UUID, externalCallID string) error
	MarkDispatchFailed(ctx context.Context, id, orgID uuid.UUID) error
	GetByID(ctx context.Context, id, orgID uuid.UUID) (repository.Call, error)
	ForceTerminal(ctx context.Context, id, orgID uuid.UUID, status domain.Status) (bool, error)
}

// LeadStore is the lead access dispatch needs.
type LeadStore interface {
	IncrementCallCount(ctx context.Context, id, orgID uuid.UUID) error
}

// ConfigStore resolves calling configurations.
type ConfigStore interface {
	GetByID(ctx context.Context, id, orgID uuid.UUID) (callconfig.CallConfig, error)
}

// TokenStore resolves the organization webhook token for callback URLs.
type TokenStore interface {
	GetWebhookToken(ctx context.Context, orgID uuid.UUID) (string, error)
}

// ProviderClient is the provider surface dispatch needs.
type ProviderClient interface {
	Dispatch(ctx context.Context, req provider.DispatchRequest) (provider.DispatchResponse, error)
	Cancel(ctx context.Context, externalCallID string) error
}

// Service places and cancels outbound calls.
type Service struct {
	calls          CallStore
	leads          LeadStore
	configs        ConfigStore
	tokens         TokenStore
	provider       ProviderClient
	bus            events.Bus
	webhookBaseURL string
	log            *logger.Logger
}

// New creates a new dispatch service.
func New(calls CallStore, leads LeadStore, configs ConfigStore, tokens TokenStore, providerClient ProviderClient, bus events.Bus, webhookBaseURL string, log *logger.Logger) *Service {
	return &Service{
		calls:          calls,
		leads:          leads,
		configs:        configs,
		tokens:         tokens,
		provider:       providerClient,
		bus:            bus,
		webhookBaseURL: webhookBaseURL,
		log:            log,
	}
}

// Dispatch validates the request, persists an initiating call record, then
// contacts the provider. The record exists before the network call so a
// crash or timeout mid-dispatch still leaves an auditable row; on provider
// failure the record is marked failed and the error surfaces to the caller.
func (s *Service) Dispatch(ctx context.Context, orgID uuid.UUID, req transport.DispatchCallRequest) (repository.Call, error) {
	if !phone.IsValid(req.PhoneNumber) {
		return repository.Call{}, apperr.Validation("invalid phone number")
	}
	normalized := phone.NormalizeE164(req.PhoneNumber)

	cfg, err := s.configs.GetByID(ctx, req.CallConfigID, orgID)
	if err != nil {
		if errors.Is(err, callconfig.ErrNotFound) {
			return repository.Call{}, apperr.NotFound("call config not found")
		}
		return repository.Call{}, err
	}

	if missing := callconfig.MissingContextKeys(cfg, req.Context); len(missing) > 0 {
		return repository.Call{}, apperr.Validation("missing required context fields").WithDetails(missing)
	}

	call, err := s.calls.CreateInitiating(ctx, repository.CreateInitiatingParams{
		OrganizationID: orgID,
		LeadID:         req.LeadID,
		Request: repository.RequestSnapshot{
			PhoneNumber:  normalized,
			ContactName:  req.ContactName,
			CallConfigID: req.CallConfigID,
			Context:      req.Context,
		},
	})
	if err != nil {
		return repository.Call{}, err
	}

	callbackURL, err := s.buildCallbackURL(ctx, orgID)
	if err != nil {
		s.markFailed(ctx, call.ID, orgID)
		return repository.Call{}, err
	}

	resp, err := s.provider.Dispatch(ctx, provider.DispatchRequest{
		PhoneNumber:    normalized,
		ContactName:    req.ContactName,
		OrganizationID: orgID.String(),
		CallbackURL:    callbackURL,
		Config:         callconfig.Resolve(cfg, req.Context),
	})
	if err != nil {
		s.log.DispatchError(call.ID.String(), normalized, err)
		s.markFailed(ctx, call.ID, orgID)
		return repository.Call{}, apperr.Wrap(apperr.KindUnavailable, "call dispatch failed", err)
	}

	if err := s.calls.SetInProgress(ctx, call.ID, orgID, resp.CallID); err != nil {
		return repository.Call{}, err
	}

	if req.LeadID != nil {
		if err := s.leads.IncrementCallCount(ctx, *req.LeadID, orgID); err != nil {
			s.log.Error("dispatch: failed to increment lead call count", "error", err, "leadId", *req.LeadID)
		}
	}

	s.bus.Publish(ctx, events.CallDispatched{
		BaseEvent:      events.NewBaseEvent(),
		CallID:         call.ID,
		OrganizationID: orgID,
		LeadID:         req.LeadID,
		ExternalCallID: resp.CallID,
	})

	return s.calls.GetByID(ctx, call.ID, orgID)
}

// Cancel forces a call into the failed state and sends a best-effort hang-up
// to the provider. The provider signal is advisory: its failure is logged and
// never blocks the local transition.
func (s *Service) Cancel(ctx context.Context, orgID, callID uuid.UUID) (repository.Call, error) {
	call, err := s.calls.GetByID(ctx, callID, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Call{}, apperr.NotFound("call not found")
		}
		return repository.Call{}, err
	}

	if call.Status.IsTerminal() {
		return repository.Call{}, apperr.Conflict("call already ended")
	}

	if call.ExternalCallID != "" {
		if err := s.provider.Cancel(ctx, call.ExternalCallID); err != nil {
			s.log.Warn("cancel: provider hang-up failed", "error", err, "externalCallId", call.ExternalCallID)
		}
	}

	applied, err := s.calls.ForceTerminal(ctx, callID, orgID, domain.StatusFailed)
	if err != nil {
		return repository.Call{}, err
	}
	if !applied {
		// A completion event won the race; the call ended on its own.
		return s.calls.GetByID(ctx, callID, orgID)
	}

	return s.calls.GetByID(ctx, callID, orgID)
}

func (s *Service) markFailed(ctx context.Context, callID, orgID uuid.UUID) {
	if err := s.calls.MarkDispatchFailed(ctx, callID, orgID); err != nil {
		s.log.Error("dispatch: failed to mark call failed", "error", err, "callId", callID)
	}
}

func (s *Service) buildCallbackURL(ctx context.Context, orgID uuid.UUID) (string, error) {
	token, err := s.tokens.GetWebhookToken(ctx, orgID)
	if err != nil {
		return "", fmt.Errorf("resolve webhook token: %w", err)
	}

	return fmt.Sprintf("%s/api/v1/webhook/call-completed/%s?token=%s",
		s.webhookBaseURL, orgID, url.QueryEscape(token)), nil
}
