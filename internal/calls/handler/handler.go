package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dialhub_backend/internal/calls/bulk"
	"dialhub_backend/internal/calls/dispatch"
	"dialhub_backend/internal/calls/repository"
	"dialhub_backend/internal/calls/transport"
	"dialhub_backend/platform/httpkit"
	"dialhub_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	dispatcher   *dispatch.Service
	orchestrator *bulk.Orchestrator
	repo         *repository.Repository
	validate     *validator.Validator
}

func New(dispatcher *dispatch.Service, orchestrator *bulk.Orchestrator, repo *repository.Repository, validate *validator.Validator) *Handler {
	return &Handler{
		dispatcher:   dispatcher,
		orchestrator: orchestrator,
		repo:         repo,
		validate:     validate,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Dispatch)
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/bulk", h.StartBulk)
	rg.GET("/bulk/:jobId", h.BulkProgress)
	rg.POST("/bulk/:jobId/pause", h.PauseBulk)
	rg.POST("/bulk/:jobId/resume", h.ResumeBulk)
	rg.POST("/bulk/:jobId/abort", h.AbortBulk)
}

func (h *Handler) Dispatch(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	var req transport.DispatchCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	call, err := h.dispatcher.Dispatch(c.Request.Context(), ident.OrgID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toCallResponse(call))
}

func (h *Handler) List(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	calls, err := h.repo.ListByOrganization(c.Request.Context(), ident.OrgID(), 100)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.CallResponse, 0, len(calls))
	for _, call := range calls {
		items = append(items, toCallResponse(call))
	}

	httpkit.OK(c, transport.CallsResponse{Items: items})
}

func (h *Handler) GetByID(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	call, err := h.repo.GetByID(c.Request.Context(), id, ident.OrgID())
	if errors.Is(err, repository.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "call not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toCallResponse(call))
}

func (h *Handler) Cancel(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	call, err := h.dispatcher.Cancel(c.Request.Context(), ident.OrgID(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.CancelCallResponse{ID: call.ID, Status: call.Status})
}

func (h *Handler) StartBulk(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	var req transport.BulkDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	job, err := h.orchestrator.Start(ident.OrgID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, transport.BulkJobResponse{JobID: job.ID})
}

func (h *Handler) BulkProgress(c *gin.Context) {
	job, ok := h.bulkJob(c)
	if !ok {
		return
	}
	httpkit.OK(c, job.Progress())
}

func (h *Handler) PauseBulk(c *gin.Context) {
	job, ok := h.bulkJob(c)
	if !ok {
		return
	}
	job.Pause()
	httpkit.OK(c, job.Progress())
}

func (h *Handler) ResumeBulk(c *gin.Context) {
	job, ok := h.bulkJob(c)
	if !ok {
		return
	}
	job.Resume()
	httpkit.OK(c, job.Progress())
}

func (h *Handler) AbortBulk(c *gin.Context) {
	job, ok := h.bulkJob(c)
	if !ok {
		return
	}
	job.Abort()
	httpkit.OK(c, job.Progress())
}

func (h *Handler) bulkJob(c *gin.Context) (*bulk.Job, bool) {
	jobID, err := uuid.Parse(c.Param("jobId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return nil, false
	}

	job, ok := h.orchestrator.Get(jobID)
	if !ok {
		httpkit.Error(c, http.StatusNotFound, "bulk job not found", nil)
		return nil, false
	}
	return job, true
}

func toCallResponse(call repository.Call) transport.CallResponse {
	return transport.CallResponse{
		ID:              call.ID,
		ExternalCallID:  call.ExternalCallID,
		LeadID:          call.LeadID,
		Status:          call.Status,
		PhoneNumber:     call.Request.PhoneNumber,
		ContactName:     call.Request.ContactName,
		InitiatedAt:     call.InitiatedAt,
		CompletedAt:     call.CompletedAt,
		DurationSeconds: call.DurationSeconds,
		InterestLevel:   call.InterestLevel,
		CompletionRate:  call.CompletionRate,
		Summary:         call.Summary,
		Qualification:   call.Qualification,
	}
}
