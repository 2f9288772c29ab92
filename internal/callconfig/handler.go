package callconfig

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dialhub_backend/platform/httpkit"
	"dialhub_backend/platform/validator"
)

// CreateConfigRequest creates a calling configuration.
type CreateConfigRequest struct {
	Name               string            `json:"name" validate:"required,min=1,max=200"`
	ScriptPrompt       string            `json:"scriptPrompt" validate:"required"`
	Questions          []string          `json:"questions,omitempty"`
	ObjectionResponses map[string]string `json:"objectionResponses,omitempty"`
	Persona            map[string]string `json:"persona,omitempty"`
	PersonaEnabled     bool              `json:"personaEnabled"`
	Product            map[string]string `json:"product,omitempty"`
	ProductEnabled     bool              `json:"productEnabled"`
	SocialProof        map[string]string `json:"socialProof,omitempty"`
	SocialProofEnabled bool              `json:"socialProofEnabled"`
	ContextDefaults    map[string]string `json:"contextDefaults,omitempty"`
}

// ConfigResponse is the API representation of a calling configuration.
type ConfigResponse struct {
	ID                 uuid.UUID         `json:"id"`
	Name               string            `json:"name"`
	ScriptPrompt       string            `json:"scriptPrompt"`
	Questions          []string          `json:"questions"`
	ObjectionResponses map[string]string `json:"objectionResponses"`
	Persona            map[string]string `json:"persona"`
	PersonaEnabled     bool              `json:"personaEnabled"`
	Product            map[string]string `json:"product"`
	ProductEnabled     bool              `json:"productEnabled"`
	SocialProof        map[string]string `json:"socialProof"`
	SocialProofEnabled bool              `json:"socialProofEnabled"`
	ContextDefaults    map[string]string `json:"contextDefaults"`
	CreatedAt          time.Time         `json:"createdAt"`
}

type Handler struct {
	repo     *Repository
	validate *validator.Validator
}

func NewHandler(repo *Repository, validate *validator.Validator) *Handler {
	return &Handler{repo: repo, validate: validate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
}

func (h *Handler) List(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	configs, err := h.repo.List(c.Request.Context(), ident.OrgID())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]ConfigResponse, 0, len(configs))
	for _, cfg := range configs {
		items = append(items, toResponse(cfg))
	}
	httpkit.OK(c, gin.H{"items": items})
}

func (h *Handler) Create(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	var req CreateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	cfg, err := h.repo.Create(c.Request.Context(), CreateParams{
		OrganizationID:     ident.OrgID(),
		Name:               req.Name,
		ScriptPrompt:       req.ScriptPrompt,
		Questions:          req.Questions,
		ObjectionResponses: req.ObjectionResponses,
		Persona:            req.Persona,
		PersonaEnabled:     req.PersonaEnabled,
		Product:            req.Product,
		ProductEnabled:     req.ProductEnabled,
		SocialProof:        req.SocialProof,
		SocialProofEnabled: req.SocialProofEnabled,
		ContextDefaults:    req.ContextDefaults,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toResponse(cfg))
}

func (h *Handler) GetByID(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	cfg, err := h.repo.GetByID(c.Request.Context(), id, ident.OrgID())
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toResponse(cfg))
}

func toResponse(cfg CallConfig) ConfigResponse {
	return ConfigResponse{
		ID:                 cfg.ID,
		Name:               cfg.Name,
		ScriptPrompt:       cfg.ScriptPrompt,
		Questions:          cfg.Questions,
		ObjectionResponses: cfg.ObjectionResponses,
		Persona:            cfg.Persona,
		PersonaEnabled:     cfg.PersonaEnabled,
		Product:            cfg.Product,
		ProductEnabled:     cfg.ProductEnabled,
		SocialProof:        cfg.SocialProof,
		SocialProofEnabled: cfg.SocialProofEnabled,
		ContextDefaults:    cfg.ContextDefaults,
		CreatedAt:          cfg.CreatedAt,
	}
}
