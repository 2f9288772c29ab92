package usage

import (
	"time"

	"github.com/gin-gonic/gin"

	"dialhub_backend/platform/httpkit"
)

// UsageResponse reports the counters for one billing period.
type UsageResponse struct {
	Period       string     `json:"period"`
	TotalCalls   int        `json:"totalCalls"`
	TotalMinutes int        `json:"totalMinutes"`
	LastCallAt   *time.Time `json:"lastCallAt,omitempty"`
}

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/current", h.Current)
}

// Current returns the counters for the current calendar month. A period
// with no recorded calls yields zero counters, not an error.
func (h *Handler) Current(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	period := PeriodOf(time.Now())
	counters, err := h.repo.Get(c.Request.Context(), ident.OrgID(), period)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, UsageResponse{
		Period:       period,
		TotalCalls:   counters.TotalCalls,
		TotalMinutes: counters.TotalMinutes,
		LastCallAt:   counters.LastCallAt,
	})
}
