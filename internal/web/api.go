package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"holiday-viewer/internal/apperror"
	"holiday-viewer/internal/model"
	"holiday-viewer/internal/upcoming"
)

// Envelope is the JSON response contract of the API endpoints.
type Envelope struct {
	Data  interface{}     `json:"data,omitempty"`
	Error *apperror.Error `json:"error,omitempty"`
}

type eventsResponse struct {
	Query     model.Query   `json:"query"`
	Available bool          `json:"available"`
	Events    []model.Event `json:"events"`
	Upcoming  []model.Event `json:"upcoming"`
}

func respondJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Data: data})
}

func respondError(c *gin.Context, err error) {
	appErr := apperror.FromError(err)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// handleEvents is the stateless JSON form of a fetch.
func (h *Handler) handleEvents(c *gin.Context) {
	q, err := h.queryFrom(c.Query)
	if err != nil {
		respondError(c, apperror.Validation(err))
		return
	}

	events, ok := h.registry.Fetch(c.Request.Context(), q)
	if events == nil {
		events = []model.Event{}
	}
	selected := upcoming.Select(events, h.today())

	respondJSON(c, http.StatusOK, eventsResponse{
		Query:     q,
		Available: ok,
		Events:    events,
		Upcoming:  upcoming.Top(selected, upcoming.DisplayLimit),
	})
}
