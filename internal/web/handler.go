package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"holiday-viewer/internal/model"
	"holiday-viewer/internal/session"
	"holiday-viewer/internal/source"
	"holiday-viewer/internal/upcoming"
)

//go:embed templates/index.html
var templates embed.FS

const sessionCookie = "holiday_viewer_session"

var pageTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	registry *source.Registry
	sessions session.Store
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// New creates a new Handler. A nil location means the server's local time zone.
func New(registry *source.Registry, sessions session.Store, logger *zap.Logger, location *time.Location) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}
	return &Handler{
		registry: registry,
		sessions: sessions,
		logger:   logger,
		location: location,
		now:      time.Now,
	}
}

// RegisterRoutes registers all HTTP routes on the given router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", noCache, h.handleIndex)
	r.POST("/fetch", noCache, h.handleFetch)
	r.POST("/toggle", noCache, h.handleToggle)
	r.GET("/api/events", noCache, h.handleEvents)
	r.GET("/health", h.handleHealth)
}

func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}

func (h *Handler) today() civil.Date {
	return civil.DateOf(h.now().In(h.location))
}

func (h *Handler) defaultQuery() model.Query {
	return model.Query{
		Country: model.CountryJP,
		Year:    h.today().Year,
		View:    model.ViewPublicHolidays,
	}
}

// formValues is what the query form shows. After a rejected submission it
// holds the raw input so the user can correct it.
type formValues struct {
	Country model.Country
	Year    string
	View    model.ViewKind
}

func formFrom(q model.Query) formValues {
	return formValues{Country: q.Country, Year: strconv.Itoa(q.Year), View: q.View}
}

type pageData struct {
	Countries []model.Country
	Views     []model.ViewKind
	MinYear   int
	MaxYear   int
	Form      formValues
	Query     model.Query
	Notice    *session.Notice
	Fetched   bool
	Expanded  bool
	CanToggle bool
	Upcoming  []model.Event
	Visible   []model.Event
}

func (h *Handler) render(c *gin.Context, status int, state *session.State, form formValues, notice *session.Notice) {
	data := pageData{
		Countries: model.Countries,
		Views:     model.ViewKinds,
		MinYear:   model.MinYear,
		MaxYear:   model.MaxYear,
		Form:      form,
		Query:     state.Query,
		Notice:    state.Notice,
		Fetched:   state.Fetched,
		Expanded:  state.Expanded,
		CanToggle: state.CanToggle(),
		Visible:   state.Visible(),
	}
	if notice != nil {
		data.Notice = notice
	}
	if state.Fetched {
		data.Upcoming = upcoming.Top(upcoming.Select(state.Events, h.today()), upcoming.DisplayLimit)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("rendering page", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) handleIndex(c *gin.Context) {
	_, state := h.loadSession(c)
	h.render(c, http.StatusOK, state, formFrom(state.Query), nil)
}

func (h *Handler) handleFetch(c *gin.Context) {
	id, state := h.loadSession(c)

	q, err := h.queryFrom(c.PostForm)
	if err != nil {
		submitted := formValues{
			Country: model.Country(c.PostForm("country")),
			Year:    c.PostForm("year"),
			View:    model.ViewKind(c.PostForm("view")),
		}
		h.render(c, http.StatusBadRequest, state, submitted, &session.Notice{
			Level:   session.NoticeError,
			Message: "入力内容を確認してください（年は1900〜2100の範囲で指定してください）。",
		})
		return
	}

	events, ok := h.registry.Fetch(c.Request.Context(), q)
	state.ApplyFetch(q, events, ok)
	h.logger.Info("fetched events",
		zap.String("country", string(q.Country)),
		zap.Int("year", q.Year),
		zap.String("view", string(q.View)),
		zap.Bool("available", ok),
		zap.Int("count", len(state.Events)),
	)

	h.saveSession(c, id, state)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) handleToggle(c *gin.Context) {
	id, state := h.loadSession(c)
	if state.Toggle() {
		h.saveSession(c, id, state)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// queryFrom reads and validates the query parameters through get, which is
// c.PostForm for the page and c.Query for the JSON endpoint.
func (h *Handler) queryFrom(get func(string) string) (model.Query, error) {
	year, err := strconv.Atoi(get("year"))
	if err != nil {
		return model.Query{}, err
	}
	q := model.Query{
		Country: model.Country(get("country")),
		Year:    year,
		View:    model.ViewKind(get("view")),
	}.Normalize()
	if err := q.Validate(); err != nil {
		return model.Query{}, err
	}
	return q, nil
}

// loadSession returns the session id and its state, starting a new session
// when the cookie is missing or the store has nothing for it.
func (h *Handler) loadSession(c *gin.Context) (string, *session.State) {
	id, err := c.Cookie(sessionCookie)
	if err != nil || uuid.Validate(id) != nil {
		id = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
		return id, session.New(h.defaultQuery())
	}

	state, err := h.sessions.Load(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			h.logger.Error("loading session", zap.String("session_id", id), zap.Error(err))
		}
		return id, session.New(h.defaultQuery())
	}
	return id, state
}

func (h *Handler) saveSession(c *gin.Context, id string, state *session.State) {
	if err := h.sessions.Save(c.Request.Context(), id, state); err != nil {
		h.logger.Error("saving session", zap.String("session_id", id), zap.Error(err))
	}
}
