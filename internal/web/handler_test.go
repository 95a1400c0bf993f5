package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holiday-viewer/internal/model"
	"holiday-viewer/internal/session"
	"holiday-viewer/internal/source"
)

var fixedNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

type stubSource struct {
	kind   model.ViewKind
	events []model.Event
	ok     bool
	calls  []model.Query
}

func (s *stubSource) Kind() model.ViewKind { return s.kind }

func (s *stubSource) Fetch(_ context.Context, q model.Query) ([]model.Event, bool) {
	s.calls = append(s.calls, q)
	if !s.ok {
		return nil, false
	}
	return s.events, true
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (*session.State, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Save(context.Context, string, *session.State) error {
	return errors.New("connection refused")
}

func festivalEvents() []model.Event {
	texts := []struct{ name, date string }{
		{"past-1", "10月18日"},
		{"today", "10月19日"},
		{"december", "12月1日"},
		{"culture-a", "11月3日"},
		{"past-2", "1月5日"},
		{"soon", "10月25日"},
		{"culture-b", "11月3日"},
		{"eve", "12月24日"},
		{"halloween", "10月30日"},
	}
	events := make([]model.Event, len(texts))
	for i, tt := range texts {
		events[i] = model.Event{Name: tt.name, DateText: tt.date, Kind: "祭り"}
	}
	return events
}

type testEnv struct {
	engine    *gin.Engine
	holidays  *stubSource
	festivals *stubSource
	breaks    *stubSource
}

func newTestEnv(t *testing.T, store session.Store) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		holidays:  &stubSource{kind: model.ViewPublicHolidays, ok: false},
		festivals: &stubSource{kind: model.ViewFestivals, events: festivalEvents(), ok: true},
		breaks:    &stubSource{kind: model.ViewExtendedBreaks, ok: false},
	}
	registry := source.NewRegistry()
	registry.Register(env.holidays)
	registry.Register(env.festivals)
	registry.Register(env.breaks)

	h := New(registry, store, nil, time.UTC)
	h.now = func() time.Time { return fixedNow }

	env.engine = gin.New()
	h.RegisterRoutes(env.engine)
	return env
}

// browser replays cookies between requests like a real user agent.
type browser struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, engine *gin.Engine) *browser {
	return &browser{t: t, engine: engine, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	b.engine.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) page() *goquery.Document {
	b.t.Helper()
	w := b.do(http.MethodGet, "/", nil)
	require.Equal(b.t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(b.t, err)
	return doc
}

func cardNames(sel *goquery.Selection) []string {
	var names []string
	sel.Find(".event-card .event-name").Each(func(_ int, s *goquery.Selection) {
		names = append(names, s.Text())
	})
	return names
}

func fetchForm(view model.ViewKind, year string) url.Values {
	return url.Values{"country": {"JP"}, "year": {year}, "view": {string(view)}}
}

func TestIndexBeforeFetch(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	b := newBrowser(t, env.engine)

	w := b.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	require.Contains(t, b.cookies, sessionCookie)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)

	assert.Equal(t, 8, doc.Find(`select[name="country"] option`).Length())
	assert.Equal(t, 3, doc.Find(`select[name="view"] option`).Length())
	year, _ := doc.Find(`input[name="year"]`).Attr("value")
	assert.Equal(t, "2026", year)
	assert.Equal(t, 0, doc.Find("#upcoming").Length())
	assert.Equal(t, 0, doc.Find("#events").Length())
}

func TestFetchAndToggleFlow(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	b := newBrowser(t, env.engine)

	w := b.do(http.MethodPost, "/fetch", fetchForm(model.ViewFestivals, "2025"))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	require.Len(t, env.festivals.calls, 1)
	assert.Equal(t, model.Query{Country: model.CountryJP, Year: 2025, View: model.ViewFestivals}, env.festivals.calls[0])

	doc := b.page()
	assert.Equal(t, []string{"today", "soon", "halloween", "culture-a", "culture-b"}, cardNames(doc.Find("#upcoming")))
	assert.Equal(t, []string{"past-1", "today", "december", "culture-a", "past-2", "soon"}, cardNames(doc.Find("#events")))
	assert.Equal(t, "続きを読む", strings.TrimSpace(doc.Find("#toggle button").Text()))
	selected, _ := doc.Find(`select[name="view"] option[selected]`).Attr("value")
	assert.Equal(t, string(model.ViewFestivals), selected)

	require.Equal(t, http.StatusSeeOther, b.do(http.MethodPost, "/toggle", url.Values{}).Code)
	doc = b.page()
	assert.Len(t, cardNames(doc.Find("#events")), 9)
	assert.Equal(t, "折りたたむ", strings.TrimSpace(doc.Find("#toggle button").Text()))

	b.do(http.MethodPost, "/toggle", url.Values{})
	doc = b.page()
	assert.Equal(t, []string{"past-1", "today", "december", "culture-a", "past-2", "soon"}, cardNames(doc.Find("#events")))
}

func TestFetchResetsExpanded(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	b := newBrowser(t, env.engine)

	b.do(http.MethodPost, "/fetch", fetchForm(model.ViewFestivals, "2025"))
	b.do(http.MethodPost, "/toggle", url.Values{})
	b.do(http.MethodPost, "/fetch", fetchForm(model.ViewFestivals, "2025"))

	doc := b.page()
	assert.Len(t, cardNames(doc.Find("#events")), 6)
}

func TestFetchFailureShowsNotice(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	b := newBrowser(t, env.engine)

	b.do(http.MethodPost, "/fetch", fetchForm(model.ViewPublicHolidays, "2025"))
	doc := b.page()

	notice := doc.Find(".notice-error")
	require.Equal(t, 1, notice.Length())
	assert.Equal(t, "祝日のデータが取得できませんでした。", strings.TrimSpace(notice.Text()))
	assert.Empty(t, cardNames(doc.Find("#events")))
	assert.Contains(t, doc.Find("#upcoming").Text(), "近日開催予定のイベントはありません")
	assert.Equal(t, 0, doc.Find("#toggle").Length())

	b.do(http.MethodPost, "/fetch", fetchForm(model.ViewExtendedBreaks, "2025"))
	doc = b.page()
	assert.Equal(t, 0, doc.Find(".notice-error").Length())
	assert.Contains(t, doc.Find(".notice-info").Text(), "長期休暇データが取得できませんでした")
}

func TestFetchInvalidInput(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	b := newBrowser(t, env.engine)

	b.do(http.MethodPost, "/fetch", fetchForm(model.ViewFestivals, "2025"))

	tests := []url.Values{
		fetchForm(model.ViewFestivals, "1899"),
		fetchForm(model.ViewFestivals, "2101"),
		fetchForm(model.ViewFestivals, "next year"),
		{"country": {"KR"}, "year": {"2025"}, "view": {"festivals"}},
		{"country": {"JP"}, "year": {"2025"}, "view": {"birthdays"}},
	}
	for _, form := range tests {
		w := b.do(http.MethodPost, "/fetch", form)
		assert.Equal(t, http.StatusBadRequest, w.Code, form.Encode())
		assert.Contains(t, w.Body.String(), "入力内容を確認してください")
	}
	assert.Len(t, env.festivals.calls, 1)

	doc := b.page()
	assert.Len(t, cardNames(doc.Find("#events")), 6, "state survives rejected input")
}

func TestFetchInvalidInputKeepsSubmittedValues(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	b := newBrowser(t, env.engine)

	b.do(http.MethodPost, "/fetch", fetchForm(model.ViewFestivals, "2025"))

	form := url.Values{"country": {"DE"}, "year": {"2101"}, "view": {string(model.ViewPublicHolidays)}}
	w := b.do(http.MethodPost, "/fetch", form)
	require.Equal(t, http.StatusBadRequest, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	year, _ := doc.Find(`input[name="year"]`).Attr("value")
	assert.Equal(t, "2101", year)
	country, _ := doc.Find(`select[name="country"] option[selected]`).Attr("value")
	assert.Equal(t, "DE", country)
	view, _ := doc.Find(`select[name="view"] option[selected]`).Attr("value")
	assert.Equal(t, string(model.ViewPublicHolidays), view)
	assert.Contains(t, doc.Find("#events h2").Text(), model.ViewFestivals.Label(), "results still belong to the last fetch")

	doc = b.page()
	year, _ = doc.Find(`input[name="year"]`).Attr("value")
	assert.Equal(t, "2025", year)
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	alice := newBrowser(t, env.engine)
	bob := newBrowser(t, env.engine)

	alice.do(http.MethodPost, "/fetch", fetchForm(model.ViewFestivals, "2025"))
	bob.do(http.MethodGet, "/", nil)

	assert.NotEqual(t, alice.cookies[sessionCookie].Value, bob.cookies[sessionCookie].Value)
	assert.Equal(t, 0, bob.page().Find("#events").Length())
	assert.Equal(t, 1, alice.page().Find("#events").Length())
}

func TestToggleWithoutFetchIsNoop(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	b := newBrowser(t, env.engine)

	w := b.do(http.MethodPost, "/toggle", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 0, b.page().Find("#events").Length())
}

func TestBrokenSessionStoreStillServes(t *testing.T) {
	env := newTestEnv(t, failingStore{})
	b := newBrowser(t, env.engine)

	b.do(http.MethodGet, "/", nil)
	w := b.do(http.MethodPost, "/fetch", fetchForm(model.ViewFestivals, "2025"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/", nil).Code)
}

func TestEventsAPI(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	b := newBrowser(t, env.engine)

	w := b.do(http.MethodGet, "/api/events?country=jp&year=2025&view=festivals", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Query     model.Query   `json:"query"`
			Available bool          `json:"available"`
			Events    []model.Event `json:"events"`
			Upcoming  []model.Event `json:"upcoming"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Available)
	assert.Equal(t, model.CountryJP, resp.Data.Query.Country)
	assert.Len(t, resp.Data.Events, 9)
	require.Len(t, resp.Data.Upcoming, 5)
	assert.Equal(t, "today", resp.Data.Upcoming[0].Name)

	w = b.do(http.MethodGet, "/api/events?country=JP&year=2025&view=publicHolidays", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data": {"query": {"country": "JP", "year": 2025, "view": "publicHolidays"}, "available": false, "events": [], "upcoming": []}}`, w.Body.String())
}

func TestEventsAPIValidation(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	b := newBrowser(t, env.engine)

	w := b.do(http.MethodGet, "/api/events?country=JP&year=3000&view=festivals", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Empty(t, env.festivals.calls)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryStore(time.Hour))
	w := newBrowser(t, env.engine).do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
