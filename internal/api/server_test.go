package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/logger"
	"github.com/zarko379/iMangarr-ng/internal/media/images"
	"github.com/zarko379/iMangarr-ng/internal/search"
	"github.com/zarko379/iMangarr-ng/internal/service"
	"github.com/zarko379/iMangarr-ng/internal/sse"
	"github.com/zarko379/iMangarr-ng/internal/store"
)

// stubCatalog returns canned results and counts calls.
type stubCatalog struct {
	media []domain.Media
	err   error
	calls atomic.Int32
}

func (c *stubCatalog) Search(_ context.Context, _ string) ([]domain.Media, error) {
	c.calls.Add(1)
	return c.media, c.err
}

type testServer struct {
	*Server
	api     humatest.TestAPI
	catalog *stubCatalog
	store   *store.Memory
	covers  *images.Storage
	events  *sse.Manager
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	log := logger.Discard()
	mem := store.NewMemory()
	catalog := &stubCatalog{}

	index, err := search.NewLibraryIndex(log)
	require.NoError(t, err)

	events := sse.NewManager(log)
	ctx, cancel := context.WithCancel(context.Background())
	go events.Start(ctx)

	covers, err := images.NewStorage(t.TempDir())
	require.NoError(t, err)

	library := service.NewLibraryService(catalog, mem, service.LibraryOptions{}, log)
	library.SetIndexer(index)
	library.SetEventEmitter(events)

	settings := service.NewSettingsService(mem, log)
	settings.SetEventEmitter(events)

	services := &Services{Library: library, Settings: settings, Events: events, Index: index}
	s := NewServer(services, covers, sse.NewHandler(events, log), opts, log)

	t.Cleanup(func() {
		s.Close()
		shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		_ = events.Shutdown(shutdownCtx)
		cancel()
		_ = index.Close()
	})

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.API()),
		catalog: catalog,
		store:   mem,
		covers:  covers,
		events:  events,
	}
}

func (ts *testServer) seedLibrary(t *testing.T, entries ...domain.Entry) {
	t.Helper()
	require.NoError(t, ts.store.SaveLibrary(context.Background(), entries))
	_, err := ts.services.Library.Reload(context.Background(), "test")
	require.NoError(t, err)
}

func (ts *testServer) configure(t *testing.T) {
	t.Helper()
	require.NoError(t, ts.store.SaveSettings(context.Background(), domain.NewSettings("/srv/manga")))
}

// do sends a plain request through the router.
func (ts *testServer) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return ts.doRequest(req)
}

func (ts *testServer) doRequest(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func intPtr(n int) *int { return &n }

func sampleMedia() []domain.Media {
	return []domain.Media{
		{
			ID:       30002,
			Title:    domain.Title{Romaji: "Berserk", English: "Berserk", Native: "ベルセルク"},
			CoverURL: "https://s4.anilist.co/file/anilistcdn/media/manga/cover/large/berserk.jpg",
			Status:   domain.MediaStatusReleasing,
		},
		{
			ID:       30013,
			Title:    domain.Title{English: "One Piece"},
			CoverURL: "https://s4.anilist.co/file/anilistcdn/media/manga/cover/large/op.jpg",
			Status:   domain.MediaStatusFinished,
			Chapters: intPtr(1100),
			Volumes:  intPtr(107),
		},
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.seedLibrary(t, domain.NewEntry(1, "Vagabond", "", time.Now()))

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decodeEnvelope(t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data["status"])

	components, ok := env.Data["components"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{"library", "search", "sse"} {
		component, ok := components[name].(map[string]any)
		require.True(t, ok, name)
		assert.Equal(t, "healthy", component["status"], name)
	}
	library := components["library"].(map[string]any)
	assert.Equal(t, "1 entries", library["message"])
}

func TestHealthCheck_DegradedWithoutIndex(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.services.Index = nil

	env := decodeEnvelope(t, ts.api.Get("/health"))
	assert.Equal(t, "degraded", env.Data["status"])
}

type fakeAdvertiser bool

func (f fakeAdvertiser) Running() bool { return bool(f) }

func TestHealthCheck_MDNS(t *testing.T) {
	tests := []struct {
		name          string
		advertiser    Advertiser
		wantStatus    string
		wantComponent string
	}{
		{name: "disabled", advertiser: nil, wantStatus: "healthy"},
		{name: "advertising", advertiser: fakeAdvertiser(true), wantStatus: "healthy", wantComponent: "healthy"},
		{name: "no system bus", advertiser: fakeAdvertiser(false), wantStatus: "degraded", wantComponent: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Options{})
			ts.services.MDNS = tt.advertiser

			env := decodeEnvelope(t, ts.api.Get("/health"))
			assert.Equal(t, tt.wantStatus, env.Data["status"])

			components := env.Data["components"].(map[string]any)
			mdns, ok := components["mdns"].(map[string]any)
			if tt.wantComponent == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantComponent, mdns["status"])
		})
	}
}

func TestEnvelopeTransformer(t *testing.T) {
	tests := []struct {
		name        string
		in          any
		wantSuccess bool
		wantCode    string
	}{
		{name: "data", in: map[string]string{"id": "1"}, wantSuccess: true},
		{name: "nil", in: nil, wantSuccess: true},
		{name: "api error", in: &APIError{Code: "NOT_FOUND", Message: "missing"}, wantCode: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EnvelopeTransformer(nil, "200", tt.in)
			require.NoError(t, err)

			raw, err := json.Marshal(out)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, tt.wantSuccess, got["success"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, got["code"])
				assert.Equal(t, "missing", got["error"])
				assert.NotContains(t, got, "data")
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:80", "2001:db8::1"},
		{"192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getClientIP(tt.remote), tt.remote)
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, Options{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/library", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(http.MethodGet, "/static/app.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".card")

	rec = ts.do(http.MethodGet, "/static/activity.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "EventSource")
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)

	rec = ts.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}
