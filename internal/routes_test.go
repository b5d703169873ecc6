package internal

import (
	"net/http"
	"net/http/httptest"
	"srd/internal/controllers"
	"srd/internal/providers"
	"srd/internal/services"
	"srd/internal/structures"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- minimal mocks for routes test ---

type routeTestLogger struct{}

func (m *routeTestLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *routeTestLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *routeTestLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *routeTestLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *routeTestLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *routeTestLogger) Close()                                                  {}

type routeTestCache struct{}

func (m *routeTestCache) Get(_ string) ([]byte, bool) { return nil, false }
func (m *routeTestCache) Set(_ string, _ []byte)      {}

func newRouteTestRouter() providers.RouterProviderInterface {
	conf := &structures.Config{}
	svc := services.NewReviewService(conf)
	ac := controllers.NewApiController(&routeTestLogger{}, svc, &routeTestCache{})
	return InitRoutes(ac, conf)
}

func TestInitRoutes_RegistersAllEndpoints(t *testing.T) {
	routes := newRouteTestRouter().GetRoutes()

	require.Len(t, routes, 15)

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
	}

	assert.Contains(t, urls, "/cards")
	assert.Contains(t, urls, "/cards/saved")
	assert.Contains(t, urls, "/due")
	assert.Contains(t, urls, "/review")
	assert.Contains(t, urls, "/review/undo")
	assert.Contains(t, urls, "/review/preview")
	assert.Contains(t, urls, "/packs")
	assert.Contains(t, urls, "/packs/rename")
	assert.Contains(t, urls, "/packs/assign")
	assert.Contains(t, urls, "/packs/unassign")
	assert.Contains(t, urls, "/stats")
	assert.Contains(t, urls, "/summary")
	assert.Contains(t, urls, "/export")
	assert.Contains(t, urls, "/import")
	assert.Contains(t, urls, "/data")
}

func newRouteTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	for _, r := range newRouteTestRouter().GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}
	return mux
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	mux := newRouteTestMux(t)

	// /cards only accepts POST and DELETE
	req := httptest.NewRequest(http.MethodGet, "/cards", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	// /due is read-only
	req = httptest.NewRequest(http.MethodPost, "/due", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	// /packs knows GET, POST and DELETE but not PUT
	req = httptest.NewRequest(http.MethodPut, "/packs", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	// /import is write-only
	req = httptest.NewRequest(http.MethodGet, "/import", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

// One URL registered with several methods must dispatch each method to
// its own handler.
func TestInitRoutes_MethodDispatch(t *testing.T) {
	mux := newRouteTestMux(t)

	// GET /packs lists the seeded default pack
	req := httptest.NewRequest(http.MethodGet, "/packs", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "All Cards")

	// POST /packs creates
	req = httptest.NewRequest(http.MethodPost, "/packs", strings.NewReader(`{"name":"History"}`))
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	// DELETE /packs without an id is rejected by the delete handler
	req = httptest.NewRequest(http.MethodDelete, "/packs", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInitRoutes_ReviewFlow(t *testing.T) {
	mux := newRouteTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/cards", strings.NewReader(`{"source_type":"milestone","source_id":"m-1"}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/due", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "m-1")
}
