package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/mapforge/internal/persistence"
	"github.com/talgya/mapforge/internal/world"
)

func testServer(t *testing.T, withCatalog bool) *Server {
	t.Helper()
	cfg := world.SmallTestConfig()
	cfg.Width, cfg.Height = 48, 48
	cfg.ErosionPasses = 5
	cfg.SettlementCount = 4
	s := &Server{Config: cfg, GenerateLimit: 2}
	if withCatalog {
		c, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { c.Close() })
		s.Catalog = c
	}
	return s
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	rec := get(testServer(t, false).Handler(), "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["name"] != "mapforge" || body["catalog"] != false {
		t.Fatalf("unexpected status: %v", body)
	}
}

func TestGenerateWorld(t *testing.T) {
	s := testServer(t, true)
	h := s.Handler()
	rec := get(h, "/api/v1/world?seed=99&width=40&height=40")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Width       int               `json:"width"`
		Seed        int64             `json:"seed"`
		Settlements []json.RawMessage `json:"settlements"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Width != 40 || body.Seed != 99 {
		t.Fatalf("expected 40 wide seed 99, got %d %d", body.Width, body.Seed)
	}
	id := rec.Header().Get("X-World-ID")
	if id == "" {
		t.Fatal("expected the world to be catalogued")
	}

	list := get(h, "/api/v1/worlds")
	var worlds []persistence.WorldSummary
	if err := json.Unmarshal(list.Body.Bytes(), &worlds); err != nil {
		t.Fatal(err)
	}
	if len(worlds) != 1 || worlds[0].ID != id {
		t.Fatalf("expected catalogued world %s, got %+v", id, worlds)
	}

	elev := get(h, "/api/v1/worlds/"+id+"/elevation")
	if elev.Code != http.StatusOK || elev.Body.Len() != 40*40 {
		t.Fatalf("expected 1600 elevation bytes, got %d (%d)", elev.Body.Len(), elev.Code)
	}
	if elev.Header().Get("X-Width") != "40" {
		t.Fatalf("expected width header 40, got %q", elev.Header().Get("X-Width"))
	}

	detail := get(h, "/api/v1/worlds/"+id)
	if detail.Code != http.StatusOK {
		t.Fatalf("expected 200 for world detail, got %d", detail.Code)
	}
}

func TestGenerateRejectsBadDimensions(t *testing.T) {
	h := testServer(t, false).Handler()
	for _, q := range []string{"width=0", "width=5000", "height=abc", "seed=x"} {
		if rec := get(h, "/api/v1/world?"+q); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", q, rec.Code)
		}
	}
}

func TestGenerateRateLimited(t *testing.T) {
	s := testServer(t, false)
	s.GenerateLimit = 1
	h := s.Handler()
	if rec := get(h, "/api/v1/world?seed=1&width=32&height=32"); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec := get(h, "/api/v1/world?seed=2&width=32&height=32")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestCatalogDisabled(t *testing.T) {
	h := testServer(t, false).Handler()
	if rec := get(h, "/api/v1/worlds"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestUnknownWorld(t *testing.T) {
	h := testServer(t, true).Handler()
	if rec := get(h, "/api/v1/worlds/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := get(h, "/api/v1/worlds/nope/other"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPostRejected(t *testing.T) {
	h := testServer(t, false).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("expected two requests to pass")
	}
	if rl.Allow("a") {
		t.Fatal("expected third request to be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("expected other clients to be unaffected")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Fatalf("expected retry after 61s, got %d", got)
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("expected the window to reset")
	}
}

func TestClientAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	if got := clientAddr(req); got != "10.0.0.5" {
		t.Fatalf("expected host without port, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientAddr(req); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}
