package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/radar/internal/config"
	"github.com/hyperjump/radar/internal/keyword"
	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/planner"
	"github.com/hyperjump/radar/internal/radar"
	"github.com/hyperjump/radar/internal/search"
	"github.com/hyperjump/radar/internal/storage"
	"go.uber.org/zap"
)

const planAnswer = "```mermaid\nquadrantChart\n    title Distribution of Topics\n```\n```xml\n<queryPlan><queries><query>q1</query><query>q2</query></queries><sourcesHint><source>news</source></sourcesHint><lastLLMPrompt>x</lastLLMPrompt></queryPlan>\n```"

const reportAnswer = "```xml\n<report><summary>Weekly digest</summary><sections><section><title>Launches</title><items>" +
	"<item><headline>Ledger launches card API</headline><url>https://l.example/1</url><source>l.example</source><snippet>New API</snippet></item>" +
	"</items></section></sections></report>\n```"

type stubLLM struct {
	mu      sync.Mutex
	answers map[string]string
	err     error
}

func (s *stubLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Completion{Content: s.answers[req.Purpose]}, nil
}

type stubProvider struct {
	noKey bool
}

func (p *stubProvider) HasKey() bool { return !p.noKey }

func (p *stubProvider) Search(_ context.Context, query string) (map[string]any, error) {
	date := time.Now().UTC().AddDate(0, 0, -1).Format(time.RFC3339)
	return map[string]any{"hits": []any{
		map[string]any{"title": "Ledger launches card API", "url": "https://l.example/1", "snippet": "for " + query, "date": date},
	}}, nil
}

type testEnv struct {
	srv      *Server
	handler  http.Handler
	store    storage.Storage
	llm      *stubLLM
	provider *stubProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "radar.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	idx, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "radar.db")
	cfg.Storage.BleveIndexPath = filepath.Join(dir, "bleve")
	cfg.Metrics.Enabled = true

	fake := &stubLLM{answers: map[string]string{
		"plan":      planAnswer,
		"synthesis": reportAnswer,
		"scoring":   `[{"url":"https://l.example/1","score":4.9}]`,
		"summary":   "Ledger shipped.",
		"share":     "Ledger's new card API looks handy https://l.example/1",
	}}
	provider := &stubProvider{}
	logger := zap.NewNop()

	svc := radar.NewService(store, search.NewFanOut(provider, time.Second, logger), fake, cfg.Pipeline,
		radar.WithIndex(idx), radar.WithLogger(logger))
	plans := planner.New(fake, store, logger)
	srv := NewServer(svc, plans, store, idx, cfg, logger)
	return &testEnv{srv: srv, handler: srv.Router(), store: store, llm: fake, provider: provider}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func (e *testEnv) createRadar(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/radars", map[string]interface{}{
		"ownerId": "user-1",
		"profile": map[string]interface{}{"role": "CTO", "industry": "Fintech", "priorities": []string{"payments"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create radar: got %d: %s", w.Code, w.Body.String())
	}
	return decode(t, w)["radarId"].(string)
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated X-Request-Id")
	}

	r := httptest.NewRequest(http.MethodGet, "/api/radars/missing", nil)
	r.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)
	if got := w.Header().Get(RequestIDHeader); got != "req-42" {
		t.Errorf("X-Request-Id: got %q, want req-42", got)
	}
	body := decode(t, w)
	if body["requestId"] != "req-42" {
		t.Errorf("requestId in body: got %v", body["requestId"])
	}
}

func TestHandleCreateRadar(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/radars", map[string]interface{}{
		"ownerId": "user-1",
		"profile": map[string]interface{}{"role": "CTO", "industry": "Fintech", "priorities": []string{"payments"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["success"] != true || body["radarId"] == "" {
		t.Errorf("unexpected body: %v", body)
	}
	if !strings.Contains(body["mermaidDiagram"].(string), "quadrantChart") {
		t.Errorf("mermaidDiagram: got %v", body["mermaidDiagram"])
	}
	plan := body["queryPlan"].(map[string]interface{})
	if qs := plan["finalQueries"].([]interface{}); len(qs) != 2 {
		t.Errorf("finalQueries: got %v", qs)
	}

	w = env.do(t, http.MethodGet, "/api/radars/"+body["radarId"].(string), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get radar: got %d", w.Code)
	}
	rd := decode(t, w)["radar"].(map[string]interface{})
	if rd["title"] != "Fintech - CTO" {
		t.Errorf("title: got %v", rd["title"])
	}
}

func TestHandleCreateRadar_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		answer string
		status int
		msg    string
	}{
		{"missing profile", map[string]interface{}{"ownerId": "u"}, planAnswer, http.StatusBadRequest, "profile is required"},
		{"missing owner", map[string]interface{}{"profile": map[string]interface{}{"role": "r", "industry": "i", "priorities": []string{"p"}}}, planAnswer, http.StatusBadRequest, "ownerId is required to create a radar"},
		{"unparseable plan", map[string]interface{}{"ownerId": "u", "profile": map[string]interface{}{"role": "r", "industry": "i", "priorities": []string{"p"}}}, "no blocks", http.StatusInternalServerError, msgPlanParse},
		{"invalid json", "not an object", planAnswer, http.StatusBadRequest, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.llm.answers["plan"] = tt.answer
			w := env.do(t, http.MethodPost, "/api/radars", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status: got %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if got := decode(t, w)["error"]; got != tt.msg {
				t.Errorf("error: got %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestHandleRefineRadar(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRadar(t)

	w := env.do(t, http.MethodPatch, "/api/radars/"+id, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing message: got %d", w.Code)
	}

	w = env.do(t, http.MethodPatch, "/api/radars/nope", map[string]string{"refinementMessage": "more"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown radar: got %d", w.Code)
	}

	w = env.do(t, http.MethodPatch, "/api/radars/"+id, map[string]string{"refinementMessage": "more on payments"})
	if w.Code != http.StatusOK {
		t.Fatalf("refine: got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if _, ok := body["previousMermaidDiagram"]; !ok {
		t.Error("expected previousMermaidDiagram")
	}
}

func TestHandleRun(t *testing.T) {
	for _, path := range []string{"/run", "/run/v2"} {
		t.Run(path, func(t *testing.T) {
			env := newTestEnv(t)
			id := env.createRadar(t)

			w := env.do(t, http.MethodPost, "/api/radars/"+id+path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
			}
			body := decode(t, w)
			if body["success"] != true || body["reportId"] == "" {
				t.Errorf("unexpected body: %v", body)
			}
			report := body["report"].(map[string]interface{})
			want := "sectioned"
			if path == "/run/v2" {
				want = "flat"
			}
			if report["kind"] != want {
				t.Errorf("kind: got %v, want %s", report["kind"], want)
			}

			w = env.do(t, http.MethodGet, "/api/radars/"+id+"/reports/latest", nil)
			latest := decode(t, w)["report"].(map[string]interface{})
			if latest["id"] != body["reportId"] {
				t.Errorf("latest: got %v, want %v", latest["id"], body["reportId"])
			}
		})
	}
}

func TestHandleRun_Errors(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRadar(t)

	w := env.do(t, http.MethodPost, "/api/radars/missing/run", map[string]bool{"freshRun": true})
	if w.Code != http.StatusNotFound || decode(t, w)["error"] != msgRadarNotFound {
		t.Errorf("unknown radar: got %d", w.Code)
	}

	if err := env.store.CreateRadar(context.Background(), &models.Radar{ID: "empty", OwnerID: "u"}); err != nil {
		t.Fatal(err)
	}
	w = env.do(t, http.MethodPost, "/api/radars/empty/run/v2", nil)
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != msgNoQueries {
		t.Errorf("no queries: got %d", w.Code)
	}

	env.provider.noKey = true
	w = env.do(t, http.MethodPost, "/api/radars/"+id+"/run", nil)
	if w.Code != http.StatusInternalServerError || decode(t, w)["error"] != msgMissingSearchKey {
		t.Errorf("missing key: got %d", w.Code)
	}
	env.provider.noKey = false

	env.llm.err = errors.New("upstream down")
	w = env.do(t, http.MethodPost, "/api/radars/"+id+"/run", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("synthesis failure: got %d", w.Code)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/radars/"+id+"/run", strings.NewReader("{bad"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: got %d", rec.Code)
	}
}

func TestHandleReports(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRadar(t)

	w := env.do(t, http.MethodGet, "/api/radars/"+id+"/reports/latest", nil)
	if body := decode(t, w); body["report"] != nil {
		t.Errorf("expected null report, got %v", body["report"])
	}

	for i := 0; i < 2; i++ {
		if w := env.do(t, http.MethodPost, "/api/radars/"+id+"/run", map[string]bool{"freshRun": true}); w.Code != http.StatusOK {
			t.Fatalf("run: got %d", w.Code)
		}
	}
	w = env.do(t, http.MethodGet, "/api/radars/"+id+"/reports?limit=5", nil)
	reports := decode(t, w)["reports"].([]interface{})
	if len(reports) != 2 {
		t.Errorf("reports: got %d, want 2", len(reports))
	}

	w = env.do(t, http.MethodGet, "/api/radars/"+id+"/reports/search?q=ledger", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: got %d: %s", w.Code, w.Body.String())
	}
	var resp models.ReportSearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Errorf("hits: got %d, want 2", resp.Total)
	}

	w = env.do(t, http.MethodGet, "/api/radars/"+id+"/reports/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty query: got %d", w.Code)
	}
}

func TestHandleReindex(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRadar(t)
	if w := env.do(t, http.MethodPost, "/api/radars/"+id+"/run", nil); w.Code != http.StatusOK {
		t.Fatalf("run: got %d", w.Code)
	}

	w := env.do(t, http.MethodPost, "/api/radars/"+id+"/reindex", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reindex radar: got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["reports"] != float64(1) || body["items"] != float64(1) {
		t.Errorf("reindex radar: %v", body)
	}

	w = env.do(t, http.MethodPost, "/api/reindex", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reindex all: got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["radars"] != float64(1) {
		t.Errorf("reindex all: %v", body)
	}

	w = env.do(t, http.MethodGet, "/api/radars/"+id+"/reports/search?q=ledger", nil)
	var resp models.ReportSearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 {
		t.Errorf("hits after reindex: got %d, want 1", resp.Total)
	}

	w = env.do(t, http.MethodPost, "/api/radars/missing/reindex", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown radar: got %d", w.Code)
	}
}

func TestHandleShare(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/share", map[string]interface{}{
		"reportId":  "r1",
		"itemIndex": 0,
		"item":      map[string]string{"headline": "Ledger launches card API", "url": "https://l.example/1"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["text"] != "Ledger's new card API looks handy https://l.example/1" || body["success"] != true {
		t.Errorf("unexpected body: %v", body)
	}

	w = env.do(t, http.MethodPost, "/api/share", map[string]interface{}{"reportId": "r1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing fields: got %d", w.Code)
	}
	if got := decode(t, w)["error"]; got != "reportId, itemIndex, and item are required" {
		t.Errorf("error: got %q", got)
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRadar(t)
	if w := env.do(t, http.MethodPost, "/api/radars/"+id+"/run", nil); w.Code != http.StatusOK {
		t.Fatalf("run: got %d", w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Radars         int64  `json:"radars"`
		Reports        int64  `json:"reports"`
		IndexedItems   uint64 `json:"indexedItems"`
		DiskUsageBytes *int64        `json:"diskUsageBytes"`
		DiskUsage      storage.Usage `json:"diskUsage"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Radars != 1 || out.Reports != 1 || out.IndexedItems != 1 {
		t.Errorf("counts: got %+v", out)
	}
	if out.DiskUsageBytes == nil || *out.DiskUsageBytes < 1 {
		t.Fatalf("diskUsageBytes: got %v", out.DiskUsageBytes)
	}
	if out.DiskUsage.DatabaseBytes < 1 || out.DiskUsage.TotalBytes != *out.DiskUsageBytes {
		t.Errorf("diskUsage: got %+v", out.DiskUsage)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || decode(t, w)["status"] != "ok" {
		t.Errorf("health: got %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Errorf("metrics: got %d", w.Code)
	}
}
