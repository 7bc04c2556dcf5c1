package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/dedup/internal/config"
	"horse.fit/dedup/internal/runner"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Environment:                "test",
		LogLevel:                   "error",
		DataDir:                    t.TempDir(),
		MaxHashes:                  1000,
		URLSimilarityThreshold:     0.90,
		TitleSimilarityThreshold:   0.85,
		FuzzyTitleThreshold:        0.80,
		ContentSimilarityThreshold: 0.75,
		ContentSimilarityEnabled:   true,
		TimeWindowHours:            72,
		APIRetentionDays:           7,
		SourceRetentionDays:        30,
		APIHistoryCap:              2000,
		SourceHistoryCap:           1000,
		FuzzyTitleWindow:           100,
		ContentWindow:              50,
		APISources:                 "newsapi",
		HTTPAddr:                   ":0",
	}
	return NewServer(runner.New(cfg, zerolog.Nop()), zerolog.Nop(), Options{Addr: ":0"})
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	rec := httptest.NewRecorder()
	s.buildEcho().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"success"`) {
		t.Fatalf("expected jsend success envelope, got %s", rec.Body.String())
	}
}

func TestFilterEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `[
		{"title":"Breaking: Bridge Closure Announced","url":"https://example.com/traffic/bridge","source":"rss"},
		{"title":"BRIDGE CLOSURE ANNOUNCED","url":"https://example.com/traffic/bridge/","source":"rss"}
	]`
	rec := doRequest(t, s, http.MethodPost, "/api/v1/filter", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Status string        `json:"status"`
		Data   runner.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected success status, got %q", envelope.Status)
	}
	if len(envelope.Data.Unique) != 1 {
		t.Fatalf("expected 1 unique article, got %d", len(envelope.Data.Unique))
	}
	if envelope.Data.Stats.DuplicatesFound != 1 {
		t.Fatalf("expected 1 duplicate, got %+v", envelope.Data.Stats)
	}
}

func TestFilterEndpointRejectsInvalidPayload(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/filter", `[{"title":"No URL","source":"rss"}]`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"fail"`) {
		t.Fatalf("expected jsend fail envelope, got %s", rec.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/v1/filter",
		`[{"title":"Seed Article For Stats","url":"https://example.com/seed","source":"rss"}]`)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"registry_hashes":1`) {
		t.Fatalf("expected registry count in stats, got %s", rec.Body.String())
	}
}
