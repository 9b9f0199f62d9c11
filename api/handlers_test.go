package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/qslib/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func seededServer(t *testing.T, apiKey string) *Server {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	now := time.Now().UTC().Truncate(time.Millisecond)
	runs := []*store.RunRecord{
		{ID: "run-1", Dataset: "gsm8k", System: "replay", StartedAt: now.Add(-time.Minute), FinishedAt: now, TotalSamples: 3, PerformanceSamples: 3, Observations: 3, Metric: 1, Formatted: "100.000%"},
		{ID: "run-2", Dataset: "imagenet-val", System: "openai", StartedAt: now, FinishedAt: now.Add(time.Minute), TotalSamples: 10, PerformanceSamples: 5, Observations: 10, Metric: 0.76543, Formatted: "76.543%"},
	}
	for _, r := range runs {
		if err := st.SaveRun(context.Background(), r); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	s, err := NewServer(st, apiKey)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func doRequest(s *Server, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	s := seededServer(t, "")

	w := doRequest(s, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health: got %d", w.Code)
	}
}

func TestHandleListRuns(t *testing.T) {
	s := seededServer(t, "")

	w := doRequest(s, http.MethodGet, "/api/runs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d: %s", w.Code, w.Body.String())
	}

	var runs []runPayload
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" {
		t.Fatalf("list: got %+v", runs)
	}

	{
		w := doRequest(s, http.MethodGet, "/api/runs?dataset=gsm8k", "")
		var runs []runPayload
		if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(runs) != 1 || runs[0].ID != "run-1" {
			t.Fatalf("filtered list: got %+v", runs)
		}
	}
	{
		w := doRequest(s, http.MethodGet, "/api/runs?limit=bogus", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("bad limit: got %d", w.Code)
		}
	}
}

func TestHandleGetRun(t *testing.T) {
	s := seededServer(t, "")

	w := doRequest(s, http.MethodGet, "/api/runs/run-2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: got %d: %s", w.Code, w.Body.String())
	}

	var run runPayload
	if err := json.Unmarshal(w.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.Dataset != "imagenet-val" || run.Formatted != "76.543%" {
		t.Fatalf("get: got %+v", run)
	}

	if w := doRequest(s, http.MethodGet, "/api/runs/missing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing run: got %d", w.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	s := seededServer(t, "sekret")

	if w := doRequest(s, http.MethodGet, "/api/runs", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodGet, "/api/runs", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodGet, "/api/runs", "sekret"); w.Code != http.StatusOK {
		t.Fatalf("good key: got %d", w.Code)
	}
}
