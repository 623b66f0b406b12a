package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cwlog/internal/formatter"
	"github.com/desertthunder/cwlog/internal/models"
	"github.com/desertthunder/cwlog/internal/source"
	th "github.com/desertthunder/cwlog/internal/testing"
)

func TestPageHandler(t *testing.T) {
	handler := &PageHandler{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "CrossWatch sync log") {
		t.Errorf("default title missing: %s", body)
	}
	if !strings.Contains(body, "/logs/stream") {
		t.Errorf("page should wire the stream endpoint: %s", body)
	}

	rec = httptest.NewRecorder()
	(&PageHandler{Title: "Custom"}).ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "Custom") {
		t.Errorf("custom title not rendered")
	}
}

func TestStreamHandler(t *testing.T) {
	newHandler := func(chunks []string) *StreamHandler {
		return &StreamHandler{
			NewSource: func() source.Source { return &th.ScriptedSource{Chunks: chunks} },
			Options:   formatter.Options{},
		}
	}

	t.Run("StreamsFragmentsInOrder", func(t *testing.T) {
		handler := newHandler([]string{
			"> SYNC start: orchestrator pairs run_id=7\n",
			`{"event":"run:start","dry_run":false}`,
			`{"event":"run:done","added":1,"removed":0,"pairs":1}`,
		})

		req := httptest.NewRequest(http.MethodGet, "/logs/stream", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
			t.Errorf("expected SSE content type, got %q", ct)
		}

		body := rec.Body.String()
		first := strings.Index(body, "Sync run starting")
		second := strings.Index(body, "Sync started")
		third := strings.Index(body, "Sync complete")
		if first < 0 || second < 0 || third < 0 {
			t.Fatalf("missing fragments: %s", body)
		}
		if !(first < second && second < third) {
			t.Errorf("fragments out of order: %s", body)
		}

		for _, line := range strings.Split(strings.TrimSpace(body), "\n\n") {
			if line != "" && !strings.HasPrefix(line, "data: ") {
				t.Errorf("non-SSE line in stream: %q", line)
			}
		}
	})

	t.Run("DebugQueryTogglesRawMode", func(t *testing.T) {
		handler := newHandler([]string{"providers: A, B\n"})

		req := httptest.NewRequest(http.MethodGet, "/logs/stream?debug=1", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if !strings.Contains(rec.Body.String(), "cw-raw") {
			t.Errorf("debug stream should carry raw fragments: %s", rec.Body.String())
		}
	})

	t.Run("NoiseFilteredByDefault", func(t *testing.T) {
		handler := newHandler([]string{"providers: A, B\n"})

		req := httptest.NewRequest(http.MethodGet, "/logs/stream", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if strings.Contains(rec.Body.String(), "providers") {
			t.Errorf("noise should be filtered: %s", rec.Body.String())
		}
	})

	t.Run("RecordsRunsThroughStore", func(t *testing.T) {
		store := &th.MemoryRunStore{}
		handler := newHandler([]string{`{"event":"run:start"}{"event":"run:done"}`})
		handler.Store = store

		req := httptest.NewRequest(http.MethodGet, "/logs/stream", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if len(store.Created) != 1 || len(store.Updated) != 1 {
			t.Errorf("run lifecycle not recorded: created=%d updated=%d",
				len(store.Created), len(store.Updated))
		}
	})
}

// stubRepo serves canned runs for the history endpoint.
type stubRepo struct {
	runs []*models.Run
	err  error
}

func (s *stubRepo) Recent(limit int) ([]*models.Run, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.runs) {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

func TestRunsHandler(t *testing.T) {
	started := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("ReturnsRunsAsJSON", func(t *testing.T) {
		run := models.NewRun("1699.42", true, "source", started)
		run.SetID("abc")
		run.Finish(3, 1, 2, started.Add(time.Minute))

		handler := &RunsHandler{Repo: &stubRepo{runs: []*models.Run{run}}}
		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var payload []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(payload) != 1 {
			t.Fatalf("expected 1 run, got %d", len(payload))
		}
		entry := payload[0]
		if entry["run_id"] != "1699.42" || entry["exit_state"] != models.RunStateFinished {
			t.Errorf("unexpected payload: %+v", entry)
		}
		if entry["added"].(float64) != 3 {
			t.Errorf("totals missing: %+v", entry)
		}
		if _, ok := entry["finished_at"]; !ok {
			t.Errorf("finished run should carry finished_at: %+v", entry)
		}
	})

	t.Run("OpenRunOmitsFinishedAt", func(t *testing.T) {
		run := models.NewRun("open", false, "", started)
		run.SetID("def")

		handler := &RunsHandler{Repo: &stubRepo{runs: []*models.Run{run}}}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

		if strings.Contains(rec.Body.String(), "finished_at") {
			t.Errorf("open run should omit finished_at: %s", rec.Body.String())
		}
	})

	t.Run("LimitQueryHonored", func(t *testing.T) {
		runs := []*models.Run{
			models.NewRun("a", false, "", started),
			models.NewRun("b", false, "", started),
		}
		handler := &RunsHandler{Repo: &stubRepo{runs: runs}}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=1", nil))

		var payload []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(payload) != 1 {
			t.Errorf("limit not honored: %d runs", len(payload))
		}
	})

	t.Run("RepoErrorIs500", func(t *testing.T) {
		handler := &RunsHandler{Repo: &stubRepo{err: errors.New("db gone")}}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("PostRejected", func(t *testing.T) {
		handler := &RunsHandler{Repo: &stubRepo{}}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}
