package server

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cwlog/internal/formatter"
	"github.com/desertthunder/cwlog/internal/models"
	"github.com/desertthunder/cwlog/internal/render"
	"github.com/desertthunder/cwlog/internal/shared"
	"github.com/desertthunder/cwlog/internal/source"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// PageHandler serves the log panel page hosting the SSE consumer.
type PageHandler struct {
	Title string
}

func (h *PageHandler) Routes() []string { return []string{"GET /{$}"} }

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	title := h.Title
	if title == "" {
		title = "CrossWatch sync log"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, map[string]string{"Title": title}); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// StreamHandler streams rendered HTML fragments over SSE. Each connection
// owns an independent formatter session and backend poller; sharing a
// session across views would corrupt its counters and squelch state.
type StreamHandler struct {
	NewSource func() source.Source  // per-connection backend source
	Options   formatter.Options     // base formatter options
	Store     source.RunStore       // optional run recorder
	Logger    *log.Logger
}

func (h *StreamHandler) Routes() []string { return []string{"GET /logs/stream"} }

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	opts := h.Options
	if r.URL.Query().Get("debug") == "1" {
		opts.Debug = true
	}

	logger := h.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	clientID := shared.GenerateID()
	logger = shared.WithLogger(logger, "client", clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	follower := source.NewFollower(h.NewSource(), opts, h.Store, logger)
	blocks := make(chan formatter.Block, 64)

	done := make(chan error, 1)
	go func() { done <- follower.Run(r.Context(), blocks) }()

	for block := range blocks {
		fmt.Fprintf(w, "data: %s\n\n", render.HTML(block))
		flusher.Flush()
	}

	if err := <-done; err != nil && r.Context().Err() == nil {
		logger.Error("stream ended", "err", err)
	}
}

// RunsHandler serves stored run history as JSON.
type RunsHandler struct {
	Repo interface {
		Recent(limit int) ([]*models.Run, error)
	}
}

func (h *RunsHandler) Routes() []string { return []string{"GET /api/runs"} }

// runPayload is the JSON shape of one run.
type runPayload struct {
	ID         string     `json:"id"`
	RunID      string     `json:"run_id"`
	DryRun     bool       `json:"dry_run"`
	Conflict   string     `json:"conflict,omitempty"`
	Added      int        `json:"added"`
	Removed    int        `json:"removed"`
	Pairs      int        `json:"pairs"`
	ExitState  string     `json:"exit_state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		fmt.Sscanf(q, "%d", &limit)
	}

	runs, err := h.Repo.Recent(limit)
	if err != nil {
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}

	payload := make([]runPayload, 0, len(runs))
	for _, run := range runs {
		p := runPayload{
			ID:        run.ID(),
			RunID:     run.RunID,
			DryRun:    run.DryRun,
			Conflict:  run.Conflict,
			Added:     run.Added,
			Removed:   run.Removed,
			Pairs:     run.Pairs,
			ExitState: run.ExitState,
			StartedAt: run.StartedAt,
		}
		if !run.FinishedAt.IsZero() {
			finished := run.FinishedAt
			p.FinishedAt = &finished
		}
		payload = append(payload, p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
