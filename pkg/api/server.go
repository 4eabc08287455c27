// Package api exposes the layout engine over HTTP.
//
// The server owns one transition coordinator and one ticker goroutine that
// drives the simulation. Handlers never touch the coordinator directly while
// a tick is in flight: every read goes through a committed whole-tick
// snapshot taken under the server mutex, so clients cannot observe a torn
// mid-step state.
//
// Endpoints (JSON):
//
//	GET  /healthz              liveness
//	GET  /api/v1/layout        current tick snapshot
//	GET  /api/v1/presets       available presets and normalization modes
//	GET  /api/v1/overlaps      pairs below the safety radius
//	POST /api/v1/transitions   apply a preset/mode change
//	POST /api/v1/collision     toggle the collision force
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/scoring"
	"github.com/quadmap/quadmap/pkg/solver"
	"github.com/quadmap/quadmap/pkg/transition"
)

// DefaultTickInterval paces the simulation when the config does not say
// otherwise. 50ms is comfortably faster than a renderer needs and slow
// enough to stay negligible on a single core.
const DefaultTickInterval = 50 * time.Millisecond

// Server drives a coordinator and serves snapshots of it.
type Server struct {
	mu           sync.Mutex
	coord        *transition.Coordinator
	snapshot     transition.Snapshot
	presets      map[string]scoring.WeightPreset
	tickInterval time.Duration
	logger       *log.Logger
}

// Options configures a Server.
type Options struct {
	// TickInterval paces the background simulation.
	TickInterval time.Duration
	// Presets is the preset set exposed by the presets endpoint. Nil means
	// the built-in set.
	Presets map[string]scoring.WeightPreset
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// NewServer wraps a coordinator. The coordinator must not be used by anyone
// else afterwards; the server is its single owner.
func NewServer(coord *transition.Coordinator, opts Options) *Server {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Presets == nil {
		opts.Presets = scoring.DefaultPresets
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		coord:        coord,
		snapshot:     coord.Snapshot(),
		presets:      opts.Presets,
		tickInterval: opts.TickInterval,
		logger:       opts.Logger,
	}
}

// Run drives the simulation until ctx is cancelled. It owns the tick loop;
// call it from exactly one goroutine.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick advances the simulation one step under the server mutex and commits
// the resulting snapshot.
func (s *Server) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Stable() {
		// Nothing in flight; the committed snapshot stays valid.
		return
	}
	s.snapshot = s.coord.Tick()
}

// Snapshot returns the last committed whole-tick snapshot.
func (s *Server) Snapshot() transition.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Get("/presets", s.handlePresets)
		r.Get("/overlaps", s.handleOverlaps)
		r.Post("/transitions", s.handleTransition)
		r.Post("/collision", s.handleCollision)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// presetInfo is the wire form of one preset entry.
type presetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	names := scoring.PresetNames(s.presets)
	infos := make([]presetInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, presetInfo{Name: name, Description: s.presets[name].Description})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"presets":        infos,
		"normalizations": normalize.Modes,
	})
}

func (s *Server) handleOverlaps(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	overlaps := s.coord.Overlaps()
	s.mu.Unlock()
	if overlaps == nil {
		overlaps = []solver.Overlap{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"overlaps": overlaps})
}

// transitionRequest is the wire form of a preset/mode change.
type transitionRequest struct {
	Preset        string `json:"preset"`
	Normalization string `json:"normalization"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	mode, err := normalize.ParseMode(req.Normalization)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.coord.Current()
	if current.Preset == req.Preset && current.Normalization == mode && s.snapshot.Stable() {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": map[string]any{
				"code":    "ALREADY_APPLIED",
				"message": "requested variant is already the current stable layout",
			},
			"transition": current,
		})
		return
	}

	tr, err := s.coord.Apply(transition.Request{Preset: req.Preset, Normalization: mode},
		func(done transition.Transition) {
			s.logger.Info("transition settled",
				"id", done.ID,
				"preset", done.Preset,
				"mode", done.Normalization,
				"generation", done.Generation)
		})
	if err != nil {
		writeError(w, err)
		return
	}

	s.snapshot = s.coord.Snapshot()
	s.logger.Info("transition applied", "id", tr.ID, "preset", tr.Preset, "mode", tr.Normalization)
	writeJSON(w, http.StatusAccepted, map[string]any{"transition": tr})
}

// collisionRequest toggles the collision force.
type collisionRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleCollision(w http.ResponseWriter, r *http.Request) {
	var req collisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	s.mu.Lock()
	s.coord.SetCollisionEnabled(req.Enabled)
	s.snapshot = s.coord.Snapshot()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"collision_enabled": req.Enabled})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps structured error codes onto HTTP statuses: configuration
// errors are the client's fault, everything else is ours.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsConfiguration(err), errors.Is(err, errors.ErrCodeInvalidNormalization):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound), errors.Is(err, errors.ErrCodeItemNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    errors.GetCode(err),
			"message": errors.UserMessage(err),
		},
	})
}
