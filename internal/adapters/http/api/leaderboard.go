package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/podium/internal/domain/model"
)

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	Standings(ctx context.Context, n int) ([]Entry, error)
}

// ResultsDependencies defines the interface for per-problem results.
type ResultsDependencies interface {
	Results(ctx context.Context, problem int) ([]model.SubmissionResult, error)
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	if maxLimit < 1 {
		maxLimit = defaultLeaderboardLimit
	}
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests. Limits
// above the configured maximum are clamped.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := min(defaultLeaderboardLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, WrapKind(op, ErrBadRequest, errInvalidLimit))
			return
		}
		n = min(v, h.maxLimit)
	}
	entries, err := h.deps.Standings(r.Context(), n)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ResultsHandler handles per-problem result requests.
type ResultsHandler struct {
	deps ResultsDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleGetResults handles GET /results?problem=P requests.
func (h *ResultsHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_results"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	problem, err := strconv.Atoi(r.URL.Query().Get("problem"))
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, errInvalidProblemParam))
		return
	}
	results, err := h.deps.Results(r.Context(), problem)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if results == nil {
		results = []model.SubmissionResult{}
	}
	writeJSON(w, http.StatusOK, results)
}
