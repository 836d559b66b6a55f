// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/okian/podium/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// defaultLeaderboardLimit applies when /leaderboard has no limit parameter.
const defaultLeaderboardLimit = 10

var validate = validator.New()

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RegisterDependencies
	SubmitDependencies
	QuizDependencies
	LeaderboardDependencies
	RankDependencies
	ResultsDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	registerHandler    *RegisterHandler
	submitHandler      *SubmitHandler
	quizHandler        *QuizHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	resultsHandler     *ResultsHandler
	dashboardHandler   *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		registerHandler:    NewRegisterHandler(deps),
		submitHandler:      NewSubmitHandler(deps),
		quizHandler:        NewQuizHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		resultsHandler:     NewResultsHandler(deps),
		dashboardHandler:   newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/health", instrument(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", instrument(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/register", instrument(s.registerHandler.HandleRegister, "register"))
	mux.HandleFunc("/submit", instrument(s.submitHandler.HandleSubmit, "submit"))
	mux.HandleFunc("/quiz", instrument(s.quizHandler.HandleQuiz, "quiz"))
	mux.HandleFunc("/leaderboard", instrument(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", instrument(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/results", instrument(s.resultsHandler.HandleGetResults, "results"))
}

// instrument applies the request ID and metrics middleware.
func instrument(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return MetricsMiddleware(RequestIDMiddleware(next), endpoint)
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes the error envelope.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, errorResponse{
		Status:  "error",
		Code:    code,
		Message: publicMessage(err, status),
	})
}

// decodeBody reads a JSON body into v and validates it. Validation failures
// are reported as invalid; anything else as an unreadable body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, invalid error) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadBody
	}
	if err := validate.Struct(v); err != nil {
		return invalid
	}
	return nil
}
