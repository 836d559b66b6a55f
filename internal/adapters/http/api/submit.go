package api

import (
	"context"
	"net/http"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
)

// RegisterDependencies defines the interface for participant registration.
type RegisterDependencies interface {
	Register(ctx context.Context, name string) (model.Status, error)
}

// SubmitDependencies defines the interface for recording solved problems.
type SubmitDependencies interface {
	Submit(ctx context.Context, name string, problem int) (service.SubmitOutcome, error)
}

// QuizDependencies defines the interface for quiz completions.
type QuizDependencies interface {
	Quiz(ctx context.Context, name string) (int, error)
}

type registerRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

type submitRequest struct {
	Name    string `json:"name" validate:"required,max=128"`
	Problem int    `json:"problem"`
}

type quizRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

type submitResponse struct {
	Status string `json:"status"`
	Score  int    `json:"score,omitempty"`
	Rank   int    `json:"rank,omitempty"`
}

type quizResponse struct {
	Status string `json:"status"`
	Score  int    `json:"score"`
	Action string `json:"action"`
}

// RegisterHandler handles registration requests.
type RegisterHandler struct {
	deps RegisterDependencies
}

// NewRegisterHandler creates a new registration handler.
func NewRegisterHandler(deps RegisterDependencies) *RegisterHandler {
	return &RegisterHandler{deps: deps}
}

// HandleRegister handles POST /register requests.
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req registerRequest
	if err := decodeBody(w, r, &req, errNameRequired); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	status, err := h.deps.Register(r.Context(), req.Name)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: string(status)})
}

// SubmitHandler handles submission requests.
type SubmitHandler struct {
	deps SubmitDependencies
}

// NewSubmitHandler creates a new submission handler.
func NewSubmitHandler(deps SubmitDependencies) *SubmitHandler {
	return &SubmitHandler{deps: deps}
}

// HandleSubmit handles POST /submit requests. A repeated submission is a
// success with status already_submitted.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req submitRequest
	if err := decodeBody(w, r, &req, errNameProblemRequired); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.Submit(r.Context(), req.Name, req.Problem)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Status: string(out.Status),
		Score:  out.Score,
		Rank:   out.Rank,
	})
}

// QuizHandler handles quiz completion requests.
type QuizHandler struct {
	deps QuizDependencies
}

// NewQuizHandler creates a new quiz handler.
func NewQuizHandler(deps QuizDependencies) *QuizHandler {
	return &QuizHandler{deps: deps}
}

// HandleQuiz handles POST /quiz requests.
func (h *QuizHandler) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	const op = "api.quiz"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req quizRequest
	if err := decodeBody(w, r, &req, errNameRequired); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	score, err := h.deps.Quiz(r.Context(), req.Name)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{
		Status: string(model.StatusSent),
		Score:  score,
		Action: model.ActionQuiz,
	})
}
