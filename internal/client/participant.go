package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/podium/internal/verify"
)

// Errors reported by participant flows.
var (
	ErrNotRegistered = errors.New("please register first using: check register <name>")
	ErrNameRequired  = errors.New("you must provide a name")
)

// Verifier decides whether a problem is solved locally.
type Verifier interface {
	Verify(ctx context.Context, problem int) (verify.Verdict, error)
}

// SubmitOutcome classifies a submission attempt.
type SubmitOutcome int

// Submission outcomes.
const (
	// SubmitSkipped means the problem was already completed on this machine.
	SubmitSkipped SubmitOutcome = iota
	// SubmitIncorrect means the local check failed; nothing was sent.
	SubmitIncorrect
	SubmitAccepted
	SubmitDuplicate
)

func (o SubmitOutcome) String() string {
	switch o {
	case SubmitSkipped:
		return "skipped"
	case SubmitIncorrect:
		return "incorrect"
	case SubmitAccepted:
		return "accepted"
	case SubmitDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// RegisterResult describes a registration attempt.
type RegisterResult struct {
	Name string
	// Existing is set when this machine had already registered; no request
	// is sent in that case.
	Existing bool
	Response StatusResponse
}

// SubmitResult describes a submission attempt.
type SubmitResult struct {
	Name     string
	Problem  int
	Outcome  SubmitOutcome
	Response SubmitResponse
}

// Participant runs the participant-side flows against the server.
type Participant struct {
	api      *Client
	state    *StateStore
	verifier Verifier
}

// NewParticipant wires a participant.
func NewParticipant(api *Client, state *StateStore, verifier Verifier) *Participant {
	return &Participant{api: api, state: state, verifier: verifier}
}

// Register registers name once per machine.
func (p *Participant) Register(ctx context.Context, name string) (RegisterResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RegisterResult{}, ErrNameRequired
	}
	st, err := p.state.Load()
	if err != nil {
		return RegisterResult{}, err
	}
	if st.Registered() {
		return RegisterResult{Name: st.Name, Existing: true}, nil
	}

	resp, err := p.api.Register(ctx, name)
	if err != nil {
		return RegisterResult{Name: name}, fmt.Errorf("register: %w", err)
	}
	if err := p.state.Save(State{Name: name, Completed: []int{}}); err != nil {
		return RegisterResult{Name: name, Response: resp}, err
	}
	return RegisterResult{Name: name, Response: resp}, nil
}

// Submit checks problem locally and reports it when solved.
func (p *Participant) Submit(ctx context.Context, problem int) (SubmitResult, error) {
	st, err := p.state.Load()
	if err != nil {
		return SubmitResult{}, err
	}
	if !st.Registered() {
		return SubmitResult{}, ErrNotRegistered
	}
	res := SubmitResult{Name: st.Name, Problem: problem}
	if st.Solved(problem) {
		res.Outcome = SubmitSkipped
		return res, nil
	}

	verdict, err := p.verifier.Verify(ctx, problem)
	if err != nil {
		return res, err
	}
	if verdict != verify.Pass {
		res.Outcome = SubmitIncorrect
		return res, nil
	}

	resp, err := p.api.Submit(ctx, st.Name, problem)
	if err != nil {
		return res, fmt.Errorf("submit: %w", err)
	}
	res.Response = resp
	switch resp.Status {
	case "submitted":
		res.Outcome = SubmitAccepted
	case "already_submitted":
		res.Outcome = SubmitDuplicate
	default:
		return res, fmt.Errorf("submit: unexpected status %q", resp.Status)
	}
	if err := p.state.MarkSolved(problem); err != nil {
		return res, err
	}
	return res, nil
}

// Status returns the local progress.
func (p *Participant) Status() (State, error) {
	return p.state.Load()
}

// Reset clears the local progress.
func (p *Participant) Reset() error {
	return p.state.Reset()
}
