// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
//
// Every mutation of shared state follows the same discipline: take the
// scope's exclusive lock, load the document, decide, save, release. Telemetry
// is emitted only after the lock is released and never affects the outcome.
package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/podium/internal/adapters/lock"
	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/telemetry"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// SubmitOutcome is the result of a submission attempt. Score and Rank are
// set only when Status is StatusSubmitted.
type SubmitOutcome struct {
	Status model.Status
	Score  int
	Rank   int
}

// components are built by Start and dropped by Stop.
type components struct {
	store    repository.Store
	gate     lock.Gate
	engine   *scoring.Engine
	deduper  dedupe.Deduper
	emitter  telemetry.Emitter
	pipeline *telemetry.Pipeline // nil when the emitter was injected
}

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex
	rt *components

	// Injected collaborators; defaults are built at Start.
	store   repository.Store
	gate    lock.Gate
	emitter telemetry.Emitter

	// Participants known to be registered. Only ever grows.
	knownMu sync.RWMutex
	known   map[string]struct{}

	// Configuration
	dataDir            string
	totalProblems      int
	scoreTable         []int
	location           *time.Location
	lockTimeout        time.Duration
	dedupeSize         int
	quizScore          int
	metricName         string
	envTag             string
	telemetryQueueSize int
	telemetryWorkers   int
	telemetryRate      float64
	ddSite             string
	ddAPIKey           string
	now                func() time.Time

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		known:              make(map[string]struct{}),
		dataDir:            "data",
		totalProblems:      7,
		scoreTable:         scoring.DefaultScoreTable,
		location:           time.UTC,
		dedupeSize:         50_000,
		quizScore:          10,
		metricName:         "custom.workshop.user_action",
		envTag:             "workshop",
		telemetryQueueSize: 10_000,
		telemetryWorkers:   2,
		telemetryRate:      20,
		ddSite:             "https://api.datadoghq.com",
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the store, gate and telemetry pipeline, verifies that both
// documents are readable, and warms the in-memory caches. It refuses to
// start if either document is corrupt.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rt != nil {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard service...",
		logger.String("data_dir", s.dataDir),
	)

	if err := scoring.ScoreTable(s.scoreTable).Validate(); err != nil {
		return fmt.Errorf("score table: %w", err)
	}

	rt := &components{
		store: s.store,
		gate:  s.gate,
		engine: scoring.NewEngine(
			scoring.WithScoreTable(s.scoreTable),
			scoring.WithLocation(s.location),
		),
		deduper: dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize)),
		emitter: s.emitter,
	}
	if rt.store == nil {
		rt.store = repository.NewFileStore(s.dataDir)
	}
	if rt.gate == nil {
		rt.gate = lock.NewFileGate(s.dataDir, lock.WithTimeout(s.lockTimeout))
	}

	names, err := rt.store.LoadParticipants(ctx)
	if err != nil {
		s.logger.Error(ctx, "participants document unreadable", logger.Error(err))
		return fmt.Errorf("check participants: %w", err)
	}
	results, err := rt.store.LoadResults(ctx)
	if err != nil {
		s.logger.Error(ctx, "results document unreadable", logger.Error(err))
		return fmt.Errorf("check results: %w", err)
	}

	s.remember(names...)
	for _, r := range results {
		rt.deduper.Record(ctx, r.Key().String())
	}
	metrics.UpdateParticipants(len(names))
	metrics.UpdateResults(len(results))
	metrics.UpdateDedupeSize(rt.deduper.Size())

	if rt.emitter == nil {
		sender, err := s.telemetrySender()
		if err != nil {
			return err
		}
		rt.pipeline = telemetry.NewPipeline(sender,
			telemetry.WithQueueSize(s.telemetryQueueSize),
			telemetry.WithWorkers(s.telemetryWorkers),
			telemetry.WithLogger(s.logger.Named("telemetry")),
		)
		// Workers outlive the start context; Stop drains them.
		rt.pipeline.Start(context.WithoutCancel(ctx))
		rt.emitter = rt.pipeline
	}

	s.rt = rt
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("participants", len(names)),
		logger.Int("results", len(results)),
		logger.Int("total_problems", s.totalProblems),
		logger.Any("score_table", rt.engine.Table()),
		logger.Duration("lock_timeout", s.lockTimeout),
	)

	return nil
}

// telemetrySender picks the Datadog sink when an API key is configured and
// the log sink otherwise.
func (s *Service) telemetrySender() (worker.Sender, error) {
	if s.ddAPIKey == "" {
		s.logger.Info(context.Background(), "no datadog api key configured; telemetry will be logged")
		return telemetry.NewLogSink(s.logger.Named("telemetry")), nil
	}
	sink, err := telemetry.NewDatadogSink(s.ddSite, s.ddAPIKey)
	if err != nil {
		return nil, fmt.Errorf("datadog sink: %w", err)
	}
	return telemetry.RateLimited(sink, s.telemetryRate, s.telemetryWorkers), nil
}

// Stop drains the telemetry pipeline and releases the components. Queued
// points that cannot be delivered before ctx ends are dropped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rt == nil {
		return nil
	}

	s.logger.Info(ctx, "stopping leaderboard service...")

	var err error
	if s.rt.pipeline != nil {
		if err = s.rt.pipeline.Stop(ctx); err != nil {
			s.logger.Warn(ctx, "telemetry drain incomplete", logger.Error(err))
		}
	}

	s.rt = nil
	s.logger.Info(ctx, "leaderboard service stopped")
	return err
}

func (s *Service) running() (*components, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rt == nil {
		return nil, ErrNotStarted
	}
	return s.rt, nil
}

// Register adds name to the participant collection. Registering a known
// name reports StatusAlreadyRegistered and changes nothing.
func (s *Service) Register(ctx context.Context, name string) (model.Status, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		metrics.RecordRegistration(string(model.StatusError))
		return model.StatusError, ErrInvalidName
	}
	rt, err := s.running()
	if err != nil {
		return model.StatusError, err
	}

	status := model.StatusAlreadyRegistered
	total := 0
	err = rt.gate.WithExclusiveLock(ctx, lock.ScopeParticipants, func(ctx context.Context) error {
		names, err := rt.store.LoadParticipants(ctx)
		if err != nil {
			return err
		}
		total = len(names)
		if slices.Contains(names, name) {
			return nil
		}
		if err := rt.store.SaveParticipants(ctx, append(names, name)); err != nil {
			return err
		}
		status = model.StatusRegistered
		total++
		return nil
	})
	if err != nil {
		metrics.RecordRegistration(string(model.StatusError))
		s.logger.Error(ctx, "registration failed", logger.String("name", name), logger.Error(err))
		return model.StatusError, fmt.Errorf("register %q: %w", name, err)
	}

	s.remember(name)
	metrics.RecordRegistration(string(status))
	metrics.UpdateParticipants(total)

	if status == model.StatusRegistered {
		s.logger.Info(ctx, "participant registered", logger.String("name", name))
		rt.emitter.Emit(ctx, s.metricName, 0, s.tags(name, model.ActionRegister)...)
	} else {
		s.logger.Debug(ctx, "participant already registered", logger.String("name", name))
	}
	return status, nil
}

// Submit records that name solved problem. The first accepted submission
// for a problem gets rank 1; later ones rank by acceptance order. A repeat
// submission reports StatusAlreadySubmitted and changes nothing.
func (s *Service) Submit(ctx context.Context, name string, problem int) (SubmitOutcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		metrics.RecordSubmission(string(model.StatusError))
		return SubmitOutcome{Status: model.StatusError}, ErrInvalidName
	}
	if err := s.validProblem(problem); err != nil {
		metrics.RecordSubmission(string(model.StatusError))
		return SubmitOutcome{Status: model.StatusError}, err
	}
	rt, err := s.running()
	if err != nil {
		return SubmitOutcome{Status: model.StatusError}, err
	}

	registered, err := s.isRegistered(ctx, rt, name)
	if err != nil {
		metrics.RecordSubmission(string(model.StatusError))
		return SubmitOutcome{Status: model.StatusError}, fmt.Errorf("submit %q/%d: %w", name, problem, err)
	}
	if !registered {
		metrics.RecordSubmission(string(model.StatusError))
		return SubmitOutcome{Status: model.StatusError}, fmt.Errorf("%w: %q", ErrUnknownParticipant, name)
	}

	key := model.ResultKey{Name: name, Problem: problem}.String()
	if rt.deduper.Seen(ctx, key) {
		metrics.RecordDedupeHit()
		metrics.RecordSubmission(string(model.StatusAlreadySubmitted))
		s.logger.Debug(ctx, "submission already recorded",
			logger.String("name", name), logger.Int("problem", problem))
		return SubmitOutcome{Status: model.StatusAlreadySubmitted}, nil
	}

	var (
		outcome scoring.Outcome
		total   int
	)
	err = rt.gate.WithExclusiveLock(ctx, lock.ScopeResults, func(ctx context.Context) error {
		history, err := rt.store.LoadResults(ctx)
		if err != nil {
			return err
		}
		total = len(history)
		outcome = rt.engine.Accept(history, scoring.Claim{Name: name, Problem: problem}, s.now())
		if outcome.Decision != scoring.Accepted {
			return nil
		}
		if err := rt.store.SaveResults(ctx, append(history, outcome.Result)); err != nil {
			return err
		}
		total++
		return nil
	})
	if err != nil {
		metrics.RecordSubmission(string(model.StatusError))
		s.logger.Error(ctx, "submission failed",
			logger.String("name", name), logger.Int("problem", problem), logger.Error(err))
		return SubmitOutcome{Status: model.StatusError}, fmt.Errorf("submit %q/%d: %w", name, problem, err)
	}

	// The result is durable either way, so the key can be cached.
	rt.deduper.Record(ctx, key)
	metrics.UpdateDedupeSize(rt.deduper.Size())
	metrics.UpdateResults(total)

	if outcome.Decision == scoring.AlreadySubmitted {
		metrics.RecordSubmission(string(model.StatusAlreadySubmitted))
		s.logger.Info(ctx, "submission ignored, already submitted",
			logger.String("name", name), logger.Int("problem", problem))
		return SubmitOutcome{Status: model.StatusAlreadySubmitted}, nil
	}

	res := outcome.Result
	metrics.RecordSubmission(string(model.StatusSubmitted))
	metrics.RecordScoreAwarded(strconv.Itoa(problem), res.Score)
	s.logger.Info(ctx, "submission accepted",
		logger.String("name", name),
		logger.Int("problem", problem),
		logger.Int("score", res.Score),
		logger.Int("rank", res.Rank),
	)
	rt.emitter.Emit(ctx, s.metricName, float64(res.Score),
		s.tags(name, model.ActionSubmit, "problem:"+strconv.Itoa(problem))...)

	return SubmitOutcome{Status: model.StatusSubmitted, Score: res.Score, Rank: res.Rank}, nil
}

// Quiz reports a quiz completion for name. Nothing is persisted.
func (s *Service) Quiz(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidName
	}
	rt, err := s.running()
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "quiz completed", logger.String("name", name), logger.Int("score", s.quizScore))
	rt.emitter.Emit(ctx, s.metricName, float64(s.quizScore), s.tags(name, model.ActionQuiz)...)
	return s.quizScore, nil
}

// Standings returns the top n participants by total score.
func (s *Service) Standings(ctx context.Context, n int) ([]types.Entry, error) {
	results, err := s.loadResults(ctx)
	if err != nil {
		return nil, err
	}
	return repository.TopN(results, n)
}

// Rank returns the standing of a single participant. It fails with
// repository.ErrNotFound when name has no accepted results.
func (s *Service) Rank(ctx context.Context, name string) (types.Entry, error) {
	results, err := s.loadResults(ctx)
	if err != nil {
		return types.Entry{}, err
	}
	return repository.Rank(results, strings.TrimSpace(name))
}

// Results returns accepted results for problem in rank order.
func (s *Service) Results(ctx context.Context, problem int) ([]model.SubmissionResult, error) {
	if err := s.validProblem(problem); err != nil {
		return nil, err
	}
	results, err := s.loadResults(ctx)
	if err != nil {
		return nil, err
	}
	return repository.ProblemResults(results, problem), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	s.mu.RLock()
	rt := s.rt
	s.mu.RUnlock()

	stats := types.Stats{}
	if rt == nil {
		return stats, nil
	}
	stats.Started = true

	names, err := rt.store.LoadParticipants(ctx)
	if err != nil {
		return stats, err
	}
	results, err := rt.store.LoadResults(ctx)
	if err != nil {
		return stats, err
	}
	stats.Participants = len(names)
	stats.Results = len(results)
	stats.DedupeSize = int(rt.deduper.Size())
	if rt.pipeline != nil {
		stats.TelemetryQueueSize = rt.pipeline.Len(ctx)
		stats.TelemetryQueueCap = rt.pipeline.Cap()
	}

	metrics.UpdateParticipants(stats.Participants)
	metrics.UpdateResults(stats.Results)
	metrics.UpdateDedupeSize(rt.deduper.Size())

	return stats, nil
}

// TotalProblems returns N for the valid problem range 1..N.
func (s *Service) TotalProblems() int {
	return s.totalProblems
}

// loadResults reads the results snapshot without the gate. Saves replace the
// document atomically, so a reader always sees a committed state.
func (s *Service) loadResults(ctx context.Context) ([]model.SubmissionResult, error) {
	rt, err := s.running()
	if err != nil {
		return nil, err
	}
	return rt.store.LoadResults(ctx)
}

func (s *Service) validProblem(problem int) error {
	if problem < 1 || problem > s.totalProblems {
		return fmt.Errorf("%w (1~%d)", ErrInvalidProblem, s.totalProblems)
	}
	return nil
}

// isRegistered checks the in-memory set first and falls back to the store,
// which may have been updated by another process.
func (s *Service) isRegistered(ctx context.Context, rt *components, name string) (bool, error) {
	s.knownMu.RLock()
	_, ok := s.known[name]
	s.knownMu.RUnlock()
	if ok {
		return true, nil
	}

	names, err := rt.store.LoadParticipants(ctx)
	if err != nil {
		return false, err
	}
	s.remember(names...)
	return slices.Contains(names, name), nil
}

func (s *Service) remember(names ...string) {
	s.knownMu.Lock()
	defer s.knownMu.Unlock()
	for _, n := range names {
		s.known[n] = struct{}{}
	}
}

func (s *Service) tags(name, action string, extra ...string) []string {
	tags := make([]string, 0, 3+len(extra))
	tags = append(tags, "name:"+name, "action:"+action)
	tags = append(tags, extra...)
	return append(tags, "env:"+s.envTag)
}
