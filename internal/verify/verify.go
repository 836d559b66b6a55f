// Package verify decides locally whether a workshop problem has been solved.
//
// Each problem has a Checker that inspects files on the participant's
// machine (or, for the clock problem, a remote Date header). A checker never
// returns an error: anything it cannot read or parse is a Fail.
package verify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Verdict is the outcome of a check.
type Verdict string

// Verdicts.
const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"
)

// ErrUnsupportedProblem is returned for problems without a checker.
var ErrUnsupportedProblem = errors.New("unsupported problem number")

// Checker decides one problem.
type Checker interface {
	Check(ctx context.Context) Verdict
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) Verdict

// Check implements Checker.
func (f CheckerFunc) Check(ctx context.Context) Verdict { return f(ctx) }

// Registry maps problem numbers to checkers.
type Registry map[int]Checker

// Verify runs the checker for problem.
func (r Registry) Verify(ctx context.Context, problem int) (Verdict, error) {
	c, ok := r[problem]
	if !ok {
		return Fail, fmt.Errorf("%w: %d", ErrUnsupportedProblem, problem)
	}
	return c.Check(ctx), nil
}

// Paths locates the files the checkers read.
type Paths struct {
	DockerEnv         string
	Challenge1Compose string
	CustomCheckConf   string
	CustomLogConf     string
	Challenge2Compose string
	ClockURL          string
}

// DefaultPaths returns the lab layout used in the workshop environment.
func DefaultPaths() Paths {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/root"
	}
	return Paths{
		DockerEnv:         filepath.Join(home, "docker.env"),
		Challenge1Compose: "/root/lab/challenge1/docker-compose.yaml",
		CustomCheckConf:   "/root/lab/challenge1/datadog/custom_check/conf.yaml",
		CustomLogConf:     "/root/lab/challenge1/datadog/custom_log/conf.yaml",
		Challenge2Compose: "/root/lab/challenge2/docker-compose.yaml",
		ClockURL:          "http://google.com",
	}
}

type checkers struct {
	paths   Paths
	client  *http.Client
	now     func() time.Time
	maxSkew time.Duration
}

// DefaultRegistry builds the seven workshop checkers.
func DefaultRegistry(paths Paths, opts ...Option) Registry {
	c := &checkers{
		paths:   paths,
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
		maxSkew: 120 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return Registry{
		1: CheckerFunc(c.apiKeyConfigured),
		2: CheckerFunc(c.siteConfigured),
		3: CheckerFunc(c.clockInSync),
		4: CheckerFunc(c.customCheckURL),
		5: CheckerFunc(c.logCollection),
		6: CheckerFunc(c.redisAutodiscovery),
		7: CheckerFunc(c.tomcatJMX),
	}
}

func verdict(ok bool) Verdict {
	if ok {
		return Pass
	}
	return Fail
}
