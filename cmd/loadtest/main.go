package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/okian/podium/internal/loadtest"
)

// Default configuration constants.
const (
	defaultParticipants   = 200
	defaultProblems       = 7
	defaultDuplicateRatio = 0.1
	defaultScores         = "9,8,7,6"
	defaultTopN           = 50
	defaultWorkers        = 2 // multiplier for runtime.NumCPU()
	defaultTimeout        = 30 * time.Second
	defaultTestTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:8000", "Base URL of the service")
		participants = flag.Int("participants", defaultParticipants, "Number of participants to register")
		problems     = flag.Int("problems", defaultProblems, "Problems are drawn from 1..N")
		duplicates   = flag.Float64("duplicates", defaultDuplicateRatio, "Share of submissions replayed as duplicates")
		scores       = flag.String("scores", defaultScores, "Expected score table, comma separated")
		topN         = flag.Int("top", defaultTopN, "Number of leaderboard entries to fetch")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		prefix       = flag.String("prefix", "load", "Participant name prefix")
		outputFile   = flag.String("output", "", "Output file for the generated plan")
		logFile      = flag.String("log", "", "Log file for test output (default: loadtest_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	table, err := parseScores(*scores)
	if err != nil {
		os.Stderr.WriteString("Invalid -scores: " + err.Error() + "\n")
		os.Exit(2)
	}

	closeLog, err := loadtest.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)

	config := &loadtest.Config{
		BaseURL:        *baseURL,
		Participants:   *participants,
		Problems:       *problems,
		DuplicateRatio: *duplicates,
		ScoreTable:     table,
		Workers:        *workers,
		Timeout:        *timeout,
		TopN:           *topN,
		NamePrefix:     *prefix,
		OutputFile:     *outputFile,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	_, runErr := loadtest.Run(ctx, config)
	cancel()
	_ = closeLog()
	if runErr != nil {
		os.Stderr.WriteString("Test failed: " + runErr.Error() + "\n")
		os.Exit(1)
	}
}

func parseScores(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	table := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		table = append(table, v)
	}
	return table, nil
}
