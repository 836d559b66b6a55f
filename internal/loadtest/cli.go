package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/podium/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated. The returned
// function closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadtest_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Podium Load Test Tool
=====================

Registers many participants against a running server, submits solved
problems concurrently (with deliberate duplicates) and checks that every
problem's ranks come out as 1..k with the expected scores.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -participants int
        Number of participants to register (default 200)
  -problems int
        Problems are drawn from 1..N (default 7)
  -duplicates float
        Share of submissions replayed as duplicates (default 0.1)
  -scores string
        Expected score table, comma separated (default "9,8,7,6")
  -top int
        Number of leaderboard entries to fetch (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -prefix string
        Participant name prefix (default "load")
  -output string
        Output file for the generated plan
  -log string
        Log file for test output (default: loadtest_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run ./cmd/loadtest

  # Heavier run against another host
  go run ./cmd/loadtest -participants 2000 -workers 64 -url http://10.0.0.5:8000
`)
}
