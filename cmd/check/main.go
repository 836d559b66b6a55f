// Command check verifies workshop problems on a participant machine and
// reports solved ones to the leaderboard server.
package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/okian/podium/internal/client"
	"github.com/okian/podium/internal/verify"
)

// EnvServerURL names the variable holding the leaderboard base URL.
const EnvServerURL = "SERVER_URL"

func main() {
	dir := executableDir()

	// .env next to the binary is optional; the environment still applies.
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("[ERROR] Failed to read .env: " + err.Error() + "\n")
	}

	cmd := newRootCmd(&app{
		serverURL: os.Getenv(EnvServerURL),
		stateFile: filepath.Join(dir, client.DefaultStateFile),
		verifier:  verify.DefaultRegistry(verify.DefaultPaths()),
	})
	if err := cmd.Execute(); err != nil {
		var reported shownError
		if !errors.As(err, &reported) {
			os.Stderr.WriteString("[ERROR] " + err.Error() + "\n")
		}
		os.Exit(1)
	}
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
