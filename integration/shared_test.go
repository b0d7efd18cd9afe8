//go:build basic || database

// Package integration contains integration tests for wvg.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// With containers:    go test -tags database ./integration
package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedWVGPath holds the path to a shared wvg binary built once for all tests.
	sharedWVGPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// seatsFixture holds two periods with hand-checked power indices.
// 1998: 3+2+1 seats, quota 3, weights [2 1 1] with weight quota 2.
// 2002: 2+2+2 seats, quota 3, every party is symmetric.
const seatsFixture = "period\tparty\tseats\n" +
	"1998\tA\t3\n" +
	"1998\tB\t2\n" +
	"1998\tC\t1\n" +
	"2002\tA\t2\n" +
	"2002\tB\t2\n" +
	"2002\tC\t2\n"

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getWVGBinary returns the path to the wvg binary, building it once if needed.
func getWVGBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "wvg-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		wvgPath := filepath.Join(tempDir, "wvg")
		buildCmd := exec.Command("go", "build", "-o", wvgPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build wvg: %v\n%s", err, out))
		}

		sharedWVGPath = wvgPath
	})

	return sharedWVGPath
}

// writeFixture writes the seat fixture into a fresh directory and returns its path.
func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seats.tsv")
	require.NoError(t, os.WriteFile(path, []byte(seatsFixture), 0o644))
	return path
}

// runWVG runs the binary with HOME pointed at a scratch directory, so the default
// SQLite files never touch the real home directory. It returns stdout.
func runWVG(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getWVGBinary(), args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "HOME="+cmd.Dir)
	cmd.Env = append(cmd.Env, env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), stdout.String(), stderr.String())
	}
	return stdout.String(), err
}
