package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestEnvironment bundles a timeout context and a temp directory for
// tests that exercise dataset files or a local warehouse directory.
type TestEnvironment struct {
	t       *testing.T
	ctx     context.Context
	cancel  context.CancelFunc
	tempDir string
	cleanup []func()
}

// NewTestEnvironment creates a new test environment
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	tempDir, err := os.MkdirTemp("", "forklift-test-*")
	require.NoError(t, err)

	env := &TestEnvironment{
		t:       t,
		ctx:     ctx,
		cancel:  cancel,
		tempDir: tempDir,
		cleanup: []func(){},
	}

	env.AddCleanup(func() {
		os.RemoveAll(tempDir)
	})

	return env
}

// Context returns the test context
func (e *TestEnvironment) Context() context.Context {
	return e.ctx
}

// TempDir returns the temporary directory
func (e *TestEnvironment) TempDir() string {
	return e.tempDir
}

// CreateTempFile creates a file with content under the temp directory
// and returns its path.
func (e *TestEnvironment) CreateTempFile(name string, content []byte) string {
	path := filepath.Join(e.tempDir, name)
	require.NoError(e.t, os.WriteFile(path, content, 0o644))
	return path
}

// AddCleanup adds a cleanup function to be called during teardown
func (e *TestEnvironment) AddCleanup(fn func()) {
	e.cleanup = append(e.cleanup, fn)
}

// Cleanup runs all cleanup functions in reverse order
func (e *TestEnvironment) Cleanup() {
	e.cancel()

	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
}

// IntegrationTest skips the test when -short is set
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}
