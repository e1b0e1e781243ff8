// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invocation struct {
	Dir     string
	Command string
	Args    []string
}

// fakeRunner records npm invocations instead of running them.
type fakeRunner struct {
	mu    sync.Mutex
	calls []invocation
}

func (r *fakeRunner) Run(_ context.Context, dir, command string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, invocation{Dir: dir, Command: command, Args: args})
	return nil, nil
}

func (r *fakeRunner) invocations() []invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]invocation(nil), r.calls...)
}

// testEnv isolates a command run from the user's config and data dirs.
type testEnv struct {
	root string
	temp string
	deps *Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	return &testEnv{
		root: filepath.Join(t.TempDir(), "plugins"),
		temp: filepath.Join(t.TempDir(), "tmp"),
		deps: &Deps{Runner: &fakeRunner{}},
	}
}

// run executes the root command with the env's plugin root.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runContext(t, context.Background(), args...)
}

func (e *testEnv) runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(e.deps)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{
		"--plugins-dir", e.root,
		"--temp-dir", e.temp,
		"--log-level", "error",
	}, args...))
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd(nil)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{"plugin", "convert", "converted", "daemon"} {
		assert.Contains(t, buf.String(), sub, "help missing %q command", sub)
	}
}

func TestPluginCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd(nil)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"plugin", "--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{"install", "uninstall", "update", "upgrade", "list", "info", "dev", "watch"} {
		assert.Contains(t, buf.String(), sub, "help missing %q command", sub)
	}
}

func TestRootCommand_InvalidConfigFails(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "--log-format", "xml", "plugin", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRootCommand_ExplicitConfigMustExist(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "plugin", "list")
	require.Error(t, err)
}
