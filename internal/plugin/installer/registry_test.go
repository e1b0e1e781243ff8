// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package installer_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gclm/rubick/internal/plugin/installer"
)

// registry serves dist-tags.latest for every package.
func registry(t *testing.T, latest string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"name":%q,"dist-tags":{"latest":%q}}`, r.URL.Path[1:], latest)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUpgrade_NewerVersionReinstalls(t *testing.T) {
	var hits atomic.Int32
	srv := registry(t, "1.2.0", &hits)
	inst, runner, root := newInstaller(t, installer.WithRegistry(srv.URL))
	writeDeps(t, root, `{"demo":"^1.1.9"}`)

	inst.Upgrade(context.Background(), "demo")

	calls := runner.invocations()
	require.Len(t, calls, 1)
	assert.Equal(t, "demo@latest", calls[0].Args[len(calls[0].Args)-1])
}

func TestUpgrade_SameOrOlderVersionDoesNothing(t *testing.T) {
	for _, latest := range []string{"1.1.9", "1.0.0"} {
		t.Run(latest, func(t *testing.T) {
			var hits atomic.Int32
			srv := registry(t, latest, &hits)
			inst, runner, root := newInstaller(t, installer.WithRegistry(srv.URL))
			writeDeps(t, root, `{"demo":"~1.1.9"}`)

			inst.Upgrade(context.Background(), "demo")

			assert.Empty(t, runner.invocations())
		})
	}
}

func TestUpgrade_RegistryFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	inst, runner, root := newInstaller(t, installer.WithRegistry(srv.URL))
	writeDeps(t, root, `{"demo":"1.0.0"}`)

	require.NotPanics(t, func() { inst.Upgrade(context.Background(), "demo") })

	assert.Empty(t, runner.invocations())
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"dependencies":{"demo":"1.0.0"}}`, string(data))
}

func TestUpgrade_UnreachableRegistryIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	inst, runner, root := newInstaller(t, installer.WithRegistry(url))
	writeDeps(t, root, `{"demo":"1.0.0"}`)

	inst.Upgrade(context.Background(), "demo")
	assert.Empty(t, runner.invocations())
}

func TestUpgrade_SlowRegistryTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	inst, runner, root := newInstaller(t, installer.WithRegistry(srv.URL))
	writeDeps(t, root, `{"demo":"1.0.0"}`)

	start := time.Now()
	inst.Upgrade(context.Background(), "demo")

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, runner.invocations())
}

func TestUpgrade_UnparsableVersionsAreSwallowed(t *testing.T) {
	var hits atomic.Int32
	srv := registry(t, "not-a-version", &hits)
	inst, runner, root := newInstaller(t, installer.WithRegistry(srv.URL))

	writeDeps(t, root, `{"demo":"1.0.0","local":"file:../local"}`)
	inst.Upgrade(context.Background(), "demo")
	inst.Upgrade(context.Background(), "local")
	inst.Upgrade(context.Background(), "missing")

	assert.Empty(t, runner.invocations())
}

func TestLatestVersion_CachedPerName(t *testing.T) {
	var hits atomic.Int32
	srv := registry(t, "2.0.0", &hits)
	inst, _, _ := newInstaller(t, installer.WithRegistry(srv.URL+"/"))

	for range 3 {
		v, err := inst.LatestVersion(context.Background(), "demo")
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", v)
	}
	assert.Equal(t, int32(1), hits.Load())

	_, err := inst.LatestVersion(context.Background(), "@acme/tool")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestLatestVersion_MissingDistTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"demo"}`))
	}))
	t.Cleanup(srv.Close)
	inst, _, _ := newInstaller(t, installer.WithRegistry(srv.URL))

	_, err := inst.LatestVersion(context.Background(), "demo")
	assert.Error(t, err)
}
