package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"keel/internal/formatting"
	"keel/pkg/host"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
Host:
  ApplicationName: orders
  ShutdownTimeout: 2s
Logging:
  Level: warn
Modules:
  Diagnostics:
    Address: 127.0.0.1:0
  Systemd:
    Enabled: false
  Schedule:
    Heartbeat:
      Schedule: "@every 1h"
`

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestConfig(path, environment string) *Config {
	cfg := NewConfig(false, true, path, environment)
	cfg.Version = "test"
	return cfg
}

func TestEnvironmentFile(t *testing.T) {
	tests := []struct {
		path, env, want string
	}{
		{"keel.yaml", "Staging", "keel.staging.yaml"},
		{"/etc/keel/app.yml", "Production", "/etc/keel/app.production.yml"},
		{"config", "dev", "config.dev.yaml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, environmentFile(tt.path, tt.env))
	}
}

func TestNewApplication_LayeredConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "keel.yaml", baseConfig)
	writeConfig(t, dir, "keel.staging.yaml", "Host:\n  ApplicationName: orders-staging\n")
	t.Setenv("KEEL_MODULES__DIAGNOSTICS__ENABLED", "false")

	a, err := NewApplication(newTestConfig(path, "Staging"))
	require.NoError(t, err)
	defer a.Host().Close()

	env := a.Host().Environment()
	assert.Equal(t, "orders-staging", env.ApplicationName)
	assert.Equal(t, "Staging", env.EnvironmentName)
	assert.Equal(t, 2*time.Second, a.Host().Options().ShutdownTimeout)

	assert.False(t, a.settings.Diagnostics.Enabled)
	assert.False(t, a.settings.Systemd.Enabled)
	assert.True(t, a.settings.Heartbeat.Enabled)
	assert.Equal(t, "@every 1h", a.settings.Heartbeat.Schedule)
}

func TestNewApplication_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		missing bool
		wantErr string
	}{
		{name: "missing explicit file", missing: true, wantErr: "failed to load configuration"},
		{name: "malformed yaml", content: "Host: [", wantErr: "failed to load configuration"},
		{name: "bad log level", content: "Logging:\n  Level: loud\n", wantErr: "invalid logging configuration"},
		{name: "bad heartbeat schedule", content: "Modules:\n  Systemd:\n    Enabled: false\n  Schedule:\n    Heartbeat:\n      Schedule: sometimes\n", wantErr: "failed to build host"},
		{name: "invalid host options", content: "Host:\n  ShutdownTimeout: 0s\n", wantErr: "failed to build host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "missing.yaml")
			if !tt.missing {
				path = writeConfig(t, dir, filepath.Base(t.Name())+".yaml", tt.content)
			}

			_, err := NewApplication(newTestConfig(path, ""))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplication_Describe(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "keel.yaml", baseConfig)
	a, err := NewApplication(newTestConfig(path, ""))
	require.NoError(t, err)
	defer a.Host().Close()

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, a.Describe(&buf, formatting.Options{Format: formatting.FormatTable}))
		out := buf.String()
		assert.Contains(t, out, "orders")
		assert.Contains(t, out, "Diagnostics")
		assert.Contains(t, out, "diagnostics.server")
		assert.NotContains(t, out, "systemd.notifier")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, a.Describe(&buf, formatting.Options{Format: formatting.FormatJSON}))

		var doc struct {
			State           string   `json:"state"`
			BackgroundTasks []string `json:"backgroundTasks"`
			Modules         []struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"modules"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Equal(t, "created", doc.State)
		assert.Equal(t, []string{"diagnostics.server", "schedule"}, doc.BackgroundTasks)
		require.Len(t, doc.Modules, 1)
		assert.Equal(t, "test", doc.Modules[0].Version)
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, a.Describe(&bytes.Buffer{}, formatting.Options{Format: "xml"}))
	})
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "keel.yaml", baseConfig)
	a, err := NewApplication(newTestConfig(path, ""))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.Host().State() == host.StateStarted
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}
	assert.Equal(t, host.StateStopped, a.Host().State())
	assert.Empty(t, a.Host().TaskFaults())
}
