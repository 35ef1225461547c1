package formatting

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"keel/pkg/host"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleDescription() host.Description {
	opts := host.DefaultOptions()
	opts.ShutdownTimeout = 3 * time.Second
	return host.Description{
		State:   host.StateCreated,
		Options: opts,
		Environment: host.Environment{
			ApplicationName: "orders",
			EnvironmentName: "Staging",
			ContentRootPath: "/srv/orders",
			InstanceID:      "0123456789abcdef0123456789abcdef",
		},
		Modules:           []host.ModuleInfo{{Name: "Diagnostics", Version: "1.0.0"}},
		StartupFilters:    2,
		LifecycleHandlers: []string{"diagnostics.phases", "systemd.notifier"},
		BackgroundTasks:   []string{"diagnostics.server"},
		Services:          []string{"keel.configuration"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatTable},
		{in: "table", want: FormatTable},
		{in: "JSON", want: FormatJSON},
		{in: " yaml ", want: FormatYAML},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(Options{}).FormatDescription(&buf, sampleDescription()))

	out := buf.String()
	for _, want := range []string{"orders", "Staging", "Diagnostics", "1.0.0", "systemd.notifier", "diagnostics.server", "3s", "(none)"} {
		assert.Contains(t, out, want)
	}
}

func TestJSONFormatter(t *testing.T) {
	f, err := New(Options{Format: FormatJSON})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.FormatDescription(&buf, sampleDescription()))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "created", doc.State)
	assert.Equal(t, "3s", doc.Options.ShutdownTimeout)
	assert.Equal(t, []moduleDocument{{Name: "Diagnostics", Version: "1.0.0"}}, doc.Modules)
	assert.Equal(t, []string{}, doc.Features)
}

func TestYAMLFormatter(t *testing.T) {
	f, err := New(Options{Format: FormatYAML})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.FormatDescription(&buf, sampleDescription()))

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 2, doc["startupFilters"])
	env := doc["environment"].(map[string]interface{})
	assert.Equal(t, "orders", env["applicationName"])
}
