package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDescribeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keel.yaml")
	content := "Host:\n  ApplicationName: inventory\nModules:\n  Systemd:\n    Enabled: false\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	defer func() {
		describeConfigPath, describeEnvironment, describeOutput, describeNoColor = "", "", "table", false
	}()

	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{name: "table", output: "table", want: []string{"inventory", "Diagnostics", "diagnostics.server", "schedule"}},
		{name: "json", output: "json", want: []string{`"applicationName": "inventory"`, `"state": "created"`}},
		{name: "yaml", output: "yaml", want: []string{"applicationName: inventory", "environmentName: Development"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			describeConfigPath = path
			describeEnvironment = "Development"
			describeOutput = tt.output
			describeNoColor = true

			var buf bytes.Buffer
			describeCmd.SetOut(&buf)
			if err := runDescribe(describeCmd, nil); err != nil {
				t.Fatalf("describe failed: %v", err)
			}

			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestDescribeCommand_UnknownOutput(t *testing.T) {
	defer func() { describeOutput = "table" }()
	describeOutput = "xml"

	if err := runDescribe(describeCmd, nil); err == nil {
		t.Error("Expected an error for an unknown output format")
	}
}
