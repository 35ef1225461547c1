package formatting

import (
	"fmt"
	"io"
	"strings"

	"keel/pkg/host"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) *TableFormatter {
	return &TableFormatter{options: options}
}

// FormatDescription renders one table per section: host, modules and participants.
func (f *TableFormatter) FormatDescription(w io.Writer, d host.Description) error {
	doc := newDocument(d)

	t := f.createTable(w, "Host")
	t.AppendHeader(f.headers("KEY", "VALUE"))
	t.AppendRows([]table.Row{
		{"Application", doc.Environment.ApplicationName},
		{"Environment", doc.Environment.EnvironmentName},
		{"Content root", doc.Environment.ContentRootPath},
		{"Instance", doc.Environment.InstanceID},
		{"State", doc.State},
		{"Shutdown timeout", doc.Options.ShutdownTimeout},
		{"Validate on build", doc.Options.ValidateOnBuild},
		{"Capture startup errors", doc.Options.CaptureStartupErrors},
		{"Initialize modules", doc.Options.InitializeModules},
		{"Start background tasks", doc.Options.StartBackgroundTasks},
		{"Startup filters", doc.StartupFilters},
	})
	t.Render()

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	t = f.createTable(w, "Modules")
	t.AppendHeader(f.headers("#", "NAME", "VERSION"))
	for i, m := range doc.Modules {
		t.AppendRow(table.Row{i + 1, m.Name, m.Version})
	}
	if len(doc.Modules) == 0 {
		t.AppendRow(table.Row{"-", "(none)", ""})
	}
	t.Render()

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	t = f.createTable(w, "Participants")
	t.AppendHeader(f.headers("KIND", "NAMES"))
	t.AppendRows([]table.Row{
		{"Lifecycle handlers", joinOrNone(doc.LifecycleHandlers)},
		{"Background tasks", joinOrNone(doc.BackgroundTasks)},
		{"Services", joinOrNone(doc.Services)},
		{"Features", joinOrNone(doc.Features)},
	})
	t.Render()
	return nil
}

func (f *TableFormatter) createTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	return t
}

func (f *TableFormatter) headers(names ...string) table.Row {
	row := make(table.Row, len(names))
	for i, name := range names {
		if f.options.Color {
			row[i] = text.FgHiCyan.Sprint(name)
		} else {
			row[i] = name
		}
	}
	return row
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, "\n")
}
