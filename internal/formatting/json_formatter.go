package formatting

import (
	"encoding/json"
	"io"

	"keel/pkg/host"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct{}

func (f *JSONFormatter) FormatDescription(w io.Writer, d host.Description) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newDocument(d))
}
