package formatting

import (
	"io"

	"keel/pkg/host"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct{}

func (f *YAMLFormatter) FormatDescription(w io.Writer, d host.Description) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(d)); err != nil {
		return err
	}
	return enc.Close()
}
