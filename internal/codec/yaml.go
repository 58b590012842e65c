package codec

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"cpgview/internal/domain"
)

// YAMLCodec reads and writes the fragment layout as YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports graph data from YAML. An empty document is an empty
// fragment.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.GraphFragment, error) {
	var wf wireFragment
	if err := yaml.NewDecoder(r).Decode(&wf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: YAML: %v", ErrParse, err)
	}
	return wf.fragment("YAML")
}

// Export writes graph data as YAML
func (c *YAMLCodec) Export(fragment *domain.GraphFragment, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	wf := toWire(fragment)
	if err := encoder.Encode(&wf); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
