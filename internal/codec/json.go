package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"cpgview/internal/domain"
)

// JSONCodec handles JSON import/export.
//
// Parse accepts both the fragment layout written by Export and a raw /cypher
// response (node "title" instead of "properties", "relationships" instead of
// "edges"), so a saved backend response can be imported directly.
type JSONCodec struct {
	// Vis exports the vis-network layout (group, color, title) instead of
	// the plain fragment
	Vis bool
}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// NewVisJSONCodec creates a JSON codec exporting the vis-network layout
func NewVisJSONCodec() *JSONCodec {
	return &JSONCodec{Vis: true}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	if c.Vis {
		return "vis"
	}
	return "json"
}

// Parse imports graph data from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.GraphFragment, error) {
	var wf wireFragment
	if err := json.NewDecoder(r).Decode(&wf); err != nil {
		return nil, fmt.Errorf("%w: JSON: %v", ErrParse, err)
	}
	return wf.fragment("JSON")
}

// Export exports graph data to JSON
func (c *JSONCodec) Export(fragment *domain.GraphFragment, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	var payload any = toWire(fragment)
	if c.Vis {
		payload = domain.DeriveGraph(fragment.Dataset())
	}

	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
