// Package codec reads and writes graph fragments in the supported file formats.
package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cpgview/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned for a format no codec handles
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrParse wraps every decoding failure
	ErrParse = errors.New("failed to parse graph data")
)

// Importer interface for importing graph data from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.GraphFragment, error)
	Format() string
}

// Exporter interface for exporting graph data to various formats
type Exporter interface {
	Export(fragment *domain.GraphFragment, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for a format name ("json", "vis", "yaml" or "yml")
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "":
		return NewJSONCodec(), nil
	case "vis":
		return NewVisJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ForPath picks a codec from a file extension
func ForPath(path string) (Codec, error) {
	return ForFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}
