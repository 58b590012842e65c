package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpgview/internal/domain"
)

func sampleFragment() *domain.GraphFragment {
	fragment := domain.NewGraphFragment()
	fragment.AddNode(domain.NewNode("1", "FunctionDeclaration").WithProperty("name", "main"))
	fragment.AddNode(domain.NewNode("2", "Literal").WithProperty("value", "42"))
	fragment.AddEdge(domain.NewEdge("10", "1", "2", domain.RelationDataFlow))
	return fragment
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", "json"},
		{"", "json"},
		{" JSON ", "json"},
		{"vis", "vis"},
		{"yaml", "yaml"},
		{"yml", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c, err := ForFormat(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Format())
		})
	}

	_, err := ForFormat("ansible")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestForPath(t *testing.T) {
	c, err := ForPath("/tmp/graph.yml")
	require.NoError(t, err)
	assert.Equal(t, "yaml", c.Format())

	c, err = ForPath("export.json")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Format())

	_, err = ForPath("graph.csv")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			c, err := ForFormat(format)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, c.Export(sampleFragment(), &buf))

			parsed, err := c.Parse(&buf)
			require.NoError(t, err)

			ds := parsed.Dataset()
			assert.Equal(t, []string{"1", "2"}, ds.NodeIDs())
			assert.Equal(t, "main", ds.Nodes["1"].GetPropertyString("name"))
			assert.Equal(t, "Literal", ds.Nodes["2"].Label)
			require.True(t, ds.HasEdge("10"))
			assert.Equal(t, domain.RelationDataFlow, ds.Edges["10"].Label)
			assert.Equal(t, "1", ds.Edges["10"].From)
		})
	}
}

func TestJSONCodec_ParseBackendResponse(t *testing.T) {
	body := `{
		"nodes": [
			{"id": "1", "label": "CallExpression", "title": {"code": "strcpy(buf, src)"}},
			{"id": "2", "label": "Reference", "title": {"name": "buf"}}
		],
		"relationships": [
			{"from": "1", "to": "2", "label": "USAGE"}
		]
	}`

	fragment, err := NewJSONCodec().Parse(strings.NewReader(body))
	require.NoError(t, err)

	ds := fragment.Dataset()
	assert.Equal(t, "strcpy(buf, src)", ds.Nodes["1"].GetPropertyString("code"))
	assert.Equal(t, []string{"1-USAGE-2"}, ds.EdgeIDs(), "missing edge ids are derived")
}

func TestYAMLCodec_DerivesEdgeID(t *testing.T) {
	body := `
nodes:
  - id: a
    label: Block
  - id: b
    label: Literal
edges:
  - from: a
    to: b
    label: AST
`
	fragment, err := NewYAMLCodec().Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, fragment.Edges, 1)
	assert.Equal(t, "a-AST-b", fragment.Edges[0].ID)
	assert.NotNil(t, fragment.Nodes[0].Properties)
}

func TestJSONCodec_VisExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewVisJSONCodec().Export(sampleFragment(), &buf))

	out := buf.String()
	assert.Contains(t, out, `"group": "FunctionDeclaration"`)
	assert.Contains(t, out, `"title"`)
	assert.Contains(t, out, `"color"`)
}

func TestParse_Malformed(t *testing.T) {
	_, err := NewJSONCodec().Parse(strings.NewReader("{not json"))
	assert.ErrorIs(t, err, ErrParse)

	_, err = NewYAMLCodec().Parse(strings.NewReader("nodes: [unterminated"))
	assert.ErrorIs(t, err, ErrParse)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
		body  string
	}{
		{"json node without id", NewJSONCodec(), `{"nodes":[{"label":"Block"}]}`},
		{"json edge without endpoint", NewJSONCodec(), `{"nodes":[],"edges":[{"from":"1","label":"AST"}]}`},
		{"yaml edge without endpoint", NewYAMLCodec(), "relationships:\n  - to: b\n    label: EOG\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.Parse(strings.NewReader(tt.body))
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestYAMLCodec_BackendLayout(t *testing.T) {
	body := `
nodes:
  - id: "7"
    label: VariableDeclaration
    title:
      name: ptr
relationships:
  - from: "7"
    to: "7"
    label: REFERS_TO
`
	fragment, err := NewYAMLCodec().Parse(strings.NewReader(body))
	require.NoError(t, err)

	ds := fragment.Dataset()
	assert.Equal(t, "ptr", ds.Nodes["7"].GetPropertyString("name"))
	assert.Equal(t, []string{"7-REFERS_TO-7"}, ds.EdgeIDs())
}

func TestYAMLCodec_EmptyDocument(t *testing.T) {
	fragment, err := NewYAMLCodec().Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fragment.Nodes)
	assert.Empty(t, fragment.Edges)
}
