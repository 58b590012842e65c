package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"cpgview/internal/backend"
	"cpgview/internal/domain"
	"cpgview/internal/service"
	"cpgview/internal/session"
)

func TestPrintAnalysis(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name   string
		result *service.AnalysisResult
		want   []string
		absent []string
	}{
		{
			name: "success with view",
			result: &service.AnalysisResult{
				Convert: &backend.ConvertResult{Status: backend.AnalysisSuccess, UserMessage: "Graph ready"},
				View: &session.Result{
					View: domain.DatasetOf([]domain.Node{
						domain.NewNode("1", "FunctionDeclaration").WithProperty("name", "main"),
					}, nil),
					StoreNodes: 1,
				},
			},
			want: []string{"✓ Graph ready", "1 nodes, 0 edges shown", "FunctionDeclaration", "main"},
		},
		{
			name: "empty graph",
			result: &service.AnalysisResult{
				Convert: &backend.ConvertResult{Status: backend.AnalysisEmpty},
				NoData:  true,
			},
			want: []string{"⚠ Analysis produced an empty graph", "No data in the graph database"},
		},
		{
			name: "failed analysis shows stderr",
			result: &service.AnalysisResult{
				Convert: &backend.ConvertResult{
					Status:      backend.AnalysisError,
					UserMessage: "Compilation failed",
					Stderr:      "main.c:1: error\n",
					ReturnCode:  2,
				},
			},
			want:   []string{"✗ Compilation failed", "exit 2", "main.c:1: error"},
			absent: []string{"view"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printAnalysis(&buf, tt.result)
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestNodeName(t *testing.T) {
	long := "int very_long_function_name_that_goes_on_and_on(void)"
	assert.Equal(t, "x", nodeName(domain.NewNode("1", "Literal").WithProperty("code", "x")))
	assert.Equal(t, "f", nodeName(domain.NewNode("1", "Call").WithProperty("name", "f").WithProperty("code", "f()")))
	assert.Equal(t, long[:45]+"...", nodeName(domain.NewNode("1", "Call").WithProperty("code", long)))
	assert.Empty(t, nodeName(domain.NewNode("1", "Block")))
}
