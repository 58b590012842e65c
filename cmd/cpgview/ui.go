package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"cpgview/internal/backend"
	"cpgview/internal/domain"
	"cpgview/internal/service"
	"cpgview/internal/session"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

// printAnalysis prints a conversion outcome. Success, an empty graph and a
// failed analysis are told apart by colour and symbol.
func printAnalysis(w io.Writer, result *service.AnalysisResult) {
	conv := result.Convert
	switch conv.Status {
	case backend.AnalysisSuccess:
		fmt.Fprintf(w, "%s %s\n", good.Sprint("✓"), good.Sprint(messageOr(conv.UserMessage, "Analysis complete")))
	case backend.AnalysisEmpty:
		fmt.Fprintf(w, "%s %s\n", warn.Sprint("⚠"), warn.Sprint(messageOr(conv.UserMessage, "Analysis produced an empty graph")))
	default:
		fmt.Fprintf(w, "%s %s\n", bad.Sprint("✗"), bad.Sprint(messageOr(conv.UserMessage, "Analysis failed")))
	}

	if conv.Details != "" {
		subtle.Fprintf(w, "  %s\n", conv.Details)
	}
	if !conv.Succeeded() && strings.TrimSpace(conv.Stderr) != "" {
		subtle.Fprintf(w, "  stderr (exit %d):\n", conv.ReturnCode)
		for _, line := range strings.Split(strings.TrimRight(conv.Stderr, "\n"), "\n") {
			subtle.Fprintf(w, "    %s\n", line)
		}
	}
	if conv.Neo4jBrowser != "" {
		subtle.Fprintf(w, "  browser: %s\n", conv.Neo4jBrowser)
	}

	switch {
	case result.NoData:
		printNoData(w)
	case result.View != nil:
		printView(w, *result.View)
	}
}

func printNoData(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", warn.Sprint("⚠"), warn.Sprint("No data in the graph database. Analyze some code first."))
}

// printView prints the displayed nodes as a table
func printView(w io.Writer, result session.Result) {
	fmt.Fprintf(w, "%s %d nodes, %d edges shown (%d nodes, %d edges loaded)\n",
		brand.Sprint("view"), len(result.View.Nodes), len(result.View.Edges),
		result.StoreNodes, result.StoreEdges)

	if result.Empty {
		subtle.Fprintln(w, "  query matched nothing")
		return
	}

	rows := make([][]string, 0, len(result.View.Nodes))
	for _, id := range result.View.NodeIDs() {
		n := result.View.Nodes[id]
		rows = append(rows, []string{n.ID, n.Label, strings.Join(n.Tags.Names(), ","), nodeName(n)})
	}
	printTable(w, []string{"ID", "LABEL", "TAGS", "NAME"}, rows)
}

// printTable prints an aligned table
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var header, sep strings.Builder
	header.WriteString("  ")
	sep.WriteString("  ")
	for i, h := range headers {
		fmt.Fprintf(&header, "%-*s  ", widths[i], h)
		sep.WriteString(strings.Repeat("─", widths[i]) + "  ")
	}
	subtle.Fprintln(w, header.String())
	subtle.Fprintln(w, sep.String())

	for _, row := range rows {
		var line strings.Builder
		line.WriteString("  ")
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(&line, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w, line.String())
	}
}

// nodeName picks the most readable property for a table cell
func nodeName(n domain.Node) string {
	for _, key := range []string{"name", "code", "value"} {
		if v := n.GetPropertyString(key); v != "" {
			if len(v) > 48 {
				return v[:45] + "..."
			}
			return v
		}
	}
	return ""
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
