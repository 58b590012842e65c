package domain

import (
	"reflect"
	"testing"
)

func TestNewNode(t *testing.T) {
	node := NewNode("7", "CallExpression")

	if node.ID != "7" {
		t.Errorf("expected ID '7', got %s", node.ID)
	}
	if node.Properties == nil {
		t.Error("expected Properties to be initialized")
	}
	if node.Tags.Computed {
		t.Error("expected a fresh node to be untagged")
	}
}

func TestNodeWithProperty(t *testing.T) {
	original := NewNode("1", "Literal").WithProperty("value", 1)
	updated := original.WithProperty("value", 2)

	if v, _ := original.GetProperty("value"); v != 1 {
		t.Errorf("expected original to keep value 1, got %v", v)
	}
	if v, _ := updated.GetProperty("value"); v != 2 {
		t.Errorf("expected updated value 2, got %v", v)
	}
}

func TestNodeGetPropertyString(t *testing.T) {
	node := NewNode("1", "Literal").WithProperty("code", "let x = 1").WithProperty("line", 3)

	if got := node.GetPropertyString("code"); got != "let x = 1" {
		t.Errorf("expected code string, got %q", got)
	}
	if got := node.GetPropertyString("line"); got != "" {
		t.Errorf("expected non-string to render empty, got %q", got)
	}
	if got := node.GetPropertyString("missing"); got != "" {
		t.Errorf("expected missing key to render empty, got %q", got)
	}

	var bare Node
	if _, ok := bare.GetProperty("code"); ok {
		t.Error("expected nil properties to report missing")
	}
}

func TestPropertyText(t *testing.T) {
	got := PropertyText(map[string]any{
		"b":    2,
		"a":    "x",
		"list": []any{"p", 1},
		"nil":  nil,
	})
	want := []string{"x", "2", "p 1", ""}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("PropertyText() = %v, want %v", got, want)
	}
	if PropertyText(nil) != nil {
		t.Error("expected nil for empty properties")
	}
}

func TestNodeColor(t *testing.T) {
	if got := NodeColor("Literal"); got != "#ffab40" {
		t.Errorf("expected literal colour, got %s", got)
	}
	if got := NodeColor("Annotation"); got != DefaultNodeColor {
		t.Errorf("expected default colour, got %s", got)
	}
}
