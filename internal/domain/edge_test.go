package domain

import "testing"

func TestRelationKindKnown(t *testing.T) {
	tests := []struct {
		kind  RelationKind
		known bool
	}{
		{RelationDataFlow, true},
		{RelationExecutionOrder, true},
		{RelationSyntaxTree, true},
		{RelationReference, true},
		{RelationDependency, true},
		{RelationUsage, true},
		{RelationScope, true},
		{"ANNOTATE", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.kind.Known(); got != tt.known {
			t.Errorf("RelationKind(%q).Known() = %v, want %v", tt.kind, got, tt.known)
		}
	}
}

func TestRelationKindDescription(t *testing.T) {
	if got := RelationDataFlow.Description(); got != "data-flow" {
		t.Errorf("expected data-flow, got %s", got)
	}
	if got := RelationKind("OPERATOR_ARGUMENTS").Description(); got != "OPERATOR_ARGUMENTS" {
		t.Errorf("expected unknown kinds to describe themselves, got %s", got)
	}
}

func TestEdgeEndpoints(t *testing.T) {
	edge := NewEdge("e", "a", "b", RelationDataFlow)

	t.Run("touches both endpoints", func(t *testing.T) {
		if !edge.Touches("a") || !edge.Touches("b") {
			t.Error("expected edge to touch a and b")
		}
		if edge.Touches("c") {
			t.Error("expected edge not to touch c")
		}
	})

	t.Run("other returns far end", func(t *testing.T) {
		if edge.Other("a") != "b" || edge.Other("b") != "a" {
			t.Error("expected Other to return the opposite endpoint")
		}
	})

	t.Run("self loop", func(t *testing.T) {
		loop := NewEdge("l", "a", "a", RelationExecutionOrder)
		if loop.Other("a") != "a" {
			t.Error("expected self loop to point back at itself")
		}
	})
}
