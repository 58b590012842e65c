package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpgview/internal/domain"
	"cpgview/internal/expand"
	"cpgview/internal/filter"
)

func abcDataset() domain.GraphDataset {
	return domain.DatasetOf(
		[]domain.Node{
			domain.NewNode("A", "FunctionDeclaration"),
			domain.NewNode("B", "CallExpression"),
			domain.NewNode("C", "Literal"),
		},
		[]domain.Edge{
			domain.NewEdge("ab", "A", "B", domain.RelationDataFlow),
			domain.NewEdge("bc", "B", "C", domain.RelationSyntaxTree),
		},
	)
}

func loaded(t *testing.T) *GraphSession {
	t.Helper()
	s := New(nil)
	_, err := s.Apply(Load{Query: "MATCH (n) RETURN n", Result: abcDataset()})
	require.NoError(t, err)
	return s
}

func TestApply_Load(t *testing.T) {
	s := New(nil)

	result, err := s.Apply(Load{Result: abcDataset()})
	require.NoError(t, err)

	assert.Equal(t, "load", result.Command)
	require.NotNil(t, result.Merge)
	assert.Equal(t, 3, result.Merge.AddedNodes)
	assert.Equal(t, []string{"A", "B", "C"}, result.View.NodeIDs())
	assert.Equal(t, 3, result.StoreNodes)
	assert.False(t, result.Empty)
	assert.False(t, result.Diverged)
}

func TestApply_LoadUsesFilters(t *testing.T) {
	s := New(nil)
	_, err := s.Apply(Filter{State: filter.Default().WithCategories(domain.CategoryFunction)})
	require.NoError(t, err)

	result, err := s.Apply(Load{Result: abcDataset()})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, result.View.NodeIDs())
	assert.Empty(t, result.View.Edges)
	assert.Equal(t, 3, result.StoreNodes)
}

func TestApply_LoadShowsOnlyQueryResult(t *testing.T) {
	s := loaded(t)

	result, err := s.Apply(Load{Result: domain.DatasetOf([]domain.Node{domain.NewNode("C", "Literal")}, nil)})
	require.NoError(t, err)

	assert.Equal(t, []string{"C"}, result.View.NodeIDs())
	assert.Equal(t, 0, result.Merge.AddedNodes)
}

func TestApply_LoadEmpty(t *testing.T) {
	result, err := New(nil).Apply(Load{Result: domain.NewGraphDataset()})
	require.NoError(t, err)
	assert.True(t, result.Empty)
	assert.True(t, result.View.IsEmpty())
}

func TestApply_RemoveThenFilterRestores(t *testing.T) {
	s := loaded(t)

	result, err := s.Apply(Remove{NodeID: "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, result.View.NodeIDs())
	assert.Empty(t, result.View.Edges)
	assert.True(t, result.Diverged)
	assert.Equal(t, 3, result.StoreNodes, "remove hides, never deletes")

	result, err = s.Apply(Filter{State: filter.Default()})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, result.View.NodeIDs())
	assert.False(t, result.Diverged)
}

func TestApply_ExpandComponent(t *testing.T) {
	s := loaded(t)
	_, err := s.Apply(Remove{NodeID: "B"})
	require.NoError(t, err)

	result, err := s.Apply(ExpandComponent{NodeID: "A"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, result.View.NodeIDs())
	assert.Equal(t, []string{"ab", "bc"}, result.View.EdgeIDs())
	assert.True(t, result.Diverged)
}

func TestApply_Focus(t *testing.T) {
	s := loaded(t)

	result, err := s.Apply(Focus{NodeID: "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, result.View.NodeIDs())

	result, err = s.Apply(Focus{NodeID: "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, result.View.NodeIDs())
}

func TestApply_FilterSearch(t *testing.T) {
	s := loaded(t)

	result, err := s.Apply(Filter{State: filter.Default().WithSearch("call")})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, result.View.NodeIDs())
	assert.Equal(t, "call", s.Filters().SearchTerm)
}

func TestApply_FilterCopiesState(t *testing.T) {
	s := New(nil)
	state := filter.Default()
	_, err := s.Apply(Filter{State: state})
	require.NoError(t, err)

	state.Enabled[domain.CategoryFunction] = false
	assert.True(t, s.Filters().Enabled[domain.CategoryFunction])
}

func TestApply_Reset(t *testing.T) {
	s := loaded(t)
	_, err := s.Apply(Filter{State: filter.Default().WithSearch("x")})
	require.NoError(t, err)
	gen := s.Generation()

	result, err := s.Apply(Reset{})
	require.NoError(t, err)

	assert.Equal(t, gen+1, result.Generation)
	assert.Zero(t, result.StoreNodes)
	assert.True(t, result.View.IsEmpty())
	assert.True(t, s.Filters().IsDefault())
}

func TestApply_Restore(t *testing.T) {
	s := loaded(t)
	_, err := s.Apply(Remove{NodeID: "A"})
	require.NoError(t, err)
	gen := s.Generation()

	saved := domain.DatasetOf([]domain.Node{domain.NewNode("X", "Block")}, nil)
	result, err := s.Apply(Restore{Dataset: saved})
	require.NoError(t, err)

	assert.Equal(t, []string{"X"}, result.View.NodeIDs())
	assert.Equal(t, 1, result.StoreNodes)
	assert.Equal(t, gen+1, result.Generation)
	assert.False(t, result.Diverged)
}

func TestApply_ExpandIsNotSynchronous(t *testing.T) {
	_, err := New(nil).Apply(Expand{NodeID: "A"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestCompleteExpand(t *testing.T) {
	incoming := domain.DatasetOf(
		[]domain.Node{domain.NewNode("C", "Literal"), domain.NewNode("D", "VariableDeclaration")},
		[]domain.Edge{domain.NewEdge("cd", "C", "D", domain.RelationUsage)},
	)

	t.Run("unions into current view", func(t *testing.T) {
		s := loaded(t)
		_, err := s.Apply(Remove{NodeID: "A"})
		require.NoError(t, err)

		ticket := s.BeginExpand("C")
		result, err := s.CompleteExpand(ticket, incoming)
		require.NoError(t, err)

		assert.Equal(t, []string{"B", "C", "D"}, result.View.NodeIDs())
		assert.Equal(t, []string{"bc", "cd"}, result.View.EdgeIDs())
		require.NotNil(t, result.Expansion)
		assert.Equal(t, expand.KindExpanded, result.Expansion.Kind)
		assert.Equal(t, 1, result.Expansion.AddedNodes)
		assert.True(t, result.Diverged)
	})

	t.Run("stale generation is discarded", func(t *testing.T) {
		s := loaded(t)
		ticket := s.BeginExpand("C")

		_, err := s.Apply(Reset{})
		require.NoError(t, err)

		_, err = s.CompleteExpand(ticket, incoming)
		assert.ErrorIs(t, err, ErrStaleExpansion)
		assert.Zero(t, s.Store().Len())
		assert.True(t, s.Displayed().IsEmpty())
	})

	t.Run("restore also invalidates tickets", func(t *testing.T) {
		s := loaded(t)
		ticket := s.BeginExpand("C")

		_, err := s.Apply(Restore{Dataset: abcDataset()})
		require.NoError(t, err)

		_, err = s.CompleteExpand(ticket, incoming)
		assert.ErrorIs(t, err, ErrStaleExpansion)
		assert.False(t, s.Store().Snapshot().HasNode("D"))
	})
}

func TestInspect(t *testing.T) {
	s := loaded(t)
	_, err := s.Apply(Remove{NodeID: "A"})
	require.NoError(t, err)

	detail, ok := s.Inspect("B")
	require.True(t, ok)
	assert.True(t, detail.Displayed)
	assert.Equal(t, 1, detail.Hidden.Count)
	assert.Equal(t, []string{"A"}, detail.Hidden.Nodes)

	detail, ok = s.Inspect("A")
	require.True(t, ok)
	assert.False(t, detail.Displayed)

	_, ok = s.Inspect("missing")
	assert.False(t, ok)
}
