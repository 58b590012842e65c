package domain

import (
	"reflect"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"function", CategoryFunction, true},
		{" Unsafe ", CategoryUnsafe, true},
		{"OTHER", CategoryOther, true},
		{"bogus", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCategory(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCategory(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTaggerLabels(t *testing.T) {
	tagger := DefaultTagger()

	tests := []struct {
		label string
		want  []string
	}{
		{"FunctionDeclaration", []string{"function"}},
		{"MethodDeclaration", []string{"function"}},
		{"CallExpression", []string{"function"}},
		{"VariableDeclaration", []string{"variable"}},
		{"ValueDeclaration", []string{"variable"}},
		{"BinaryOperator", []string{"operator"}},
		{"Literal", []string{"literal"}},
		{"Block", []string{"other"}},
		{"", []string{"other"}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			tags := tagger.Tag(NewNode("1", tt.label))
			if got := tags.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tag(%q).Names() = %v, want %v", tt.label, got, tt.want)
			}
			if !tags.Computed {
				t.Error("expected tags to be marked computed")
			}
		})
	}
}

func TestTaggerUnsafe(t *testing.T) {
	tagger := DefaultTagger()

	t.Run("marker in property value", func(t *testing.T) {
		node := NewNode("1", "VariableDeclaration").WithProperty("code", "let p = data as *mut i32;")
		tags := tagger.Tag(node)
		if !tags.Unsafe {
			t.Error("expected raw pointer code to be unsafe")
		}
		if tags.Has(CategoryOther) {
			t.Error("expected unsafe node not to be other")
		}
	})

	t.Run("explicit flag wins over markers", func(t *testing.T) {
		node := NewNode("1", "Block").
			WithProperty("code", "unsafe { *p += 1 }").
			WithProperty("isUnsafe", false)
		if tagger.Tag(node).Unsafe {
			t.Error("expected explicit false flag to win")
		}
	})

	t.Run("explicit true flag", func(t *testing.T) {
		node := NewNode("1", "Block").WithProperty("unsafe", true)
		if !tagger.Tag(node).Unsafe {
			t.Error("expected explicit true flag to mark unsafe")
		}
	})

	t.Run("unsafe only node is not other", func(t *testing.T) {
		node := NewNode("1", "Block").WithProperty("code", "UnsafeCell::new(0)")
		tags := tagger.Tag(node)
		if !reflect.DeepEqual(tags.Names(), []string{"unsafe"}) {
			t.Errorf("expected only unsafe, got %v", tags.Names())
		}
	})

	t.Run("custom markers", func(t *testing.T) {
		custom := NewTagger([]string{"transmute"})
		node := NewNode("1", "CallExpression").WithProperty("code", "std::mem::transmute(x)")
		if !custom.Tag(node).Unsafe {
			t.Error("expected custom marker to match")
		}
		if custom.Tag(NewNode("2", "Block").WithProperty("code", "*mut u8")).Unsafe {
			t.Error("expected default markers to be replaced")
		}
	})
}

func TestNodeTagsContains(t *testing.T) {
	node := NewNode("ID-42", "CallExpression").WithProperty("code", "Arc::into_raw(data)")
	tags := DefaultTagger().Tag(node)

	for _, term := range []string{"callexpr", "id-42", "arc::into", "data)"} {
		if !tags.Contains(term) {
			t.Errorf("expected haystack to contain %q", term)
		}
	}
	if tags.Contains("expressionid") {
		t.Error("expected fields not to run together")
	}
}
