package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classStream builds a single-module stream declaring classes with bases and
// methods: decls maps class name to bases, methods maps class name to method
// names.
func classStream(module string, order []string, bases map[string][]string, methods map[string][]string) DeclarationStream {
	events := []Event{{Kind: EventModuleStart, Line: 1}}
	line := 2
	for _, cls := range order {
		events = append(events, Event{Kind: EventClassStart, Name: cls, Bases: bases[cls], Line: line})
		line++
		for _, m := range methods[cls] {
			events = append(events,
				Event{Kind: EventFunctionStart, Name: m, Line: line},
				Event{Kind: EventFunctionEnd, Line: line},
			)
			line++
		}
		events = append(events, Event{Kind: EventClassEnd, Line: line})
		line++
	}
	return DeclarationStream{
		FilePath:   module + ".py",
		ModulePath: module,
		Events:     events,
	}
}

func analyzeStream(t *testing.T, stream DeclarationStream) *DocumentationSymbolTable {
	t.Helper()
	table := NewMerger(MergeOptions{}).Merge([]*LocalTable{Ingest(stream)})
	require.NoError(t, NewInheritanceAnalyzer().Analyze(table))
	return table
}

func TestInheritance_LinearChain(t *testing.T) {
	// C -> B -> A: the linearization walks most specific to most general.
	stream := classStream("m", []string{"A", "B", "C"},
		map[string][]string{"B": {"A"}, "C": {"B"}}, nil)

	table := analyzeStream(t, stream)

	chain := table.InheritanceChains["m.C"]
	require.NotNil(t, chain)
	assert.Equal(t, []string{"m.C", "m.B", "m.A"}, chain.LinearizedAncestors)
	assert.Equal(t, []string{"m.B"}, chain.BaseClasses)
}

func TestInheritance_DiamondIsDeterministic(t *testing.T) {
	// D(B, C), B(A), C(A): both orderings of B and C respect ancestry; the
	// tie must break the same way on every run.
	stream := classStream("m", []string{"A", "B", "C", "D"},
		map[string][]string{"B": {"A"}, "C": {"A"}, "D": {"B", "C"}}, nil)

	first := analyzeStream(t, stream).InheritanceChains["m.D"].LinearizedAncestors
	for i := 0; i < 5; i++ {
		again := analyzeStream(t, stream).InheritanceChains["m.D"].LinearizedAncestors
		assert.Equal(t, first, again)
	}

	assert.Equal(t, "m.D", first[0])
	assert.Equal(t, "m.A", first[len(first)-1], "the shared root comes last")
	assert.ElementsMatch(t, []string{"m.B", "m.C"}, first[1:3])
}

func TestInheritance_ChainInvariants(t *testing.T) {
	stream := classStream("m", []string{"Base", "Derived"},
		map[string][]string{"Derived": {"Base", "External"}}, nil)

	table := analyzeStream(t, stream)

	for qname, chain := range table.InheritanceChains {
		assert.Equal(t, qname, chain.LinearizedAncestors[0], "chain starts with the class itself")
		inChain := make(map[string]bool)
		for _, anc := range chain.LinearizedAncestors {
			assert.False(t, inChain[anc], "no duplicates in %s", qname)
			inChain[anc] = true
		}
		for _, base := range chain.BaseClasses {
			assert.True(t, inChain[base], "direct base %s of %s appears in the chain", base, qname)
		}
	}

	// The unresolved external base is a valid terminal ancestor.
	assert.Contains(t, table.InheritanceChains["m.Derived"].LinearizedAncestors, "External")
}

func TestInheritance_CycleStaysTotal(t *testing.T) {
	// A(B), B(A): malformed input must still produce a total, deterministic
	// chain rather than hanging or panicking.
	stream := classStream("m", []string{"A", "B"},
		map[string][]string{"A": {"B"}, "B": {"A"}}, nil)

	table := analyzeStream(t, stream)

	chain := table.InheritanceChains["m.A"]
	require.NotNil(t, chain)
	assert.Equal(t, "m.A", chain.LinearizedAncestors[0])
	assert.Contains(t, chain.LinearizedAncestors, "m.B")
}

func TestInheritance_MixinAndInterfaceClassification(t *testing.T) {
	stream := classStream("m",
		[]string{"LoggerMixin", "Small", "SerializerInterface", "Big", "Widget"},
		map[string][]string{
			"Widget": {"LoggerMixin", "Small", "SerializerInterface", "Big"},
		},
		map[string][]string{
			"Small": {"one", "two"},
			"Big":   {"a", "b", "c", "d", "e"},
		})

	table := analyzeStream(t, stream)

	chain := table.InheritanceChains["m.Widget"]
	require.NotNil(t, chain)
	assert.Contains(t, chain.Mixins, "m.LoggerMixin", "name heuristic")
	assert.Contains(t, chain.Mixins, "m.Small", "small concrete class heuristic")
	assert.NotContains(t, chain.Mixins, "m.Big")
	assert.Contains(t, chain.InterfaceImplementations, "m.SerializerInterface")
	assert.NotContains(t, chain.InterfaceImplementations, "m.Small")
}

func TestInheritance_SwappableClassifiers(t *testing.T) {
	stream := classStream("m", []string{"Anything", "Widget"},
		map[string][]string{"Widget": {"Anything"}}, nil)

	table := NewMerger(MergeOptions{}).Merge([]*LocalTable{Ingest(stream)})

	analyzer := NewInheritanceAnalyzer()
	analyzer.MixinClassifier = func(base BaseInfo) bool { return true }
	analyzer.InterfaceClassifier = func(base BaseInfo) bool { return false }
	require.NoError(t, analyzer.Analyze(table))

	chain := table.InheritanceChains["m.Widget"]
	assert.Equal(t, []string{"m.Anything"}, chain.Mixins)
	assert.Empty(t, chain.InterfaceImplementations)
}

func TestInheritance_OverridesAndAbstractMembers(t *testing.T) {
	events := []Event{
		{Kind: EventModuleStart, Line: 1},
		{Kind: EventClassStart, Name: "Base", Line: 2},
		{Kind: EventFunctionStart, Name: "render", Line: 3, RaisesNotImplemented: true},
		{Kind: EventFunctionEnd, Line: 4},
		{Kind: EventFunctionStart, Name: "close", Line: 5},
		{Kind: EventFunctionEnd, Line: 6},
		{Kind: EventClassEnd, Line: 7},
		{Kind: EventClassStart, Name: "Impl", Bases: []string{"Base"}, Line: 9},
		{Kind: EventFunctionStart, Name: "render", Line: 10},
		{Kind: EventFunctionEnd, Line: 11},
		{Kind: EventFunctionStart, Name: "extra", Line: 12},
		{Kind: EventFunctionEnd, Line: 13},
		{Kind: EventClassEnd, Line: 14},
	}
	stream := DeclarationStream{FilePath: "m.py", ModulePath: "m", Events: events}

	table := analyzeStream(t, stream)

	base := table.InheritanceChains["m.Base"]
	assert.True(t, base.Abstract)
	assert.Equal(t, []string{"render"}, base.AbstractMembers)

	impl := table.InheritanceChains["m.Impl"]
	assert.False(t, impl.Abstract)
	assert.Equal(t, []string{"render"}, impl.Overrides)
	assert.Empty(t, impl.AbstractMembers)
}

func TestInheritance_ClassWithNoBases(t *testing.T) {
	stream := classStream("m", []string{"Plain"}, nil, nil)

	table := analyzeStream(t, stream)

	chain := table.InheritanceChains["m.Plain"]
	require.NotNil(t, chain)
	assert.Equal(t, []string{"m.Plain"}, chain.LinearizedAncestors)
	assert.Empty(t, chain.BaseClasses)
}
