package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callTable builds a merged table from one module declaring the named
// functions, with the given raw call events appended at module level inside
// each caller.
func callTable(t *testing.T, funcs []string, calls []Event) *DocumentationSymbolTable {
	t.Helper()
	events := []Event{{Kind: EventModuleStart, Line: 1}}
	line := 2
	for _, f := range funcs {
		events = append(events,
			Event{Kind: EventFunctionStart, Name: f, Line: line},
			Event{Kind: EventFunctionEnd, Line: line + 1},
		)
		line += 2
	}
	events = append(events, calls...)
	stream := DeclarationStream{FilePath: "m.py", ModulePath: "m", Events: events}
	return NewMerger(MergeOptions{}).Merge([]*LocalTable{Ingest(stream)})
}

// callsIn wraps call events into a function body so the call attributes to
// that caller.
func callsIn(caller string, line int, targets ...string) []Event {
	events := []Event{{Kind: EventFunctionStart, Name: caller, Line: line}}
	for i, tgt := range targets {
		events = append(events, Event{Kind: EventCallSite, Name: tgt, Line: line + 1 + i})
	}
	events = append(events, Event{Kind: EventFunctionEnd, Line: line + len(targets) + 1})
	return events
}

func TestCallGraph_AdjacencyDedupsRepeatedCalls(t *testing.T) {
	var calls []Event
	calls = append(calls, callsIn("outer", 10, "helper", "helper", "helper")...)
	table := callTable(t, []string{"helper"}, calls)

	require.NoError(t, NewCallGraphAnalyzer().Analyze(table))

	assert.Equal(t, []string{"m.helper"}, table.CallGraph["m.outer"],
		"repeated calls collapse into one edge")
}

func TestCallGraph_ExternalCallsExcluded(t *testing.T) {
	var calls []Event
	calls = append(calls, callsIn("outer", 10, "json.dumps", "helper")...)
	table := callTable(t, []string{"helper"}, calls)

	require.NoError(t, NewCallGraphAnalyzer().Analyze(table))

	assert.Equal(t, []string{"m.helper"}, table.CallGraph["m.outer"],
		"only internal edges enter the call graph")
}

func TestCallGraph_FanInFanOut(t *testing.T) {
	var calls []Event
	calls = append(calls, callsIn("a", 10, "hub")...)
	calls = append(calls, callsIn("b", 20, "hub")...)
	calls = append(calls, callsIn("hub", 30, "sink")...)
	table := callTable(t, []string{"sink"}, calls)

	require.NoError(t, NewCallGraphAnalyzer().Analyze(table))

	hub := table.Metrics["m.hub"]
	assert.Equal(t, 2, hub.FanIn)
	assert.Equal(t, 1, hub.FanOut)

	sink := table.Metrics["m.sink"]
	assert.Equal(t, 1, sink.FanIn)
	assert.Equal(t, 0, sink.FanOut)
}

func TestCallGraph_BetweennessFavorsBridge(t *testing.T) {
	// a -> bridge -> z and b -> bridge -> z: bridge sits on every shortest
	// path between the periphery and z.
	var calls []Event
	calls = append(calls, callsIn("a", 10, "bridge")...)
	calls = append(calls, callsIn("b", 20, "bridge")...)
	calls = append(calls, callsIn("bridge", 30, "z")...)
	table := callTable(t, []string{"z"}, calls)

	require.NoError(t, NewCallGraphAnalyzer().Analyze(table))

	assert.Greater(t, table.Metrics["m.bridge"].Betweenness, 0.0)
	assert.Equal(t, 0.0, table.Metrics["m.a"].Betweenness)
	assert.Equal(t, 0.0, table.Metrics["m.z"].Betweenness)
}

func TestCallGraph_PatternsRequireTwoOccurrences(t *testing.T) {
	var calls []Event
	calls = append(calls, callsIn("a", 10, "popular")...)
	calls = append(calls, callsIn("b", 20, "popular")...)
	calls = append(calls, callsIn("c", 30, "lonely")...)
	table := callTable(t, []string{"popular", "lonely"}, calls)

	require.NoError(t, NewCallGraphAnalyzer().Analyze(table))

	require.Len(t, table.UsagePatterns, 1, "single occurrences are not patterns")
	p := table.UsagePatterns[0]
	assert.Equal(t, "m.popular", p.SymbolName)
	assert.Equal(t, "function_call", p.UsageKind)
	assert.Equal(t, 2, p.Frequency)
	assert.InDelta(t, 0.2, p.Confidence, 1e-9)
	assert.Len(t, p.SampleLocations, 2)
}

func TestCallGraph_PatternsSplitByContext(t *testing.T) {
	events := []Event{{Kind: EventModuleStart, Line: 1}}
	events = append(events,
		Event{Kind: EventFunctionStart, Name: "target", Line: 2},
		Event{Kind: EventFunctionEnd, Line: 3},
		Event{Kind: EventFunctionStart, Name: "caller", Line: 5},
		Event{Kind: EventCallSite, Name: "target", Line: 6, Context: "function_call"},
		Event{Kind: EventCallSite, Name: "target", Line: 7, Context: "function_call"},
		Event{Kind: EventCallSite, Name: "target", Line: 8, Context: "method_call"},
		Event{Kind: EventCallSite, Name: "target", Line: 9, Context: "method_call"},
		Event{Kind: EventFunctionEnd, Line: 10},
	)
	stream := DeclarationStream{FilePath: "m.py", ModulePath: "m", Events: events}
	table := NewMerger(MergeOptions{}).Merge([]*LocalTable{Ingest(stream)})

	require.NoError(t, NewCallGraphAnalyzer().Analyze(table))

	require.Len(t, table.UsagePatterns, 2, "contexts group separately")
	kinds := []string{table.UsagePatterns[0].UsageKind, table.UsagePatterns[1].UsageKind}
	assert.ElementsMatch(t, []string{"function_call", "method_call"}, kinds)
}

func TestCallGraph_SampleLimitAndConfidenceCap(t *testing.T) {
	var calls []Event
	line := 10
	for i := 0; i < 12; i++ {
		caller := string(rune('a' + i))
		calls = append(calls, callsIn(caller, line, "target")...)
		line += 10
	}
	table := callTable(t, []string{"target"}, calls)

	analyzer := NewCallGraphAnalyzer()
	analyzer.SampleLimit = 3
	require.NoError(t, analyzer.Analyze(table))

	require.Len(t, table.UsagePatterns, 1)
	p := table.UsagePatterns[0]
	assert.Equal(t, 12, p.Frequency)
	assert.Len(t, p.SampleLocations, 3, "samples bounded by the limit")
	assert.Equal(t, 1.0, p.Confidence, "confidence caps at 1.0")
}

func TestCallGraph_PatternCarriesCalleeSignature(t *testing.T) {
	events := []Event{
		{Kind: EventModuleStart, Line: 1},
		{Kind: EventFunctionStart, Name: "target", Line: 2, Params: []Param{{Name: "x", Annotation: "int"}}},
		{Kind: EventFunctionEnd, Line: 3},
	}
	events = append(events, callsIn("a", 10, "target")...)
	events = append(events, callsIn("b", 20, "target")...)
	stream := DeclarationStream{FilePath: "m.py", ModulePath: "m", Events: events}
	table := NewMerger(MergeOptions{}).Merge([]*LocalTable{Ingest(stream)})

	require.NoError(t, NewCallGraphAnalyzer().Analyze(table))

	require.Len(t, table.UsagePatterns, 1)
	assert.Equal(t, "(x: int)", table.UsagePatterns[0].ParameterShape)
}
