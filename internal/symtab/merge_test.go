package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mergeStreams ingests each stream and merges the results with the given
// strategy.
func mergeStreams(strategy CollisionStrategy, streams ...DeclarationStream) *DocumentationSymbolTable {
	locals := make([]*LocalTable, len(streams))
	for i, s := range streams {
		locals[i] = Ingest(s)
	}
	return NewMerger(MergeOptions{Collision: strategy}).Merge(locals)
}

func TestMerge_LastWriteWins(t *testing.T) {
	a := DeclarationStream{
		FilePath:   "pkg/a.py",
		ModulePath: "pkg.shared",
		Events: []Event{
			{Kind: EventModuleStart, Line: 1},
			{Kind: EventFunctionStart, Name: "handler", Line: 2, Params: []Param{{Name: "x"}}},
			{Kind: EventFunctionEnd, Line: 4},
		},
	}
	b := DeclarationStream{
		FilePath:   "pkg/b.py",
		ModulePath: "pkg.shared",
		Events: []Event{
			{Kind: EventModuleStart, Line: 1},
			{Kind: EventFunctionStart, Name: "handler", Line: 7, Params: []Param{{Name: "x"}, {Name: "y"}}},
			{Kind: EventFunctionEnd, Line: 9},
		},
	}

	table := mergeStreams(CollisionLastWriteWins, a, b)

	sym := table.Symbols["pkg.shared.handler"]
	require.NotNil(t, sym)
	assert.Equal(t, "pkg/b.py", sym.Location.File, "later table wins")
	assert.Equal(t, "(x, y)", sym.Signature)
	assert.Nil(t, table.Redeclarations)
}

func TestMerge_KeepAllRetainsShadowed(t *testing.T) {
	a := DeclarationStream{
		FilePath:   "pkg/a.py",
		ModulePath: "pkg.shared",
		Events: []Event{
			{Kind: EventModuleStart, Line: 1},
			{Kind: EventFunctionStart, Name: "handler", Line: 2},
			{Kind: EventFunctionEnd, Line: 4},
		},
	}
	b := DeclarationStream{
		FilePath:   "pkg/b.py",
		ModulePath: "pkg.shared",
		Events: []Event{
			{Kind: EventModuleStart, Line: 1},
			{Kind: EventFunctionStart, Name: "handler", Line: 7},
			{Kind: EventFunctionEnd, Line: 9},
		},
	}

	table := mergeStreams(CollisionKeepAll, a, b)

	// Winner is still the last write; the shadowed declaration is retained.
	assert.Equal(t, "pkg/b.py", table.Symbols["pkg.shared.handler"].Location.File)
	require.Len(t, table.Redeclarations["pkg.shared.handler"], 1)
	assert.Equal(t, "pkg/a.py", table.Redeclarations["pkg.shared.handler"][0].Location.File)
	// The shared module symbol collided too.
	assert.Len(t, table.Redeclarations["pkg.shared"], 1)
	assert.Equal(t, CollisionKeepAll, table.Metadata.Collision)
}

func TestMerge_ResolvesTargetsExactAndModuleQualified(t *testing.T) {
	lib := DeclarationStream{
		FilePath:   "lib/util.py",
		ModulePath: "lib.util",
		Events: []Event{
			{Kind: EventModuleStart, Line: 1},
			{Kind: EventFunctionStart, Name: "fmt", Line: 2},
			{Kind: EventFunctionEnd, Line: 4},
		},
	}
	app := DeclarationStream{
		FilePath:   "app/main.py",
		ModulePath: "app.main",
		Events: []Event{
			{Kind: EventModuleStart, Line: 1},
			{Kind: EventFunctionStart, Name: "local", Line: 2},
			{Kind: EventFunctionEnd, Line: 3},
			{Kind: EventFunctionStart, Name: "run", Line: 5},
			// Exact qualified target.
			{Kind: EventCallSite, Name: "lib.util.fmt", Line: 6},
			// Bare name resolving through the caller's own module.
			{Kind: EventCallSite, Name: "local", Line: 7},
			// Unresolvable external target.
			{Kind: EventCallSite, Name: "os.path.join", Line: 8},
			{Kind: EventFunctionEnd, Line: 9},
		},
	}

	table := mergeStreams("", lib, app)

	byTarget := make(map[string]CrossReference)
	for _, ref := range table.CrossReferences {
		if ref.Type == RelCalls {
			byTarget[ref.Target] = ref
		}
	}

	require.Contains(t, byTarget, "lib.util.fmt")
	assert.True(t, byTarget["lib.util.fmt"].Internal)

	require.Contains(t, byTarget, "app.main.local")
	assert.True(t, byTarget["app.main.local"].Internal, "bare name qualified against the source module")

	require.Contains(t, byTarget, "os.path.join")
	assert.False(t, byTarget["os.path.join"].Internal, "external names are a valid terminal state")
}

func TestMerge_DropsRefsWithShadowedSource(t *testing.T) {
	// A reference whose source symbol is absent from the merged table must
	// be dropped and counted, never emitted as an orphan edge.
	lt := &LocalTable{
		FilePath:   "pkg/x.py",
		ModulePath: "pkg.x",
		Symbols:    map[string]*Symbol{},
		Refs: []CrossReference{
			{Source: "pkg.x.ghost", Target: "pkg.x.other", Type: RelCalls, FilePath: "pkg/x.py", Line: 3},
		},
	}

	table := NewMerger(MergeOptions{}).Merge([]*LocalTable{lt})

	assert.Empty(t, table.CrossReferences)
	assert.Equal(t, 1, table.Metadata.DroppedRefs)
}

func TestMerge_ParseErrorsRecordedNotFatal(t *testing.T) {
	good := DeclarationStream{
		FilePath:   "pkg/good.py",
		ModulePath: "pkg.good",
		Events:     []Event{{Kind: EventModuleStart, Line: 1}},
	}
	bad := DeclarationStream{
		FilePath:   "pkg/bad.py",
		ModulePath: "pkg.bad",
		ParseError: "unexpected indent",
	}

	table := mergeStreams("", good, bad)

	assert.Contains(t, table.Symbols, "pkg.good")
	assert.NotContains(t, table.Symbols, "pkg.bad")
	require.Len(t, table.Metadata.ParseErrors, 1)
	assert.Equal(t, "pkg/bad.py", table.Metadata.ParseErrors[0].FilePath)
	assert.Equal(t, []string{"pkg.good"}, table.Modules)
}

func TestMerge_ImportGraph(t *testing.T) {
	a := DeclarationStream{
		FilePath:   "app/a.py",
		ModulePath: "app.a",
		Events: []Event{
			{Kind: EventModuleStart, Line: 1},
			{Kind: EventImport, Name: "app.b", Line: 2},
			{Kind: EventImport, Name: "app.b", Line: 3}, // duplicate collapses
			{Kind: EventImport, Name: "json", Line: 4},  // external kept
		},
	}
	b := DeclarationStream{
		FilePath:   "app/b.py",
		ModulePath: "app.b",
		Events:     []Event{{Kind: EventModuleStart, Line: 1}},
	}

	table := mergeStreams("", a, b)

	assert.Equal(t, []string{"app.b", "json"}, table.ImportGraph["app.a"])
	assert.Empty(t, table.ImportGraph["app.b"])
}

func TestMerge_FileDigestsRecorded(t *testing.T) {
	stream := DeclarationStream{
		FilePath:   "pkg/a.py",
		ModulePath: "pkg.a",
		Digest:     0xdeadbeef,
		Events:     []Event{{Kind: EventModuleStart, Line: 1}},
	}

	table := mergeStreams("", stream)

	assert.Equal(t, uint64(0xdeadbeef), table.Metadata.FileDigests["pkg/a.py"])
	assert.Equal(t, 1, table.Metadata.FileCount)
}
