package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/xref/internal/symtab"
)

func fixtureTable(t *testing.T) *symtab.DocumentationSymbolTable {
	t.Helper()
	streams := []symtab.DeclarationStream{
		{
			FilePath:   "core/base.py",
			ModulePath: "core.base",
			Events: []symtab.Event{
				{Kind: symtab.EventModuleStart, Line: 1},
				{Kind: symtab.EventClassStart, Name: "Entity", Line: 2},
				{Kind: symtab.EventClassEnd, Line: 5},
			},
		},
		{
			FilePath:   "app/models.py",
			ModulePath: "app.models",
			Events: []symtab.Event{
				{Kind: symtab.EventModuleStart, Line: 1},
				{Kind: symtab.EventImport, Name: "core.base", Line: 2},
				{Kind: symtab.EventClassStart, Name: "User", Bases: []string{"core.base.Entity"}, Line: 4},
				{Kind: symtab.EventClassEnd, Line: 8},
				{Kind: symtab.EventFunctionStart, Name: "a", Line: 10},
				{Kind: symtab.EventCallSite, Name: "b", Line: 11},
				{Kind: symtab.EventFunctionEnd, Line: 12},
				{Kind: symtab.EventFunctionStart, Name: "b", Line: 14},
				{Kind: symtab.EventFunctionEnd, Line: 15},
			},
		},
	}

	engine := symtab.New(symtab.Options{})
	defer engine.Close()
	table, err := engine.Index(context.Background(), streams)
	require.NoError(t, err)
	return table
}

func TestBuildExport_SortedAndComplete(t *testing.T) {
	table := fixtureTable(t)

	out := BuildExport(table)

	assert.Equal(t, []string{"app.models", "core.base"}, out.Modules)
	require.NotEmpty(t, out.Symbols)
	for i := 1; i < len(out.Symbols); i++ {
		assert.Less(t, out.Symbols[i-1].QualifiedName, out.Symbols[i].QualifiedName,
			"symbols sorted by qualified name")
	}

	// Metrics ride along on call-graph participants.
	var found bool
	for _, se := range out.Symbols {
		if se.QualifiedName == "app.models.b" {
			require.NotNil(t, se.Metrics)
			assert.Equal(t, 1, se.Metrics.FanIn)
			found = true
		}
	}
	assert.True(t, found)

	require.Len(t, out.CallGraph, 1)
	assert.Equal(t, "app.models.a", out.CallGraph[0].Caller)
}

func TestWriteJSON_Decodes(t *testing.T) {
	table := fixtureTable(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, table))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "symbols")
	assert.Contains(t, decoded, "stats")
	assert.Contains(t, decoded, "inheritanceChains")
}
