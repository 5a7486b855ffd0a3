package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dusk-indust/xref/internal/symtab"
)

// TableExport is the top-level JSON export structure. Maps from the in-memory
// table are flattened into sorted slices so the output is byte-stable across
// runs over the same input.
type TableExport struct {
	ExportedAt string                    `json:"exportedAt"`
	Stats      symtab.TableStats         `json:"stats"`
	Modules    []string                  `json:"modules"`
	Symbols    []SymbolExport            `json:"symbols"`
	References []symtab.CrossReference   `json:"references,omitempty"`
	Chains     []symtab.InheritanceChain `json:"inheritanceChains,omitempty"`
	Patterns   []symtab.UsagePattern     `json:"usagePatterns,omitempty"`
	CallGraph  []CallGraphEntry          `json:"callGraph,omitempty"`
	Metadata   *symtab.AnalysisMetadata  `json:"metadata,omitempty"`
}

// SymbolExport is one symbol row with its metrics attached.
type SymbolExport struct {
	symtab.Symbol
	Metrics *symtab.SymbolMetrics `json:"metrics,omitempty"`
}

// CallGraphEntry is one caller's sorted adjacency list.
type CallGraphEntry struct {
	Caller  string   `json:"caller"`
	Callees []string `json:"callees"`
}

// BuildExport flattens a finished table into its export form.
func BuildExport(table *symtab.DocumentationSymbolTable) *TableExport {
	out := &TableExport{
		ExportedAt: table.Metadata.IndexedAt,
		Stats:      table.Stats(),
		Modules:    table.Modules,
		References: table.CrossReferences,
		Patterns:   table.UsagePatterns,
		Metadata:   &table.Metadata,
	}

	names := make([]string, 0, len(table.Symbols))
	for name := range table.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		se := SymbolExport{Symbol: *table.Symbols[name]}
		if m, ok := table.Metrics[name]; ok {
			se.Metrics = &m
		}
		out.Symbols = append(out.Symbols, se)
	}

	chainNames := make([]string, 0, len(table.InheritanceChains))
	for name := range table.InheritanceChains {
		chainNames = append(chainNames, name)
	}
	sort.Strings(chainNames)
	for _, name := range chainNames {
		out.Chains = append(out.Chains, *table.InheritanceChains[name])
	}

	callers := make([]string, 0, len(table.CallGraph))
	for caller := range table.CallGraph {
		callers = append(callers, caller)
	}
	sort.Strings(callers)
	for _, caller := range callers {
		out.CallGraph = append(out.CallGraph, CallGraphEntry{
			Caller:  caller,
			Callees: table.CallGraph[caller],
		})
	}

	return out
}

// WriteJSON writes the table export as indented JSON.
func WriteJSON(w io.Writer, table *symtab.DocumentationSymbolTable) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildExport(table)); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

// WriteJSONFile writes the table export to a file, creating or truncating it.
func WriteJSONFile(path string, table *symtab.DocumentationSymbolTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(f, table)
}
