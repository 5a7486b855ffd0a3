package symtab

import (
	"sort"
)

// CollisionStrategy decides what happens when two local tables declare the
// same qualified name (e.g. conditional redefinition across files).
type CollisionStrategy string

const (
	// CollisionLastWriteWins silently keeps the later-merged symbol. This
	// is the historical behavior and the default.
	CollisionLastWriteWins CollisionStrategy = "last_write_wins"

	// CollisionKeepAll keeps the later-merged symbol as the winner but
	// retains every shadowed declaration in Redeclarations.
	CollisionKeepAll CollisionStrategy = "keep_all"
)

// MergeOptions configures the Index Merger.
type MergeOptions struct {
	Collision CollisionStrategy
}

// Merger folds local symbol tables into one global table and resolves
// cross-reference targets against the merged symbol set. Merge is strictly
// sequential: it is the only phase with shared mutable state, and it owns
// that state exclusively.
type Merger struct {
	opts MergeOptions
}

// NewMerger creates a Merger. An empty collision strategy defaults to
// last-write-wins.
func NewMerger(opts MergeOptions) *Merger {
	if opts.Collision == "" {
		opts.Collision = CollisionLastWriteWins
	}
	return &Merger{opts: opts}
}

// Merge folds the local tables in order into a new global table. Local
// tables must be treated as immutable by the caller once handed over.
func (m *Merger) Merge(locals []*LocalTable) *DocumentationSymbolTable {
	table := &DocumentationSymbolTable{
		Symbols:           make(map[string]*Symbol),
		InheritanceChains: make(map[string]*InheritanceChain),
		CallGraph:         make(map[string][]string),
		ImportGraph:       make(map[string][]string),
		Metadata: AnalysisMetadata{
			FileCount:   len(locals),
			FileDigests: make(map[string]uint64),
			Collision:   m.opts.Collision,
		},
	}

	moduleSet := make(map[string]bool)
	var rawRefs []CrossReference

	for _, lt := range locals {
		if lt.ParseError != "" {
			table.Metadata.ParseErrors = append(table.Metadata.ParseErrors, ParseError{
				FilePath: lt.FilePath,
				Message:  lt.ParseError,
			})
			continue
		}
		if lt.ModulePath != "" {
			moduleSet[lt.ModulePath] = true
		}
		if lt.Digest != 0 {
			table.Metadata.FileDigests[lt.FilePath] = lt.Digest
		}

		for _, qname := range lt.Order {
			sym := lt.Symbols[qname]
			if prev, exists := table.Symbols[qname]; exists && m.opts.Collision == CollisionKeepAll {
				if table.Redeclarations == nil {
					table.Redeclarations = make(map[string][]*Symbol)
				}
				table.Redeclarations[qname] = append(table.Redeclarations[qname], prev)
			}
			table.Symbols[qname] = sym
		}

		rawRefs = append(rawRefs, lt.Refs...)
	}

	table.Modules = make([]string, 0, len(moduleSet))
	for mod := range moduleSet {
		table.Modules = append(table.Modules, mod)
	}
	sort.Strings(table.Modules)

	m.resolveRefs(table, rawRefs)
	m.buildImportGraph(table)

	return table
}

// resolveRefs decides internal vs external for every raw cross-reference.
// A reference whose source no longer resolves (its declaring symbol was
// shadowed away entirely) is dropped so the no-orphan-edge invariant holds;
// an unresolved target is retained as an opaque external name, never an
// error.
func (m *Merger) resolveRefs(table *DocumentationSymbolTable, rawRefs []CrossReference) {
	table.CrossReferences = make([]CrossReference, 0, len(rawRefs))
	for _, ref := range rawRefs {
		if table.Symbols[ref.Source] == nil {
			table.Metadata.DroppedRefs++
			continue
		}
		if resolved, ok := m.resolveTarget(table, ref); ok {
			ref.Target = resolved
			ref.Internal = true
		}
		table.CrossReferences = append(table.CrossReferences, ref)
	}
}

// resolveTarget maps a raw target name to an internal qualified name: first
// by exact match, then qualified against the source symbol's module.
func (m *Merger) resolveTarget(table *DocumentationSymbolTable, ref CrossReference) (string, bool) {
	if table.Symbols[ref.Target] != nil {
		return ref.Target, true
	}
	if src := table.Symbols[ref.Source]; src != nil && src.ModulePath != "" {
		candidate := src.ModulePath + "." + ref.Target
		if table.Symbols[candidate] != nil {
			return candidate, true
		}
	}
	return "", false
}

// buildImportGraph populates the module-to-module adjacency from imports
// edges, deduplicated and sorted for determinism. External module names are
// kept: the import graph answers "what does this module pull in", resolved
// or not.
func (m *Merger) buildImportGraph(table *DocumentationSymbolTable) {
	seen := make(map[string]map[string]bool)
	for _, ref := range table.CrossReferences {
		if ref.Type != RelImports {
			continue
		}
		src := table.Symbols[ref.Source]
		if src == nil || src.Kind != KindModule {
			continue
		}
		if seen[src.QualifiedName] == nil {
			seen[src.QualifiedName] = make(map[string]bool)
		}
		target := ref.Target
		if tgt := table.Symbols[ref.Target]; tgt != nil {
			target = tgt.ModulePath
		}
		if target == "" || target == src.QualifiedName || seen[src.QualifiedName][target] {
			continue
		}
		seen[src.QualifiedName][target] = true
		table.ImportGraph[src.QualifiedName] = append(table.ImportGraph[src.QualifiedName], target)
	}
	for mod := range table.ImportGraph {
		sort.Strings(table.ImportGraph[mod])
	}
}
