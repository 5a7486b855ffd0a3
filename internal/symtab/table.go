package symtab

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// seeAlsoCap bounds the suggestion list returned by SeeAlso.
const seeAlsoCap = 10

// DocumentationSymbolTable is the root aggregate produced by one full
// ingest-merge-analyze run. It is read-only once the engine reports Ready;
// a fresh run produces a new instance.
type DocumentationSymbolTable struct {
	Symbols map[string]*Symbol `json:"symbols"`

	// Redeclarations holds shadowed symbols per qualified name, populated
	// only under CollisionKeepAll.
	Redeclarations map[string][]*Symbol `json:"redeclarations,omitempty"`

	CrossReferences   []CrossReference             `json:"crossReferences"`
	InheritanceChains map[string]*InheritanceChain `json:"inheritanceChains"`
	CallGraph         map[string][]string          `json:"callGraph"`
	ImportGraph       map[string][]string          `json:"importGraph"`
	UsagePatterns     []UsagePattern               `json:"usagePatterns"`
	Modules           []string                     `json:"modules"`

	// Metrics holds per-symbol call-graph measurements, kept apart from
	// Symbol so ingest and analysis stay independently replayable.
	Metrics map[string]SymbolMetrics `json:"metrics,omitempty"`

	Metadata AnalysisMetadata `json:"metadata"`
}

// Lookup returns the symbol with the given qualified name, or nil.
func (t *DocumentationSymbolTable) Lookup(qualifiedName string) *Symbol {
	return t.Symbols[qualifiedName]
}

// SeeAlso builds a ranked suggestion list for a symbol, in priority order:
// up to 3 symbols it calls, up to 3 of its callers, up to 3 other symbols in
// the same module, and for classes the direct bases plus the first two
// linearized ancestors. The result is deduplicated, never contains the query
// symbol, and is capped at 10 entries.
func (t *DocumentationSymbolTable) SeeAlso(qualifiedName string) []string {
	sym := t.Lookup(qualifiedName)
	if sym == nil {
		return nil
	}

	var out []string
	seen := map[string]bool{qualifiedName: true}
	add := func(name string) {
		if len(out) >= seeAlsoCap || name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	// (a) Symbols this symbol calls.
	for i, callee := range t.CallGraph[qualifiedName] {
		if i >= 3 {
			break
		}
		add(callee)
	}

	// (b) Symbols that call this symbol.
	for _, caller := range t.callersOf(qualifiedName, 3) {
		add(caller)
	}

	// (c) Other symbols in the same module.
	count := 0
	for _, name := range t.moduleMembers(sym.ModulePath) {
		if count >= 3 {
			break
		}
		if name == qualifiedName || seen[name] {
			continue
		}
		add(name)
		count++
	}

	// (d) For classes: direct bases, then the first two ancestors.
	if chain, ok := t.InheritanceChains[qualifiedName]; ok {
		for _, base := range chain.BaseClasses {
			add(base)
		}
		ancestors := 0
		for _, anc := range chain.LinearizedAncestors[1:] {
			if ancestors >= 2 {
				break
			}
			add(anc)
			ancestors++
		}
	}

	return out
}

// UsageExamples returns all usage patterns whose symbol name matches exactly.
func (t *DocumentationSymbolTable) UsageExamples(qualifiedName string) []UsagePattern {
	var out []UsagePattern
	for _, p := range t.UsagePatterns {
		if p.SymbolName == qualifiedName {
			out = append(out, p)
		}
	}
	return out
}

// SearchMatch is one fuzzy-search result.
type SearchMatch struct {
	QualifiedName string  `json:"qualifiedName"`
	Score         float64 `json:"score"`
}

// SearchSymbols ranks symbols by Levenshtein similarity between the query
// and each simple name. Substring hits always qualify; other names need a
// similarity of at least 0.5. Results are ordered best-first with the
// qualified name as tie-breaker, capped at limit (<=0 means 20).
func (t *DocumentationSymbolTable) SearchSymbols(query string, limit int) []SearchMatch {
	if limit <= 0 {
		limit = 20
	}
	lowerQuery := strings.ToLower(query)

	var matches []SearchMatch
	for _, name := range t.sortedSymbolNames() {
		sym := t.Symbols[name]
		lowerSimple := strings.ToLower(sym.SimpleName)

		score, err := edlib.StringsSimilarity(lowerQuery, lowerSimple, edlib.Levenshtein)
		if err != nil {
			continue
		}
		if strings.Contains(lowerSimple, lowerQuery) && float64(score) < 0.5 {
			// Substring hits stay in even when edit distance is poor.
			score = 0.5
		}
		if float64(score) < 0.5 {
			continue
		}
		matches = append(matches, SearchMatch{QualifiedName: name, Score: float64(score)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].QualifiedName < matches[j].QualifiedName
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Stats summarizes the table.
func (t *DocumentationSymbolTable) Stats() TableStats {
	return TableStats{
		SymbolCount:     len(t.Symbols),
		ModuleCount:     len(t.Modules),
		ReferenceCount:  len(t.CrossReferences),
		ChainCount:      len(t.InheritanceChains),
		PatternCount:    len(t.UsagePatterns),
		ParseErrorCount: len(t.Metadata.ParseErrors),
	}
}

// --- Internal helpers ---

// callersOf scans the call graph for symbols with an edge into callee,
// in sorted caller order, up to max entries.
func (t *DocumentationSymbolTable) callersOf(callee string, max int) []string {
	var callers []string
	for _, caller := range sortedKeys(t.CallGraph) {
		for _, target := range t.CallGraph[caller] {
			if target == callee {
				callers = append(callers, caller)
				break
			}
		}
		if len(callers) >= max {
			break
		}
	}
	return callers
}

// moduleMembers returns the qualified names declared in a module, sorted.
func (t *DocumentationSymbolTable) moduleMembers(modulePath string) []string {
	var members []string
	for name, sym := range t.Symbols {
		if sym.ModulePath == modulePath && sym.Kind != KindModule {
			members = append(members, name)
		}
	}
	sort.Strings(members)
	return members
}

func (t *DocumentationSymbolTable) sortedSymbolNames() []string {
	return sortedKeys(t.Symbols)
}

// sortedKeys returns map keys in ascending order for deterministic iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
