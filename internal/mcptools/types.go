package mcptools

import "github.com/dusk-indust/xref/internal/symtab"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// BuildIndexInput is the input for the build_index MCP tool.
type BuildIndexInput struct {
	RepoPath     string   `json:"repoPath" jsonschema:"the absolute path to the repository to index"`
	Languages    []string `json:"languages,omitempty" jsonschema:"languages to index (default: all supported). Values: python, typescript"`
	ExcludeGlobs []string `json:"excludeGlobs,omitempty" jsonschema:"glob patterns to exclude from indexing (e.g. vendor/**, node_modules/**)"`
	Collision    string   `json:"collision,omitempty" jsonschema:"duplicate-name strategy: last_write_wins (default) or keep_all"`
}

// BuildIndexOutput is the result of the build_index MCP tool.
type BuildIndexOutput struct {
	Stats       symtab.TableStats   `json:"stats"`
	ParseErrors []symtab.ParseError `json:"parseErrors,omitempty"`
}

// LookupSymbolInput is the input for the lookup_symbol MCP tool.
type LookupSymbolInput struct {
	QualifiedName string `json:"qualifiedName" jsonschema:"fully qualified symbol name, e.g. pkg.module.ClassName.method"`
}

// LookupSymbolOutput is the result of the lookup_symbol MCP tool.
type LookupSymbolOutput struct {
	Found   bool                     `json:"found"`
	Symbol  *symtab.Symbol           `json:"symbol,omitempty"`
	Chain   *symtab.InheritanceChain `json:"inheritanceChain,omitempty"`
	Metrics *symtab.SymbolMetrics    `json:"metrics,omitempty"`
}

// SeeAlsoInput is the input for the see_also MCP tool.
type SeeAlsoInput struct {
	QualifiedName string `json:"qualifiedName" jsonschema:"fully qualified symbol name to find related symbols for"`
}

// SeeAlsoOutput is the result of the see_also MCP tool.
type SeeAlsoOutput struct {
	Related []string `json:"related"`
}

// UsageExamplesInput is the input for the usage_examples MCP tool.
type UsageExamplesInput struct {
	QualifiedName string `json:"qualifiedName" jsonschema:"fully qualified symbol name to find usage patterns for"`
}

// UsageExamplesOutput is the result of the usage_examples MCP tool.
type UsageExamplesOutput struct {
	Patterns []symtab.UsagePattern `json:"patterns"`
}

// SearchSymbolsInput is the input for the search_symbols MCP tool.
type SearchSymbolsInput struct {
	Query string `json:"query" jsonschema:"symbol name or fragment; fuzzy and substring matched"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// SearchSymbolsOutput is the result of the search_symbols MCP tool.
type SearchSymbolsOutput struct {
	Matches []symtab.SearchMatch `json:"matches"`
	Total   int                  `json:"total"`
}
