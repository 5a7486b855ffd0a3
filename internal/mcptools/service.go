package mcptools

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/xref/internal/frontend"
	"github.com/dusk-indust/xref/internal/symtab"
)

// XrefService holds the indexed table behind the MCP tool handlers. A
// build_index call replaces the whole engine; queries read whichever table
// was most recently completed.
type XrefService struct {
	mu     sync.RWMutex
	engine *symtab.Engine
	fronts map[frontend.Language]frontend.Frontend
}

// NewXrefService creates an XrefService with the built-in front-ends.
func NewXrefService() *XrefService {
	return &XrefService{fronts: frontend.Defaults()}
}

// current returns the active engine, or an error if nothing was indexed yet.
func (s *XrefService) current() (*symtab.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine == nil {
		return nil, symtab.ErrNotReady
	}
	return s.engine, nil
}

// BuildIndex walks a repository, produces declaration streams, and runs the
// full pipeline. The finished table replaces any previous index.
func (s *XrefService) BuildIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildIndexInput,
) (*mcp.CallToolResult, BuildIndexOutput, error) {
	if input.RepoPath == "" {
		return nil, BuildIndexOutput{}, fmt.Errorf("repoPath is required")
	}

	info, err := os.Stat(input.RepoPath)
	if err != nil {
		return nil, BuildIndexOutput{}, fmt.Errorf("cannot access repoPath: %w", err)
	}
	if !info.IsDir() {
		return nil, BuildIndexOutput{}, fmt.Errorf("repoPath is not a directory: %s", input.RepoPath)
	}

	fronts := s.fronts
	if len(input.Languages) > 0 {
		fronts = make(map[frontend.Language]frontend.Frontend, len(input.Languages))
		for _, l := range input.Languages {
			lang := frontend.Language(strings.ToLower(l))
			if f, ok := s.fronts[lang]; ok {
				fronts[lang] = f
			} else {
				return nil, BuildIndexOutput{}, fmt.Errorf("unsupported language: %s", l)
			}
		}
	}

	opts := symtab.Options{}
	if input.Collision != "" {
		collision := symtab.CollisionStrategy(input.Collision)
		switch collision {
		case symtab.CollisionLastWriteWins, symtab.CollisionKeepAll:
			opts.Merge.Collision = collision
		default:
			return nil, BuildIndexOutput{}, fmt.Errorf("unknown collision strategy: %s", input.Collision)
		}
	}

	streams, err := frontend.WalkRepo(ctx, input.RepoPath, input.ExcludeGlobs, fronts)
	if err != nil {
		return nil, BuildIndexOutput{}, fmt.Errorf("walk repo: %w", err)
	}

	engine := symtab.New(opts)
	table, err := engine.Index(ctx, streams)
	if err != nil {
		engine.Close()
		return nil, BuildIndexOutput{}, fmt.Errorf("index: %w", err)
	}

	s.mu.Lock()
	if s.engine != nil {
		s.engine.Close()
	}
	s.engine = engine
	s.mu.Unlock()

	return nil, BuildIndexOutput{
		Stats:       table.Stats(),
		ParseErrors: table.Metadata.ParseErrors,
	}, nil
}

// LookupSymbol resolves a fully qualified name to its symbol entry, plus the
// inheritance chain and call-graph metrics when present.
func (s *XrefService) LookupSymbol(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input LookupSymbolInput,
) (*mcp.CallToolResult, LookupSymbolOutput, error) {
	if input.QualifiedName == "" {
		return nil, LookupSymbolOutput{}, fmt.Errorf("qualifiedName is required")
	}

	engine, err := s.current()
	if err != nil {
		return nil, LookupSymbolOutput{}, err
	}
	table, err := engine.Table()
	if err != nil {
		return nil, LookupSymbolOutput{}, err
	}

	sym := table.Lookup(input.QualifiedName)
	if sym == nil {
		return nil, LookupSymbolOutput{Found: false}, nil
	}

	out := LookupSymbolOutput{Found: true, Symbol: sym}
	if chain, ok := table.InheritanceChains[input.QualifiedName]; ok {
		out.Chain = chain
	}
	if m, ok := table.Metrics[input.QualifiedName]; ok {
		out.Metrics = &m
	}
	return nil, out, nil
}

// SeeAlso returns the ranked related-symbol suggestions for a name.
func (s *XrefService) SeeAlso(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SeeAlsoInput,
) (*mcp.CallToolResult, SeeAlsoOutput, error) {
	if input.QualifiedName == "" {
		return nil, SeeAlsoOutput{}, fmt.Errorf("qualifiedName is required")
	}

	engine, err := s.current()
	if err != nil {
		return nil, SeeAlsoOutput{}, err
	}
	related, err := engine.SeeAlso(input.QualifiedName)
	if err != nil {
		return nil, SeeAlsoOutput{}, err
	}
	return nil, SeeAlsoOutput{Related: related}, nil
}

// UsageExamples returns the discovered usage patterns for a symbol.
func (s *XrefService) UsageExamples(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input UsageExamplesInput,
) (*mcp.CallToolResult, UsageExamplesOutput, error) {
	if input.QualifiedName == "" {
		return nil, UsageExamplesOutput{}, fmt.Errorf("qualifiedName is required")
	}

	engine, err := s.current()
	if err != nil {
		return nil, UsageExamplesOutput{}, err
	}
	patterns, err := engine.UsageExamples(input.QualifiedName)
	if err != nil {
		return nil, UsageExamplesOutput{}, err
	}
	return nil, UsageExamplesOutput{Patterns: patterns}, nil
}

// SearchSymbols finds symbols by fuzzy name match.
func (s *XrefService) SearchSymbols(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SearchSymbolsInput,
) (*mcp.CallToolResult, SearchSymbolsOutput, error) {
	if input.Query == "" {
		return nil, SearchSymbolsOutput{}, fmt.Errorf("query is required")
	}

	engine, err := s.current()
	if err != nil {
		return nil, SearchSymbolsOutput{}, err
	}
	matches, err := engine.SearchSymbols(input.Query, input.Limit)
	if err != nil {
		return nil, SearchSymbolsOutput{}, err
	}
	return nil, SearchSymbolsOutput{Matches: matches, Total: len(matches)}, nil
}

// Close releases the active engine, if any.
func (s *XrefService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		s.engine.Close()
		s.engine = nil
	}
}
