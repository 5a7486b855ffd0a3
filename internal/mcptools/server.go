package mcptools

import (
	"context"
	"log"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewXrefMCPServer creates an MCP server with all 5 cross-reference tools
// registered.
func NewXrefMCPServer(svc *XrefService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "xref",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_index",
		Description: "Index a repository and build the global symbol table. Walks the file tree, produces declaration streams per file, merges them, and runs inheritance and call-graph analysis.",
	}, svc.BuildIndex)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_symbol",
		Description: "Resolve a fully qualified name to its symbol entry, including signature, inheritance chain, and call-graph metrics.",
	}, svc.LookupSymbol)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "see_also",
		Description: "Return ranked related symbols for a name: callees, callers, same-module members, then base classes and ancestors, capped at ten.",
	}, svc.SeeAlso)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "usage_examples",
		Description: "Return recurring call-site patterns for a symbol: usage kind, frequency, confidence, and sample source locations.",
	}, svc.UsageExamples)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_symbols",
		Description: "Search for symbols by name with fuzzy and substring matching. Returns qualified names with relevance scores.",
	}, svc.SearchSymbols)

	return server
}

// RunMCPServer starts an HTTP server exposing the cross-reference MCP tools.
func RunMCPServer(ctx context.Context, svc *XrefService, addr string) error {
	server := NewXrefMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		log.Printf("mcp: shutting down")
		httpServer.Shutdown(context.Background())
	}()

	log.Printf("mcp: listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
