package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/xref/internal/symtab"
)

// DiagramKind selects which relationship a Mermaid diagram renders.
type DiagramKind string

const (
	DiagramInheritance DiagramKind = "inheritance"
	DiagramCalls       DiagramKind = "calls"
	DiagramImports     DiagramKind = "imports"
)

// GenerateMermaid produces a Mermaid graph TD diagram from a finished table.
// Symbols are grouped into subgraphs by module; edges come from the selected
// relationship. Output is deterministic: nodes and edges are emitted in
// sorted order.
func GenerateMermaid(table *symtab.DocumentationSymbolTable, kind DiagramKind) (string, error) {
	switch kind {
	case DiagramInheritance, DiagramCalls, DiagramImports:
	default:
		return "", fmt.Errorf("export: unknown diagram kind %q", kind)
	}

	edges := diagramEdges(table, kind)

	// Node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(name string) string {
		if id, ok := nodeIDs[name]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[name] = id
		return id
	}

	// Collect the node set and group internal nodes by module.
	nodeSet := make(map[string]bool)
	for _, e := range edges {
		nodeSet[e.from] = true
		nodeSet[e.to] = true
	}

	byModule := make(map[string][]string)
	var external []string
	for node := range nodeSet {
		if sym := table.Symbols[node]; sym != nil {
			byModule[sym.ModulePath] = append(byModule[sym.ModulePath], node)
		} else {
			external = append(external, node)
		}
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	modules := make([]string, 0, len(byModule))
	for m := range byModule {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	for i, module := range modules {
		members := byModule[module]
		sort.Strings(members)

		sb.WriteString(fmt.Sprintf("  subgraph M%d[\"%.40s\"]\n", i, module))
		for _, member := range members {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(member), shortName(member)))
		}
		sb.WriteString("  end\n")
	}

	sort.Strings(external)
	for _, node := range external {
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", getID(node), shortName(node)))
	}

	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n", getID(e.from), e.arrow, getID(e.to)))
	}

	return sb.String(), nil
}

type diagramEdge struct {
	from, to, arrow string
}

// diagramEdges flattens the selected relationship into a sorted edge list.
// Inheritance arrows point derived to base; call arrows caller to callee.
func diagramEdges(table *symtab.DocumentationSymbolTable, kind DiagramKind) []diagramEdge {
	var edges []diagramEdge

	switch kind {
	case DiagramInheritance:
		names := make([]string, 0, len(table.InheritanceChains))
		for name := range table.InheritanceChains {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, base := range table.InheritanceChains[name].BaseClasses {
				edges = append(edges, diagramEdge{from: name, to: base, arrow: "-->|inherits|"})
			}
		}

	case DiagramCalls:
		callers := make([]string, 0, len(table.CallGraph))
		for caller := range table.CallGraph {
			callers = append(callers, caller)
		}
		sort.Strings(callers)
		for _, caller := range callers {
			for _, callee := range table.CallGraph[caller] {
				edges = append(edges, diagramEdge{from: caller, to: callee, arrow: "-->"})
			}
		}

	case DiagramImports:
		importers := make([]string, 0, len(table.ImportGraph))
		for m := range table.ImportGraph {
			importers = append(importers, m)
		}
		sort.Strings(importers)
		for _, importer := range importers {
			for _, imported := range table.ImportGraph[importer] {
				edges = append(edges, diagramEdge{from: importer, to: imported, arrow: "-.->"})
			}
		}
	}

	return edges
}

// shortName returns the last two dotted segments for readability.
func shortName(qualified string) string {
	parts := strings.Split(qualified, ".")
	if len(parts) <= 2 {
		return qualified
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
