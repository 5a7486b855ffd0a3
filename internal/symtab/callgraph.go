package symtab

import "sort"

// defaultSampleLimit bounds sample locations kept per usage pattern so query
// results stay small.
const defaultSampleLimit = 5

// CallGraphAnalyzer consumes resolved calls cross-references and produces
// the call-graph adjacency, per-symbol metrics, and usage patterns. It runs
// on a read-only view of the merged table and writes only its own
// aggregates, so it can execute concurrently with the inheritance analyzer.
type CallGraphAnalyzer struct {
	// SampleLimit caps sample locations per usage pattern; <=0 uses the
	// default of 5.
	SampleLimit int
}

// NewCallGraphAnalyzer returns an analyzer with default bounds.
func NewCallGraphAnalyzer() *CallGraphAnalyzer {
	return &CallGraphAnalyzer{SampleLimit: defaultSampleLimit}
}

// Analyze fills table.CallGraph, table.Metrics, and table.UsagePatterns.
func (a *CallGraphAnalyzer) Analyze(table *DocumentationSymbolTable) error {
	a.buildGraph(table)
	a.computeMetrics(table)
	a.discoverPatterns(table)
	return nil
}

// buildGraph creates one adjacency entry per caller/callee pair. The graph
// is simple, not a multigraph: repeated calls between the same pair collapse
// into one edge, though each occurrence still counts toward usage patterns.
func (a *CallGraphAnalyzer) buildGraph(table *DocumentationSymbolTable) {
	seen := make(map[string]map[string]bool)
	for _, ref := range table.CrossReferences {
		if ref.Type != RelCalls || !ref.Internal {
			continue
		}
		if seen[ref.Source] == nil {
			seen[ref.Source] = make(map[string]bool)
		}
		if seen[ref.Source][ref.Target] {
			continue
		}
		seen[ref.Source][ref.Target] = true
		table.CallGraph[ref.Source] = append(table.CallGraph[ref.Source], ref.Target)
	}
	for caller := range table.CallGraph {
		sort.Strings(table.CallGraph[caller])
	}
}

// computeMetrics fills fan-out, fan-in, and betweenness centrality for every
// node of the call graph. Centrality is informational metadata: it never
// gates a query.
func (a *CallGraphAnalyzer) computeMetrics(table *DocumentationSymbolTable) {
	nodes := callGraphNodes(table.CallGraph)
	if len(nodes) == 0 {
		return
	}

	metrics := make(map[string]SymbolMetrics, len(nodes))
	for _, n := range nodes {
		metrics[n] = SymbolMetrics{FanOut: len(table.CallGraph[n])}
	}
	for _, callees := range table.CallGraph {
		for _, callee := range callees {
			m := metrics[callee]
			m.FanIn++
			metrics[callee] = m
		}
	}

	for node, bc := range betweenness(nodes, table.CallGraph) {
		m := metrics[node]
		m.Betweenness = bc
		metrics[node] = m
	}

	table.Metrics = metrics
}

// betweenness runs Brandes' algorithm over the unweighted directed call
// graph: a symbol lying on many shortest caller-to-callee paths scores
// higher.
func betweenness(nodes []string, adj map[string][]string) map[string]float64 {
	cb := make(map[string]float64, len(nodes))

	for _, source := range nodes {
		var stack []string
		preds := make(map[string][]string, len(nodes))
		sigma := map[string]float64{source: 1}
		dist := map[string]int{source: 0}

		queue := []string{source}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range adj[v] {
				if _, found := dist[w]; !found {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make(map[string]float64, len(stack))
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != source {
				cb[w] += delta[w]
			}
		}
	}

	return cb
}

// discoverPatterns groups all incoming call references per callee by context
// tag. Any group with at least two occurrences becomes one usage pattern;
// single occurrences are not patterns.
func (a *CallGraphAnalyzer) discoverPatterns(table *DocumentationSymbolTable) {
	limit := a.SampleLimit
	if limit <= 0 {
		limit = defaultSampleLimit
	}

	type groupKey struct {
		callee  string
		context string
	}
	groups := make(map[groupKey][]SourceLocation)
	for _, ref := range table.CrossReferences {
		if ref.Type != RelCalls || !ref.Internal {
			continue
		}
		key := groupKey{callee: ref.Target, context: ref.Context}
		groups[key] = append(groups[key], SourceLocation{File: ref.FilePath, Line: ref.Line})
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].callee != keys[j].callee {
			return keys[i].callee < keys[j].callee
		}
		return keys[i].context < keys[j].context
	})

	for _, key := range keys {
		occurrences := groups[key]
		if len(occurrences) < 2 {
			continue
		}

		samples := occurrences
		if len(samples) > limit {
			samples = samples[:limit]
		}

		confidence := float64(len(occurrences)) / 10.0
		if confidence > 1.0 {
			confidence = 1.0
		}

		pattern := UsagePattern{
			SymbolName:      key.callee,
			UsageKind:       key.context,
			Frequency:       len(occurrences),
			SampleLocations: samples,
			Confidence:      confidence,
		}
		if callee := table.Symbols[key.callee]; callee != nil {
			pattern.ParameterShape = callee.Signature
		}
		table.UsagePatterns = append(table.UsagePatterns, pattern)
	}
}

// callGraphNodes returns every caller and callee in sorted order.
func callGraphNodes(adj map[string][]string) []string {
	set := make(map[string]bool, len(adj))
	for caller, callees := range adj {
		set[caller] = true
		for _, c := range callees {
			set[c] = true
		}
	}
	return sortedKeys(set)
}
