package symtab

import (
	"fmt"
	"sort"
)

// InheritanceAnalyzer consumes the global table's class symbols and inherits
// edges and produces one InheritanceChain per class. It runs on a read-only
// view of the merged table and writes only the InheritanceChains aggregate.
type InheritanceAnalyzer struct {
	// Classifiers are swappable; zero values fall back to the defaults.
	MixinClassifier     BaseClassifier
	InterfaceClassifier BaseClassifier
}

// NewInheritanceAnalyzer returns an analyzer with the default heuristic
// classifiers.
func NewInheritanceAnalyzer() *InheritanceAnalyzer {
	return &InheritanceAnalyzer{
		MixinClassifier:     DefaultMixinClassifier,
		InterfaceClassifier: DefaultInterfaceClassifier,
	}
}

// Analyze builds the inheritance graph and fills table.InheritanceChains.
// The only error it can return is an internal invariant violation, which is
// fatal to the run: it signals an analyzer bug, not bad input.
func (a *InheritanceAnalyzer) Analyze(table *DocumentationSymbolTable) error {
	mixin := a.MixinClassifier
	if mixin == nil {
		mixin = DefaultMixinClassifier
	}
	iface := a.InterfaceClassifier
	if iface == nil {
		iface = DefaultInterfaceClassifier
	}

	// Direct bases per class, in source order, using post-merge names so
	// chain entries match the linearized ancestor naming. Unresolved
	// external bases are valid terminal nodes.
	basesOf := make(map[string][]string)
	for _, ref := range table.CrossReferences {
		if ref.Type == RelInherits {
			basesOf[ref.Source] = append(basesOf[ref.Source], ref.Target)
		}
	}

	methodsOf, abstractOf := methodIndex(table)

	for _, qname := range sortedKeys(table.Symbols) {
		sym := table.Symbols[qname]
		if sym.Kind != KindClass {
			continue
		}

		chain := &InheritanceChain{
			ClassName:           sym.SimpleName,
			QualifiedName:       qname,
			BaseClasses:         basesOf[qname],
			LinearizedAncestors: linearize(qname, basesOf),
		}

		for _, base := range chain.BaseClasses {
			info := baseInfo(table, base)
			if mixin(info) {
				chain.Mixins = append(chain.Mixins, base)
			}
			if iface(info) {
				chain.InterfaceImplementations = append(chain.InterfaceImplementations, base)
			}
		}

		chain.AbstractMembers = abstractOf[qname]
		if detail, ok := sym.Detail.(*ClassDetail); ok && detail.Abstract {
			chain.Abstract = true
		}
		if len(chain.AbstractMembers) > 0 {
			chain.Abstract = true
		}

		chain.Overrides = findOverrides(qname, chain.LinearizedAncestors, methodsOf)

		if err := validateChain(chain); err != nil {
			return err
		}
		table.InheritanceChains[qname] = chain
	}

	return nil
}

// linearize orders a class and all its ancestors most-specific first. The
// ancestor subgraph (edges base -> derived) is topologically sorted with
// lexicographic tie-breaking, then reversed and prefixed with the target
// class. The result is deterministic and never puts a descendant before an
// ancestor, but it is not a C3 merge: diamond precedence stays unresolved.
func linearize(target string, basesOf map[string][]string) []string {
	// Collect the ancestor set reachable backward through inherits edges.
	ancestors := make(map[string]bool)
	queue := []string{target}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, base := range basesOf[node] {
			if base == target || ancestors[base] {
				continue
			}
			ancestors[base] = true
			queue = append(queue, base)
		}
	}

	// Induce the subgraph on the ancestors and topologically sort it.
	inDegree := make(map[string]int, len(ancestors))
	children := make(map[string][]string, len(ancestors))
	for anc := range ancestors {
		inDegree[anc] += 0
		for _, base := range basesOf[anc] {
			if ancestors[base] {
				children[base] = append(children[base], anc)
				inDegree[anc]++
			}
		}
	}

	var ready []string
	for anc, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, anc)
		}
	}
	sort.Strings(ready)

	topo := make([]string, 0, len(ancestors))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		topo = append(topo, node)

		released := make([]string, 0, len(children[node]))
		for _, child := range children[node] {
			inDegree[child]--
			if inDegree[child] == 0 {
				released = append(released, child)
			}
		}
		sort.Strings(released)
		ready = mergeSorted(ready, released)
	}

	// Nodes left over belong to an inheritance cycle; append them in a
	// fixed order so the output stays total and deterministic.
	if len(topo) < len(ancestors) {
		var leftover []string
		seen := make(map[string]bool, len(topo))
		for _, n := range topo {
			seen[n] = true
		}
		for anc := range ancestors {
			if !seen[anc] {
				leftover = append(leftover, anc)
			}
		}
		sort.Strings(leftover)
		topo = append(topo, leftover...)
	}

	// Reverse so the most-derived ancestors come first, target on top.
	out := make([]string, 0, len(topo)+1)
	out = append(out, target)
	for i := len(topo) - 1; i >= 0; i-- {
		out = append(out, topo[i])
	}
	return out
}

// mergeSorted merges two ascending string slices into one ascending slice.
func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// baseInfo gathers the classifier inputs for one direct base.
func baseInfo(table *DocumentationSymbolTable, base string) BaseInfo {
	info := BaseInfo{QualifiedName: base, SimpleName: base}
	if idx := lastDot(base); idx >= 0 {
		info.SimpleName = base[idx+1:]
	}
	if sym := table.Symbols[base]; sym != nil && sym.Kind == KindClass {
		info.Resolved = true
		if detail, ok := sym.Detail.(*ClassDetail); ok {
			info.MethodCount = detail.MethodCount
			info.Abstract = detail.Abstract
		}
	}
	return info
}

// methodIndex maps each class qualified name to the sorted simple names of
// its directly declared methods, and separately to the abstract subset:
// methods carrying an abstractmethod-like decorator tag or a body known to
// raise a not-implemented signal.
func methodIndex(table *DocumentationSymbolTable) (methods, abstract map[string][]string) {
	methods = make(map[string][]string)
	abstract = make(map[string][]string)
	for _, sym := range table.Symbols {
		if sym.Kind != KindMethod || sym.Parent == "" {
			continue
		}
		methods[sym.Parent] = append(methods[sym.Parent], sym.SimpleName)
		if detail, ok := sym.Detail.(*FunctionDetail); ok && (detail.Abstract || detail.RaisesNotImplemented) {
			abstract[sym.Parent] = append(abstract[sym.Parent], sym.SimpleName)
		}
	}
	for parent := range methods {
		sort.Strings(methods[parent])
	}
	for parent := range abstract {
		sort.Strings(abstract[parent])
	}
	return methods, abstract
}

// findOverrides walks the linearized ancestors (excluding the class itself)
// and marks every method of the class that an ancestor also declares.
func findOverrides(qname string, linearized []string, methodsOf map[string][]string) []string {
	own := methodsOf[qname]
	if len(own) == 0 || len(linearized) < 2 {
		return nil
	}

	ancestorMethods := make(map[string]bool)
	for _, anc := range linearized[1:] {
		for _, m := range methodsOf[anc] {
			ancestorMethods[m] = true
		}
	}

	var overrides []string
	for _, m := range own {
		if ancestorMethods[m] {
			overrides = append(overrides, m)
		}
	}
	return overrides
}

// validateChain enforces the linearization invariants. A failure here is a
// bug in the analyzer and aborts the whole run.
func validateChain(chain *InheritanceChain) error {
	if len(chain.LinearizedAncestors) == 0 || chain.LinearizedAncestors[0] != chain.QualifiedName {
		return fmt.Errorf("symtab: inheritance chain for %s does not start with itself", chain.QualifiedName)
	}
	inChain := make(map[string]bool, len(chain.LinearizedAncestors))
	for _, anc := range chain.LinearizedAncestors {
		inChain[anc] = true
	}
	for _, base := range chain.BaseClasses {
		if !inChain[base] {
			return fmt.Errorf("symtab: inheritance chain for %s is missing direct base %s", chain.QualifiedName, base)
		}
	}
	return nil
}

// --- Small helpers ---

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
