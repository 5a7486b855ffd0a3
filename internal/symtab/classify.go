package symtab

import "strings"

// BaseInfo describes one direct base class as seen by a classifier. For
// unresolved external bases only the name fields are populated.
type BaseInfo struct {
	SimpleName    string
	QualifiedName string

	// Resolved is true when the base is a class symbol in the table.
	Resolved    bool
	MethodCount int
	Abstract    bool
}

// BaseClassifier decides whether a direct base class belongs to a category
// (mixin, interface). Classifiers are heuristics, not guarantees, and are
// injected so callers can test and replace them independently.
type BaseClassifier func(base BaseInfo) bool

// interfaceNameFragments are substrings that mark a base as interface-like.
var interfaceNameFragments = []string{"interface", "protocol", "abc"}

// DefaultInterfaceClassifier marks a base as an interface implementation
// when its name carries a common interface fragment or the base itself is
// abstract.
func DefaultInterfaceClassifier(base BaseInfo) bool {
	lower := strings.ToLower(base.SimpleName)
	for _, frag := range interfaceNameFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return base.Abstract
}

// DefaultMixinClassifier marks a base as a mixin when its simple name
// contains "mixin" (case-insensitive), or when it is a small resolved class
// (1-3 methods) with no interface signal.
func DefaultMixinClassifier(base BaseInfo) bool {
	if strings.Contains(strings.ToLower(base.SimpleName), "mixin") {
		return true
	}
	if !base.Resolved {
		return false
	}
	return base.MethodCount >= 1 && base.MethodCount <= 3 && !DefaultInterfaceClassifier(base)
}
