package symtab

// --- Enums ---

// SymbolKind classifies declared entities in the symbol table.
type SymbolKind string

const (
	KindModule        SymbolKind = "module"
	KindClass         SymbolKind = "class"
	KindFunction      SymbolKind = "function"
	KindAsyncFunction SymbolKind = "async_function"
	KindMethod        SymbolKind = "method"
	KindAttribute     SymbolKind = "attribute"
	KindConstant      SymbolKind = "constant"
)

// RelationshipType classifies cross-reference edges between symbols.
type RelationshipType string

const (
	RelImports   RelationshipType = "imports"
	RelInherits  RelationshipType = "inherits"
	RelCalls     RelationshipType = "calls"
	RelUses      RelationshipType = "uses"
	RelOverrides RelationshipType = "overrides"
)

// --- Models ---

// SourceLocation points at the declaration or reference site in a file.
// Column is zero when the front-end does not report one.
type SourceLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// Symbol is one declared entity. Identity is the qualified name, globally
// unique within a single indexing run; collisions are handled at merge time
// according to the configured CollisionStrategy.
type Symbol struct {
	QualifiedName string         `json:"qualifiedName"`
	SimpleName    string         `json:"simpleName"`
	Kind          SymbolKind     `json:"kind"`
	ModulePath    string         `json:"modulePath"`
	Location      SourceLocation `json:"location"`

	// Scope is the kind of the enclosing declaration context: module for
	// top-level symbols, class for members, function/method for nested ones.
	Scope SymbolKind `json:"scope"`

	// Parent is the qualified name of the enclosing symbol, empty for
	// module-level symbols. It is a back-reference, never owning.
	Parent string `json:"parent,omitempty"`

	Public   bool `json:"public"`
	Exported bool `json:"exported"`

	// Signature is the re-serialized parameter list for callables, empty
	// for other kinds.
	Signature string `json:"signature,omitempty"`

	// DocSummary is an opaque string; the engine never interprets it.
	DocSummary string   `json:"docSummary,omitempty"`
	Decorators []string `json:"decorators,omitempty"`

	// Detail holds kind-specific facts as a tagged variant. Exactly one
	// concrete type applies per kind; nil for kinds without extra facts.
	Detail Detail `json:"detail,omitempty"`
}

// Detail is the tagged per-kind metadata variant carried by a Symbol.
// Concrete types: ClassDetail, FunctionDetail, AttributeDetail.
type Detail interface {
	isDetail()
}

// ClassDetail holds class-only facts.
type ClassDetail struct {
	// BaseClasses are the direct parents in source order, as written
	// (alias-expanded but possibly unresolved external names).
	BaseClasses []string `json:"baseClasses,omitempty"`
	Abstract    bool     `json:"abstract,omitempty"`
	MethodCount int      `json:"methodCount"`
}

// FunctionDetail holds function/method-only facts.
type FunctionDetail struct {
	Async                bool `json:"async,omitempty"`
	ArgCount             int  `json:"argCount"`
	Abstract             bool `json:"abstract,omitempty"`
	RaisesNotImplemented bool `json:"raisesNotImplemented,omitempty"`
}

// AttributeDetail holds attribute/constant-only facts.
type AttributeDetail struct {
	Annotation string `json:"annotation,omitempty"`
	Constant   bool   `json:"constant,omitempty"`
}

func (*ClassDetail) isDetail()     {}
func (*FunctionDetail) isDetail()  {}
func (*AttributeDetail) isDetail() {}

// CrossReference is a directed, typed edge from a symbol to another symbol
// or to an opaque external name. After merge, Source always resolves through
// Lookup; Target resolves only when Internal is true.
type CrossReference struct {
	Source   string           `json:"source"`
	Target   string           `json:"target"`
	Type     RelationshipType `json:"type"`
	FilePath string           `json:"filePath"`
	Line     int              `json:"line"`

	// Context is an opaque tag describing the reference site, e.g.
	// "function_call" or "class_inheritance".
	Context  string  `json:"context,omitempty"`
	Strength float64 `json:"strength"`

	// Internal is set during merge when Target resolved to a symbol in the
	// global table. External targets are a valid terminal state, not errors.
	Internal bool `json:"internal"`
}

// InheritanceChain is the per-class analysis record.
type InheritanceChain struct {
	ClassName     string `json:"className"`
	QualifiedName string `json:"qualifiedName"`

	// BaseClasses are the direct bases in source order.
	BaseClasses []string `json:"baseClasses,omitempty"`

	// LinearizedAncestors orders the class and all its ancestors most
	// specific first: element 0 is always QualifiedName. The order is a
	// reversed topological sort of the ancestor subgraph, which is
	// deterministic and never places a descendant before an ancestor, but
	// is not a C3-style method-resolution order: diamond precedence is not
	// resolved the way a cooperative-inheritance language would.
	LinearizedAncestors []string `json:"linearizedAncestors"`

	Mixins                   []string `json:"mixins,omitempty"`
	InterfaceImplementations []string `json:"interfaceImplementations,omitempty"`
	Abstract                 bool     `json:"abstract,omitempty"`
	AbstractMembers          []string `json:"abstractMembers,omitempty"`

	// Overrides lists simple names of methods on this class that shadow a
	// method of the same name on a linearized ancestor.
	Overrides []string `json:"overrides,omitempty"`
}

// UsagePattern is a cluster of repeated same-context references against one
// target symbol. Frequency is always >= 2 by construction.
type UsagePattern struct {
	SymbolName      string           `json:"symbolName"`
	UsageKind       string           `json:"usageKind"`
	Frequency       int              `json:"frequency"`
	SampleLocations []SourceLocation `json:"sampleLocations,omitempty"`
	ParameterShape  string           `json:"parameterShape,omitempty"`

	// Confidence grows monotonically with frequency, capped at 1.0.
	Confidence float64 `json:"confidence"`
}

// SymbolMetrics holds per-symbol call-graph measurements. They are
// informational analysis output and never gate a query.
type SymbolMetrics struct {
	FanIn       int     `json:"fanIn"`
	FanOut      int     `json:"fanOut"`
	Betweenness float64 `json:"betweenness"`
}

// ParseError records one front-end failure. The failed file contributes an
// empty local table; the run continues.
type ParseError struct {
	FilePath string `json:"filePath"`
	Message  string `json:"message"`
}

// AnalysisMetadata describes one full indexing run.
type AnalysisMetadata struct {
	// IndexedAt is the only field excluded from the determinism guarantee.
	IndexedAt   string            `json:"indexedAt"`
	FileCount   int               `json:"fileCount"`
	ParseErrors []ParseError      `json:"parseErrors,omitempty"`
	FileDigests map[string]uint64 `json:"fileDigests,omitempty"`
	DroppedRefs int               `json:"droppedRefs,omitempty"`
	Collision   CollisionStrategy `json:"collision"`
}

// TableStats summarizes a documentation symbol table.
type TableStats struct {
	SymbolCount     int `json:"symbolCount"`
	ModuleCount     int `json:"moduleCount"`
	ReferenceCount  int `json:"referenceCount"`
	ChainCount      int `json:"chainCount"`
	PatternCount    int `json:"patternCount"`
	ParseErrorCount int `json:"parseErrorCount"`
}
