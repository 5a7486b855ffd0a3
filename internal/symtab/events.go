package symtab

// EventKind identifies one declaration stream event type.
type EventKind string

const (
	EventModuleStart     EventKind = "module_start"
	EventClassStart      EventKind = "class_start"
	EventClassEnd        EventKind = "class_end"
	EventFunctionStart   EventKind = "function_start"
	EventFunctionEnd     EventKind = "function_end"
	EventImport          EventKind = "import"
	EventCallSite        EventKind = "call_site"
	EventAttributeAccess EventKind = "attribute_access"
	EventAnnotatedAssign EventKind = "annotated_assignment"
)

// Param is one parameter of a callable declaration, in source order.
type Param struct {
	Name            string `json:"name"`
	Annotation      string `json:"annotation,omitempty"`
	Default         string `json:"default,omitempty"`
	Variadic        bool   `json:"variadic,omitempty"`        // *args-style
	KeywordVariadic bool   `json:"keywordVariadic,omitempty"` // **kwargs-style
}

// Event is one typed entry in a DeclarationStream. Only the fields relevant
// to the event kind are populated; the rest stay zero.
type Event struct {
	Kind   EventKind `json:"kind"`
	Name   string    `json:"name,omitempty"`
	Line   int       `json:"line,omitempty"`
	Column int       `json:"column,omitempty"`

	// class_start
	Bases []string `json:"bases,omitempty"`

	// class_start / function_start
	Decorators []string `json:"decorators,omitempty"`
	DocSummary string   `json:"docSummary,omitempty"`

	// function_start
	Params               []Param `json:"params,omitempty"`
	Returns              string  `json:"returns,omitempty"`
	Async                bool    `json:"async,omitempty"`
	RaisesNotImplemented bool    `json:"raisesNotImplemented,omitempty"`

	// import: Alias is the local binding when the import is aliased,
	// empty when the name is bound as-is.
	Alias string `json:"alias,omitempty"`

	// call_site / attribute_access
	Context string `json:"context,omitempty"`

	// annotated_assignment
	Annotation string `json:"annotation,omitempty"`
}

// DeclarationStream is one file's ordered declaration events, the input
// boundary of the engine. The engine is agnostic to how it was produced.
type DeclarationStream struct {
	FilePath   string  `json:"filePath"`
	ModulePath string  `json:"modulePath"`
	Events     []Event `json:"events,omitempty"`

	// Digest is an optional content hash of the originating source,
	// recorded in analysis metadata when non-zero.
	Digest uint64 `json:"digest,omitempty"`

	// ParseError is non-empty when the front-end failed to produce events
	// for this file. Ingest records it and contributes an empty table.
	ParseError string `json:"parseError,omitempty"`
}
