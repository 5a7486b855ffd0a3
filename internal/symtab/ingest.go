package symtab

import (
	"strings"
	"unicode"
)

// LocalTable is the immutable result of ingesting one file's declaration
// stream. Local tables are pure values: they are produced on worker
// goroutines and handed to the single-threaded merger, never shared.
type LocalTable struct {
	FilePath   string
	ModulePath string

	// Symbols keyed by locally-computed qualified name. Order preserves
	// first-declaration order so merging stays deterministic.
	Symbols map[string]*Symbol
	Order   []string

	// Refs are raw cross-references; targets are alias-expanded but not
	// yet resolved against the global symbol set.
	Refs []CrossReference

	ParseError string
	Digest     uint64
}

// scopeFrame is one entry of the ingest scope stack. The stack is pushed on
// entering a class or function body and popped on exit, so nested
// declarations at the same textual depth never collide.
type scopeFrame struct {
	name  string
	kind  SymbolKind // KindClass, or one of the callable kinds
	qname string
	class *ClassDetail // non-nil for class frames
}

// Ingest folds one declaration stream into a LocalTable. A stream carrying a
// ParseError contributes an empty table with the error recorded; ingest
// itself never fails.
func Ingest(stream DeclarationStream) *LocalTable {
	lt := &LocalTable{
		FilePath:   stream.FilePath,
		ModulePath: stream.ModulePath,
		Symbols:    make(map[string]*Symbol),
		ParseError: stream.ParseError,
		Digest:     stream.Digest,
	}
	if stream.ParseError != "" {
		return lt
	}

	in := &ingester{lt: lt, aliases: make(map[string]string)}
	in.declareModule(stream)
	for _, ev := range stream.Events {
		in.apply(ev)
	}
	return lt
}

// ingester holds the mutable walk state for a single stream.
type ingester struct {
	lt      *LocalTable
	stack   []scopeFrame
	aliases map[string]string // local binding -> imported qualified name
}

func (in *ingester) apply(ev Event) {
	switch ev.Kind {
	case EventModuleStart:
		// The module symbol is declared up front; a module_start event only
		// refines its location.
		if sym, ok := in.lt.Symbols[in.lt.ModulePath]; ok && ev.Line > 0 {
			sym.Location.Line = ev.Line
		}

	case EventClassStart:
		in.declareClass(ev)

	case EventClassEnd:
		in.pop(KindClass)

	case EventFunctionStart:
		in.declareFunction(ev)

	case EventFunctionEnd:
		in.pop(KindFunction)

	case EventImport:
		in.declareImport(ev)

	case EventCallSite:
		in.recordCall(ev)

	case EventAttributeAccess:
		in.recordUse(ev)

	case EventAnnotatedAssign:
		in.declareAttribute(ev)
	}
}

// --- Declarations ---

func (in *ingester) declareModule(stream DeclarationStream) {
	simple := stream.ModulePath
	if idx := strings.LastIndex(simple, "."); idx >= 0 {
		simple = simple[idx+1:]
	}
	in.put(&Symbol{
		QualifiedName: stream.ModulePath,
		SimpleName:    simple,
		Kind:          KindModule,
		ModulePath:    stream.ModulePath,
		Location:      SourceLocation{File: stream.FilePath, Line: 1},
		Scope:         KindModule,
		Public:        isPublicName(simple),
		Exported:      isPublicName(simple),
	})
}

func (in *ingester) declareClass(ev Event) {
	qname := in.qualify(ev.Name)
	bases := make([]string, 0, len(ev.Bases))
	for _, b := range ev.Bases {
		bases = append(bases, in.expandAlias(b))
	}

	detail := &ClassDetail{BaseClasses: bases}
	in.put(&Symbol{
		QualifiedName: qname,
		SimpleName:    ev.Name,
		Kind:          KindClass,
		ModulePath:    in.lt.ModulePath,
		Location:      SourceLocation{File: in.lt.FilePath, Line: ev.Line, Column: ev.Column},
		Scope:         in.scopeKind(),
		Parent:        in.parentQName(),
		Public:        isPublicName(ev.Name),
		Exported:      isPublicName(ev.Name) && len(in.stack) == 0,
		DocSummary:    ev.DocSummary,
		Decorators:    ev.Decorators,
		Detail:        detail,
	})

	// One inherits edge per direct base, in source order.
	for _, base := range bases {
		in.lt.Refs = append(in.lt.Refs, CrossReference{
			Source:   qname,
			Target:   base,
			Type:     RelInherits,
			FilePath: in.lt.FilePath,
			Line:     ev.Line,
			Context:  "class_inheritance",
			Strength: 1.0,
		})
	}

	in.stack = append(in.stack, scopeFrame{name: ev.Name, kind: KindClass, qname: qname, class: detail})
}

func (in *ingester) declareFunction(ev Event) {
	qname := in.qualify(ev.Name)

	kind := KindFunction
	switch {
	case in.enclosingClass() != nil:
		kind = KindMethod
	case ev.Async:
		kind = KindAsyncFunction
	}

	abstract := ev.RaisesNotImplemented
	for _, d := range ev.Decorators {
		if strings.Contains(strings.ToLower(d), "abstractmethod") {
			abstract = true
		}
	}

	in.put(&Symbol{
		QualifiedName: qname,
		SimpleName:    ev.Name,
		Kind:          kind,
		ModulePath:    in.lt.ModulePath,
		Location:      SourceLocation{File: in.lt.FilePath, Line: ev.Line, Column: ev.Column},
		Scope:         in.scopeKind(),
		Parent:        in.parentQName(),
		Public:        isPublicName(ev.Name),
		Exported:      isPublicName(ev.Name) && len(in.stack) == 0,
		Signature:     buildSignature(ev.Params, ev.Returns),
		DocSummary:    ev.DocSummary,
		Decorators:    ev.Decorators,
		Detail: &FunctionDetail{
			Async:                ev.Async,
			ArgCount:             len(ev.Params),
			Abstract:             abstract,
			RaisesNotImplemented: ev.RaisesNotImplemented,
		},
	})

	if cls := in.enclosingClass(); cls != nil {
		cls.class.MethodCount++
		if abstract {
			cls.class.Abstract = true
		}
	}

	in.stack = append(in.stack, scopeFrame{name: ev.Name, kind: kind, qname: qname})
}

func (in *ingester) declareAttribute(ev Event) {
	qname := in.qualify(ev.Name)
	constant := isConstantName(ev.Name)
	kind := KindAttribute
	if constant {
		kind = KindConstant
	}
	in.put(&Symbol{
		QualifiedName: qname,
		SimpleName:    ev.Name,
		Kind:          kind,
		ModulePath:    in.lt.ModulePath,
		Location:      SourceLocation{File: in.lt.FilePath, Line: ev.Line, Column: ev.Column},
		Scope:         in.scopeKind(),
		Parent:        in.parentQName(),
		Public:        isPublicName(ev.Name),
		Exported:      isPublicName(ev.Name) && len(in.stack) == 0,
		Detail:        &AttributeDetail{Annotation: ev.Annotation, Constant: constant},
	})
}

func (in *ingester) declareImport(ev Event) {
	in.lt.Refs = append(in.lt.Refs, CrossReference{
		Source:   in.lt.ModulePath,
		Target:   ev.Name,
		Type:     RelImports,
		FilePath: in.lt.FilePath,
		Line:     ev.Line,
		Context:  "import",
		Strength: 1.0,
	})

	// Record the local binding so later bare references in this file
	// resolve through the alias map.
	binding := ev.Alias
	if binding == "" {
		binding = ev.Name
		if idx := strings.Index(binding, "."); idx >= 0 {
			// "import a.b.c" binds "a" locally.
			binding = binding[:idx]
			in.aliases[binding] = binding
			return
		}
	}
	in.aliases[binding] = ev.Name
}

// --- References ---

func (in *ingester) recordCall(ev Event) {
	source := in.enclosingCallableQName()
	context := ev.Context
	if context == "" {
		context = "function_call"
	}
	in.lt.Refs = append(in.lt.Refs, CrossReference{
		Source:   source,
		Target:   in.expandAlias(ev.Name),
		Type:     RelCalls,
		FilePath: in.lt.FilePath,
		Line:     ev.Line,
		Context:  context,
		Strength: 1.0,
	})
}

func (in *ingester) recordUse(ev Event) {
	context := ev.Context
	if context == "" {
		context = "attribute_access"
	}
	in.lt.Refs = append(in.lt.Refs, CrossReference{
		Source:   in.enclosingCallableQName(),
		Target:   in.expandAlias(ev.Name),
		Type:     RelUses,
		FilePath: in.lt.FilePath,
		Line:     ev.Line,
		Context:  context,
		Strength: 1.0,
	})
}

// --- Scope helpers ---

// qualify builds module_path + "." + joined scope stack + "." + name.
func (in *ingester) qualify(name string) string {
	parts := make([]string, 0, len(in.stack)+2)
	parts = append(parts, in.lt.ModulePath)
	for _, f := range in.stack {
		parts = append(parts, f.name)
	}
	parts = append(parts, name)
	return strings.Join(parts, ".")
}

// pop removes the innermost frame of the given family. Class-end pops the
// nearest class frame; function-end pops any callable frame. Unbalanced end
// events are ignored rather than corrupting outer scopes.
func (in *ingester) pop(family SymbolKind) {
	for i := len(in.stack) - 1; i >= 0; i-- {
		isClass := in.stack[i].kind == KindClass
		if (family == KindClass) == isClass {
			in.stack = append(in.stack[:i], in.stack[i+1:]...)
			return
		}
	}
}

// scopeKind reports the kind of the current enclosing context.
func (in *ingester) scopeKind() SymbolKind {
	if len(in.stack) == 0 {
		return KindModule
	}
	return in.stack[len(in.stack)-1].kind
}

// parentQName returns the qualified name of the enclosing symbol, or the
// module for top-level declarations.
func (in *ingester) parentQName() string {
	if len(in.stack) == 0 {
		return in.lt.ModulePath
	}
	return in.stack[len(in.stack)-1].qname
}

// enclosingClass returns the innermost class frame, or nil.
func (in *ingester) enclosingClass() *scopeFrame {
	for i := len(in.stack) - 1; i >= 0; i-- {
		if in.stack[i].kind == KindClass {
			return &in.stack[i]
		}
	}
	return nil
}

// enclosingCallableQName returns the qualified name of the innermost
// function or method, falling back to the module for top-level references.
func (in *ingester) enclosingCallableQName() string {
	for i := len(in.stack) - 1; i >= 0; i-- {
		if in.stack[i].kind != KindClass {
			return in.stack[i].qname
		}
	}
	return in.lt.ModulePath
}

// expandAlias rewrites the leading segment of a dotted name through the
// file-local alias map. A "self." prefix inside a class body expands to the
// enclosing class's qualified name so sibling-member references resolve.
func (in *ingester) expandAlias(name string) string {
	if rest, ok := strings.CutPrefix(name, "self."); ok {
		if cls := in.enclosingClass(); cls != nil {
			return cls.qname + "." + rest
		}
	}
	head := name
	rest := ""
	if idx := strings.Index(name, "."); idx >= 0 {
		head = name[:idx]
		rest = name[idx:]
	}
	if target, ok := in.aliases[head]; ok && target != head {
		return target + rest
	}
	return name
}

// put inserts a symbol; redeclarations within one file follow last-write-wins
// locally, with declaration order preserved from the first sighting.
func (in *ingester) put(sym *Symbol) {
	if _, exists := in.lt.Symbols[sym.QualifiedName]; !exists {
		in.lt.Order = append(in.lt.Order, sym.QualifiedName)
	}
	in.lt.Symbols[sym.QualifiedName] = sym
}

// --- Naming conventions ---

// isPublicName follows the leading-underscore privacy convention.
func isPublicName(name string) bool {
	return !strings.HasPrefix(name, "_")
}

// isConstantName reports whether a name is ALL_CAPS (at least one letter,
// no lowercase).
func isConstantName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// buildSignature re-serializes a parameter list and return annotation in
// source order: "(a, b: int = 0, *args, **kwargs) -> str".
func buildSignature(params []Param, returns string) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		switch {
		case p.KeywordVariadic:
			b.WriteString("**")
		case p.Variadic:
			b.WriteString("*")
		}
		b.WriteString(p.Name)
		if p.Annotation != "" {
			b.WriteString(": ")
			b.WriteString(p.Annotation)
		}
		if p.Default != "" {
			if p.Annotation != "" {
				b.WriteString(" = ")
			} else {
				b.WriteString("=")
			}
			b.WriteString(p.Default)
		}
	}
	b.WriteByte(')')
	if returns != "" {
		b.WriteString(" -> ")
		b.WriteString(returns)
	}
	return b.String()
}
