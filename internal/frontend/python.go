package frontend

import (
	"context"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/dusk-indust/xref/internal/symtab"
)

// PythonFrontend produces declaration streams from Python source. A new
// tree-sitter parser is created per Produce call, so concurrent calls on the
// same front-end are safe.
type PythonFrontend struct {
	language *tree_sitter.Language
}

var _ Frontend = (*PythonFrontend)(nil)

// NewPythonFrontend creates a front-end with the Python grammar loaded.
func NewPythonFrontend() *PythonFrontend {
	return &PythonFrontend{
		language: tree_sitter.NewLanguage(tree_sitter_python.Language()),
	}
}

// Language returns LangPython.
func (f *PythonFrontend) Language() Language { return LangPython }

// Produce parses source and emits the module's declaration events in source
// order: class and function boundaries, imports with aliases, call sites, and
// annotated assignments at module or class level.
func (f *PythonFrontend) Produce(_ context.Context, path string, source []byte) (symtab.DeclarationStream, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(f.language); err != nil {
		return symtab.DeclarationStream{}, fmt.Errorf("frontend: set python language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return symtab.DeclarationStream{}, fmt.Errorf("frontend: tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	stream := symtab.DeclarationStream{
		FilePath:   path,
		ModulePath: ModulePathFor(path),
	}
	stream.Events = append(stream.Events, symtab.Event{Kind: symtab.EventModuleStart, Line: 1})

	w := &pyWalker{source: source}
	w.walkChildren(tree.RootNode(), pyScopeModule, nil)
	stream.Events = append(stream.Events, w.events...)

	return stream, nil
}

// pyScope tracks what kind of scope the walker is inside, which decides
// whether assignments become attribute events and which call context to tag.
type pyScope int

const (
	pyScopeModule pyScope = iota
	pyScopeClass
	pyScopeFunction
)

type pyWalker struct {
	source []byte
	events []symtab.Event
}

func (w *pyWalker) emit(ev symtab.Event) {
	w.events = append(w.events, ev)
}

func (w *pyWalker) text(n *tree_sitter.Node) string {
	return n.Utf8Text(w.source)
}

func line(n *tree_sitter.Node) int { return int(n.StartPosition().Row) + 1 }
func col(n *tree_sitter.Node) int  { return int(n.StartPosition().Column) + 1 }

func (w *pyWalker) walkChildren(node *tree_sitter.Node, scope pyScope, decorators []string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		w.walk(child, scope, decorators)
	}
}

func (w *pyWalker) walk(node *tree_sitter.Node, scope pyScope, decorators []string) {
	switch node.Kind() {
	case "decorated_definition":
		var decs []string
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "decorator":
				decs = append(decs, strings.TrimPrefix(w.text(child), "@"))
			case "function_definition", "class_definition":
				w.walk(child, scope, decs)
			}
		}

	case "class_definition":
		w.emitClass(node, decorators)

	case "function_definition":
		w.emitFunction(node, scope, decorators)

	case "import_statement":
		w.emitImport(node)

	case "import_from_statement":
		w.emitFromImport(node)

	case "call":
		w.emitCall(node, scope)
		// Arguments may hold further calls.
		if args := node.ChildByFieldName("arguments"); args != nil {
			w.walkChildren(args, scope, nil)
		}

	case "assignment":
		w.emitAssignment(node, scope)

	default:
		w.walkChildren(node, scope, nil)
	}
}

func (w *pyWalker) emitClass(node *tree_sitter.Node, decorators []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	ev := symtab.Event{
		Kind:       symtab.EventClassStart,
		Name:       w.text(nameNode),
		Line:       line(node),
		Column:     col(node),
		Decorators: decorators,
	}

	// superclasses is an argument_list: identifiers, attributes, and keyword
	// arguments such as metaclass=ABCMeta. Only positional bases count.
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.ChildCount(); i++ {
			base := supers.Child(i)
			if base == nil {
				continue
			}
			switch base.Kind() {
			case "identifier", "attribute":
				ev.Bases = append(ev.Bases, w.text(base))
			}
		}
	}

	body := node.ChildByFieldName("body")
	ev.DocSummary = w.docSummary(body)
	w.emit(ev)

	if body != nil {
		w.walkChildren(body, pyScopeClass, nil)
	}
	w.emit(symtab.Event{Kind: symtab.EventClassEnd, Line: int(node.EndPosition().Row) + 1})
}

func (w *pyWalker) emitFunction(node *tree_sitter.Node, scope pyScope, decorators []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	ev := symtab.Event{
		Kind:       symtab.EventFunctionStart,
		Name:       w.text(nameNode),
		Line:       line(node),
		Column:     col(node),
		Decorators: decorators,
		Async:      w.isAsync(node),
		Params:     w.params(node.ChildByFieldName("parameters")),
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		ev.Returns = w.text(ret)
	}

	body := node.ChildByFieldName("body")
	ev.DocSummary = w.docSummary(body)
	ev.RaisesNotImplemented = raisesNotImplemented(body, w.source)
	w.emit(ev)

	if body != nil {
		w.walkChildren(body, pyScopeFunction, nil)
	}
	w.emit(symtab.Event{Kind: symtab.EventFunctionEnd, Line: int(node.EndPosition().Row) + 1})
}

// isAsync checks for the "async" keyword preceding "def".
func (w *pyWalker) isAsync(node *tree_sitter.Node) bool {
	first := node.Child(0)
	return first != nil && first.Kind() == "async"
}

// params flattens a parameters node into the event parameter list, preserving
// source order. self and cls pass through unchanged; the ingester keeps the
// signature as written.
func (w *pyWalker) params(node *tree_sitter.Node) []symtab.Param {
	if node == nil {
		return nil
	}
	var out []symtab.Param
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			out = append(out, symtab.Param{Name: w.text(child)})
		case "typed_parameter":
			p := symtab.Param{}
			if n := child.Child(0); n != nil {
				p.Name = w.text(n)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Annotation = w.text(t)
			}
			out = append(out, p)
		case "default_parameter", "typed_default_parameter":
			p := symtab.Param{}
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = w.text(n)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Annotation = w.text(t)
			}
			if v := child.ChildByFieldName("value"); v != nil {
				p.Default = w.text(v)
			}
			out = append(out, p)
		case "list_splat_pattern":
			out = append(out, symtab.Param{Name: strings.TrimPrefix(w.text(child), "*"), Variadic: true})
		case "dictionary_splat_pattern":
			out = append(out, symtab.Param{Name: strings.TrimPrefix(w.text(child), "**"), KeywordVariadic: true})
		}
	}
	return out
}

// docSummary returns the first line of a leading docstring, if the body's
// first statement is a bare string expression.
func (w *pyWalker) docSummary(body *tree_sitter.Node) string {
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first == nil || first.Kind() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	str := first.Child(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	text := w.text(str)
	text = strings.Trim(text, "\"'")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// raisesNotImplemented reports whether the body contains a raise statement
// naming NotImplementedError, the conventional abstract-method body.
func raisesNotImplemented(body *tree_sitter.Node, source []byte) bool {
	if body == nil {
		return false
	}
	found := false
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		if found || n == nil {
			return
		}
		if n.Kind() == "raise_statement" && strings.Contains(n.Utf8Text(source), "NotImplementedError") {
			found = true
			return
		}
		// Nested defs raise for themselves.
		if n.Kind() == "function_definition" || n.Kind() == "class_definition" {
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	visit(body)
	return found
}

func (w *pyWalker) emitImport(node *tree_sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			w.emit(symtab.Event{Kind: symtab.EventImport, Name: w.text(child), Line: line(node)})
		case "aliased_import":
			ev := symtab.Event{Kind: symtab.EventImport, Line: line(node)}
			if n := child.ChildByFieldName("name"); n != nil {
				ev.Name = w.text(n)
			}
			if a := child.ChildByFieldName("alias"); a != nil {
				ev.Alias = w.text(a)
			}
			if ev.Name != "" {
				w.emit(ev)
			}
		}
	}
}

func (w *pyWalker) emitFromImport(node *tree_sitter.Node) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	module := w.text(moduleNode)

	// Each imported name binds in this module, so from-imports emit one
	// event per name with the name itself as the alias.
	sawName := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || samePosition(child, moduleNode) {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			name := w.text(child)
			w.emit(symtab.Event{
				Kind:  symtab.EventImport,
				Name:  module + "." + name,
				Alias: name,
				Line:  line(node),
			})
			sawName = true
		case "aliased_import":
			ev := symtab.Event{Kind: symtab.EventImport, Line: line(node)}
			if n := child.ChildByFieldName("name"); n != nil {
				ev.Name = module + "." + w.text(n)
			}
			if a := child.ChildByFieldName("alias"); a != nil {
				ev.Alias = w.text(a)
			}
			if ev.Name != "" {
				w.emit(ev)
			}
			sawName = true
		case "wildcard_import":
			w.emit(symtab.Event{Kind: symtab.EventImport, Name: module, Line: line(node)})
			sawName = true
		}
	}
	if !sawName {
		w.emit(symtab.Event{Kind: symtab.EventImport, Name: module, Line: line(node)})
	}
}

// samePosition reports whether two nodes start at the same source position,
// which is enough to tell the module_name child apart from the import names.
func samePosition(a, b *tree_sitter.Node) bool {
	return a.StartPosition() == b.StartPosition()
}

func (w *pyWalker) emitCall(node *tree_sitter.Node, scope pyScope) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	var callee, context string
	switch fn.Kind() {
	case "identifier":
		callee = w.text(fn)
		context = "function_call"
	case "attribute":
		callee = w.text(fn)
		context = "method_call"
	default:
		return
	}
	if callee == "" {
		return
	}
	if scope == pyScopeClass {
		context = "class_body_call"
	}

	w.emit(symtab.Event{
		Kind:    symtab.EventCallSite,
		Name:    callee,
		Line:    line(node),
		Column:  col(node),
		Context: context,
	})
}

// emitAssignment turns annotated module- and class-level assignments into
// attribute events. Function locals are skipped; calls on the right-hand side
// were already visited through the default recursion.
func (w *pyWalker) emitAssignment(node *tree_sitter.Node, scope pyScope) {
	if right := node.ChildByFieldName("right"); right != nil {
		w.walkChildren(right, scope, nil)
		if right.Kind() == "call" {
			w.emitCall(right, scope)
		}
	}

	if scope == pyScopeFunction {
		return
	}
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}

	w.emit(symtab.Event{
		Kind:       symtab.EventAnnotatedAssign,
		Name:       w.text(left),
		Line:       line(node),
		Column:     col(node),
		Annotation: w.text(typeNode),
	})
}
