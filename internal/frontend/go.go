package frontend

import (
	"context"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/dusk-indust/xref/internal/symtab"
)

// GoFrontend produces declaration streams from Go source. Go has no class
// inheritance, so streams carry no bases and the inheritance analyzer sees
// nothing to link; structs and interfaces still surface as class symbols,
// methods group under their receiver type, and call sites, imports, and
// package-level consts feed the call graph and import graph as usual.
type GoFrontend struct {
	language *tree_sitter.Language
}

var _ Frontend = (*GoFrontend)(nil)

// NewGoFrontend creates a front-end with the Go grammar loaded.
func NewGoFrontend() *GoFrontend {
	return &GoFrontend{
		language: tree_sitter.NewLanguage(tree_sitter_go.Language()),
	}
}

// Language returns LangGo.
func (f *GoFrontend) Language() Language { return LangGo }

// Produce parses source and emits the file's declaration events. Methods are
// declared apart from their receiver type in Go, so the walker collects the
// file first and then emits each type with its methods grouped inside the
// class scope.
func (f *GoFrontend) Produce(_ context.Context, path string, source []byte) (symtab.DeclarationStream, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(f.language); err != nil {
		return symtab.DeclarationStream{}, fmt.Errorf("frontend: set go language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return symtab.DeclarationStream{}, fmt.Errorf("frontend: tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	w := &goWalker{source: source, typeIdx: make(map[string]*goType)}
	w.collectFile(tree.RootNode())

	stream := symtab.DeclarationStream{
		FilePath:   path,
		ModulePath: ModulePathFor(path),
	}
	stream.Events = append(stream.Events, symtab.Event{Kind: symtab.EventModuleStart, Line: 1})
	stream.Events = append(stream.Events, w.compose()...)
	return stream, nil
}

// goFunc is one collected function or method with the call sites of its body.
type goFunc struct {
	ev    symtab.Event
	calls []symtab.Event
	end   int
}

// goType is one collected type declaration and the methods declared on it.
type goType struct {
	ev      symtab.Event
	methods []goFunc
}

type goWalker struct {
	source []byte

	imports []symtab.Event
	types   []*goType
	typeIdx map[string]*goType
	funcs   []goFunc
	attrs   []symtab.Event
}

func (w *goWalker) text(n *tree_sitter.Node) string {
	return n.Utf8Text(w.source)
}

// collectFile gathers the file's top-level declarations. Only file-scope
// const and var specs become attribute events; locals stay invisible, same as
// the Python front-end.
func (w *goWalker) collectFile(root *tree_sitter.Node) {
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_declaration":
			w.collectImports(child)
		case "type_declaration":
			w.collectTypes(child)
		case "function_declaration":
			if fn, ok := w.collectFunc(child, ""); ok {
				w.funcs = append(w.funcs, fn)
			}
		case "method_declaration":
			w.collectMethod(child)
		case "const_declaration", "var_declaration":
			w.collectSpecs(child)
		}
	}
}

// compose flattens the collected declarations back into event order: imports,
// then each type with its methods inside the class scope, then free
// functions, then package-level consts and vars.
func (w *goWalker) compose() []symtab.Event {
	var events []symtab.Event
	events = append(events, w.imports...)

	for _, t := range w.types {
		events = append(events, t.ev)
		end := t.ev.Line
		for _, m := range t.methods {
			events = append(events, m.ev)
			events = append(events, m.calls...)
			events = append(events, symtab.Event{Kind: symtab.EventFunctionEnd, Line: m.end})
			if m.end > end {
				end = m.end
			}
		}
		events = append(events, symtab.Event{Kind: symtab.EventClassEnd, Line: end})
	}

	for _, fn := range w.funcs {
		events = append(events, fn.ev)
		events = append(events, fn.calls...)
		events = append(events, symtab.Event{Kind: symtab.EventFunctionEnd, Line: fn.end})
	}

	events = append(events, w.attrs...)
	return events
}

func (w *goWalker) collectImports(node *tree_sitter.Node) {
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if child.Kind() == "import_spec" {
				w.importSpec(child)
				continue
			}
			visit(child)
		}
	}
	visit(node)
}

func (w *goWalker) importSpec(spec *tree_sitter.Node) {
	pathNode := spec.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	importPath := strings.Trim(w.text(pathNode), `"`)
	if importPath == "" {
		return
	}
	module := strings.ReplaceAll(importPath, "/", ".")

	alias := ""
	if name := spec.ChildByFieldName("name"); name != nil {
		alias = w.text(name)
	}
	switch alias {
	case "_", ".":
		// Blank and dot imports bind nothing referable.
		alias = ""
	case "":
		// The default binding is the last path segment.
		alias = module
		if idx := strings.LastIndex(module, "."); idx >= 0 {
			alias = module[idx+1:]
		}
	}

	w.imports = append(w.imports, symtab.Event{
		Kind:  symtab.EventImport,
		Name:  module,
		Alias: alias,
		Line:  line(spec),
	})
}

func (w *goWalker) collectTypes(node *tree_sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		ev := symtab.Event{
			Kind:   symtab.EventClassStart,
			Name:   w.text(nameNode),
			Line:   line(child),
			Column: col(child),
		}
		if t := child.ChildByFieldName("type"); t != nil && t.Kind() == "interface_type" {
			ev.Decorators = []string{"interface"}
		}
		w.registerType(ev)
	}
}

// registerType adds a type once; methods on types declared elsewhere (other
// files of the same package) get a synthetic class scope here.
func (w *goWalker) registerType(ev symtab.Event) *goType {
	if t, ok := w.typeIdx[ev.Name]; ok {
		return t
	}
	t := &goType{ev: ev}
	w.typeIdx[ev.Name] = t
	w.types = append(w.types, t)
	return t
}

func (w *goWalker) collectFunc(node *tree_sitter.Node, receiverName string) (goFunc, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return goFunc{}, false
	}

	ev := symtab.Event{
		Kind:   symtab.EventFunctionStart,
		Name:   w.text(nameNode),
		Line:   line(node),
		Column: col(node),
		Params: w.params(node.ChildByFieldName("parameters")),
	}
	if res := node.ChildByFieldName("result"); res != nil {
		ev.Returns = w.text(res)
	}

	fn := goFunc{ev: ev, end: int(node.EndPosition().Row) + 1}
	if body := node.ChildByFieldName("body"); body != nil {
		w.collectCalls(body, receiverName, &fn.calls)
	}
	return fn, true
}

func (w *goWalker) collectMethod(node *tree_sitter.Node) {
	recvType, recvName := w.receiver(node.ChildByFieldName("receiver"))
	if recvType == "" {
		return
	}

	fn, ok := w.collectFunc(node, recvName)
	if !ok {
		return
	}

	t := w.registerType(symtab.Event{
		Kind:   symtab.EventClassStart,
		Name:   recvType,
		Line:   line(node),
		Column: col(node),
	})
	t.methods = append(t.methods, fn)
}

// receiver extracts the receiver's type name and bound variable from a
// method's receiver parameter list. Pointer receivers strip the star.
func (w *goWalker) receiver(list *tree_sitter.Node) (typeName, varName string) {
	if list == nil {
		return "", ""
	}
	for i := uint(0); i < list.ChildCount(); i++ {
		child := list.Child(i)
		if child == nil || child.Kind() != "parameter_declaration" {
			continue
		}
		if t := child.ChildByFieldName("type"); t != nil {
			typeName = strings.TrimPrefix(w.text(t), "*")
		}
		if n := child.ChildByFieldName("name"); n != nil {
			varName = w.text(n)
		}
		return typeName, varName
	}
	return "", ""
}

func (w *goWalker) params(list *tree_sitter.Node) []symtab.Param {
	if list == nil {
		return nil
	}
	var out []symtab.Param
	for i := uint(0); i < list.ChildCount(); i++ {
		child := list.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "parameter_declaration":
			annotation := ""
			if t := child.ChildByFieldName("type"); t != nil {
				annotation = w.text(t)
			}
			named := false
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub != nil && sub.Kind() == "identifier" {
					out = append(out, symtab.Param{Name: w.text(sub), Annotation: annotation})
					named = true
				}
			}
			if !named {
				// Unnamed parameter: carry the type as the display name.
				out = append(out, symtab.Param{Name: annotation})
			}
		case "variadic_parameter_declaration":
			p := symtab.Param{Variadic: true}
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = w.text(n)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Annotation = w.text(t)
			}
			out = append(out, p)
		}
	}
	return out
}

// collectCalls walks a body for call expressions. Calls through the method's
// receiver variable rewrite to "self." so sibling methods resolve against the
// receiver type's class scope.
func (w *goWalker) collectCalls(node *tree_sitter.Node, receiverName string, out *[]symtab.Event) {
	if node.Kind() == "call_expression" {
		if fn := node.ChildByFieldName("function"); fn != nil {
			var callee, context string
			switch fn.Kind() {
			case "identifier":
				callee = w.text(fn)
				context = "function_call"
			case "selector_expression":
				callee = w.text(fn)
				context = "method_call"
			}
			if callee != "" {
				if receiverName != "" {
					if rest, ok := strings.CutPrefix(callee, receiverName+"."); ok {
						callee = "self." + rest
					}
				}
				*out = append(*out, symtab.Event{
					Kind:    symtab.EventCallSite,
					Name:    callee,
					Line:    line(node),
					Column:  col(node),
					Context: context,
				})
			}
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		w.collectCalls(child, receiverName, out)
	}
}

// collectSpecs turns package-level const and var specs into attribute events.
func (w *goWalker) collectSpecs(node *tree_sitter.Node) {
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if child.Kind() != "const_spec" && child.Kind() != "var_spec" {
				visit(child)
				continue
			}
			annotation := ""
			if t := child.ChildByFieldName("type"); t != nil {
				annotation = w.text(t)
			}
			// Names precede the "=" token; identifiers after it belong to
			// the value expression.
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub == nil {
					continue
				}
				if sub.Kind() == "=" {
					break
				}
				if sub.Kind() != "identifier" {
					continue
				}
				w.attrs = append(w.attrs, symtab.Event{
					Kind:       symtab.EventAnnotatedAssign,
					Name:       w.text(sub),
					Line:       line(child),
					Column:     col(child),
					Annotation: annotation,
				})
			}
		}
	}
	visit(node)
}
