package frontend

import (
	"context"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/dusk-indust/xref/internal/symtab"
)

// TypeScriptFrontend produces declaration streams from TypeScript source.
// Classes, interfaces, functions, arrow-function consts, imports, and call
// sites are emitted; type aliases and enums map onto constant attributes.
type TypeScriptFrontend struct {
	language *tree_sitter.Language
}

var _ Frontend = (*TypeScriptFrontend)(nil)

// NewTypeScriptFrontend creates a front-end with the TypeScript grammar loaded.
func NewTypeScriptFrontend() *TypeScriptFrontend {
	return &TypeScriptFrontend{
		language: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
	}
}

// Language returns LangTypeScript.
func (f *TypeScriptFrontend) Language() Language { return LangTypeScript }

// Produce parses source and emits the module's declaration events.
func (f *TypeScriptFrontend) Produce(_ context.Context, path string, source []byte) (symtab.DeclarationStream, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(f.language); err != nil {
		return symtab.DeclarationStream{}, fmt.Errorf("frontend: set typescript language: %w", err)
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

	w := &tsWalker{source: source}
	w.walkChildren(tree.RootNode(), false)
	stream.Events = append(stream.Events, w.events...)

	return stream, nil
}

type tsWalker struct {
	source []byte
	events []symtab.Event
}

func (w *tsWalker) emit(ev symtab.Event) {
	w.events = append(w.events, ev)
}

func (w *tsWalker) text(n *tree_sitter.Node) string {
	return n.Utf8Text(w.source)
}

func (w *tsWalker) walkChildren(node *tree_sitter.Node, inClass bool) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		w.walk(child, inClass)
	}
}

func (w *tsWalker) walk(node *tree_sitter.Node, inClass bool) {
	switch node.Kind() {
	case "class_declaration":
		w.emitClass(node)

	case "interface_declaration":
		w.emitInterface(node)

	case "function_declaration":
		w.emitFunction(node, nil)

	case "method_definition":
		w.emitMethod(node)

	case "lexical_declaration":
		w.emitLexical(node)
		w.walkChildren(node, inClass)

	case "import_statement":
		w.emitImport(node)

	case "call_expression":
		w.emitCall(node, inClass)
		if args := node.ChildByFieldName("arguments"); args != nil {
			w.walkChildren(args, inClass)
		}

	case "public_field_definition":
		w.emitField(node)

	case "type_alias_declaration", "enum_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			w.emit(symtab.Event{
				Kind:   symtab.EventAnnotatedAssign,
				Name:   w.text(name),
				Line:   line(node),
				Column: col(node),
			})
		}

	default:
		w.walkChildren(node, inClass)
	}
}

func (w *tsWalker) emitClass(node *tree_sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	ev := symtab.Event{
		Kind:       symtab.EventClassStart,
		Name:       w.text(nameNode),
		Line:       line(node),
		Column:     col(node),
		Decorators: w.leadingDecorators(node),
	}
	ev.Bases = w.heritage(node)
	w.emit(ev)

	if body := node.ChildByFieldName("body"); body != nil {
		w.walkChildren(body, true)
	}
	w.emit(symtab.Event{Kind: symtab.EventClassEnd, Line: int(node.EndPosition().Row) + 1})
}

// emitInterface models a TS interface as an abstract class whose name carries
// the interface signal the classifiers look for.
func (w *tsWalker) emitInterface(node *tree_sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	ev := symtab.Event{
		Kind:       symtab.EventClassStart,
		Name:       w.text(nameNode),
		Line:       line(node),
		Column:     col(node),
		Decorators: []string{"interface"},
	}
	ev.Bases = w.heritage(node)
	w.emit(ev)
	w.emit(symtab.Event{Kind: symtab.EventClassEnd, Line: int(node.EndPosition().Row) + 1})
}

// heritage collects extends and implements targets. Both count as bases: the
// interface classifier sorts them apart downstream.
func (w *tsWalker) heritage(node *tree_sitter.Node) []string {
	var bases []string
	collect := func(clause *tree_sitter.Node) {
		for i := uint(0); i < clause.ChildCount(); i++ {
			child := clause.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "identifier", "member_expression", "type_identifier", "nested_type_identifier":
				bases = append(bases, w.text(child))
			case "extends_clause", "implements_clause":
				// class_heritage wraps both clauses.
				for j := uint(0); j < child.ChildCount(); j++ {
					sub := child.Child(j)
					if sub == nil {
						continue
					}
					switch sub.Kind() {
					case "identifier", "member_expression", "type_identifier", "nested_type_identifier":
						bases = append(bases, w.text(sub))
					}
				}
			}
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "class_heritage", "extends_clause", "extends_type_clause", "implements_clause":
			collect(child)
		}
	}
	return bases
}

// leadingDecorators collects decorator siblings preceding a class or method.
func (w *tsWalker) leadingDecorators(node *tree_sitter.Node) []string {
	var decs []string
	parent := node.Parent()
	if parent == nil {
		return nil
	}
	for i := uint(0); i < parent.ChildCount(); i++ {
		child := parent.Child(i)
		if child == nil {
			continue
		}
		if samePosition(child, node) {
			break
		}
		if child.Kind() == "decorator" {
			decs = append(decs, strings.TrimPrefix(w.text(child), "@"))
		}
	}
	return decs
}

func (w *tsWalker) emitFunction(node *tree_sitter.Node, decorators []string) {
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
		Async:      w.hasAsyncKeyword(node),
		Params:     w.params(node.ChildByFieldName("parameters")),
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		ev.Returns = strings.TrimSpace(strings.TrimPrefix(w.text(ret), ":"))
	}
	w.emit(ev)

	if body := node.ChildByFieldName("body"); body != nil {
		w.walkChildren(body, false)
	}
	w.emit(symtab.Event{Kind: symtab.EventFunctionEnd, Line: int(node.EndPosition().Row) + 1})
}

func (w *tsWalker) emitMethod(node *tree_sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	ev := symtab.Event{
		Kind:       symtab.EventFunctionStart,
		Name:       w.text(nameNode),
		Line:       line(node),
		Column:     col(node),
		Decorators: w.leadingDecorators(node),
		Async:      w.hasAsyncKeyword(node),
		Params:     w.params(node.ChildByFieldName("parameters")),
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		ev.Returns = strings.TrimSpace(strings.TrimPrefix(w.text(ret), ":"))
	}
	w.emit(ev)

	if body := node.ChildByFieldName("body"); body != nil {
		w.walkChildren(body, false)
	}
	w.emit(symtab.Event{Kind: symtab.EventFunctionEnd, Line: int(node.EndPosition().Row) + 1})
}

// emitLexical turns "const handler = () => {...}" declarators into function
// events so arrow-function modules index like declared functions.
func (w *tsWalker) emitLexical(node *tree_sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		value := child.ChildByFieldName("value")
		if value == nil || value.Kind() != "arrow_function" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		ev := symtab.Event{
			Kind:   symtab.EventFunctionStart,
			Name:   w.text(nameNode),
			Line:   line(child),
			Column: col(child),
			Async:  w.hasAsyncKeyword(value),
			Params: w.params(value.ChildByFieldName("parameters")),
		}
		if ret := value.ChildByFieldName("return_type"); ret != nil {
			ev.Returns = strings.TrimSpace(strings.TrimPrefix(w.text(ret), ":"))
		}
		w.emit(ev)
		w.emit(symtab.Event{Kind: symtab.EventFunctionEnd, Line: int(child.EndPosition().Row) + 1})
	}
}

func (w *tsWalker) hasAsyncKeyword(node *tree_sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "async" {
			return true
		}
		// async precedes the parameter list; stop once past it.
		if child.Kind() == "formal_parameters" {
			break
		}
	}
	return false
}

func (w *tsWalker) params(node *tree_sitter.Node) []symtab.Param {
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
		case "required_parameter", "optional_parameter":
			p := symtab.Param{}
			if pat := child.ChildByFieldName("pattern"); pat != nil {
				// Typed rest parameters wrap the rest_pattern.
				if pat.Kind() == "rest_pattern" {
					p.Variadic = true
					p.Name = strings.TrimPrefix(w.text(pat), "...")
				} else {
					p.Name = w.text(pat)
				}
			}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Annotation = strings.TrimSpace(strings.TrimPrefix(w.text(t), ":"))
			}
			if v := child.ChildByFieldName("value"); v != nil {
				p.Default = w.text(v)
			}
			out = append(out, p)
		case "rest_pattern":
			out = append(out, symtab.Param{Name: strings.TrimPrefix(w.text(child), "..."), Variadic: true})
		case "identifier":
			out = append(out, symtab.Param{Name: w.text(child)})
		}
	}
	return out
}

func (w *tsWalker) emitImport(node *tree_sitter.Node) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	module := importPathToModule(strings.Trim(w.text(sourceNode), "\"'`"))
	if module == "" {
		return
	}

	sawName := false
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "import_specifier":
				ev := symtab.Event{Kind: symtab.EventImport, Line: line(node)}
				if name := child.ChildByFieldName("name"); name != nil {
					ev.Name = module + "." + w.text(name)
					ev.Alias = w.text(name)
				}
				if alias := child.ChildByFieldName("alias"); alias != nil {
					ev.Alias = w.text(alias)
				}
				if ev.Name != "" {
					w.emit(ev)
					sawName = true
				}
			case "namespace_import":
				ev := symtab.Event{Kind: symtab.EventImport, Name: module, Line: line(node)}
				for j := uint(0); j < child.ChildCount(); j++ {
					if sub := child.Child(j); sub != nil && sub.Kind() == "identifier" {
						ev.Alias = w.text(sub)
					}
				}
				w.emit(ev)
				sawName = true
			case "identifier":
				// Default import binds the module under the local name.
				w.emit(symtab.Event{
					Kind:  symtab.EventImport,
					Name:  module,
					Alias: w.text(child),
					Line:  line(node),
				})
				sawName = true
			default:
				visit(child)
			}
		}
	}
	visit(node)

	if !sawName {
		w.emit(symtab.Event{Kind: symtab.EventImport, Name: module, Line: line(node)})
	}
}

// importPathToModule normalizes a TS import source into dotted module form.
// Relative segments are dropped so "./util/fmt" and "../util/fmt" both become
// "util.fmt"; bare package specifiers pass through with slashes dotted.
func importPathToModule(importPath string) string {
	p := importPath
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "../"):
			p = p[3:]
		default:
			return strings.ReplaceAll(p, "/", ".")
		}
	}
}

func (w *tsWalker) emitCall(node *tree_sitter.Node, inClass bool) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	var callee, context string
	switch fn.Kind() {
	case "identifier":
		callee = w.text(fn)
		context = "function_call"
	case "member_expression":
		callee = w.text(fn)
		context = "method_call"
	default:
		return
	}
	if callee == "" {
		return
	}
	if inClass {
		context = "class_body_call"
	}
	// "this." targets resolve against the enclosing class, same as "self.".
	if rest, ok := strings.CutPrefix(callee, "this."); ok {
		callee = "self." + rest
	}

	w.emit(symtab.Event{
		Kind:    symtab.EventCallSite,
		Name:    callee,
		Line:    line(node),
		Column:  col(node),
		Context: context,
	})
}

func (w *tsWalker) emitField(node *tree_sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	ev := symtab.Event{
		Kind:   symtab.EventAnnotatedAssign,
		Name:   w.text(nameNode),
		Line:   line(node),
		Column: col(node),
	}
	if t := node.ChildByFieldName("type"); t != nil {
		ev.Annotation = strings.TrimSpace(strings.TrimPrefix(w.text(t), ":"))
	}
	w.emit(ev)
}
