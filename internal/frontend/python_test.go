package frontend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/xref/internal/symtab"
)

func producePython(t *testing.T, source string) symtab.DeclarationStream {
	t.Helper()
	stream, err := NewPythonFrontend().Produce(context.Background(), "pkg/mod.py", []byte(source))
	require.NoError(t, err)
	return stream
}

// eventsOfKind filters a stream's events by kind.
func eventsOfKind(stream symtab.DeclarationStream, kind symtab.EventKind) []symtab.Event {
	var out []symtab.Event
	for _, ev := range stream.Events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestPython_ClassWithBasesAndDocstring(t *testing.T) {
	source := `class User(Entity, LoggerMixin):
    """A persisted user.

    Long body ignored.
    """
    def save(self, force: bool = False) -> None:
        pass
`
	stream := producePython(t, source)

	assert.Equal(t, "pkg.mod", stream.ModulePath)

	classes := eventsOfKind(stream, symtab.EventClassStart)
	require.Len(t, classes, 1)
	assert.Equal(t, "User", classes[0].Name)
	assert.Equal(t, []string{"Entity", "LoggerMixin"}, classes[0].Bases)
	assert.Equal(t, "A persisted user.", classes[0].DocSummary)
	assert.Equal(t, 1, classes[0].Line)

	funcs := eventsOfKind(stream, symtab.EventFunctionStart)
	require.Len(t, funcs, 1)
	assert.Equal(t, "save", funcs[0].Name)
	assert.Equal(t, "None", funcs[0].Returns)
	require.Len(t, funcs[0].Params, 2)
	assert.Equal(t, symtab.Param{Name: "self"}, funcs[0].Params[0])
	assert.Equal(t, symtab.Param{Name: "force", Annotation: "bool", Default: "False"}, funcs[0].Params[1])

	// Start/end events balance.
	assert.Len(t, eventsOfKind(stream, symtab.EventClassEnd), 1)
	assert.Len(t, eventsOfKind(stream, symtab.EventFunctionEnd), 1)
}

func TestPython_DecoratorsAndAbstract(t *testing.T) {
	source := `import abc

class Base(abc.ABC):
    @abc.abstractmethod
    def render(self):
        raise NotImplementedError

    def close(self):
        return None
`
	stream := producePython(t, source)

	funcs := eventsOfKind(stream, symtab.EventFunctionStart)
	require.Len(t, funcs, 2)

	render := funcs[0]
	assert.Equal(t, "render", render.Name)
	assert.Equal(t, []string{"abc.abstractmethod"}, render.Decorators)
	assert.True(t, render.RaisesNotImplemented)

	assert.False(t, funcs[1].RaisesNotImplemented)
}

func TestPython_AsyncAndVariadics(t *testing.T) {
	source := `async def gather(*tasks, **options) -> list:
    pass
`
	stream := producePython(t, source)

	funcs := eventsOfKind(stream, symtab.EventFunctionStart)
	require.Len(t, funcs, 1)
	assert.True(t, funcs[0].Async)
	require.Len(t, funcs[0].Params, 2)
	assert.True(t, funcs[0].Params[0].Variadic)
	assert.Equal(t, "tasks", funcs[0].Params[0].Name)
	assert.True(t, funcs[0].Params[1].KeywordVariadic)
	assert.Equal(t, "options", funcs[0].Params[1].Name)
}

func TestPython_Imports(t *testing.T) {
	source := `import os.path
import numpy as np
from core.base import Entity, Serializer as S
`
	stream := producePython(t, source)

	imports := eventsOfKind(stream, symtab.EventImport)
	require.Len(t, imports, 4)

	assert.Equal(t, "os.path", imports[0].Name)
	assert.Empty(t, imports[0].Alias)

	assert.Equal(t, "numpy", imports[1].Name)
	assert.Equal(t, "np", imports[1].Alias)

	assert.Equal(t, "core.base.Entity", imports[2].Name)
	assert.Equal(t, "Entity", imports[2].Alias)

	assert.Equal(t, "core.base.Serializer", imports[3].Name)
	assert.Equal(t, "S", imports[3].Alias)
}

func TestPython_CallSitesAndContexts(t *testing.T) {
	source := `def run():
    helper()
    self.logger.info("x")
    outer(inner())
`
	stream := producePython(t, source)

	calls := eventsOfKind(stream, symtab.EventCallSite)
	require.Len(t, calls, 4)

	byName := make(map[string]symtab.Event)
	for _, c := range calls {
		byName[c.Name] = c
	}
	assert.Equal(t, "function_call", byName["helper"].Context)
	assert.Equal(t, "method_call", byName["self.logger.info"].Context)
	assert.Contains(t, byName, "inner", "nested call arguments are visited")
	assert.Contains(t, byName, "outer")
}

func TestPython_AnnotatedAssignments(t *testing.T) {
	source := `MAX_RETRIES: int = 5

class Config:
    timeout: float = 1.5

def f():
    local: str = "skipped"
`
	stream := producePython(t, source)

	assigns := eventsOfKind(stream, symtab.EventAnnotatedAssign)
	require.Len(t, assigns, 2, "function locals are not declarations")
	assert.Equal(t, "MAX_RETRIES", assigns[0].Name)
	assert.Equal(t, "int", assigns[0].Annotation)
	assert.Equal(t, "timeout", assigns[1].Name)
	assert.Equal(t, "float", assigns[1].Annotation)
}

func TestPython_ModuleStartIsFirst(t *testing.T) {
	stream := producePython(t, "x = 1\n")
	require.NotEmpty(t, stream.Events)
	assert.Equal(t, symtab.EventModuleStart, stream.Events[0].Kind)
}
