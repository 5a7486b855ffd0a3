package frontend

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/xref/internal/symtab"
)

func TestReadStreams(t *testing.T) {
	input := `{"filePath":"pkg/a.py","modulePath":"pkg.a","events":[{"kind":"module_start","line":1},{"kind":"function_start","name":"run","line":2,"params":[{"name":"x","annotation":"int"}]},{"kind":"function_end","line":4}]}

{"filePath":"pkg/b.py","parseError":"syntax error"}
`
	streams, err := ReadStreams(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, streams, 2, "blank lines are skipped")

	assert.Equal(t, "pkg.a", streams[0].ModulePath)
	require.Len(t, streams[0].Events, 3)
	assert.Equal(t, symtab.EventFunctionStart, streams[0].Events[1].Kind)
	assert.Equal(t, "int", streams[0].Events[1].Params[0].Annotation)

	// Missing modulePath is derived from the file path.
	assert.Equal(t, "pkg.b", streams[1].ModulePath)
	assert.Equal(t, "syntax error", streams[1].ParseError)
}

func TestReadStreams_Errors(t *testing.T) {
	_, err := ReadStreams(strings.NewReader("{not json}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	_, err = ReadStreams(strings.NewReader(`{"modulePath":"x"}` + "\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing filePath")
}

func TestWriteStreamsRoundTrip(t *testing.T) {
	in := []symtab.DeclarationStream{
		{
			FilePath:   "pkg/a.py",
			ModulePath: "pkg.a",
			Digest:     42,
			Events: []symtab.Event{
				{Kind: symtab.EventModuleStart, Line: 1},
				{Kind: symtab.EventClassStart, Name: "C", Bases: []string{"Base"}, Line: 2},
				{Kind: symtab.EventClassEnd, Line: 5},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStreams(&buf, in))

	out, err := ReadStreams(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
