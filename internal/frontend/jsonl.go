package frontend

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dusk-indust/xref/internal/symtab"
)

// maxStreamLine bounds a single JSONL line; generated streams for very large
// files can run long.
const maxStreamLine = 16 * 1024 * 1024

// ReadStreams decodes declaration streams from JSONL: one complete stream
// object per line, blank lines skipped. This is the ingest boundary for
// languages without a built-in front-end; any producer that can emit the
// event format plugs in here.
func ReadStreams(r io.Reader) ([]symtab.DeclarationStream, error) {
	var streams []symtab.DeclarationStream

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var stream symtab.DeclarationStream
		if err := json.Unmarshal(data, &stream); err != nil {
			return nil, fmt.Errorf("frontend: jsonl line %d: %w", lineNo, err)
		}
		if stream.FilePath == "" {
			return nil, fmt.Errorf("frontend: jsonl line %d: missing filePath", lineNo)
		}
		if stream.ModulePath == "" {
			stream.ModulePath = ModulePathFor(stream.FilePath)
		}
		streams = append(streams, stream)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("frontend: jsonl scan: %w", err)
	}

	return streams, nil
}

// ReadStreamFile decodes declaration streams from a JSONL file on disk.
func ReadStreamFile(path string) ([]symtab.DeclarationStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("frontend: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadStreams(f)
}

// WriteStreams encodes streams as JSONL, one object per line, in input order.
func WriteStreams(w io.Writer, streams []symtab.DeclarationStream) error {
	enc := json.NewEncoder(w)
	for _, stream := range streams {
		if err := enc.Encode(stream); err != nil {
			return fmt.Errorf("frontend: encode %s: %w", stream.FilePath, err)
		}
	}
	return nil
}
