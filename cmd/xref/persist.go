//go:build cgo

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/xref/internal/export"
)

func runPersist(args []string) error {
	fs := flag.NewFlagSet("xref persist", flag.ContinueOnError)
	var flags indexFlags
	flags.register(fs)
	dbPath := fs.String("db", "", "KuzuDB directory path (default: <repo>/.xref/graph)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	repo := repoArg(fs)

	table, err := buildTable(repo, &flags)
	if err != nil {
		return err
	}

	path := *dbPath
	if path == "" {
		path = filepath.Join(repo, ".xref", "graph")
	}
	// Remove old graph to avoid stale data.
	os.RemoveAll(path)

	exporter, err := export.NewKuzuFileExporter(path)
	if err != nil {
		return err
	}
	defer exporter.Close()

	if err := exporter.Export(table); err != nil {
		return err
	}

	n, err := exporter.CountSymbols()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "persisted %d symbols to %s\n", n, path)
	return nil
}
