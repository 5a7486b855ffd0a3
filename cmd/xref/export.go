package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dusk-indust/xref/internal/export"
)

func runExport(args []string) error {
	fs := flag.NewFlagSet("xref export", flag.ContinueOnError)
	var flags indexFlags
	flags.register(fs)
	out := fs.String("out", "", "write JSON to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	table, err := buildTable(repoArg(fs), &flags)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := export.WriteJSONFile(*out, table); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", *out)
		return nil
	}
	return export.WriteJSON(os.Stdout, table)
}

func runDiagram(args []string) error {
	fs := flag.NewFlagSet("xref diagram", flag.ContinueOnError)
	var flags indexFlags
	flags.register(fs)
	kind := fs.String("kind", string(export.DiagramInheritance), "diagram kind: inheritance, calls, or imports")
	if err := fs.Parse(args); err != nil {
		return err
	}

	table, err := buildTable(repoArg(fs), &flags)
	if err != nil {
		return err
	}

	mermaid, err := export.GenerateMermaid(table, export.DiagramKind(*kind))
	if err != nil {
		return err
	}
	fmt.Print(mermaid)
	return nil
}
