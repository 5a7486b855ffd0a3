package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("xref", flag.ContinueOnError)
	fs.Usage = usage

	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage()
		return fmt.Errorf("a command is required")
	}

	switch rest[0] {
	case "index":
		return runIndex(rest[1:])
	case "export":
		return runExport(rest[1:])
	case "diagram":
		return runDiagram(rest[1:])
	case "persist":
		return runPersist(rest[1:])
	case "serve":
		return runServe(rest[1:])
	case "version":
		fmt.Println(version)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", rest[0])
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `xref - symbol table and cross-reference engine

Usage:
  xref index [flags] <repo>     index a repository and print table stats
  xref export [flags] <repo>    index and write the table as JSON
  xref diagram [flags] <repo>   index and print a Mermaid diagram
  xref persist [flags] <repo>   index and persist the table to a KuzuDB graph
  xref serve [flags]            run the MCP server
  xref version                  print version and exit

Run 'xref <command> -h' for command flags.
`)
}
