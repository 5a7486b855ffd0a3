package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dusk-indust/xref/internal/config"
	"github.com/dusk-indust/xref/internal/frontend"
	"github.com/dusk-indust/xref/internal/symtab"
)

// indexFlags holds the shared indexing flags used by every table-producing
// command. Config file values fill the gaps flags leave empty.
type indexFlags struct {
	Input     string
	Languages string
	Excludes  string
	Collision string
	Workers   int
	Verbose   bool
}

func (f *indexFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.Input, "input", "", "read declaration streams from a JSONL file instead of parsing sources")
	fs.StringVar(&f.Languages, "langs", "", "comma-separated languages to index (default: all supported)")
	fs.StringVar(&f.Excludes, "exclude", "", "comma-separated glob patterns to skip")
	fs.StringVar(&f.Collision, "collision", "", "duplicate-name strategy: last_write_wins or keep_all")
	fs.IntVar(&f.Workers, "workers", 0, "parallel ingest workers (default: GOMAXPROCS)")
	fs.BoolVar(&f.Verbose, "verbose", false, "print per-file progress")
}

func runIndex(args []string) error {
	fs := flag.NewFlagSet("xref index", flag.ContinueOnError)
	var flags indexFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	table, err := buildTable(repoArg(fs), &flags)
	if err != nil {
		return err
	}

	printStats(table)
	return nil
}

// repoArg returns the positional repository path, defaulting to the current
// directory.
func repoArg(fs *flag.FlagSet) string {
	if fs.NArg() > 0 {
		return fs.Arg(0)
	}
	return "."
}

// buildTable runs the whole pipeline for one repository: config, streams,
// engine. It is the shared core of the index, export, diagram, and persist
// commands.
func buildTable(repo string, flags *indexFlags) (*symtab.DocumentationSymbolTable, error) {
	cfg, err := config.Load(repo)
	if err != nil {
		return nil, err
	}
	applyConfig(flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streams, err := collectStreams(ctx, repo, flags)
	if err != nil {
		return nil, err
	}

	opts := symtab.Options{Workers: flags.Workers}
	if flags.Collision != "" {
		collision := symtab.CollisionStrategy(flags.Collision)
		switch collision {
		case symtab.CollisionLastWriteWins, symtab.CollisionKeepAll:
			opts.Merge.Collision = collision
		default:
			return nil, fmt.Errorf("unknown collision strategy: %s", flags.Collision)
		}
	}

	engine := symtab.New(opts)

	var wg sync.WaitGroup
	if flags.Verbose {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range engine.Progress() {
				fmt.Fprintln(os.Stderr, symtab.FormatProgress(ev))
			}
		}()
	}

	table, err := engine.Index(ctx, streams)
	engine.Close()
	wg.Wait()
	if err != nil {
		return nil, err
	}
	return table, nil
}

// applyConfig fills flag gaps from the project config file.
func applyConfig(flags *indexFlags, cfg *config.ProjectConfig) {
	if flags.Languages == "" && len(cfg.Languages) > 0 {
		flags.Languages = strings.Join(cfg.Languages, ",")
	}
	if flags.Excludes == "" && len(cfg.ExcludeGlobs) > 0 {
		flags.Excludes = strings.Join(cfg.ExcludeGlobs, ",")
	}
	if flags.Collision == "" {
		flags.Collision = cfg.Collision
	}
	if flags.Workers == 0 {
		flags.Workers = cfg.Workers
	}
	if cfg.Verbose {
		flags.Verbose = true
	}
}

// collectStreams reads JSONL input when given, otherwise walks the repository
// with the selected front-ends.
func collectStreams(ctx context.Context, repo string, flags *indexFlags) ([]symtab.DeclarationStream, error) {
	if flags.Input != "" {
		return frontend.ReadStreamFile(flags.Input)
	}

	fronts := frontend.Defaults()
	if flags.Languages != "" {
		selected := make(map[frontend.Language]frontend.Frontend)
		for _, l := range strings.Split(flags.Languages, ",") {
			lang := frontend.Language(strings.ToLower(strings.TrimSpace(l)))
			f, ok := fronts[lang]
			if !ok {
				return nil, fmt.Errorf("unsupported language: %s", l)
			}
			selected[lang] = f
		}
		fronts = selected
	}

	var excludes []string
	if flags.Excludes != "" {
		for _, g := range strings.Split(flags.Excludes, ",") {
			if g = strings.TrimSpace(g); g != "" {
				excludes = append(excludes, g)
			}
		}
	}

	return frontend.WalkRepo(ctx, repo, excludes, fronts)
}

func printStats(table *symtab.DocumentationSymbolTable) {
	stats := table.Stats()
	fmt.Printf("modules:       %d\n", stats.ModuleCount)
	fmt.Printf("symbols:       %d\n", stats.SymbolCount)
	fmt.Printf("references:    %d\n", stats.ReferenceCount)
	fmt.Printf("chains:        %d\n", stats.ChainCount)
	fmt.Printf("patterns:      %d\n", stats.PatternCount)
	if stats.ParseErrorCount > 0 {
		fmt.Printf("parse errors:  %d\n", stats.ParseErrorCount)
		for _, pe := range table.Metadata.ParseErrors {
			fmt.Printf("  %s: %s\n", pe.FilePath, pe.Message)
		}
	}
}
