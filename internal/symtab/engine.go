package symtab

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// State is the engine lifecycle. No transition skips a state and Ready is
// terminal for a run: a fresh run starts a new Engine instance.
type State string

const (
	StateEmpty     State = "empty"
	StateIngesting State = "ingesting"
	StateMerging   State = "merging"
	StateAnalyzing State = "analyzing"
	StateReady     State = "ready"
)

var (
	// ErrNotReady is returned by queries before a run completed.
	ErrNotReady = errors.New("symtab: table is not ready")

	// ErrAlreadyIndexed is returned when Index is called on an engine that
	// already ran; build a new Engine instead.
	ErrAlreadyIndexed = errors.New("symtab: engine already indexed")
)

// Options configures an Engine.
type Options struct {
	// Workers bounds parallel per-file ingest; <=0 uses GOMAXPROCS.
	Workers int

	Merge MergeOptions

	// SampleLimit caps sample locations per usage pattern.
	SampleLimit int

	// Classifier overrides; nil values fall back to the defaults.
	MixinClassifier     BaseClassifier
	InterfaceClassifier BaseClassifier
}

// Engine drives the full pipeline: parallel per-file ingest, a single
// sequential merge, then the two analyzers concurrently. Queries are served
// only once the run reached Ready; a cancelled run exposes no partial table.
type Engine struct {
	opts     Options
	progress *ProgressReporter

	mu    sync.RWMutex
	state State
	table *DocumentationSymbolTable
}

// New creates an Engine in the Empty state.
func New(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		opts:     opts,
		progress: NewProgressReporter(),
		state:    StateEmpty,
	}
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Progress returns a channel that emits progress events.
func (e *Engine) Progress() <-chan ProgressEvent {
	return e.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when
// the engine is no longer needed.
func (e *Engine) Close() {
	e.progress.Close()
}

// Index runs the full pipeline over the given declaration streams. Per-file
// parse failures are recorded in the table's metadata, never fatal; the only
// failures are cancellation and internal invariant violations, both of which
// leave no queryable table behind.
func (e *Engine) Index(ctx context.Context, streams []DeclarationStream) (*DocumentationSymbolTable, error) {
	if err := e.transition(StateEmpty, StateIngesting); err != nil {
		return nil, err
	}

	locals, err := e.ingestAll(ctx, streams)
	if err != nil {
		e.reset()
		return nil, err
	}

	e.setState(StateMerging)
	e.progress.Emit(ProgressEvent{Phase: PhaseMerge, Status: ProgressWorking})
	table := NewMerger(e.opts.Merge).Merge(locals)
	e.progress.Emit(ProgressEvent{Phase: PhaseMerge, Status: ProgressComplete})

	if err := ctx.Err(); err != nil {
		e.reset()
		return nil, err
	}

	e.setState(StateAnalyzing)
	if err := e.analyze(ctx, table); err != nil {
		e.reset()
		e.progress.Emit(ProgressEvent{Phase: PhaseAnalyze, Status: ProgressFailed, Message: err.Error()})
		return nil, fmt.Errorf("symtab: analysis failed: %w", err)
	}
	e.progress.Emit(ProgressEvent{Phase: PhaseAnalyze, Status: ProgressComplete})

	table.Metadata.IndexedAt = time.Now().UTC().Format(time.RFC3339)

	e.mu.Lock()
	e.table = table
	e.state = StateReady
	e.mu.Unlock()

	return table, nil
}

// ingestAll fans out per-file ingest across the worker pool. Each worker
// produces a pure LocalTable value; nothing is written to shared structures
// until merge.
func (e *Engine) ingestAll(ctx context.Context, streams []DeclarationStream) ([]*LocalTable, error) {
	locals := make([]*LocalTable, len(streams))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, stream := range streams {
		e.progress.Emit(ProgressEvent{Phase: PhaseIngest, File: stream.FilePath, Status: ProgressPending})

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.progress.Emit(ProgressEvent{Phase: PhaseIngest, File: stream.FilePath, Status: ProgressWorking})

			locals[i] = Ingest(stream)

			if locals[i].ParseError != "" {
				e.progress.Emit(ProgressEvent{
					Phase:   PhaseIngest,
					File:    stream.FilePath,
					Status:  ProgressFailed,
					Message: locals[i].ParseError,
				})
				return nil // recorded, not fatal
			}
			e.progress.Emit(ProgressEvent{Phase: PhaseIngest, File: stream.FilePath, Status: ProgressComplete})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return locals, nil
}

// analyze runs the inheritance and call-graph analyzers concurrently. They
// share a read-only view of the merged table and write disjoint aggregates.
func (e *Engine) analyze(ctx context.Context, table *DocumentationSymbolTable) error {
	inherit := NewInheritanceAnalyzer()
	if e.opts.MixinClassifier != nil {
		inherit.MixinClassifier = e.opts.MixinClassifier
	}
	if e.opts.InterfaceClassifier != nil {
		inherit.InterfaceClassifier = e.opts.InterfaceClassifier
	}

	calls := NewCallGraphAnalyzer()
	if e.opts.SampleLimit > 0 {
		calls.SampleLimit = e.opts.SampleLimit
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return inherit.Analyze(table) })
	g.Go(func() error { return calls.Analyze(table) })
	return g.Wait()
}

// --- Queries (Ready state only) ---

// Table returns the finished table.
func (e *Engine) Table() (*DocumentationSymbolTable, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateReady {
		return nil, ErrNotReady
	}
	return e.table, nil
}

// Lookup returns the symbol with the given qualified name, or nil.
func (e *Engine) Lookup(qualifiedName string) (*Symbol, error) {
	table, err := e.Table()
	if err != nil {
		return nil, err
	}
	return table.Lookup(qualifiedName), nil
}

// SeeAlso returns the ranked suggestion list for a symbol.
func (e *Engine) SeeAlso(qualifiedName string) ([]string, error) {
	table, err := e.Table()
	if err != nil {
		return nil, err
	}
	return table.SeeAlso(qualifiedName), nil
}

// UsageExamples returns all usage patterns matching the symbol name.
func (e *Engine) UsageExamples(qualifiedName string) ([]UsagePattern, error) {
	table, err := e.Table()
	if err != nil {
		return nil, err
	}
	return table.UsageExamples(qualifiedName), nil
}

// SearchSymbols returns fuzzy matches for a symbol-name query.
func (e *Engine) SearchSymbols(query string, limit int) ([]SearchMatch, error) {
	table, err := e.Table()
	if err != nil {
		return nil, err
	}
	return table.SearchSymbols(query, limit), nil
}

// --- State transitions ---

func (e *Engine) transition(from, to State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != from {
		return ErrAlreadyIndexed
	}
	e.state = to
	return nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// reset discards the failed run's partial state so no partial table is ever
// observable through the query API.
func (e *Engine) reset() {
	e.mu.Lock()
	e.state = StateEmpty
	e.table = nil
	e.mu.Unlock()
}
