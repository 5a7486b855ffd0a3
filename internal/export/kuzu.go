//go:build cgo

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/xref/internal/symtab"
)

// KuzuExporter persists a finished symbol table into a KuzuDB graph so it can
// be queried with Cypher across sessions. It requires CGO because the go-kuzu
// driver wraps KuzuDB's C library.
type KuzuExporter struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// NewKuzuExporter creates an exporter backed by an in-memory KuzuDB instance.
func NewKuzuExporter() (*KuzuExporter, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileExporter creates an exporter backed by a file-based KuzuDB at
// the given directory path. KuzuDB creates the leaf directory itself.
func NewKuzuFileExporter(dbPath string) (*KuzuExporter, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuExporter, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuExporter{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (e *KuzuExporter) Close() error {
	if e.conn != nil {
		e.conn.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
	return nil
}

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Module(
		path STRING,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Symbol(
		qualified_name STRING,
		simple_name STRING,
		kind STRING,
		module_path STRING,
		file_path STRING,
		line INT64,
		public BOOLEAN,
		signature STRING,
		fan_in INT64,
		fan_out INT64,
		betweenness DOUBLE,
		PRIMARY KEY(qualified_name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DECLARES(FROM Module TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM Module TO Module)`,
	`CREATE REL TABLE IF NOT EXISTS CALLS(FROM Symbol TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS INHERITS(FROM Symbol TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS USES(FROM Symbol TO Symbol)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (e *KuzuExporter) InitSchema() error {
	for _, stmt := range ddlStatements {
		res, err := e.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// Export writes the whole table into the graph: modules, symbols with their
// metrics, then edges. Edges whose endpoints are external to the table are
// skipped; Kuzu relationships need both node rows present.
func (e *KuzuExporter) Export(table *symtab.DocumentationSymbolTable) error {
	if err := e.InitSchema(); err != nil {
		return err
	}

	for _, module := range table.Modules {
		if err := e.exec(
			"CREATE (m:Module {path: $path})",
			map[string]any{"path": module},
		); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(table.Symbols))
	for name := range table.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := e.addSymbol(table, table.Symbols[name]); err != nil {
			return err
		}
	}

	for _, name := range names {
		sym := table.Symbols[name]
		if sym.Kind == symtab.KindModule || sym.ModulePath == "" {
			continue
		}
		if err := e.exec(
			`MATCH (m:Module {path: $mod}), (s:Symbol {qualified_name: $qn})
			 CREATE (m)-[:DECLARES]->(s)`,
			map[string]any{"mod": sym.ModulePath, "qn": name},
		); err != nil {
			return err
		}
	}

	importers := make([]string, 0, len(table.ImportGraph))
	for m := range table.ImportGraph {
		importers = append(importers, m)
	}
	sort.Strings(importers)
	moduleSet := make(map[string]bool, len(table.Modules))
	for _, m := range table.Modules {
		moduleSet[m] = true
	}
	for _, importer := range importers {
		for _, imported := range table.ImportGraph[importer] {
			if !moduleSet[imported] {
				continue
			}
			if err := e.exec(
				`MATCH (a:Module {path: $src}), (b:Module {path: $dst})
				 CREATE (a)-[:IMPORTS]->(b)`,
				map[string]any{"src": importer, "dst": imported},
			); err != nil {
				return err
			}
		}
	}

	return e.exportRefs(table)
}

func (e *KuzuExporter) addSymbol(table *symtab.DocumentationSymbolTable, sym *symtab.Symbol) error {
	m := table.Metrics[sym.QualifiedName]
	return e.exec(
		`CREATE (s:Symbol {
			qualified_name: $qn,
			simple_name: $sn,
			kind: $kind,
			module_path: $mod,
			file_path: $fp,
			line: $line,
			public: $public,
			signature: $sig,
			fan_in: $fi,
			fan_out: $fo,
			betweenness: $bc
		})`,
		map[string]any{
			"qn":     sym.QualifiedName,
			"sn":     sym.SimpleName,
			"kind":   string(sym.Kind),
			"mod":    sym.ModulePath,
			"fp":     sym.Location.File,
			"line":   int64(sym.Location.Line),
			"public": sym.Public,
			"sig":    sym.Signature,
			"fi":     int64(m.FanIn),
			"fo":     int64(m.FanOut),
			"bc":     m.Betweenness,
		},
	)
}

// exportRefs writes calls, inherits, and uses edges between symbols that both
// exist in the table.
func (e *KuzuExporter) exportRefs(table *symtab.DocumentationSymbolTable) error {
	for _, ref := range table.CrossReferences {
		var rel string
		switch ref.Type {
		case symtab.RelCalls:
			rel = "CALLS"
		case symtab.RelInherits:
			rel = "INHERITS"
		case symtab.RelUses:
			rel = "USES"
		default:
			continue
		}
		if table.Symbols[ref.Source] == nil || table.Symbols[ref.Target] == nil {
			continue
		}
		cypher := fmt.Sprintf(
			`MATCH (a:Symbol {qualified_name: $src}), (b:Symbol {qualified_name: $dst})
			 CREATE (a)-[:%s]->(b)`, rel)
		if err := e.exec(cypher, map[string]any{
			"src": ref.Source,
			"dst": ref.Target,
		}); err != nil {
			return err
		}
	}
	return nil
}

// CountSymbols returns the number of Symbol rows, a cheap sanity check after
// an export.
func (e *KuzuExporter) CountSymbols() (int, error) {
	rows, err := e.query("MATCH (s:Symbol) RETURN count(s)", nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	if n, ok := rows[0][0].(int64); ok {
		return int(n), nil
	}
	return 0, nil
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (e *KuzuExporter) exec(cypher string, params map[string]any) error {
	stmt, err := e.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := e.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all result rows, each a []any in
// column order.
func (e *KuzuExporter) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = e.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = e.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = e.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}
