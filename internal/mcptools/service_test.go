package mcptools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/xref/internal/symtab"
)

func fixtureRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write("core/base.py", `class Entity:
    def save(self):
        raise NotImplementedError
`)
	write("app/models.py", `from core.base import Entity

class User(Entity):
    def save(self):
        pass

def create_user():
    User()

def import_users():
    User()
`)
	return dir
}

func TestService_BuildIndexAndQueries(t *testing.T) {
	svc := NewXrefService()
	defer svc.Close()
	ctx := context.Background()

	_, out, err := svc.BuildIndex(ctx, nil, BuildIndexInput{RepoPath: fixtureRepo(t)})
	require.NoError(t, err)
	assert.Greater(t, out.Stats.SymbolCount, 0)
	assert.Equal(t, 2, out.Stats.ModuleCount)
	assert.Empty(t, out.ParseErrors)

	_, lookup, err := svc.LookupSymbol(ctx, nil, LookupSymbolInput{QualifiedName: "app.models.User"})
	require.NoError(t, err)
	require.True(t, lookup.Found)
	assert.Equal(t, symtab.KindClass, lookup.Symbol.Kind)
	require.NotNil(t, lookup.Chain)
	assert.Equal(t, []string{"app.models.User", "core.base.Entity"}, lookup.Chain.LinearizedAncestors)

	_, missing, err := svc.LookupSymbol(ctx, nil, LookupSymbolInput{QualifiedName: "no.such.Thing"})
	require.NoError(t, err)
	assert.False(t, missing.Found)

	_, seeAlso, err := svc.SeeAlso(ctx, nil, SeeAlsoInput{QualifiedName: "app.models.User"})
	require.NoError(t, err)
	assert.Contains(t, seeAlso.Related, "core.base.Entity")

	_, usage, err := svc.UsageExamples(ctx, nil, UsageExamplesInput{QualifiedName: "app.models.User"})
	require.NoError(t, err)
	require.Len(t, usage.Patterns, 1)
	assert.Equal(t, 2, usage.Patterns[0].Frequency)

	_, search, err := svc.SearchSymbols(ctx, nil, SearchSymbolsInput{Query: "user"})
	require.NoError(t, err)
	assert.Greater(t, search.Total, 0)
	assert.Equal(t, "app.models.User", search.Matches[0].QualifiedName)
}

func TestService_QueriesBeforeIndex(t *testing.T) {
	svc := NewXrefService()
	defer svc.Close()
	ctx := context.Background()

	_, _, err := svc.LookupSymbol(ctx, nil, LookupSymbolInput{QualifiedName: "x"})
	assert.ErrorIs(t, err, symtab.ErrNotReady)

	_, _, err = svc.SeeAlso(ctx, nil, SeeAlsoInput{QualifiedName: "x"})
	assert.ErrorIs(t, err, symtab.ErrNotReady)
}

func TestService_InputValidation(t *testing.T) {
	svc := NewXrefService()
	defer svc.Close()
	ctx := context.Background()

	_, _, err := svc.BuildIndex(ctx, nil, BuildIndexInput{})
	assert.ErrorContains(t, err, "repoPath is required")

	_, _, err = svc.BuildIndex(ctx, nil, BuildIndexInput{RepoPath: fixtureRepo(t), Collision: "bogus"})
	assert.ErrorContains(t, err, "unknown collision strategy")

	_, _, err = svc.BuildIndex(ctx, nil, BuildIndexInput{RepoPath: fixtureRepo(t), Languages: []string{"cobol"}})
	assert.ErrorContains(t, err, "unsupported language")

	_, _, err = svc.LookupSymbol(ctx, nil, LookupSymbolInput{})
	assert.ErrorContains(t, err, "qualifiedName is required")
}

func TestService_RebuildReplacesIndex(t *testing.T) {
	svc := NewXrefService()
	defer svc.Close()
	ctx := context.Background()
	repo := fixtureRepo(t)

	_, first, err := svc.BuildIndex(ctx, nil, BuildIndexInput{RepoPath: repo})
	require.NoError(t, err)

	_, second, err := svc.BuildIndex(ctx, nil, BuildIndexInput{RepoPath: repo})
	require.NoError(t, err)
	assert.Equal(t, first.Stats, second.Stats, "reindexing the same tree is stable")
}
