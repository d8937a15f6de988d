package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batchFile = `
actor: alice
batches:
  - actions:
      - {type: file.create, id: F1, payload: {name: Reports, type: folder}}
      - type: notebook.create
        id: N1
        payload: {name: Queries, path: [{id: F1, name: Reports}]}
      - {type: note.create, id: a, payload: {notebookId: N1, name: a, type: sql}}
  - actions:
      - {type: note.update.content, id: a, payload: {content: "SELECT 1"}}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEmitTreeJournalReplay(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	dir := t.TempDir()
	source := filepath.Join(dir, "source.db")
	target := filepath.Join(dir, "target.db")
	file := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(file, []byte(batchFile), 0644))

	_, err := run(t, "emit", "-f", file, "--driver", "sqlite", "--sqlite-path", source)
	require.NoError(t, err)

	out, err := run(t, "tree", "--driver", "sqlite", "--sqlite-path", source, "--actor", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Reports/\n  Queries [notebook]\n", out)

	export := filepath.Join(dir, "export.yaml")
	_, err = run(t, "journal", "--driver", "sqlite", "--sqlite-path", source, "--actor", "alice", "-o", export)
	require.NoError(t, err)
	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Contains(t, string(data), "note.update.content")

	out, err = run(t, "replay", "--driver", "sqlite", "--sqlite-path", target, "--actor", "alice",
		"--from-driver", "sqlite", "--from-sqlite-path", source)
	require.NoError(t, err)
	assert.Contains(t, out, "replayed 2 batches (4 actions)")

	out, err = run(t, "tree", "--driver", "sqlite", "--sqlite-path", target, "--actor", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Reports/\n  Queries [notebook]\n", out)

	// the exported file applies cleanly to a fresh store
	_, err = run(t, "emit", "-f", export, "--driver", "sqlite", "--sqlite-path", filepath.Join(dir, "third.db"))
	require.NoError(t, err)
}

func TestEmitRequiresActor(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("QUIX_ACTOR", "")
	dir := t.TempDir()
	file := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`actions: [{type: file.create, id: F1, payload: {name: x, type: folder}}]`), 0644))

	_, err := run(t, "emit", "-f", file, "--driver", "memory")
	assert.ErrorContains(t, err, "no actor")
}
