package inbox

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nameExtractor struct{}

func (nameExtractor) ExtractText(_ context.Context, name string, _ io.ReaderAt, _ int64) (string, error) {
	return "03/02/2024 " + name + " DEPOSIT 10.00", nil
}

type busyStore struct{ calls int }

func (b *busyStore) ProcessFiles(context.Context, []analyzer.File, func(analyzer.Progress)) (analyzer.BatchResult, error) {
	b.calls++
	return analyzer.BatchResult{}, nil
}

func (*busyStore) IsProcessing() bool { return true }

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o600))
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.pdf", "a.PDF", "notes.txt")

	store := analyzer.New(analyzer.WithExtractor(nameExtractor{}))
	w := New(dir, store)

	res, err := w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Transactions)

	stmts := store.Statements()
	require.Len(t, stmts, 2)
	assert.Equal(t, "a.PDF", stmts[0].Filename)
	assert.Equal(t, "b.pdf", stmts[1].Filename)

	assert.FileExists(t, filepath.Join(dir, ProcessedDir, "a.PDF"))
	assert.FileExists(t, filepath.Join(dir, ProcessedDir, "b.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "b.pdf"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))

	res, err = w.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Transactions)
	assert.Len(t, store.Statements(), 2)
}

func TestScan_NameCollision(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ProcessedDir), 0o755))
	writeFiles(t, filepath.Join(dir, ProcessedDir), "march.pdf")
	writeFiles(t, dir, "march.pdf")

	w := New(dir, analyzer.New(analyzer.WithExtractor(nameExtractor{})))
	_, err := w.Scan(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, ProcessedDir))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestScan_SkipsWhenBusy(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "march.pdf")
	store := &busyStore{}

	_, err := New(dir, store).Scan(context.Background())
	require.NoError(t, err)

	assert.Zero(t, store.calls)
	assert.FileExists(t, filepath.Join(dir, "march.pdf"))
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	w := New(t.TempDir(), &busyStore{})
	assert.Error(t, w.Start("not a schedule"))
}

func TestStartStop(t *testing.T) {
	w := New(t.TempDir(), &busyStore{})
	require.NoError(t, w.Start(""))
	<-w.Stop().Done()
}
