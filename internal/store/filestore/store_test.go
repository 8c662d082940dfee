package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/docschema/internal/logger"
	"github.com/dbsmedya/docschema/internal/schema"
)

func writeExport(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func drain(t *testing.T, stream schema.Stream[schema.RawDocument]) (docs []schema.RawDocument, failures int) {
	t.Helper()
	defer stream.Close(context.Background())
	for stream.Next(context.Background()) {
		doc, err := stream.Decode()
		if err != nil {
			failures++
			continue
		}
		docs = append(docs, doc)
	}
	require.NoError(t, stream.Err())
	return docs, failures
}

func TestNew_ResolvesCollectionInDirectory(t *testing.T) {
	dir := t.TempDir()
	want := writeExport(t, dir, "users.ndjson", `{"a":1}`)

	store, err := New(dir, "users")
	require.NoError(t, err)
	assert.Equal(t, want, store.Path())

	_, err = New(dir, "orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders")
}

func TestNew_AcceptsFilePath(t *testing.T) {
	path := writeExport(t, t.TempDir(), "dump.json", `{"a":1}`)

	store, err := New(path, "ignored")
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())

	_, err = New(filepath.Join(t.TempDir(), "absent.json"), "x")
	assert.Error(t, err)
}

func TestEstimateCount_SkipsBlankLines(t *testing.T) {
	path := writeExport(t, t.TempDir(), "users.json",
		`{"a":1}`,
		``,
		`{"a":2}`,
		`   `,
		`{"a":3}`,
	)
	store, err := New(path, "users")
	require.NoError(t, err)

	n, err := store.EstimateCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSample_ReturnsEverythingWhenSmallerThanSize(t *testing.T) {
	path := writeExport(t, t.TempDir(), "users.json",
		`{"a": 1, "b": "x"}`,
		`{"a": "y"}`,
		`{"c": true}`,
	)
	store, err := New(path, "users")
	require.NoError(t, err)

	stream, err := store.Sample(context.Background(), 10000)
	require.NoError(t, err)

	docs, failures := drain(t, stream)
	assert.Len(t, docs, 3)
	assert.Zero(t, failures)
}

func TestSample_BoundsSizeAndDrawsDistinctLines(t *testing.T) {
	lines := make([]string, 500)
	for i := range lines {
		lines[i] = fmt.Sprintf(`{"i": %d}`, i)
	}
	path := writeExport(t, t.TempDir(), "big.json", lines...)
	store, err := New(path, "big")
	require.NoError(t, err)
	store.WithSeed(7)

	stream, err := store.Sample(context.Background(), 50)
	require.NoError(t, err)

	docs, _ := drain(t, stream)
	require.Len(t, docs, 50)

	seen := make(map[string]bool)
	for _, d := range docs {
		key := fmt.Sprint(d)
		assert.False(t, seen[key], "reservoir never repeats a line")
		seen[key] = true
	}
}

func TestSample_SeedIsDeterministic(t *testing.T) {
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = fmt.Sprintf(`{"i": %d}`, i)
	}
	path := writeExport(t, t.TempDir(), "big.json", lines...)

	draw := func() []schema.RawDocument {
		store, err := New(path, "big")
		require.NoError(t, err)
		stream, err := store.WithSeed(42).Sample(context.Background(), 10)
		require.NoError(t, err)
		docs, _ := drain(t, stream)
		return docs
	}

	assert.Equal(t, draw(), draw())
}

func TestSample_ZeroSize(t *testing.T) {
	path := writeExport(t, t.TempDir(), "users.json", `{"a":1}`)
	store, err := New(path, "users")
	require.NoError(t, err)

	stream, err := store.Sample(context.Background(), 0)
	require.NoError(t, err)
	docs, _ := drain(t, stream)
	assert.Empty(t, docs)
}

func TestSample_CancelledContext(t *testing.T) {
	path := writeExport(t, t.TempDir(), "users.json", `{"a":1}`)
	store, err := New(path, "users")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Sample(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

// Lines that are not documents become malformed, empty shapes; the run
// still completes.
func TestInferOverExport_RecoversMalformedLines(t *testing.T) {
	path := writeExport(t, t.TempDir(), "users.json",
		`{"a": 1, "b": "x"}`,
		`[1, 2, 3]`,
		`{"a": "y"}`,
		`{"c": true}`,
	)
	store, err := New(path, "users")
	require.NoError(t, err)

	res, err := schema.NewInferrer(store, schema.DefaultOptions(), logger.NewNop()).Infer(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), res.EstimatedCount)
	assert.Equal(t, 4, res.Sampled)
	assert.Equal(t, 1, res.Malformed)
	assert.Equal(t, []string{"a", "b", "c"}, res.Keys)
	// The empty shape completes to all-missing.
	for _, f := range res.Keys {
		assert.True(t, res.Aggregate[f].Has(schema.TypeMissing), f)
	}
}
