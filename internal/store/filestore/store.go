// Package filestore samples documents from an exported NDJSON file, one
// Extended JSON document per line as written by mongoexport.
package filestore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/dbsmedya/docschema/internal/schema"
	"github.com/dbsmedya/docschema/internal/store/docjson"
)

// maxLineBytes bounds a single exported document.
const maxLineBytes = 64 << 20

// Extensions tried, in order, when the source path is a directory.
var Extensions = []string{".json", ".ndjson", ".jsonl"}

// Store is a schema.DocumentSource over one export file.
type Store struct {
	path string
	rng  *rand.Rand
}

var _ schema.DocumentSource = (*Store)(nil)

// New resolves the export for collection. path may name the file itself or
// a directory holding <collection>.json (or .ndjson, .jsonl).
func New(path, collection string) (*Store, error) {
	file, err := resolve(path, collection)
	if err != nil {
		return nil, err
	}
	return &Store{path: file, rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}, nil
}

// WithSeed makes sampling deterministic.
func (s *Store) WithSeed(seed uint64) *Store {
	s.rng = rand.New(rand.NewPCG(seed, seed))
	return s
}

// Path returns the resolved export file.
func (s *Store) Path() string {
	return s.path
}

func resolve(path, collection string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("source path: %w", err)
	}
	if !info.IsDir() {
		return path, nil
	}
	for _, ext := range Extensions {
		candidate := filepath.Join(path, collection+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no export for collection %q in %s", collection, path)
}

// EstimateCount counts the non-blank lines of the export.
func (s *Store) EstimateCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.scan(ctx, func([]byte) {
		n++
	})
	return n, err
}

// Sample draws size lines uniformly with reservoir sampling in a single
// pass. Documents are decoded lazily as the stream is consumed.
func (s *Store) Sample(ctx context.Context, size int64) (schema.Stream[schema.RawDocument], error) {
	if size <= 0 {
		return &lineStream{}, nil
	}

	reservoir := make([][]byte, 0, min(size, 1<<16))
	var seen int64
	err := s.scan(ctx, func(line []byte) {
		seen++
		if int64(len(reservoir)) < size {
			reservoir = append(reservoir, bytes.Clone(line))
			return
		}
		if j := s.rng.Int64N(seen); j < size {
			reservoir[j] = bytes.Clone(line)
		}
	})
	if err != nil {
		return nil, err
	}
	return &lineStream{lines: reservoir, pos: -1}, nil
}

// scan calls fn for every non-blank line. The slice is only valid during
// the call.
func (s *Store) scan(ctx context.Context, fn func([]byte)) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for i := 0; sc.Scan(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read export: %w", err)
	}
	return nil
}

// lineStream decodes buffered export lines on demand.
type lineStream struct {
	lines [][]byte
	pos   int
	err   error
}

func (l *lineStream) Next(ctx context.Context) bool {
	if l.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		l.err = err
		return false
	}
	if l.pos+1 >= len(l.lines) {
		return false
	}
	l.pos++
	return true
}

func (l *lineStream) Decode() (schema.RawDocument, error) {
	if l.pos < 0 || l.pos >= len(l.lines) {
		return nil, errors.New("no current line")
	}
	return docjson.Decode(l.lines[l.pos])
}

func (l *lineStream) Err() error { return l.err }

func (l *lineStream) Close(context.Context) error {
	l.lines = nil
	return nil
}
