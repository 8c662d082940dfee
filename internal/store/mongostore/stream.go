package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dbsmedya/docschema/internal/schema"
)

// cursor is the subset of *mongo.Cursor the streams need.
type cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

// cursorStream adapts a driver cursor to schema.Stream, decoding each
// document with decode.
type cursorStream[T any] struct {
	cur    cursor
	decode func(cursor) (T, error)
}

func (s *cursorStream[T]) Next(ctx context.Context) bool { return s.cur.Next(ctx) }

func (s *cursorStream[T]) Decode() (T, error) { return s.decode(s.cur) }

func (s *cursorStream[T]) Err() error { return s.cur.Err() }

func (s *cursorStream[T]) Close(ctx context.Context) error { return s.cur.Close(ctx) }

func newDocumentStream(cur cursor) schema.Stream[schema.RawDocument] {
	return &cursorStream[schema.RawDocument]{
		cur: cur,
		decode: func(c cursor) (schema.RawDocument, error) {
			var doc bson.D
			if err := c.Decode(&doc); err != nil {
				return nil, err
			}
			return doc, nil
		},
	}
}

func newPartialResultStream(cur cursor) schema.Stream[schema.PartialResult] {
	return &cursorStream[schema.PartialResult]{
		cur: cur,
		decode: func(c cursor) (schema.PartialResult, error) {
			var part schema.PartialResult
			err := c.Decode(&part)
			return part, err
		},
	}
}
