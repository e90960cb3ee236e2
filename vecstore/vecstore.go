// Package vecstore provides the per-session vector index capability: batch
// upsert, nearest-neighbor query by cosine similarity, direct get-by-identity
// and collection deletion.
//
// Two backends implement Store: a local SQLite-backed index (ephemeral by
// default, ":memory:") and a remote qdrant adapter. The engine only depends
// on the interface.
package vecstore

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned when an operation targets a collection
// that does not exist.
var ErrCollectionNotFound = errors.New("vecstore: collection not found")

// Point is one stored chunk: identity, embedding, text body and flat
// string metadata.
type Point struct {
	ID      string
	Vector  []float32
	Text    string
	Payload map[string]string
}

// Scored is a search hit. Score is cosine similarity (1 − cosine distance),
// higher is better.
type Scored struct {
	Point
	Score float64
}

// Store is the vector index contract.
//
// Upsert is atomic per batch: readers observe either none or all of a
// batch's points. Search is read-only and returns hits in descending score
// order. DeleteCollection removes the collection and all its points.
type Store interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]Scored, error)
	Get(ctx context.Context, collection string, ids []string) ([]Point, error)
	Count(ctx context.Context, collection string) (int, error)
}
