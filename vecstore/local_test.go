package vecstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

func newTestStore(t *testing.T) *Local {
	t.Helper()
	store, err := NewLocal(LocalConfig{})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLocal_EnsureAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.EnsureCollection(ctx, "session_a", 3); err != nil {
		t.Fatal(err)
	}
	// Idempotent.
	if err := store.EnsureCollection(ctx, "session_a", 3); err != nil {
		t.Fatal(err)
	}

	n, err := store.Count(ctx, "session_a")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("count: got %d, want 0", n)
	}
}

func TestLocal_CountMissingCollection(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Count(context.Background(), "nope")
	if !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("error: got %v, want ErrCollectionNotFound", err)
	}
}

func TestLocal_UpsertAndSearchOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.EnsureCollection(ctx, "s", 3); err != nil {
		t.Fatal(err)
	}
	points := []Point{
		{ID: "p1", Vector: []float32{1, 0, 0}, Text: "exact", Payload: map[string]string{"k": "v1"}},
		{ID: "p2", Vector: []float32{0, 1, 0}, Text: "orthogonal"},
		{ID: "p3", Vector: []float32{1, 0.2, 0}, Text: "close"},
	}
	if err := store.Upsert(ctx, "s", points); err != nil {
		t.Fatal(err)
	}

	hits, err := store.Search(ctx, "s", []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Fatalf("hits: got %d, want 3", len(hits))
	}
	if hits[0].ID != "p1" || hits[1].ID != "p3" || hits[2].ID != "p2" {
		t.Fatalf("order: got %s, %s, %s", hits[0].ID, hits[1].ID, hits[2].ID)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatalf("scores not descending: %v then %v", hits[i-1].Score, hits[i].Score)
		}
	}
	if math.Abs(hits[0].Score-1.0) > 1e-6 {
		t.Fatalf("identical vector score: got %v, want ~1", hits[0].Score)
	}
	if hits[0].Payload["k"] != "v1" {
		t.Fatalf("payload round trip: %+v", hits[0].Payload)
	}
}

func TestLocal_SearchLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.EnsureCollection(ctx, "s", 2)

	var points []Point
	for i := 0; i < 10; i++ {
		points = append(points, Point{
			ID:     fmt.Sprintf("p%d", i),
			Vector: []float32{float32(i), 1},
		})
	}
	if err := store.Upsert(ctx, "s", points); err != nil {
		t.Fatal(err)
	}

	hits, err := store.Search(ctx, "s", []float32{1, 1}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 4 {
		t.Fatalf("hits: got %d, want 4", len(hits))
	}
}

func TestLocal_UpsertMissingCollection(t *testing.T) {
	store := newTestStore(t)
	err := store.Upsert(context.Background(), "nope", []Point{{ID: "x", Vector: []float32{1}}})
	if !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("error: got %v, want ErrCollectionNotFound", err)
	}
}

func TestLocal_UpsertReplacesByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.EnsureCollection(ctx, "s", 2)

	store.Upsert(ctx, "s", []Point{{ID: "p1", Vector: []float32{1, 0}, Text: "old"}})
	store.Upsert(ctx, "s", []Point{{ID: "p1", Vector: []float32{0, 1}, Text: "new"}})

	n, _ := store.Count(ctx, "s")
	if n != 1 {
		t.Fatalf("count after replace: got %d, want 1", n)
	}
	got, err := store.Get(ctx, "s", []string{"p1"})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Text != "new" {
		t.Fatalf("text: got %q, want new", got[0].Text)
	}
}

func TestLocal_GetPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.EnsureCollection(ctx, "s", 2)
	store.Upsert(ctx, "s", []Point{
		{ID: "a", Vector: []float32{1, 0}, Text: "A"},
		{ID: "b", Vector: []float32{0, 1}, Text: "B"},
		{ID: "c", Vector: []float32{1, 1}, Text: "C"},
	})

	got, err := store.Get(ctx, "s", []string{"c", "missing", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("get order: %+v", got)
	}
}

func TestLocal_CollectionIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.EnsureCollection(ctx, "session_a", 2)
	store.EnsureCollection(ctx, "session_b", 2)

	store.Upsert(ctx, "session_a", []Point{{ID: "only-a", Vector: []float32{1, 0}}})

	hits, err := store.Search(ctx, "session_b", []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("session_b sees %d points from session_a", len(hits))
	}

	n, _ := store.Count(ctx, "session_b")
	if n != 0 {
		t.Fatalf("session_b count: got %d, want 0", n)
	}
}

func TestLocal_DeleteAndRecreate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.EnsureCollection(ctx, "s", 2)
	store.Upsert(ctx, "s", []Point{{ID: "p", Vector: []float32{1, 0}}})

	if err := store.DeleteCollection(ctx, "s"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Count(ctx, "s"); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("count after delete: %v", err)
	}
	if err := store.DeleteCollection(ctx, "s"); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("second delete: %v", err)
	}

	if err := store.EnsureCollection(ctx, "s", 2); err != nil {
		t.Fatal(err)
	}
	n, err := store.Count(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("recreated collection count: got %d, want 0", n)
	}
}

func TestLocal_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.EnsureCollection(ctx, "s", 4)
	if err := store.EnsureCollection(ctx, "s", 8); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestVectorRoundTrip(t *testing.T) {
	original := []float32{1.0, -2.5, 3.14, 0, -0.001}
	restored := DeserializeVector(SerializeVector(original))

	if len(restored) != len(original) {
		t.Fatalf("length mismatch: %d vs %d", len(restored), len(original))
	}
	for i := range original {
		if restored[i] != original[i] {
			t.Fatalf("mismatch at %d: %f vs %f", i, restored[i], original[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}

	if sim := CosineSimilarity(a, b); math.Abs(sim-1.0) > 1e-6 {
		t.Fatalf("identical vectors: got %f, want ~1", sim)
	}
	if sim := CosineSimilarity(a, c); math.Abs(sim) > 1e-6 {
		t.Fatalf("orthogonal vectors: got %f, want ~0", sim)
	}
	if sim := CosineSimilarity(a, []float32{1, 0}); sim != 0 {
		t.Fatalf("length mismatch: got %f, want 0", sim)
	}
}

func TestNorm(t *testing.T) {
	if n := Norm([]float32{3, 4}); math.Abs(n-5.0) > 1e-6 {
		t.Fatalf("norm: got %f, want 5", n)
	}
}
