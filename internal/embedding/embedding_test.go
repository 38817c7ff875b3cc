package embedding

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	a := Vector{1, 0, 0}
	b := Vector{1, 0, 0}
	if got := CosineSimilarity(a, b); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical vectors: got %f, want 1.0", got)
	}

	c := Vector{0, 1, 0}
	if got := CosineSimilarity(a, c); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors: got %f, want 0", got)
	}

	if got := CosineSimilarity(a, Vector{0, 0, 0}); got != 0 {
		t.Errorf("zero vector: got %f, want 0", got)
	}
	if got := CosineSimilarity(a, Vector{1, 0}); got != 0 {
		t.Errorf("mismatched dims: got %f, want 0", got)
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder(128)

	first, err := m.Embed(ctx, []string{"the same text"})
	if err != nil {
		t.Fatal(err)
	}
	second, _ := m.Embed(ctx, []string{"the same text"})
	if !reflect.DeepEqual(first[0], second[0]) {
		t.Error("same text produced different embeddings")
	}
	if len(first[0]) != 128 {
		t.Errorf("got %d dims, want 128", len(first[0]))
	}
}

func TestMockEmbedder_PreservesBatchOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder(64)

	texts := []string{"alpha", "beta", "gamma"}
	batch, err := m.Embed(ctx, texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 3 {
		t.Fatalf("got %d vectors, want 3", len(batch))
	}
	for i, text := range texts {
		single, _ := m.Embed(ctx, []string{text})
		if !reflect.DeepEqual(batch[i], single[0]) {
			t.Errorf("batch[%d] does not match single embedding of %q", i, text)
		}
	}
}

func TestMockEmbedder_WordOverlapSimilarity(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder(384)

	vecs, err := m.Embed(ctx, []string{
		"use exponential backoff for retries",
		"should we use exponential backoff for retry logic",
		"the weather in lisbon is sunny today",
	})
	if err != nil {
		t.Fatal(err)
	}

	overlapping := CosineSimilarity(vecs[0], vecs[1])
	unrelated := CosineSimilarity(vecs[0], vecs[2])
	if overlapping <= unrelated {
		t.Errorf("overlap sim %f should exceed unrelated sim %f", overlapping, unrelated)
	}
	if overlapping < 0.3 {
		t.Errorf("overlap sim %f below expected floor", overlapping)
	}
}

func TestMockEmbedder_UnitNorm(t *testing.T) {
	m := NewMockEmbedder(64)
	vecs, _ := m.Embed(context.Background(), []string{"normalize me please"})

	var sum float64
	for _, v := range vecs[0] {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-5 {
		t.Errorf("norm = %f, want 1.0", math.Sqrt(sum))
	}
}
