package embeddings

import (
	"context"
	"math"
	"testing"
)

func TestMockProvider_Deterministic(t *testing.T) {
	m := NewMockProvider(64)
	ctx := context.Background()

	first, err := m.Embed(ctx, "the same text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.Embed(ctx, "the same text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("position %d: %v != %v", i, first[i], second[i])
		}
	}

	other, err := m.Embed(ctx, "different text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	same := true
	for i := range first {
		if first[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different texts produced identical embeddings")
	}
}

func TestMockProvider_UnitNorm(t *testing.T) {
	m := NewMockProvider(128)
	vec, err := m.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 128 {
		t.Fatalf("dimension = %d, want 128", len(vec))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1.0) > 0.001 {
		t.Errorf("norm = %f, want 1.0", norm)
	}
}

func TestMockProvider_EmptyInput(t *testing.T) {
	m := NewMockProvider(8)
	if _, err := m.Embed(context.Background(), ""); err != ErrEmptyInput {
		t.Fatalf("error = %v, want ErrEmptyInput", err)
	}
}

func TestMockProvider_DefaultDimension(t *testing.T) {
	m := NewMockProvider(0)
	if m.Dimension() != 1024 {
		t.Errorf("Dimension = %d, want 1024", m.Dimension())
	}
}
