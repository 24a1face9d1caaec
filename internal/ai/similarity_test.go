package ai

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		a      []float64
		b      []float64
		expect float64
	}{
		{
			name:   "identical vectors",
			a:      []float64{1, 2, 3},
			b:      []float64{1, 2, 3},
			expect: 1,
		},
		{
			name:   "orthogonal vectors",
			a:      []float64{1, 0},
			b:      []float64{0, 1},
			expect: 0,
		},
		{
			name:   "opposite vectors clamp to zero",
			a:      []float64{1, 1},
			b:      []float64{-1, -1},
			expect: 0,
		},
		{
			name:   "mismatched lengths",
			a:      []float64{1, 2},
			b:      []float64{1, 2, 3},
			expect: 0,
		},
		{
			name:   "zero norm",
			a:      []float64{0, 0},
			b:      []float64{1, 2},
			expect: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expect) > 1e-9 {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	t.Parallel()

	a := []float64{0.3, 0.1, 0.9, 0.2}
	b := []float64{0.5, 0.7, 0.2, 0.4}

	if got, rev := CosineSimilarity(a, b), CosineSimilarity(b, a); got != rev {
		t.Fatalf("expected symmetric similarity, got %v and %v", got, rev)
	}
}
