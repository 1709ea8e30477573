package embedding

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	v := Normalize([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize([3 4]) = %v, want [0.6 0.8]", v)
	}
	if !IsNormalized(v) {
		t.Error("normalized vector should report IsNormalized")
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	t.Parallel()

	v := Normalize([]float32{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("zero vector changed at index %d: %v", i, x)
		}
	}
}

func TestIsNormalized(t *testing.T) {
	t.Parallel()

	if IsNormalized([]float32{3, 4}) {
		t.Error("unnormalized vector reported as normalized")
	}
	if IsNormalized(nil) {
		t.Error("empty vector reported as normalized")
	}
	if !IsNormalized([]float32{0.6, 0.8}) {
		t.Error("unit vector not recognised")
	}
}

func TestCombine(t *testing.T) {
	t.Parallel()

	text := []float32{1, 0}
	image := []float32{0, 1}
	got := Combine(text, image, 0.7, 0.3)

	if !IsNormalized(got) {
		t.Fatalf("combined vector not normalized: %v", got)
	}
	// Direction must be the weighted sum (0.7, 0.3) renormalized.
	norm := float32(math.Hypot(0.7, 0.3))
	want := []float32{0.7 / norm, 0.3 / norm}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Errorf("Combine[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCombineTextDominates(t *testing.T) {
	t.Parallel()

	text := []float32{1, 0}
	image := []float32{0, 1}
	got := Combine(text, image, 0.7, 0.3)

	if got[0] <= got[1] {
		t.Errorf("text weight 0.7 should dominate image weight 0.3: got %v", got)
	}
}
