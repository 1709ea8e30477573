package embedding

import "math"

// Normalize scales v to unit L2 length in place and returns it.
// A zero vector is returned unchanged; there is no direction to preserve.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

// IsNormalized reports whether v has unit L2 length within tolerance.
func IsNormalized(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Abs(sum-1.0) < 1e-3
}

// Combine merges a text vector and an image vector of equal length into one
// normalized query vector using the given weights. Used for "image and text"
// searches where both modalities describe the same desired location.
func Combine(text, image []float32, textWeight, imageWeight float32) []float32 {
	n := len(text)
	if len(image) < n {
		n = len(image)
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = textWeight*text[i] + imageWeight*image[i]
	}
	return Normalize(out)
}
