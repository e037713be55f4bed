package badger

import "math"

// cosineDistance returns 1 minus the cosine similarity of two vectors.
// Identical directions yield 0, orthogonal directions yield 1. A zero
// magnitude vector has no direction and is treated as maximally distant.
func cosineDistance(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, magA, magB float32
	for i := 0; i < minLen; i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 1
	}

	sim := dot / (float32(math.Sqrt(float64(magA))) * float32(math.Sqrt(float64(magB))))
	return 1 - sim
}
