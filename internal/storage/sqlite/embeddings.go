// ABOUTME: Vector math for semantic ranking of stored embeddings
package sqlite

import "math"

// CosineSimilarity calculates cosine similarity between two vectors. The
// shorter vector is zero-padded. A zero vector or a non-finite result gives 0.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	var dotProduct, normA, normB float64
	for i := 0; i < n; i++ {
		var x, y float64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0.0
	}
	return sim
}
