package vector

import (
	"math"
	"sort"

	"litreview/internal/models"
)

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero
// vector or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK scores every vector against query and returns the k best passages,
// highest score first. Ties keep chunk order.
func TopK(query []float32, texts []string, vectors [][]float32, k int) []models.Passage {
	scored := make([]models.Passage, 0, len(vectors))
	for i, v := range vectors {
		scored = append(scored, models.Passage{Index: i, Text: texts[i], Score: Cosine(query, v)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
