package providers

import (
	"errors"
	"math"
)

var (
	ErrDimensionMismatch = errors.New("feature vectors differ in length")
	ErrZeroVector        = errors.New("feature vector has zero magnitude")
)

// Cosine is the default SimilarityScorer.
type Cosine struct{}

func (Cosine) Similarity(a, b []float64) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
