package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestVariance(t *testing.T) {
	assert.Equal(t, 0.0, Variance([]float64{5}))
	assert.InDelta(t, 1.0, Variance([]float64{1, 2, 3}), 1e-12)
}

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.InDelta(t, 2.0, RMS([]float64{2, -2, 2, -2}), 1e-12)
}

func TestSumSquares(t *testing.T) {
	assert.Equal(t, 0.0, SumSquares(nil))
	assert.InDelta(t, 14.0, SumSquares([]float64{1, 2, 3}), 1e-12)
}

func TestRotate(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	assert.Equal(t, []float64{2, 3, 4, 1}, Rotate(x, 1))
	assert.Equal(t, []float64{3, 4, 1, 2}, Rotate(x, 2))
	assert.Equal(t, x, Rotate(x, 4), "full rotation is the identity")
	assert.Equal(t, Rotate(x, 1), Rotate(x, 5), "rotation wraps modulo length")
	assert.Equal(t, []float64{4, 1, 2, 3}, Rotate(x, -1))
	assert.Empty(t, Rotate(nil, 3))
}

func TestPeakNormalize(t *testing.T) {
	normalized := PeakNormalize([]float64{2, 4, 1})
	assert.InDelta(t, 1.0, normalized[1], 1e-6)
	assert.InDelta(t, 0.5, normalized[0], 1e-6)

	zeros := []float64{0, 0, 0}
	assert.Equal(t, zeros, PeakNormalize(zeros), "all-zero input is unchanged")
}
