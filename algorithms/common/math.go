package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic numeric helpers shared across the analysis algorithms, built on gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the sample variance of a slice using gonum
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(Variance(data))
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// SumSquares calculates total signal energy (sum of squared samples)
func SumSquares(data []float64) float64 {
	sum := 0.0
	for _, val := range data {
		sum += val * val
	}
	return sum
}

// Rotate returns data shifted left by n positions with wraparound.
// Rotate(x, len(x)) == x.
func Rotate(data []float64, n int) []float64 {
	if len(data) == 0 {
		return data
	}

	n %= len(data)
	if n < 0 {
		n += len(data)
	}

	rotated := make([]float64, len(data))
	copy(rotated, data[n:])
	copy(rotated[len(data)-n:], data[:n])
	return rotated
}

// PeakNormalize divides every element by the slice maximum plus a small
// epsilon guard. An all-zero slice is returned unchanged.
func PeakNormalize(data []float64) []float64 {
	if len(data) == 0 {
		return data
	}

	peak := floats.Max(data)
	if peak <= 0 {
		return data
	}

	normalized := make([]float64, len(data))
	for i, val := range data {
		normalized[i] = val / (peak + 1e-9)
	}
	return normalized
}
