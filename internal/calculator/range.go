package calculator

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ScaleLevels converts values into small integer rendering levels. The scale is
// max(1, max(values)/buckets) and each nonzero value becomes ceil(v/scale).
func ScaleLevels(values []float64, buckets float64) (scale float64, levels []float64, err error) {
	if len(values) == 0 {
		return 0, nil, errors.New("no values provided")
	}
	if buckets <= 0 {
		return 0, nil, errors.New("buckets must be positive")
	}
	scale = math.Max(1, floats.Max(values)/buckets)
	levels = make([]float64, len(values))
	for i, v := range values {
		if v != 0 {
			levels[i] = math.Ceil(v / scale)
		}
	}
	return scale, levels, nil
}

// SumSeries adds series element-wise. All series must have the same length.
func SumSeries(series [][]float64) ([]float64, error) {
	if len(series) == 0 {
		return nil, nil
	}
	n := len(series[0])
	total := make([]float64, n)
	for _, s := range series {
		if len(s) != n {
			return nil, errors.New("series length mismatch")
		}
		floats.Add(total, s)
	}
	return total, nil
}
