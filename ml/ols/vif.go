package ols

import (
	"math"

	"regress/numpy/npCorr"
	"regress/numpy/npLinalg"

	"gonum.org/v1/gonum/mat"
)

// VIF 方差膨胀因子: 非零方差列组成的相关矩阵求逆后的对角线
// 零方差列为 +Inf; 受限相关矩阵奇异时全部为 +Inf
func VIF(corr npCorr.CorrMatrix) []float64 {
	p := len(corr.Matrix)
	out := make([]float64, p)
	var keep []int
	for j := 0; j < p; j++ {
		out[j] = math.Inf(1)
		if !corr.ZeroVar[j] {
			keep = append(keep, j)
		}
	}
	if len(keep) == 0 {
		return out
	}

	m := len(keep)
	R := mat.NewDense(m, m, nil)
	for a, i := range keep {
		for b, j := range keep {
			R.Set(a, b, corr.Matrix[i][j])
		}
	}
	inv, err := npLinalg.Inverse(R)
	if err != nil {
		return out
	}
	for a, j := range keep {
		out[j] = inv.At(a, a)
	}
	return out
}
