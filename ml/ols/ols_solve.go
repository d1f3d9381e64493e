package ols

import (
	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/numpy/npLinalg"

	"gonum.org/v1/gonum/mat"
)

const SingularHint = "X'X is not invertible, remove a highly correlated variable"

// Solution β = (X'X)^(-1) X'Y, 同时保留 (X'X)^(-1) 供协方差使用
type Solution struct {
	Coeffs []float64
	XtXInv *mat.Dense
}

// Solve 正规方程求解, 奇异时返回 SINGULAR_MATRIX
func Solve(matX *mat.Dense, matY *mat.VecDense) (*Solution, error) {
	n, k := matX.Dims()
	if matY.Len() != n {
		return nil, errorx.Newf(errCode.INVALID_VALUE, nil, "Y has %d rows, X has %d", matY.Len(), n)
	}
	if n <= k {
		return nil, errorx.Newf(errCode.INSUFFICIENT_SAMPLE_SIZE, nil, "%d observations for %d parameters", n, k)
	}

	// (X'X)
	XT := npLinalg.Transpose(matX)
	XTX, err := npLinalg.Mul(XT, matX)
	if err != nil {
		return nil, err
	}

	// (X'X)^(-1)
	invXTX, err := npLinalg.Inverse(XTX)
	if err != nil {
		if errorx.Is(err, errCode.SINGULAR_MATRIX) {
			return nil, errorx.Wrap(err, errCode.SINGULAR_MATRIX, SingularHint)
		}
		return nil, err
	}

	// (X'Y)
	XTY, err := npLinalg.MulVec(XT, matY)
	if err != nil {
		return nil, err
	}

	beta, err := npLinalg.MulVec(invXTX, XTY)
	if err != nil {
		return nil, err
	}
	coeffs := make([]float64, k)
	copy(coeffs, beta.RawVector().Data)
	return &Solution{Coeffs: coeffs, XtXInv: invXTX}, nil
}

// CollinearColumns 去掉后可使 X'X 可逆的非截距列, 用于奇异时定位变量
func CollinearColumns(matX *mat.Dense) []int {
	n, k := matX.Dims()
	if k <= 2 {
		return nil
	}
	var out []int
	for drop := 1; drop < k; drop++ {
		sub := mat.NewDense(n, k-1, nil)
		c := 0
		for j := 0; j < k; j++ {
			if j == drop {
				continue
			}
			sub.SetCol(c, mat.Col(nil, j, matX))
			c++
		}
		XTX, err := npLinalg.Mul(npLinalg.Transpose(sub), sub)
		if err != nil {
			continue
		}
		if _, err := npLinalg.Inverse(XTX); err == nil {
			out = append(out, drop)
		}
	}
	return out
}
