package npCorr

import (
	"math"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix 按列的 Pearson 相关系数矩阵(样本协方差, 除数 n-1)
type CorrMatrix struct {
	Matrix   [][]float64
	ZeroVar  []bool // 常数列
	Variance []float64
}

// CorrCoef 等价 np.corrcoef(X, rowvar=False)
// 零方差列与所有列(含自身对角线)的相关系数为 NaN, 其余对角线严格为 1
func CorrCoef(x mat.Matrix) (CorrMatrix, error) {
	n, p := x.Dims()
	if p == 0 {
		return CorrMatrix{Matrix: [][]float64{}, ZeroVar: []bool{}, Variance: []float64{}}, nil
	}
	if n < 2 {
		return CorrMatrix{}, errorx.New(errCode.INVALID_VALUE, "CorrCoef: need at least 2 rows")
	}

	zeroVar := make([]bool, p)
	variance := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		zeroVar[j] = isConstant(col)
		if zeroVar[j] {
			continue
		}
		variance[j] = stat.Variance(col, nil)
	}

	sym := mat.NewSymDense(p, nil)
	stat.CorrelationMatrix(sym, x, nil)

	out := make([][]float64, p)
	for i := 0; i < p; i++ {
		out[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			switch {
			case zeroVar[i] || zeroVar[j]:
				out[i][j] = math.NaN()
			case i == j:
				out[i][j] = 1
			default:
				out[i][j] = sym.At(i, j)
			}
		}
	}
	return CorrMatrix{Matrix: out, ZeroVar: zeroVar, Variance: variance}, nil
}

// isConstant 全部取值相同即零方差, 不依赖浮点方差的舍入
func isConstant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
