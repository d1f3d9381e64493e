// Package npLinalg 稠密矩阵内核: 转置, 乘法, 带换行主元的 Gauss-Jordan 求逆.
package npLinalg

import (
	"fmt"
	"math"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"

	"gonum.org/v1/gonum/mat"
)

// PivotTolerance 主元绝对值低于该值视为不可用, 需要向下找行交换
const PivotTolerance = 1e-10

func Transpose(a mat.Matrix) *mat.Dense {
	var t mat.Dense
	t.CloneFrom(a.T())
	return &t
}

func Mul(a, b mat.Matrix) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		return nil, errorx.New(errCode.INVALID_VALUE, fmt.Sprintf("Mul: dimension mismatch %dx%d * %dx%d", ar, ac, br, bc))
	}
	var out mat.Dense
	out.Mul(a, b)
	return &out, nil
}

func MulVec(a mat.Matrix, v mat.Vector) (*mat.VecDense, error) {
	ar, ac := a.Dims()
	if ac != v.Len() {
		return nil, errorx.New(errCode.INVALID_VALUE, fmt.Sprintf("MulVec: dimension mismatch %dx%d * %d", ar, ac, v.Len()))
	}
	out := mat.NewVecDense(ar, nil)
	out.MulVec(a, v)
	return out, nil
}

// Inverse Gauss-Jordan 求逆, 增广矩阵 [A | I]
// 主元 |p| < PivotTolerance 时只在下方行里找第一个可用主元交换, 找不到即奇异
func Inverse(a mat.Matrix) (*mat.Dense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, errorx.New(errCode.INVALID_VALUE, fmt.Sprintf("Inverse: non-square %dx%d", n, c))
	}
	if n == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "Inverse: empty matrix")
	}

	aug := mat.NewDense(n, 2*n, nil)
	for i := 0; i < n; i++ {
		row := aug.RawRowView(i)
		for j := 0; j < n; j++ {
			row[j] = a.At(i, j)
		}
		row[n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivRow := aug.RawRowView(col)
		if math.Abs(pivRow[col]) < PivotTolerance {
			swap := -1
			for r := col + 1; r < n; r++ {
				if math.Abs(aug.At(r, col)) >= PivotTolerance {
					swap = r
					break
				}
			}
			if swap == -1 {
				return nil, errorx.New(errCode.SINGULAR_MATRIX, fmt.Sprintf("Inverse: no usable pivot in column %d", col))
			}
			swapRows(aug, col, swap)
			pivRow = aug.RawRowView(col)
		}

		// 归一化主元行
		p := pivRow[col]
		for j := range pivRow {
			pivRow[j] /= p
		}

		// 消去其他行
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			row := aug.RawRowView(r)
			f := row[col]
			if f == 0 {
				continue
			}
			for j := range row {
				row[j] -= f * pivRow[j]
			}
		}
	}

	inv := mat.NewDense(n, n, nil)
	inv.Copy(aug.Slice(0, n, n, 2*n))
	return inv, nil
}

func swapRows(m *mat.Dense, i, j int) {
	ri := m.RawRowView(i)
	rj := m.RawRowView(j)
	for k := range ri {
		ri[k], rj[k] = rj[k], ri[k]
	}
}
