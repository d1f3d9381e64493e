package ols

import (
	"math"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 置信区间临界值
const (
	CRITICAL_NORMAL    = "normal"    // 固定 1.96
	CRITICAL_STUDENT_T = "student-t" // t(n-k) 的 0.975 分位数
)

const NormalCritical95 = 1.96

type Options struct {
	CriticalValue string `yaml:"criticalValue"`
}

type MultiLinearModel struct {
	Coeffs      []float64 // 回归系数
	SE          []float64 // 标准误
	TStats      []float64 // t统计量
	PValues     []float64 // p值（双尾）
	CILower     []float64 // 95% 置信区间
	CIUpper     []float64
	Fitted      []float64 // 预测值
	Resids      []float64 // 残差
	N           int
	K           int
	Critical    float64 // 置信区间所用临界值
	SST         float64
	SSE         float64
	Sigma2      float64 // 残差方差 MSE
	RMSE        float64
	RSquared    float64
	AdjRSquared float64
	AIC         float64
	BIC         float64
}

// Diagnose 给定 β 计算拟合优度与系数推断
func Diagnose(matX *mat.Dense, matY *mat.VecDense, sol *Solution, opts Options) (MultiLinearModel, error) {
	n, k := matX.Dims()
	if sol == nil || len(sol.Coeffs) != k {
		return MultiLinearModel{}, errorx.New(errCode.INVALID_VALUE, "coefficient vector does not match X")
	}
	df := float64(n - k)
	if df <= 0 {
		return MultiLinearModel{}, errorx.Newf(errCode.INSUFFICIENT_SAMPLE_SIZE, nil, "degrees of freedom df=%v, need n > k", df)
	}
	beta := mat.NewVecDense(k, sol.Coeffs)

	// 预测值 & 残差
	Yhat := mat.NewVecDense(n, nil)
	Yhat.MulVec(matX, beta)
	resid := mat.NewVecDense(n, nil)
	resid.SubVec(matY, Yhat)

	SSE := mat.Dot(resid, resid)
	Ymean := mat.Sum(matY) / float64(n)
	SST := 0.0
	for i := 0; i < n; i++ {
		diff := matY.AtVec(i) - Ymean
		SST += diff * diff
	}
	RSq := 1 - SSE/SST
	AdjRSq := 1 - (1-RSq)*float64(n-1)/df

	// 残差方差 σ² = SSE / (n - k)
	sigma2 := SSE / df

	critical := NormalCritical95
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	if opts.CriticalValue == CRITICAL_STUDENT_T {
		critical = tdist.Quantile(0.975)
	}

	// SE = sqrt( diag(σ² * (X'X)^(-1)) )
	SE := make([]float64, k)
	tStats := make([]float64, k)
	pValues := make([]float64, k)
	lo := make([]float64, k)
	hi := make([]float64, k)
	for i := 0; i < k; i++ {
		v := sigma2 * sol.XtXInv.At(i, i)
		if v < 0 { // 数值误差
			v = math.NaN()
		}
		SE[i] = math.Sqrt(v)
		b := sol.Coeffs[i]
		tStats[i] = b / SE[i]
		pValues[i] = 2 * tdist.Survival(math.Abs(tStats[i]))
		lo[i] = b - critical*SE[i]
		hi[i] = b + critical*SE[i]
	}

	// AIC / BIC
	logLik := -0.5 * float64(n) * (1 + math.Log(2*math.Pi*SSE/float64(n)))
	AIC := -2*logLik + 2*float64(k)
	BIC := -2*logLik + float64(k)*math.Log(float64(n))

	coeffs := make([]float64, k)
	copy(coeffs, sol.Coeffs)
	return MultiLinearModel{
		Coeffs:      coeffs,
		SE:          SE,
		TStats:      tStats,
		PValues:     pValues,
		CILower:     lo,
		CIUpper:     hi,
		Fitted:      Yhat.RawVector().Data,
		Resids:      resid.RawVector().Data,
		N:           n,
		K:           k,
		Critical:    critical,
		SST:         SST,
		SSE:         SSE,
		Sigma2:      sigma2,
		RMSE:        math.Sqrt(sigma2),
		RSquared:    RSq,
		AdjRSquared: AdjRSq,
		AIC:         AIC,
		BIC:         BIC,
	}, nil
}

// MultiRegressionMat 求解 + 诊断
func MultiRegressionMat(matX *mat.Dense, matY *mat.VecDense, opts Options) (MultiLinearModel, error) {
	sol, err := Solve(matX, matY)
	if err != nil {
		return MultiLinearModel{}, err
	}
	return Diagnose(matX, matY, sol, opts)
}
