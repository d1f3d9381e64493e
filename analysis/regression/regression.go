// Package regression 一次回归的完整流程: 配置校验, 清洗, 设计矩阵, OLS, 诊断, bootstrap.
//
// 引擎不持有跨调用的可变状态, 每次调用只依赖 rows, 配置和 Option.
package regression

import (
	"fmt"
	"strings"
	"time"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/infra/observe/log/staticLog"
	"regress/ml/bootstrap"
	"regress/ml/design"
	"regress/ml/ols"
	"regress/ml/preprocess"
	"regress/numpy/npCorr"
	"regress/numpy/npHist"

	"github.com/sirupsen/logrus"
)

type settings struct {
	engine  EngineConfig
	seed    *int64
	workers int
}

type Option func(*settings)

// WithEngineConfig 覆盖全局引擎配置(Current)
func WithEngineConfig(c EngineConfig) Option {
	return func(s *settings) { s.engine = c }
}

// WithSeed 固定 bootstrap 种子
func WithSeed(seed int64) Option {
	return func(s *settings) { s.seed = &seed }
}

func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// PerformRegression 入口, 任何预处理/求解失败返回 errorx.Error 而不是结果
func PerformRegression(rows []preprocess.Row, target string, features []preprocess.VariableConfig,
	targetLogTransform, targetLogPlusOne bool, opts ...Option) (*Result, error) {
	cfg := preprocess.Config{
		Target:             target,
		TargetLogTransform: targetLogTransform,
		TargetLogPlusOne:   targetLogPlusOne,
		Features:           features,
	}
	return Run(rows, cfg, opts...)
}

func Run(rows []preprocess.Row, cfg preprocess.Config, opts ...Option) (*Result, error) {
	s := settings{engine: Current()}
	for _, o := range opts {
		o(&s)
	}
	bopts := s.engine.Bootstrap
	if s.seed != nil {
		bopts.Seed = s.seed
	}
	if s.workers > 0 {
		bopts.Workers = s.workers
	}

	start := time.Now()
	log := staticLog.Log.WithFields(logrus.Fields{
		"target":   cfg.Target,
		"features": len(cfg.Features),
		"rows":     len(rows),
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1) 清洗
	clean, err := preprocess.Filter(rows, cfg)
	if err != nil {
		log.WithError(err).Warn("regression: preprocessing failed")
		return nil, err
	}
	if clean.Dropped > 0 {
		log.WithField("dropped", clean.Dropped).Info("regression: rows dropped by preprocessing")
	}

	// 2) 设计矩阵
	dm, err := design.Build(clean, cfg)
	if err != nil {
		log.WithError(err).Warn("regression: design matrix rejected")
		return nil, err
	}
	n, k := dm.Dims()

	// 3) 求解 + 诊断
	sol, err := ols.Solve(dm.X, dm.Y)
	if err != nil {
		if errorx.Is(err, errCode.SINGULAR_MATRIX) {
			err = collinearError(err, dm)
		}
		log.WithError(err).Warn("regression: solver failed")
		return nil, err
	}
	model, err := ols.Diagnose(dm.X, dm.Y, sol, s.engine.OLS)
	if err != nil {
		return nil, err
	}

	// 4) 相关系数 / VIF
	corr := npCorr.CorrMatrix{Matrix: [][]float64{}}
	if k > 1 {
		corr, err = npCorr.CorrCoef(dm.X.Slice(0, n, 1, k))
		if err != nil {
			return nil, err
		}
	}
	vif := ols.VIF(corr)

	// 5) bootstrap
	boot, err := bootstrap.Run(dm.X, dm.Y, dm.Columns, bopts)
	if err != nil {
		return nil, err
	}
	if boot.Dropped() > 0 {
		log.WithFields(logrus.Fields{
			"requested": boot.Requested,
			"dropped":   boot.Dropped(),
		}).Warn("regression: singular bootstrap resamples dropped")
	}

	coeffs := make([]Coefficient, k)
	for j := 0; j < k; j++ {
		coeffs[j] = Coefficient{
			Name:               dm.Columns[j],
			Estimate:           model.Coeffs[j],
			StandardError:      model.SE[j],
			TStat:              model.TStats[j],
			PValue:             model.PValues[j],
			ConfidenceInterval: [2]float64{model.CILower[j], model.CIUpper[j]},
		}
		if j > 0 {
			v := vif[j-1]
			coeffs[j].VIF = &v
		}
	}

	preds := make([]Prediction, n)
	for i := 0; i < n; i++ {
		preds[i] = Prediction{
			Row:            dm.Index[i],
			Actual:         dm.Y.AtVec(i),
			Predicted:      model.Fitted[i],
			Residual:       model.Resids[i],
			CategoryLabels: dm.Labels[i],
		}
	}

	bins := s.engine.HistogramBins
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	res := &Result{
		Target:       dm.TargetName,
		Coefficients: coeffs,
		R2:           model.RSquared,
		AdjustedR2:   model.AdjRSquared,
		RMSE:         model.RMSE,
		Sigma2:       model.Sigma2,
		AIC:          model.AIC,
		BIC:          model.BIC,
		Observations: n,
		Parameters:   k,
		DroppedRows:  clean.Dropped,
		Predictions:  preds,
		Equation:     Equation(dm.TargetName, dm.Columns, model.Coeffs),
		Correlation: Correlation{
			Columns: append([]string{}, dm.Columns[1:]...),
			Matrix:  corr.Matrix,
		},
		Robustness: boot.Summaries,
		BootstrapIterations: BootstrapIterations{
			Requested: boot.Requested,
			Succeeded: boot.Succeeded,
			Seed:      boot.Seed,
		},
		ReferenceLevels:   dm.Categoricals,
		ResidualHistogram: npHist.Hist(model.Resids, bins),
	}

	log.WithFields(logrus.Fields{
		"n":       n,
		"k":       k,
		"r2":      model.RSquared,
		"elapsed": time.Since(start).String(),
	}).Info("regression: done")
	return res, nil
}

// collinearError 找出去掉后可使 X'X 可逆的变量, 写入错误的 Vars
func collinearError(err error, dm *design.Matrix) error {
	idx := ols.CollinearColumns(dm.X)
	if len(idx) == 0 {
		return err
	}
	var vars []string
	seen := make(map[string]struct{})
	for _, j := range idx {
		src := dm.Sources[j]
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		vars = append(vars, src)
	}
	return errorx.Wrap(err, errCode.SINGULAR_MATRIX,
		fmt.Sprintf("variables %s are linearly dependent", strings.Join(vars, ", ")), vars...)
}
