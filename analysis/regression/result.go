package regression

import (
	"regress/ml/bootstrap"
	"regress/ml/design"
	"regress/numpy/npHist"
)

type Coefficient struct {
	Name               string     `json:"name"`
	Estimate           float64    `json:"estimate"`
	StandardError      float64    `json:"standardError"`
	TStat              float64    `json:"tStat"`
	PValue             float64    `json:"pValue"`
	ConfidenceInterval [2]float64 `json:"confidenceInterval"`
	VIF                *float64   `json:"vif,omitempty"` // 截距为 nil
}

// Prediction 每个清洗后的行一条, 顺序同输入
type Prediction struct {
	Row            int               `json:"row"`    // 在输入 rows 中的下标
	Actual         float64           `json:"actual"` // 变换后的目标值
	Predicted      float64           `json:"predicted"`
	Residual       float64           `json:"residual"`
	CategoryLabels map[string]string `json:"categoryLabels"`
}

// Correlation 非截距列之间的相关系数矩阵
type Correlation struct {
	Columns []string    `json:"columns"`
	Matrix  [][]float64 `json:"matrix"`
}

type BootstrapIterations struct {
	Requested int   `json:"requested"`
	Succeeded int   `json:"succeeded"`
	Seed      int64 `json:"seed"`
}

type Result struct {
	Target              string              `json:"target"` // 变换后的目标名
	Coefficients        []Coefficient       `json:"coefficients"`
	R2                  float64             `json:"r2"`
	AdjustedR2          float64             `json:"adjustedR2"`
	RMSE                float64             `json:"rmse"`
	Sigma2              float64             `json:"sigma2"`
	AIC                 float64             `json:"aic"`
	BIC                 float64             `json:"bic"`
	Observations        int                 `json:"observations"`
	Parameters          int                 `json:"parameters"`
	DroppedRows         int                 `json:"droppedRows"`
	Predictions         []Prediction        `json:"predictions"`
	Equation            string              `json:"equation"`
	Correlation         Correlation         `json:"correlation"`
	Robustness          []bootstrap.Summary `json:"robustness"`
	BootstrapIterations BootstrapIterations `json:"bootstrapIterations"`
	ReferenceLevels     []design.Encoding   `json:"referenceLevels"`
	ResidualHistogram   []npHist.Bin        `json:"residualHistogram"`
}
