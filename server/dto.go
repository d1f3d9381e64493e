package server

import (
	"math"
	"strconv"

	"regress/analysis/regression"
	"regress/ml/bootstrap"
	"regress/ml/design"
	"regress/numpy/npHist"
)

// Float JSON 中 NaN 为 null, ±Inf 为 "Infinity" / "-Infinity"
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func floats(v []float64) []Float {
	out := make([]Float, len(v))
	for i, x := range v {
		out[i] = Float(x)
	}
	return out
}

type CoefficientDTO struct {
	Name               string   `json:"name"`
	Estimate           Float    `json:"estimate"`
	StandardError      Float    `json:"standardError"`
	TStat              Float    `json:"tStat"`
	PValue             Float    `json:"pValue"`
	ConfidenceInterval [2]Float `json:"confidenceInterval"`
	VIF                *Float   `json:"vif,omitempty"`
}

type PredictionDTO struct {
	Row            int               `json:"row"`
	Actual         Float             `json:"actual"`
	Predicted      Float             `json:"predicted"`
	Residual       Float             `json:"residual"`
	CategoryLabels map[string]string `json:"categoryLabels"`
}

type RobustnessDTO struct {
	Name       string `json:"name"`
	Mean       Float  `json:"mean"`
	Median     Float  `json:"median"`
	Min        Float  `json:"min"`
	Max        Float  `json:"max"`
	P2_5       Float  `json:"p2_5"`
	P97_5      Float  `json:"p97_5"`
	Successful int    `json:"successful"`
}

type CorrelationDTO struct {
	Columns []string  `json:"columns"`
	Matrix  [][]Float `json:"matrix"`
}

type ResultDTO struct {
	Target              string                         `json:"target"`
	Coefficients        []CoefficientDTO               `json:"coefficients"`
	R2                  Float                          `json:"r2"`
	AdjustedR2          Float                          `json:"adjustedR2"`
	RMSE                Float                          `json:"rmse"`
	Sigma2              Float                          `json:"sigma2"`
	AIC                 Float                          `json:"aic"`
	BIC                 Float                          `json:"bic"`
	Observations        int                            `json:"observations"`
	Parameters          int                            `json:"parameters"`
	DroppedRows         int                            `json:"droppedRows"`
	Predictions         []PredictionDTO                `json:"predictions"`
	Equation            string                         `json:"equation"`
	Correlation         CorrelationDTO                 `json:"correlation"`
	Robustness          []RobustnessDTO                `json:"robustness"`
	BootstrapIterations regression.BootstrapIterations `json:"bootstrapIterations"`
	ReferenceLevels     []design.Encoding              `json:"referenceLevels"`
	ResidualHistogram   []npHist.Bin                   `json:"residualHistogram"`
}

type SummaryCoefficientDTO struct {
	Name  string `json:"name"`
	Value Float  `json:"value"`
	TStat Float  `json:"tStat"`
}

type SummaryDTO struct {
	R2           Float                   `json:"r2"`
	AdjustedR2   Float                   `json:"adjustedR2"`
	RMSE         Float                   `json:"rmse"`
	Observations int                     `json:"observations"`
	Equation     string                  `json:"equation"`
	Coefficients []SummaryCoefficientDTO `json:"coefficients"`
}

func NewResultDTO(res *regression.Result) ResultDTO {
	coeffs := make([]CoefficientDTO, len(res.Coefficients))
	for i, c := range res.Coefficients {
		coeffs[i] = CoefficientDTO{
			Name:               c.Name,
			Estimate:           Float(c.Estimate),
			StandardError:      Float(c.StandardError),
			TStat:              Float(c.TStat),
			PValue:             Float(c.PValue),
			ConfidenceInterval: [2]Float{Float(c.ConfidenceInterval[0]), Float(c.ConfidenceInterval[1])},
		}
		if c.VIF != nil {
			v := Float(*c.VIF)
			coeffs[i].VIF = &v
		}
	}

	preds := make([]PredictionDTO, len(res.Predictions))
	for i, p := range res.Predictions {
		preds[i] = PredictionDTO{
			Row:            p.Row,
			Actual:         Float(p.Actual),
			Predicted:      Float(p.Predicted),
			Residual:       Float(p.Residual),
			CategoryLabels: p.CategoryLabels,
		}
	}

	matrix := make([][]Float, len(res.Correlation.Matrix))
	for i, row := range res.Correlation.Matrix {
		matrix[i] = floats(row)
	}

	return ResultDTO{
		Target:              res.Target,
		Coefficients:        coeffs,
		R2:                  Float(res.R2),
		AdjustedR2:          Float(res.AdjustedR2),
		RMSE:                Float(res.RMSE),
		Sigma2:              Float(res.Sigma2),
		AIC:                 Float(res.AIC),
		BIC:                 Float(res.BIC),
		Observations:        res.Observations,
		Parameters:          res.Parameters,
		DroppedRows:         res.DroppedRows,
		Predictions:         preds,
		Equation:            res.Equation,
		Correlation:         CorrelationDTO{Columns: res.Correlation.Columns, Matrix: matrix},
		Robustness:          robustness(res.Robustness),
		BootstrapIterations: res.BootstrapIterations,
		ReferenceLevels:     res.ReferenceLevels,
		ResidualHistogram:   res.ResidualHistogram,
	}
}

func robustness(in []bootstrap.Summary) []RobustnessDTO {
	out := make([]RobustnessDTO, len(in))
	for i, s := range in {
		out[i] = RobustnessDTO{
			Name:       s.Name,
			Mean:       Float(s.Mean),
			Median:     Float(s.Median),
			Min:        Float(s.Min),
			Max:        Float(s.Max),
			P2_5:       Float(s.P2_5),
			P97_5:      Float(s.P97_5),
			Successful: s.Successful,
		}
	}
	return out
}

func NewSummaryDTO(s regression.Summary) SummaryDTO {
	coeffs := make([]SummaryCoefficientDTO, len(s.Coefficients))
	for i, c := range s.Coefficients {
		coeffs[i] = SummaryCoefficientDTO{Name: c.Name, Value: Float(c.Value), TStat: Float(c.TStat)}
	}
	return SummaryDTO{
		R2:           Float(s.R2),
		AdjustedR2:   Float(s.AdjustedR2),
		RMSE:         Float(s.RMSE),
		Observations: s.Observations,
		Equation:     s.Equation,
		Coefficients: coeffs,
	}
}
