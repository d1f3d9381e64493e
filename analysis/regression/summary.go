package regression

// SummaryCoefficient 交给文字解读的系数摘要
type SummaryCoefficient struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	TStat float64 `json:"tStat"`
}

type Summary struct {
	R2           float64              `json:"r2"`
	AdjustedR2   float64              `json:"adjustedR2"`
	RMSE         float64              `json:"rmse"`
	Observations int                  `json:"observations"`
	Equation     string               `json:"equation"`
	Coefficients []SummaryCoefficient `json:"coefficients"`
}

func Summarize(res *Result) Summary {
	if res == nil {
		return Summary{Coefficients: []SummaryCoefficient{}}
	}
	coeffs := make([]SummaryCoefficient, len(res.Coefficients))
	for i, c := range res.Coefficients {
		coeffs[i] = SummaryCoefficient{Name: c.Name, Value: c.Estimate, TStat: c.TStat}
	}
	return Summary{
		R2:           res.R2,
		AdjustedR2:   res.AdjustedR2,
		RMSE:         res.RMSE,
		Observations: res.Observations,
		Equation:     res.Equation,
		Coefficients: coeffs,
	}
}
