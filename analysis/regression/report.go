package regression

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
)

// WriteText 终端可读的回归报告
func WriteText(w io.Writer, res *Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n\n", res.Equation)
	fmt.Fprintf(tw, "observations\t%d\tparameters\t%d\tdropped rows\t%d\n", res.Observations, res.Parameters, res.DroppedRows)
	fmt.Fprintf(tw, "R2\t%.4f\tadj R2\t%.4f\tRMSE\t%.4f\n", res.R2, res.AdjustedR2, res.RMSE)
	fmt.Fprintf(tw, "AIC\t%.4f\tBIC\t%.4f\t\t\n\n", res.AIC, res.BIC)

	fmt.Fprintln(tw, "term\testimate\tstd err\tt\tp\tconf. interval\tVIF")
	for _, c := range res.Coefficients {
		vif := "-"
		if c.VIF != nil {
			vif = formatFloat(*c.VIF)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t[%s, %s]\t%s\n",
			c.Name, formatFloat(c.Estimate), formatFloat(c.StandardError), formatFloat(c.TStat),
			formatFloat(c.PValue), formatFloat(c.ConfidenceInterval[0]), formatFloat(c.ConfidenceInterval[1]), vif)
	}

	fmt.Fprintf(tw, "\nbootstrap\t%d/%d iterations\n", res.BootstrapIterations.Succeeded, res.BootstrapIterations.Requested)
	fmt.Fprintln(tw, "term\tmean\tmedian\tp2.5\tp97.5\tmin\tmax")
	for _, s := range res.Robustness {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", s.Name,
			formatFloat(s.Mean), formatFloat(s.Median), formatFloat(s.P2_5), formatFloat(s.P97_5),
			formatFloat(s.Min), formatFloat(s.Max))
	}

	if len(res.ReferenceLevels) > 0 {
		fmt.Fprintln(tw, "\nvariable\treference")
		for _, e := range res.ReferenceLevels {
			fmt.Fprintf(tw, "%s\t%s\n", e.Variable, e.Reference)
		}
	}
	return tw.Flush()
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
