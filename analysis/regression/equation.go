package regression

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	timesSign = "×"
	minusSign = "−"
)

// Equation 形如 ln_y = 1.2000 + 0.5000 × x − 2.0000 × region_B, 系数保留 4 位小数
func Equation(target string, columns []string, coeffs []float64) string {
	var b strings.Builder
	b.WriteString(target)
	b.WriteString(" =")
	for j, c := range coeffs {
		d := decimal.NewFromFloat(c).Round(4)
		neg := d.IsNegative()
		abs := d.Abs().StringFixed(4)
		switch {
		case j == 0 && neg:
			b.WriteString(" " + minusSign + abs)
		case j == 0:
			b.WriteString(" " + abs)
		case neg:
			b.WriteString(" " + minusSign + " " + abs)
		default:
			b.WriteString(" + " + abs)
		}
		if j > 0 && j < len(columns) {
			b.WriteString(" " + timesSign + " " + columns[j])
		}
	}
	return b.String()
}
