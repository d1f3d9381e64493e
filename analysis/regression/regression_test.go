package regression

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/ml/preprocess"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numeric(names ...string) []preprocess.VariableConfig {
	out := make([]preprocess.VariableConfig, len(names))
	for i, n := range names {
		out[i] = preprocess.VariableConfig{Name: n, Kind: preprocess.KIND_NUMERIC}
	}
	return out
}

// y = 3 + 2*x1 - x2
func exactRows(n int) []preprocess.Row {
	r := rand.New(rand.NewSource(11))
	rows := make([]preprocess.Row, n)
	for i := range rows {
		x1 := r.Float64() * 10
		x2 := r.Float64()*5 - 2
		rows[i] = preprocess.Row{
			"y":  preprocess.Num(3 + 2*x1 - x2),
			"x1": preprocess.Num(x1),
			"x2": preprocess.Num(x2),
		}
	}
	return rows
}

func TestPerformRegressionExact(t *testing.T) {
	res, err := PerformRegression(exactRows(40), "y", numeric("x1", "x2"), false, false, WithSeed(1))
	require.NoError(t, err)

	require.Len(t, res.Coefficients, 3)
	want := []float64{3, 2, -1}
	for i, c := range res.Coefficients {
		assert.InDelta(t, want[i], c.Estimate, 1e-6, c.Name)
	}
	assert.Equal(t, "Intercept", res.Coefficients[0].Name)
	assert.Nil(t, res.Coefficients[0].VIF)
	require.NotNil(t, res.Coefficients[1].VIF)
	assert.GreaterOrEqual(t, *res.Coefficients[1].VIF, 1.0)

	assert.InDelta(t, 1.0, res.R2, 1e-9)
	assert.Equal(t, 40, res.Observations)
	assert.Equal(t, 3, res.Parameters)
	assert.Equal(t, "y = 3.0000 + 2.0000 × x1 − 1.0000 × x2", res.Equation)

	// 精确拟合时每次重抽样给出同一组系数
	require.Len(t, res.Robustness, 2)
	assert.Equal(t, 50, res.BootstrapIterations.Requested)
	assert.InDelta(t, 2.0, res.Robustness[0].Median, 1e-6)
	assert.InDelta(t, -1.0, res.Robustness[1].Median, 1e-6)
	assert.Equal(t, int64(1), res.BootstrapIterations.Seed)

	assert.Equal(t, []string{"x1", "x2"}, res.Correlation.Columns)
	assert.Equal(t, 1.0, res.Correlation.Matrix[0][0])
}

func TestRunCategoricalLogAndDroppedRows(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	regions := []string{"north", "east", "south"}
	effect := map[string]float64{"east": 0, "north": 0.4, "south": -0.3}
	var rows []preprocess.Row
	for i := 0; i < 90; i++ {
		size := 20 + r.Float64()*80
		region := regions[i%3]
		lnPrice := 1 + 0.8*math.Log(size) + effect[region] + r.NormFloat64()*0.05
		rows = append(rows, preprocess.Row{
			"price":  preprocess.Num(math.Exp(lnPrice)),
			"size":   preprocess.Num(size),
			"region": preprocess.Text(region),
		})
	}
	// 三行不合法: 对数定义域, 缺失, 非数值
	rows[4]["size"] = preprocess.Num(0)
	rows[10]["region"] = preprocess.Missing()
	rows[20]["price"] = preprocess.Text("n/a")

	cfg := preprocess.Config{
		Target:             "price",
		TargetLogTransform: true,
		Features: []preprocess.VariableConfig{
			{Name: "size", Kind: preprocess.KIND_NUMERIC, LogTransform: true},
			{Name: "region", Kind: preprocess.KIND_CATEGORICAL},
		},
	}
	res, err := Run(rows, cfg, WithSeed(9), WithWorkers(2))
	require.NoError(t, err)

	assert.Equal(t, "ln_price", res.Target)
	assert.Equal(t, 3, res.DroppedRows)
	assert.Equal(t, 87, res.Observations)

	names := make([]string, len(res.Coefficients))
	for i, c := range res.Coefficients {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Intercept", "ln_size", "region_north", "region_south"}, names)
	require.Len(t, res.ReferenceLevels, 1)
	assert.Equal(t, "east", res.ReferenceLevels[0].Reference)

	assert.InDelta(t, 0.8, res.Coefficients[1].Estimate, 0.05)
	assert.InDelta(t, 0.4, res.Coefficients[2].Estimate, 0.05)
	assert.InDelta(t, -0.3, res.Coefficients[3].Estimate, 0.05)
	assert.Greater(t, res.R2, 0.9)
	assert.LessOrEqual(t, res.AdjustedR2, res.R2)

	// 预测保持输入顺序, 跳过被删除的行
	require.Len(t, res.Predictions, 87)
	assert.Equal(t, 0, res.Predictions[0].Row)
	assert.Equal(t, 5, res.Predictions[4].Row)
	for i := 1; i < len(res.Predictions); i++ {
		assert.Greater(t, res.Predictions[i].Row, res.Predictions[i-1].Row)
	}
	p := res.Predictions[0]
	assert.Equal(t, "north", p.CategoryLabels["region"])
	assert.InDelta(t, p.Actual-p.Predicted, p.Residual, 1e-12)

	total := 0
	for _, b := range res.ResidualHistogram {
		total += b.Count
	}
	assert.Len(t, res.ResidualHistogram, DefaultHistogramBins)
	assert.Equal(t, 87, total)

	again, err := Run(rows, cfg, WithSeed(9), WithWorkers(7))
	require.NoError(t, err)
	assert.Equal(t, res.Robustness, again.Robustness)
}

func TestRunErrors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		_, err := PerformRegression(exactRows(10), "", numeric("x1"), false, false)
		assert.True(t, errorx.Is(err, errCode.INVALID_CONFIG))
	})

	t.Run("empty dataset", func(t *testing.T) {
		rows := []preprocess.Row{{"y": preprocess.Num(1), "x": preprocess.Num(-1)}}
		_, err := PerformRegression(rows, "y", []preprocess.VariableConfig{{Name: "x", LogTransform: true}}, false, false)
		assert.True(t, errorx.Is(err, errCode.EMPTY_DATASET))
	})

	t.Run("duplicate", func(t *testing.T) {
		rows := exactRows(10)
		for _, row := range rows {
			row["x3"] = row["x1"]
		}
		_, err := PerformRegression(rows, "y", numeric("x1", "x2", "x3"), false, false)
		assert.True(t, errorx.Is(err, errCode.DUPLICATE_VARIABLE))
		assert.Equal(t, []string{"x1", "x3"}, errorx.VarsOf(err))
	})

	t.Run("constant", func(t *testing.T) {
		rows := exactRows(10)
		for _, row := range rows {
			row["k"] = preprocess.Num(4)
		}
		_, err := PerformRegression(rows, "y", numeric("x1", "k"), false, false)
		assert.True(t, errorx.Is(err, errCode.CONSTANT_VARIABLE))
	})

	t.Run("singular names variables", func(t *testing.T) {
		rows := exactRows(12)
		for i, row := range rows {
			if i%2 == 0 {
				row["group"] = preprocess.Text("a")
				row["flag"] = preprocess.Num(0)
			} else {
				row["group"] = preprocess.Text("b")
				row["flag"] = preprocess.Num(1)
			}
		}
		features := []preprocess.VariableConfig{
			{Name: "x1"},
			{Name: "group", Kind: preprocess.KIND_CATEGORICAL},
			{Name: "flag"},
		}
		_, err := PerformRegression(rows, "y", features, false, false)
		require.Error(t, err)
		assert.True(t, errorx.Is(err, errCode.SINGULAR_MATRIX))
		assert.Equal(t, []string{"group", "flag"}, errorx.VarsOf(err))
		assert.Contains(t, err.Error(), "remove a highly correlated variable")
	})

	t.Run("insufficient sample", func(t *testing.T) {
		_, err := PerformRegression(exactRows(3), "y", numeric("x1", "x2"), false, false)
		assert.True(t, errorx.Is(err, errCode.INSUFFICIENT_SAMPLE_SIZE))
	})
}

func TestEquation(t *testing.T) {
	assert.Equal(t, "y = −1.5000 + 0.1235 × a − 2.0000 × b_x + 0.0000 × c",
		Equation("y", []string{"Intercept", "a", "b_x", "c"}, []float64{-1.5, 0.123456, -2, -0.00001}))
	assert.Equal(t, "ln_y = 0.0000", Equation("ln_y", []string{"Intercept"}, []float64{0}))
}

func TestSummarize(t *testing.T) {
	res, err := PerformRegression(exactRows(20), "y", numeric("x1", "x2"), false, false, WithSeed(2))
	require.NoError(t, err)
	s := Summarize(res)
	assert.Equal(t, res.R2, s.R2)
	assert.Equal(t, res.AdjustedR2, s.AdjustedR2)
	assert.Equal(t, res.RMSE, s.RMSE)
	assert.Equal(t, 20, s.Observations)
	require.Len(t, s.Coefficients, 3)
	assert.Equal(t, "x2", s.Coefficients[2].Name)
	assert.Equal(t, res.Coefficients[2].Estimate, s.Coefficients[2].Value)
	assert.Equal(t, res.Coefficients[2].TStat, s.Coefficients[2].TStat)

	assert.Empty(t, Summarize(nil).Coefficients)
}

func TestWriteText(t *testing.T) {
	res, err := PerformRegression(exactRows(20), "y", numeric("x1", "x2"), false, false, WithSeed(2))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res))
	out := buf.String()
	assert.Contains(t, out, res.Equation)
	assert.Contains(t, out, "Intercept")
	assert.Contains(t, out, "bootstrap")
}
