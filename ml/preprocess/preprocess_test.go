package preprocess

import (
	"math"
	"testing"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numericCfg(target string, features ...string) Config {
	cfg := Config{Target: target}
	for _, f := range features {
		cfg.Features = append(cfg.Features, VariableConfig{Name: f, Kind: KIND_NUMERIC})
	}
	return cfg
}

func TestValue(t *testing.T) {
	f, ok := Text(" 3.5 ").Float()
	require.True(t, ok)
	assert.Equal(t, 3.5, f)

	_, ok = Text("abc").Float()
	assert.False(t, ok)
	_, ok = Num(math.Inf(1)).Float()
	assert.False(t, ok)
	_, ok = Text("NaN").Float()
	assert.False(t, ok)

	assert.True(t, Missing().IsMissing())
	assert.True(t, Text("  ").IsMissing())
	assert.True(t, Num(math.NaN()).IsMissing())
	assert.False(t, Num(0).IsMissing())

	assert.Equal(t, "2", Num(2).String())
	assert.Equal(t, "0.25", Num(0.25).String())

	p := Parsed("007", 7)
	assert.Equal(t, "007", p.String())
	f, ok = p.Float()
	require.True(t, ok)
	assert.Equal(t, 7.0, f)
	assert.False(t, p.IsText())
}

func TestVariableKindText(t *testing.T) {
	var k VariableKind
	require.NoError(t, k.UnmarshalText([]byte("Categorical")))
	assert.Equal(t, KIND_CATEGORICAL, k)
	assert.Error(t, k.UnmarshalText([]byte("ordinal")))

	b, err := KIND_NUMERIC.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "numeric", string(b))
	assert.Equal(t, "ERROR", KIND_ERROR.String())
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		vars []string
	}{
		{"no target", Config{Features: []VariableConfig{{Name: "x"}}}, nil},
		{"no features", Config{Target: "y"}, nil},
		{"target log1p without log", Config{Target: "y", TargetLogPlusOne: true, Features: []VariableConfig{{Name: "x"}}}, []string{"y"}},
		{"feature is target", numericCfg("y", "y"), []string{"y"}},
		{"categorical with log", Config{Target: "y", Features: []VariableConfig{{Name: "c", Kind: KIND_CATEGORICAL, LogTransform: true}}}, []string{"c"}},
		{"log1p without log", Config{Target: "y", Features: []VariableConfig{{Name: "x", LogPlusOne: true}}}, []string{"x"}},
		{"duplicate feature", numericCfg("y", "x", "x"), []string{"x"}},
		{"bad kind", Config{Target: "y", Features: []VariableConfig{{Name: "x", Kind: KIND_ERROR}}}, []string{"x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errorx.Is(err, errCode.INVALID_CONFIG))
			assert.Equal(t, tc.vars, errorx.VarsOf(err))
		})
	}
	assert.NoError(t, numericCfg("y", "x1", "x2").Validate())
}

func TestFilterKeepsOrderAndDropsInvalid(t *testing.T) {
	rows := []Row{
		{"y": Num(1), "x": Num(2), "c": Text("a")},
		{"y": Text("oops"), "x": Num(2), "c": Text("a")},
		{"y": Num(3), "x": Missing(), "c": Text("b")},
		{"y": Text("4"), "x": Text("5"), "c": Num(7)},
		{"y": Num(5), "x": Num(6), "c": Text("")},
		{"y": Num(6), "x": Text("n/a"), "c": Text("b")},
		{"x": Num(1), "c": Text("b")},
	}
	cfg := Config{Target: "y", Features: []VariableConfig{
		{Name: "x", Kind: KIND_NUMERIC},
		{Name: "c", Kind: KIND_CATEGORICAL},
	}}

	clean, err := Filter(rows, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, clean.Index)
	assert.Equal(t, 5, clean.Dropped)
	require.Len(t, clean.Rows, 2)
	assert.Equal(t, "7", clean.Rows[1]["c"].String())

	assert.Equal(t, 1, clean.Reasons["y"][REASON_NOT_NUMERIC])
	assert.Equal(t, 1, clean.Reasons["y"][REASON_MISSING])
	assert.Equal(t, 1, clean.Reasons["x"][REASON_MISSING])
	assert.Equal(t, 1, clean.Reasons["x"][REASON_NOT_NUMERIC])
	assert.Equal(t, 1, clean.Reasons["c"][REASON_MISSING])

	// 输入不被修改
	assert.Len(t, rows, 7)
	assert.Equal(t, "oops", rows[1]["y"].String())
}

// 对数变换只删除定义域外的行, 不多不少
func TestFilterLogDomainExact(t *testing.T) {
	xs := []float64{3, 0, -1, 2, 0.5, -0.5, 10, -2}
	rows := make([]Row, len(xs))
	for i, x := range xs {
		rows[i] = Row{"y": Num(float64(i)), "x": Num(x)}
	}

	cfg := Config{Target: "y", Features: []VariableConfig{{Name: "x", LogTransform: true}}}
	clean, err := Filter(rows, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 4, 6}, clean.Index)
	assert.Equal(t, 4, clean.Reasons["x"][REASON_DOMAIN])

	cfg.Features[0].LogPlusOne = true
	clean, err = Filter(rows, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3, 4, 5, 6}, clean.Index)
	assert.Equal(t, 2, clean.Reasons["x"][REASON_DOMAIN])
}

func TestFilterTargetDomain(t *testing.T) {
	rows := []Row{
		{"y": Num(0), "x": Num(1)},
		{"y": Num(2), "x": Num(2)},
		{"y": Num(-3), "x": Num(3)},
	}
	cfg := numericCfg("y", "x")
	cfg.TargetLogTransform = true
	clean, err := Filter(rows, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, clean.Index)
}

func TestFilterEmptyDataset(t *testing.T) {
	rows := []Row{
		{"y": Num(1), "x": Num(0)},
		{"y": Num(2), "x": Num(-4)},
	}
	cfg := Config{Target: "y", Features: []VariableConfig{{Name: "x", LogTransform: true}}}
	_, err := Filter(rows, cfg)
	require.Error(t, err)
	assert.True(t, errorx.Is(err, errCode.EMPTY_DATASET))
	assert.Contains(t, err.Error(), "domain violations are a likely cause")
	assert.Contains(t, err.Error(), "x log_domain=2")
	assert.Equal(t, []string{"x"}, errorx.VarsOf(err))

	_, err = Filter(nil, numericCfg("y", "x"))
	assert.True(t, errorx.Is(err, errCode.EMPTY_DATASET))
}

func TestFilterEmptyDatasetWithoutLog(t *testing.T) {
	rows := []Row{
		{"y": Num(1), "x": Text("n/a")},
		{"y": Missing(), "x": Num(3)},
	}
	_, err := Filter(rows, numericCfg("y", "x"))
	require.Error(t, err)
	assert.True(t, errorx.Is(err, errCode.EMPTY_DATASET))
	assert.Contains(t, err.Error(), "check for missing or non-numeric values")
	assert.NotContains(t, err.Error(), "domain violations")
	assert.Contains(t, err.Error(), "x not_numeric=1")
	assert.Contains(t, err.Error(), "y missing=1")
}

func TestTransform(t *testing.T) {
	assert.Equal(t, 5.0, Transform(5, false, false))
	assert.InDelta(t, math.Log(5), Transform(5, true, false), 1e-15)
	assert.InDelta(t, math.Log(6), Transform(5, true, true), 1e-15)
	assert.Equal(t, "ln_x", TransformedName("x", true, false))
	assert.Equal(t, "ln1p_x", TransformedName("x", true, true))
	assert.Equal(t, "x", TransformedName("x", false, false))
}
