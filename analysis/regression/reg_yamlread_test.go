package regression

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/ml/bootstrap"
	"regress/ml/ols"
	"regress/ml/preprocess"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadRunConfig(t *testing.T) {
	p := writeFile(t, "run.yaml", `
target: " price "
targetLogTransform: true
features:
  - name: size
    logTransform: true
    logPlusOne: true
  - name: region
    kind: categorical
`)
	cfg, err := LoadRunConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "price", cfg.Target)
	assert.True(t, cfg.TargetLogTransform)
	require.Len(t, cfg.Features, 2)
	assert.Equal(t, preprocess.KIND_NUMERIC, cfg.Features[0].Kind)
	assert.True(t, cfg.Features[0].LogPlusOne)
	assert.Equal(t, preprocess.KIND_CATEGORICAL, cfg.Features[1].Kind)
}

func TestLoadRunConfigInvalid(t *testing.T) {
	p := writeFile(t, "run.yaml", "target: y\nfeatures:\n  - name: c\n    kind: ordinal\n")
	_, err := LoadRunConfig(p)
	assert.True(t, errorx.Is(err, errCode.INVALID_CONFIG))

	p = writeFile(t, "run.yaml", "target: y\nfeatures:\n  - name: y\n")
	_, err = LoadRunConfig(p)
	assert.True(t, errorx.Is(err, errCode.INVALID_CONFIG))

	_, err = LoadRunConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEngineConfig(t *testing.T) {
	t.Setenv("REGRESS_LOG_LEVEL", "debug")
	p := writeFile(t, "engine.yaml", `
bootstrap:
  smallIterations: 30
  seed: 17
ols:
  criticalValue: Student-T
log:
  level: ${REGRESS_LOG_LEVEL}
server:
  timeout: 5s
`)
	c, err := LoadEngineConfig(p)
	require.NoError(t, err)
	assert.Equal(t, 30, c.Bootstrap.SmallIterations)
	assert.Equal(t, bootstrap.DefaultLargeIterations, c.Bootstrap.LargeIterations)
	require.NotNil(t, c.Bootstrap.Seed)
	assert.Equal(t, int64(17), *c.Bootstrap.Seed)
	assert.Equal(t, ols.CRITICAL_STUDENT_T, c.OLS.CriticalValue)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 5*time.Second, c.Server.Timeout)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, DefaultHistogramBins, c.HistogramBins)

	p = writeFile(t, "engine.yaml", "ols:\n  criticalValue: cauchy\n")
	_, err = LoadEngineConfig(p)
	assert.True(t, errorx.Is(err, errCode.INVALID_CONFIG))
}

func TestInitCurrent(t *testing.T) {
	p := writeFile(t, "engine.yaml", "histogramBins: 7\n")
	require.NoError(t, Init(p))
	t.Cleanup(func() {
		d := DefaultEngineConfig()
		cfgValue.Store(&d)
	})
	assert.Equal(t, 7, Current().HistogramBins)

	res, err := PerformRegression(exactRows(15), "y", numeric("x1", "x2"), false, false, WithSeed(1))
	require.NoError(t, err)
	assert.Len(t, res.ResidualHistogram, 7)
}
