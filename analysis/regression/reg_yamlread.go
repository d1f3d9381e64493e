package regression

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/infra/observe/log/staticLog"
	"regress/ml/bootstrap"
	"regress/ml/ols"
	"regress/ml/preprocess"

	"gopkg.in/yaml.v3"
)

const DefaultHistogramBins = 20

type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	Timeout     time.Duration `yaml:"timeout"`     // 单次回归的最长耗时, 超时返回 503
	MaxBodyMB   int           `yaml:"maxBodyMB"`   // 请求体上限
	CORSOrigins []string      `yaml:"corsOrigins"` // 为空则允许任意来源
}

// EngineConfig 引擎参数, 与单次回归的变量选择(preprocess.Config)分开
type EngineConfig struct {
	Bootstrap     bootstrap.Options `yaml:"bootstrap"`
	OLS           ols.Options       `yaml:"ols"`
	HistogramBins int               `yaml:"histogramBins"`
	Log           staticLog.Config  `yaml:"log"`
	Server        ServerConfig      `yaml:"server"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Bootstrap: bootstrap.Options{
			SmallIterations:      bootstrap.DefaultSmallIterations,
			LargeIterations:      bootstrap.DefaultLargeIterations,
			LargeSampleThreshold: bootstrap.DefaultLargeSampleThreshold,
		},
		OLS:           ols.Options{CriticalValue: ols.CRITICAL_NORMAL},
		HistogramBins: DefaultHistogramBins,
		Log:           staticLog.Config{Level: "info"},
		Server: ServerConfig{
			Addr:      ":8080",
			Timeout:   30 * time.Second,
			MaxBodyMB: 32,
		},
	}
}

// 用 atomic.Value 存当前配置，支持热更新时无锁读取
var cfgValue atomic.Value // stores *EngineConfig

// LoadEngineConfig 读取引擎配置, 未给出的字段取默认值, 支持 ${ENV} 替换
func LoadEngineConfig(path string) (*EngineConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}

	c := DefaultEngineConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &c); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	c.OLS.CriticalValue = strings.ToLower(strings.TrimSpace(c.OLS.CriticalValue))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c EngineConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.OLS.CriticalValue)) {
	case "", ols.CRITICAL_NORMAL, ols.CRITICAL_STUDENT_T:
	default:
		return errorx.New(errCode.INVALID_CONFIG, fmt.Sprintf("ols.criticalValue must be %q or %q, got %q", ols.CRITICAL_NORMAL, ols.CRITICAL_STUDENT_T, c.OLS.CriticalValue))
	}
	b := c.Bootstrap
	if b.SmallIterations < 0 || b.LargeIterations < 0 || b.LargeSampleThreshold < 0 {
		return errorx.New(errCode.INVALID_CONFIG, "bootstrap iteration counts and threshold must not be negative")
	}
	if c.HistogramBins < 0 {
		return errorx.New(errCode.INVALID_CONFIG, "histogramBins must not be negative")
	}
	if c.Server.Timeout < 0 {
		return errorx.New(errCode.INVALID_CONFIG, "server.timeout must not be negative")
	}
	return nil
}

// Init 读取并替换当前引擎配置
func Init(path string) error {
	c, err := LoadEngineConfig(path)
	if err != nil {
		return err
	}
	cfgValue.Store(c)
	return nil
}

// Current 当前引擎配置, 未 Init 时为默认值
func Current() EngineConfig {
	cAny := cfgValue.Load()
	if cAny == nil {
		return DefaultEngineConfig()
	}
	return *cAny.(*EngineConfig)
}

// LoadRunConfig 读取一次回归的变量选择
func LoadRunConfig(path string) (*preprocess.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}

	var c preprocess.Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &c); err != nil {
		return nil, errorx.Wrap(err, errCode.INVALID_CONFIG, "unmarshal run config")
	}
	c.Target = strings.TrimSpace(c.Target)
	for i := range c.Features {
		c.Features[i].Name = strings.TrimSpace(c.Features[i].Name)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
