package preprocess

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
)

type valueKind uint8

const (
	kindMissing valueKind = iota
	kindNumber
	kindText
)

// Value 单元格: 数值, 文本或缺失
type Value struct {
	kind valueKind
	num  float64
	str  string
}

func Num(v float64) Value { return Value{kind: kindNumber, num: v} }

// Parsed 从文本解析出的数值, 保留原文本作为分类取值, 如 "01234"
func Parsed(raw string, v float64) Value { return Value{kind: kindNumber, num: v, str: raw} }

func Text(s string) Value { return Value{kind: kindText, str: s} }

func Missing() Value { return Value{} }

func (v Value) IsText() bool { return v.kind == kindText }

// IsMissing 缺失, 空白文本, 非有限数值都视为缺失
func (v Value) IsMissing() bool {
	switch v.kind {
	case kindNumber:
		return math.IsNaN(v.num) || math.IsInf(v.num, 0)
	case kindText:
		return strings.TrimSpace(v.str) == ""
	default:
		return true
	}
}

// Float 转有限浮点数, 文本按 strconv.ParseFloat 解析
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.kind {
	case kindNumber:
		f = v.num
	case kindText:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String 分类变量取值
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		if v.str != "" {
			return v.str
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindText:
		return v.str
	default:
		return ""
	}
}

// Row 列名 -> 取值, 不存在的列即缺失
type Row map[string]Value

type VariableKind int

const (
	KIND_NUMERIC VariableKind = iota // "numeric"
	KIND_CATEGORICAL                 // "categorical"
	KIND_ERROR
)

func (k VariableKind) String() string {
	switch k {
	case KIND_NUMERIC:
		return "numeric"
	case KIND_CATEGORICAL:
		return "categorical"
	default:
		return "ERROR"
	}
}

func ParseVariableKind(s string) VariableKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "":
		return KIND_NUMERIC
	case "categorical":
		return KIND_CATEGORICAL
	default:
		return KIND_ERROR
	}
}

func (k VariableKind) MarshalText() ([]byte, error) {
	if k != KIND_NUMERIC && k != KIND_CATEGORICAL {
		return nil, fmt.Errorf("invalid variable kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *VariableKind) UnmarshalText(b []byte) error {
	parsed := ParseVariableKind(string(b))
	if parsed == KIND_ERROR {
		return fmt.Errorf("invalid variable kind %q, expected numeric or categorical", string(b))
	}
	*k = parsed
	return nil
}

type VariableConfig struct {
	Name         string       `yaml:"name" json:"name"`
	Kind         VariableKind `yaml:"kind" json:"kind"`
	LogTransform bool         `yaml:"logTransform" json:"logTransform"`
	LogPlusOne   bool         `yaml:"logPlusOne" json:"logPlusOne"`
}

// Config 一次回归的变量选择
type Config struct {
	Target             string           `yaml:"target" json:"target"`
	TargetLogTransform bool             `yaml:"targetLogTransform" json:"targetLogTransform"`
	TargetLogPlusOne   bool             `yaml:"targetLogPlusOne" json:"targetLogPlusOne"`
	Features           []VariableConfig `yaml:"features" json:"features"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return errorx.New(errCode.INVALID_CONFIG, "target variable is required")
	}
	if c.TargetLogPlusOne && !c.TargetLogTransform {
		return errorx.New(errCode.INVALID_CONFIG, "logPlusOne requires logTransform", c.Target)
	}
	if len(c.Features) == 0 {
		return errorx.New(errCode.INVALID_CONFIG, "at least one feature is required")
	}
	seen := make(map[string]struct{}, len(c.Features))
	for _, f := range c.Features {
		switch {
		case strings.TrimSpace(f.Name) == "":
			return errorx.New(errCode.INVALID_CONFIG, "feature name is empty")
		case f.Name == c.Target:
			return errorx.New(errCode.INVALID_CONFIG, "target cannot also be a feature", f.Name)
		case f.Kind != KIND_NUMERIC && f.Kind != KIND_CATEGORICAL:
			return errorx.New(errCode.INVALID_CONFIG, "unknown variable kind", f.Name)
		case f.Kind == KIND_CATEGORICAL && (f.LogTransform || f.LogPlusOne):
			return errorx.New(errCode.INVALID_CONFIG, "categorical variables cannot be log transformed", f.Name)
		case f.LogPlusOne && !f.LogTransform:
			return errorx.New(errCode.INVALID_CONFIG, "logPlusOne requires logTransform", f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return errorx.New(errCode.INVALID_CONFIG, "feature listed twice", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// InDomain 对数变换定义域: ln 要求 x > 0, ln1p 要求 x > -1
func InDomain(x float64, logTransform, logPlusOne bool) bool {
	if !logTransform {
		return true
	}
	if logPlusOne {
		return x > -1
	}
	return x > 0
}

func Transform(x float64, logTransform, logPlusOne bool) float64 {
	if !logTransform {
		return x
	}
	if logPlusOne {
		return math.Log1p(x)
	}
	return math.Log(x)
}

// TransformedName ln_x / ln1p_x / x
func TransformedName(name string, logTransform, logPlusOne bool) string {
	if !logTransform {
		return name
	}
	if logPlusOne {
		return "ln1p_" + name
	}
	return "ln_" + name
}
