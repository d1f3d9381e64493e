// Package design 由清洗后的行构造设计矩阵: 截距列, 数值列(可对数变换), 分类变量哑变量.
//
// 分类变量的取值按字典序排序, 第一个取值为参照水平不生成列, 其余每个取值生成
// 名为 <变量>_<取值> 的 0/1 列. 参照水平通过 Matrix.Categoricals 对外暴露.
package design

import (
	"math"
	"sort"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/ml/preprocess"

	"gonum.org/v1/gonum/mat"
)

const (
	InterceptName = "Intercept"
	// DuplicateTolerance 两列逐行差值都不超过该值即视为重复变量
	DuplicateTolerance = 1e-9
)

// Encoding 分类变量的编码方式
type Encoding struct {
	Variable  string   `json:"variable" yaml:"variable"`
	Reference string   `json:"reference" yaml:"reference"`
	Levels    []string `json:"levels" yaml:"levels"`   // 排序后的全部取值, Levels[0] == Reference
	Columns   []string `json:"columns" yaml:"columns"` // 生成的哑变量列名
}

type Matrix struct {
	X            *mat.Dense    // n x k, 第 0 列为截距
	Y            *mat.VecDense // 变换后的目标
	Columns      []string      // 长度 k, Columns[0] == InterceptName
	Sources      []string      // 每列对应的原始变量名, 截距为空
	TargetName   string        // 变换后的目标名, 如 ln_price
	Categoricals []Encoding
	Labels       []map[string]string // 每行的分类取值, 变量 -> 取值
	Index        []int               // 每行在原始输入中的行号
}

func (m *Matrix) Dims() (n, k int) {
	return m.X.Dims()
}

type column struct {
	name    string
	source  string // 原始变量名
	numeric bool
	values  []float64
}

// Build 构造设计矩阵并做拟合前的结构检查
func Build(clean preprocess.Clean, cfg preprocess.Config) (*Matrix, error) {
	rows := clean.Rows
	n := len(rows)
	if n == 0 {
		return nil, errorx.New(errCode.EMPTY_DATASET, "no rows to build a design matrix from")
	}

	y := make([]float64, n)
	for i, row := range rows {
		v, ok := row[cfg.Target].Float()
		if !ok || !preprocess.InDomain(v, cfg.TargetLogTransform, cfg.TargetLogPlusOne) {
			return nil, errorx.Newf(errCode.INVALID_VALUE, []string{cfg.Target}, "row %d: target is not a valid number, rows must be filtered first", i)
		}
		y[i] = preprocess.Transform(v, cfg.TargetLogTransform, cfg.TargetLogPlusOne)
	}

	labels := make([]map[string]string, n)
	for i := range labels {
		labels[i] = make(map[string]string)
	}

	var cols []column
	var encodings []Encoding
	for _, f := range cfg.Features {
		switch f.Kind {
		case preprocess.KIND_NUMERIC:
			c, err := numericColumn(rows, f)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
		case preprocess.KIND_CATEGORICAL:
			dummies, enc := categoricalColumns(rows, f.Name, labels)
			cols = append(cols, dummies...)
			encodings = append(encodings, enc)
		default:
			return nil, errorx.New(errCode.INVALID_CONFIG, "unknown variable kind", f.Name)
		}
	}

	if err := checkNames(cols); err != nil {
		return nil, err
	}
	k := len(cols) + 1
	if n <= k {
		return nil, errorx.Newf(errCode.INSUFFICIENT_SAMPLE_SIZE, nil,
			"%d observations for %d parameters, need more observations than parameters", n, k)
	}
	if err := checkStructure(cols, y, cfg); err != nil {
		return nil, err
	}

	names := make([]string, k)
	sources := make([]string, k)
	names[0] = InterceptName
	X := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1.0)
	}
	for j, c := range cols {
		names[j+1] = c.name
		sources[j+1] = c.source
		X.SetCol(j+1, c.values)
	}

	index := make([]int, n)
	if len(clean.Index) == n {
		copy(index, clean.Index)
	} else {
		for i := range index {
			index[i] = i
		}
	}

	return &Matrix{
		X:            X,
		Y:            mat.NewVecDense(n, y),
		Columns:      names,
		Sources:      sources,
		TargetName:   preprocess.TransformedName(cfg.Target, cfg.TargetLogTransform, cfg.TargetLogPlusOne),
		Categoricals: encodings,
		Labels:       labels,
		Index:        index,
	}, nil
}

func numericColumn(rows []preprocess.Row, f preprocess.VariableConfig) (column, error) {
	values := make([]float64, len(rows))
	for i, row := range rows {
		v, ok := row[f.Name].Float()
		if !ok || !preprocess.InDomain(v, f.LogTransform, f.LogPlusOne) {
			return column{}, errorx.Newf(errCode.INVALID_VALUE, []string{f.Name}, "row %d: value is not valid, rows must be filtered first", i)
		}
		values[i] = preprocess.Transform(v, f.LogTransform, f.LogPlusOne)
	}
	return column{
		name:    preprocess.TransformedName(f.Name, f.LogTransform, f.LogPlusOne),
		source:  f.Name,
		numeric: true,
		values:  values,
	}, nil
}

// categoricalColumns 排序去重, 丢弃第一个水平作为参照
func categoricalColumns(rows []preprocess.Row, name string, labels []map[string]string) ([]column, Encoding) {
	levelSet := make(map[string]struct{})
	for i, row := range rows {
		lv := row[name].String()
		labels[i][name] = lv
		levelSet[lv] = struct{}{}
	}
	levels := make([]string, 0, len(levelSet))
	for lv := range levelSet {
		levels = append(levels, lv)
	}
	sort.Strings(levels)

	enc := Encoding{Variable: name, Levels: levels, Columns: []string{}}
	if len(levels) > 0 {
		enc.Reference = levels[0]
	}

	var cols []column
	for _, lv := range levels[1:] {
		values := make([]float64, len(rows))
		for i := range rows {
			if labels[i][name] == lv {
				values[i] = 1
			}
		}
		colName := name + "_" + lv
		enc.Columns = append(enc.Columns, colName)
		cols = append(cols, column{name: colName, source: name, values: values})
	}
	return cols, enc
}

// checkNames 哑变量列名 <变量>_<取值> 可能与其它列重名, 重名时系数无法区分
func checkNames(cols []column) error {
	owner := map[string]string{InterceptName: ""}
	for _, c := range cols {
		prev, dup := owner[c.name]
		if !dup {
			owner[c.name] = c.source
			continue
		}
		if prev == "" {
			return errorx.Newf(errCode.INVALID_CONFIG, []string{c.source},
				"column %q of variable %q clashes with the intercept, rename the variable", c.name, c.source)
		}
		return errorx.Newf(errCode.INVALID_CONFIG, []string{prev, c.source},
			"variables %q and %q both produce a column named %q, rename one of them", prev, c.source, c.name)
	}
	return nil
}

// checkStructure 常数数值列, 重复数值列, 常数目标
func checkStructure(cols []column, y []float64, cfg preprocess.Config) error {
	for _, c := range cols {
		if c.numeric && isConstant(c.values) {
			return errorx.Newf(errCode.CONSTANT_VARIABLE, []string{c.source},
				"variable %q has zero variance (constant value %g) and is collinear with the intercept", c.source, c.values[0])
		}
	}

	for a := 0; a < len(cols); a++ {
		if !cols[a].numeric {
			continue
		}
		for b := a + 1; b < len(cols); b++ {
			if !cols[b].numeric {
				continue
			}
			if sameValues(cols[a].values, cols[b].values) {
				return errorx.Newf(errCode.DUPLICATE_VARIABLE, []string{cols[a].source, cols[b].source},
					"variables %q and %q have identical values, remove one of them", cols[a].source, cols[b].source)
			}
		}
	}

	if isConstant(y) {
		return errorx.Newf(errCode.CONSTANT_VARIABLE, []string{cfg.Target},
			"target %q is constant, there is no variation to explain", cfg.Target)
	}
	return nil
}

func isConstant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

func sameValues(a, b []float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > DuplicateTolerance {
			return false
		}
	}
	return true
}
