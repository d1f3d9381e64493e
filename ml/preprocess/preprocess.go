// Package preprocess 按变量配置过滤行: 目标可转有限数, 特征非缺失, 对数变换定义域.
package preprocess

import (
	"fmt"
	"sort"
	"strings"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/infra/observe/log/staticLog"

	"github.com/bits-and-blooms/bitset"
	"github.com/sirupsen/logrus"
)

// 丢行原因
const (
	REASON_MISSING     = errCode.EMPTY_VALUE
	REASON_NOT_NUMERIC = errCode.INVALID_VALUE
	REASON_DOMAIN      = errCode.INVALID_TRANSFORM
)

type Clean struct {
	Rows    []Row
	Index   []int                           // Rows[i] 对应的原始行号
	Dropped int                             // 被过滤的行数
	Reasons map[string]map[errCode.Code]int // 变量 -> 原因 -> 行数, 每行只记第一个原因
}

// Filter 返回所有参与列都有效的行, 保持原顺序, 不修改输入
func Filter(rows []Row, cfg Config) (Clean, error) {
	if err := cfg.Validate(); err != nil {
		return Clean{}, err
	}

	mask := bitset.New(uint(len(rows)))
	reasons := make(map[string]map[errCode.Code]int)
	note := func(name string, reason errCode.Code) {
		m, ok := reasons[name]
		if !ok {
			m = make(map[errCode.Code]int)
			reasons[name] = m
		}
		m[reason]++
	}

	for i, row := range rows {
		if name, reason, ok := validRow(row, cfg); !ok {
			note(name, reason)
			continue
		}
		mask.Set(uint(i))
	}

	kept := int(mask.Count())
	out := Clean{
		Rows:    make([]Row, 0, kept),
		Index:   make([]int, 0, kept),
		Dropped: len(rows) - kept,
		Reasons: reasons,
	}
	for i, ok := mask.NextSet(0); ok; i, ok = mask.NextSet(i + 1) {
		out.Rows = append(out.Rows, rows[i])
		out.Index = append(out.Index, int(i))
	}

	if out.Dropped > 0 {
		staticLog.Log.WithFields(logrus.Fields{
			"rows":    len(rows),
			"kept":    kept,
			"dropped": out.Dropped,
		}).Debug("preprocess dropped rows")
	}

	if kept == 0 {
		return out, emptyDatasetError(len(rows), cfg, reasons)
	}
	return out, nil
}

func validRow(row Row, cfg Config) (string, errCode.Code, bool) {
	y, ok := row[cfg.Target].Float()
	if !ok {
		if row[cfg.Target].IsMissing() {
			return cfg.Target, REASON_MISSING, false
		}
		return cfg.Target, REASON_NOT_NUMERIC, false
	}
	if !InDomain(y, cfg.TargetLogTransform, cfg.TargetLogPlusOne) {
		return cfg.Target, REASON_DOMAIN, false
	}

	for _, f := range cfg.Features {
		v := row[f.Name]
		if v.IsMissing() {
			return f.Name, REASON_MISSING, false
		}
		if f.Kind == KIND_CATEGORICAL {
			continue
		}
		x, ok := v.Float()
		if !ok {
			return f.Name, REASON_NOT_NUMERIC, false
		}
		if !InDomain(x, f.LogTransform, f.LogPlusOne) {
			return f.Name, REASON_DOMAIN, false
		}
	}
	return "", errCode.OK, true
}

func emptyDatasetError(total int, cfg Config, reasons map[string]map[errCode.Code]int) error {
	var logVars []string
	if cfg.TargetLogTransform {
		logVars = append(logVars, cfg.Target)
	}
	for _, f := range cfg.Features {
		if f.LogTransform {
			logVars = append(logVars, f.Name)
		}
	}

	names := make([]string, 0, len(reasons))
	for name := range reasons {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		for _, r := range []errCode.Code{REASON_MISSING, REASON_NOT_NUMERIC, REASON_DOMAIN} {
			if c := reasons[name][r]; c > 0 {
				parts = append(parts, fmt.Sprintf("%s %s=%d", name, reasonLabel(r), c))
			}
		}
	}

	msg := fmt.Sprintf("no valid rows remain after cleaning (%d input rows)", total)
	if len(logVars) > 0 {
		msg += fmt.Sprintf("; log transforms on %s require values > 0 (> -1 for log(x+1)), domain violations are a likely cause",
			strings.Join(logVars, ", "))
	} else {
		msg += "; check for missing or non-numeric values"
	}
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	return errorx.New(errCode.EMPTY_DATASET, msg, names...)
}

func reasonLabel(r errCode.Code) string {
	switch r {
	case REASON_MISSING:
		return "missing"
	case REASON_NOT_NUMERIC:
		return "not_numeric"
	case REASON_DOMAIN:
		return "log_domain"
	default:
		return r.String()
	}
}
