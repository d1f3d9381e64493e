// Package ingest 把 CSV / JSON 表格读成 preprocess.Row.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/ml/preprocess"

	"github.com/tidwall/gjson"
)

// Table 读入的行和列名(列名按首次出现的顺序)
type Table struct {
	Columns []string
	Rows    []preprocess.Row
}

// ReadCSV 首行为表头; 空单元格为缺失, 能解析为数值的为数值, 其余为文本
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Table{}, errorx.New(errCode.EMPTY_VALUE, "csv has no header row")
	}
	if err != nil {
		return Table{}, errorx.Wrap(err, errCode.INVALID_VALUE, "read csv header")
	}
	cols := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if _, dup := seen[h]; dup {
			return Table{}, errorx.New(errCode.INVALID_VALUE, "duplicate csv column", h)
		}
		seen[h] = struct{}{}
		cols[i] = h
	}

	var rows []preprocess.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, errorx.Wrap(err, errCode.INVALID_VALUE, fmt.Sprintf("read csv line %d", line))
		}
		row := make(preprocess.Row, len(cols))
		for i, col := range cols {
			if i >= len(rec) {
				row[col] = preprocess.Missing()
				continue
			}
			row[col] = cell(rec[i])
		}
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}, nil
}

// cell 有限数值保留原文本; "NaN", "Inf" 之类按文本处理
func cell(s string) preprocess.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return preprocess.Missing()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return preprocess.Parsed(s, f)
	}
	return preprocess.Text(s)
}

// ReadJSON 对象数组; 数字为数值, 字符串为文本, null/缺少字段为缺失, 布尔值为文本
func ReadJSON(data []byte) (Table, error) {
	if !gjson.ValidBytes(data) {
		return Table{}, errorx.New(errCode.INVALID_VALUE, "invalid json")
	}
	root := gjson.ParseBytes(data)
	return RowsFromJSON(root)
}

// RowsFromJSON 同 ReadJSON, 输入为已解析的数组
func RowsFromJSON(arr gjson.Result) (Table, error) {
	if !arr.IsArray() {
		return Table{}, errorx.New(errCode.INVALID_VALUE, "json rows must be an array of objects")
	}
	var t Table
	seen := make(map[string]struct{})
	var bad error
	arr.ForEach(func(idx, obj gjson.Result) bool {
		if !obj.IsObject() {
			bad = errorx.New(errCode.INVALID_VALUE, fmt.Sprintf("row %d is not an object", len(t.Rows)))
			return false
		}
		row := make(preprocess.Row)
		obj.ForEach(func(key, v gjson.Result) bool {
			name := key.String()
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				t.Columns = append(t.Columns, name)
			}
			row[name] = jsonValue(v)
			return true
		})
		t.Rows = append(t.Rows, row)
		return true
	})
	if bad != nil {
		return Table{}, bad
	}
	return t, nil
}

func jsonValue(v gjson.Result) preprocess.Value {
	switch v.Type {
	case gjson.Number:
		return preprocess.Num(v.Float())
	case gjson.String:
		if strings.TrimSpace(v.Str) == "" {
			return preprocess.Missing()
		}
		return preprocess.Text(v.Str)
	case gjson.True, gjson.False:
		return preprocess.Text(strconv.FormatBool(v.Bool()))
	case gjson.JSON:
		return preprocess.Text(v.Raw)
	default:
		return preprocess.Missing()
	}
}

// ReadFile 按扩展名选择 CSV 或 JSON
func ReadFile(path string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return Table{}, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".json":
		b, err := os.ReadFile(path)
		if err != nil {
			return Table{}, err
		}
		return ReadJSON(b)
	default:
		return Table{}, errorx.New(errCode.INVALID_VALUE, fmt.Sprintf("unsupported data file extension %q", filepath.Ext(path)))
	}
}
