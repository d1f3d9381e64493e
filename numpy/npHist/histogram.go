package npHist

import "math"

// Bin 分箱, 左闭右开, 最后一个分箱右闭
type Bin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// Hist 等宽分箱, 非有限值跳过
func Hist(data []float64, bins int) []Bin {
	if bins <= 0 {
		return nil
	}
	minV, maxV := math.Inf(1), math.Inf(-1)
	finite := 0
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite++
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if finite == 0 {
		return nil
	}

	// max == min 时避免除 0
	if maxV == minV {
		maxV = minV + 1e-9
	}
	width := (maxV - minV) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{From: minV + float64(i)*width, To: minV + float64(i+1)*width}
	}
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		idx := int(math.Floor((v - minV) / width))
		if idx >= bins { // v == maxV
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}
