// 系数稳健性: 有放回重抽样 n 行, 重新拟合 OLS, 对每个非截距系数的估计做分位数汇总.
//
// 每次迭代使用独立的随机源 seed+i, 结果与 worker 调度顺序无关.
// 重抽样得到奇异矩阵的迭代直接丢弃, 不重试; 汇总只使用成功的迭代.
package bootstrap

import (
	"encoding/binary"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/ml/ols"

	"github.com/cespare/xxhash/v2"
	"github.com/gonum/stat"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultSmallIterations      = 50
	DefaultLargeIterations      = 20
	DefaultLargeSampleThreshold = 2000
)

type Options struct {
	SmallIterations      int    `yaml:"smallIterations"`      // n <= 阈值时的迭代次数
	LargeIterations      int    `yaml:"largeIterations"`      // n > 阈值时的迭代次数
	LargeSampleThreshold int    `yaml:"largeSampleThreshold"` // 样本量阈值
	Seed                 *int64 `yaml:"seed"`                 // nil 时由 X, y 内容派生
	Workers              int    `yaml:"workers"`              // <= 0 时为 runtime.NumCPU()
}

func (o Options) withDefaults() Options {
	if o.SmallIterations <= 0 {
		o.SmallIterations = DefaultSmallIterations
	}
	if o.LargeIterations <= 0 {
		o.LargeIterations = DefaultLargeIterations
	}
	if o.LargeSampleThreshold <= 0 {
		o.LargeSampleThreshold = DefaultLargeSampleThreshold
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// Iterations 样本量 n 对应的迭代次数
func (o Options) Iterations(n int) int {
	o = o.withDefaults()
	if n <= o.LargeSampleThreshold {
		return o.SmallIterations
	}
	return o.LargeIterations
}

// Summary 单个系数的 bootstrap 分布
type Summary struct {
	Name       string  `json:"name"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	P2_5       float64 `json:"p2_5"`
	P97_5      float64 `json:"p97_5"`
	Successful int     `json:"successful"`
}

type Result struct {
	Seed      int64
	Requested int
	Succeeded int
	Summaries []Summary // 每个非截距列一个, 与列顺序一致
}

// Dropped 因奇异矩阵被丢弃的迭代数
func (r Result) Dropped() int {
	return r.Requested - r.Succeeded
}

// Run 对设计矩阵 X(第 0 列为截距)和 y 做 bootstrap, names 为 X 的列名
func Run(X *mat.Dense, y *mat.VecDense, names []string, opts Options) (Result, error) {
	n, k := X.Dims()
	if y.Len() != n {
		return Result{}, errorx.New(errCode.INVALID_VALUE, "bootstrap: X and y lengths differ")
	}
	if len(names) != k {
		return Result{}, errorx.New(errCode.INVALID_VALUE, "bootstrap: column names do not match X")
	}
	opts = opts.withDefaults()

	seed := Seed(X, y)
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	iterations := opts.Iterations(n)

	// 每次迭代只写自己的槽位, nil 表示奇异被丢弃
	results := make([][]float64, iterations)
	tasks := make(chan int, iterations)
	wg := sync.WaitGroup{}

	worker := func() {
		defer wg.Done()
		bx := mat.NewDense(n, k, nil)
		by := mat.NewVecDense(n, nil)
		for it := range tasks {
			r := rand.New(rand.NewSource(seed + int64(it)))
			for i := 0; i < n; i++ {
				pos := r.Intn(n)
				bx.SetRow(i, X.RawRowView(pos))
				by.SetVec(i, y.AtVec(pos))
			}
			sol, err := ols.Solve(bx, by)
			if err != nil {
				continue
			}
			results[it] = sol.Coeffs
		}
	}

	numWorkers := opts.Workers
	if numWorkers > iterations {
		numWorkers = iterations
	}
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go worker()
	}
	for it := 0; it < iterations; it++ {
		tasks <- it
	}
	close(tasks)
	wg.Wait()

	succeeded := 0
	for _, coeffs := range results {
		if coeffs != nil {
			succeeded++
		}
	}

	summaries := make([]Summary, 0, k-1)
	for j := 1; j < k; j++ {
		est := make([]float64, 0, succeeded)
		for _, coeffs := range results {
			if coeffs != nil {
				est = append(est, coeffs[j])
			}
		}
		s := Summarize(est)
		s.Name = names[j]
		summaries = append(summaries, s)
	}

	return Result{Seed: seed, Requested: iterations, Succeeded: succeeded, Summaries: summaries}, nil
}

// Summarize 排序后取分位数; 分位数下标越界时退回 min/max, 空样本返回全零
func Summarize(estimates []float64) Summary {
	L := len(estimates)
	if L == 0 {
		return Summary{}
	}
	sorted := make([]float64, L)
	copy(sorted, estimates)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[L-1]
	p025, p975 := lo, hi
	if i := int(math.Floor(float64(L) * 0.025)); i >= 0 && i < L {
		p025 = sorted[i]
	}
	if i := int(math.Floor(float64(L) * 0.975)); i >= 0 && i < L {
		p975 = sorted[i]
	}
	return Summary{
		Mean:       stat.Mean(sorted, nil),
		Median:     sorted[L/2],
		Min:        lo,
		Max:        hi,
		P2_5:       p025,
		P97_5:      p975,
		Successful: L,
	}
}

// Seed 由 X, y 的字节内容派生的确定性种子
func Seed(X *mat.Dense, y *mat.VecDense) int64 {
	h := xxhash.New()
	var buf [8]byte
	n, k := X.Dims()
	for i := 0; i < n; i++ {
		for _, v := range X.RawRowView(i)[:k] {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
	}
	for i := 0; i < y.Len(); i++ {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(y.AtVec(i)))
		_, _ = h.Write(buf[:])
	}
	return int64(h.Sum64() >> 1)
}
