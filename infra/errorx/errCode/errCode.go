package errCode

// Code 错误码
type Code int

const (
	OK Code = iota
	EMPTY_VALUE
	INVALID_VALUE
	INVALID_CONFIG
	EMPTY_DATASET            // 清洗后无有效行
	INSUFFICIENT_SAMPLE_SIZE // n <= k
	CONSTANT_VARIABLE        // 零方差变量, 与截距共线
	DUPLICATE_VARIABLE       // 两列数值完全相同
	SINGULAR_MATRIX          // 矩阵不可逆
	INVALID_TRANSFORM        // 对数变换定义域不满足, 只作为丢行原因
	TIMEOUT
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case EMPTY_VALUE:
		return "EMPTY_VALUE"
	case INVALID_VALUE:
		return "INVALID_VALUE"
	case INVALID_CONFIG:
		return "INVALID_CONFIG"
	case EMPTY_DATASET:
		return "EMPTY_DATASET"
	case INSUFFICIENT_SAMPLE_SIZE:
		return "INSUFFICIENT_SAMPLE_SIZE"
	case CONSTANT_VARIABLE:
		return "CONSTANT_VARIABLE"
	case DUPLICATE_VARIABLE:
		return "DUPLICATE_VARIABLE"
	case SINGULAR_MATRIX:
		return "SINGULAR_MATRIX"
	case INVALID_TRANSFORM:
		return "INVALID_TRANSFORM"
	case TIMEOUT:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Retryable 调用方原样重试是否可能成功; 其余错误只能修改配置后重试
func (c Code) Retryable() bool {
	return c == TIMEOUT
}
