// Package errorx 统一的带错误码错误类型, 从矩阵内核到对外接口使用同一种 result-or-error.
package errorx

import (
	"errors"
	"fmt"
	"strings"

	"regress/infra/errorx/errCode"
)

type Error struct {
	Code  errCode.Code
	Msg   string
	Vars  []string // 出错的变量名, 调用方据此修改配置
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if len(e.Vars) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Vars, ", "))
		b.WriteString("]")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 同错误码即视为相同, 支持 errors.Is(err, errorx.Sentinel(code))
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

func New(code errCode.Code, msg string, vars ...string) *Error {
	return &Error{Code: code, Msg: msg, Vars: vars}
}

func Newf(code errCode.Code, vars []string, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Vars: vars}
}

// Wrap 保留 cause; cause 为 nil 时返回 nil
func Wrap(cause error, code errCode.Code, msg string, vars ...string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Msg: msg, Vars: vars, Cause: cause}
}

// Sentinel 仅用于 errors.Is 比较
func Sentinel(code errCode.Code) error {
	return &Error{Code: code}
}

// Is 沿错误链查找指定错误码
func Is(err error, code errCode.Code) bool {
	return errors.Is(err, Sentinel(code))
}

// CodeOf 返回错误链上第一个 errorx.Error 的错误码, 非 errorx 错误返回 INVALID_VALUE
func CodeOf(err error) errCode.Code {
	if err == nil {
		return errCode.OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return errCode.INVALID_VALUE
}

// VarsOf 返回错误链上所有 errorx.Error 携带的变量名(去重, 保序)
func VarsOf(err error) []string {
	var out []string
	seen := make(map[string]struct{})
	for err != nil {
		if e, ok := err.(*Error); ok {
			for _, v := range e.Vars {
				if _, dup := seen[v]; dup {
					continue
				}
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
		err = errors.Unwrap(err)
	}
	return out
}
