package core

import (
	"errors"
	"fmt"
)

// 错误码：按调用方需要区分处理的类别划分。
const (
	ErrCodeNotFound          = "NOT_FOUND"          // 实体不存在
	ErrCodeInvalidInput      = "INVALID_INPUT"      // 请求参数非法（权重、limit 等）
	ErrCodeUnavailable       = "UNAVAILABLE"        // 能力暂不可用（索引未就绪等），可降级
	ErrCodeDependencyFailure = "DEPENDENCY_FAILURE" // 外部依赖失败（编码器、存储）
	ErrCodeNotSupported      = "NOT_SUPPORTED"      // 当前实现不支持的操作
	ErrCodeInternal          = "INTERNAL_ERROR"     // 内部错误
)

// DomainError 为领域错误，携带错误码与出错模块，便于上层分类处理与降级。
type DomainError struct {
	Code    string
	Message string
	Module  string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Module, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Module, e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError 创建领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Module: module}
}

// WrapDomainError 包装底层错误为领域错误。
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Module: module, Err: err}
}

func hasCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsNotFound 判断错误是否为"实体不存在"。
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsInvalidInput 判断错误是否为"参数非法"。
func IsInvalidInput(err error) bool { return hasCode(err, ErrCodeInvalidInput) }

// IsUnavailable 判断错误是否为"能力暂不可用"，调用方据此走降级路径。
func IsUnavailable(err error) bool { return hasCode(err, ErrCodeUnavailable) }

// IsDependencyFailure 判断错误是否为"外部依赖失败"。
func IsDependencyFailure(err error) bool { return hasCode(err, ErrCodeDependencyFailure) }

// IsNotSupported 判断错误是否为"不支持的操作"。
func IsNotSupported(err error) bool { return hasCode(err, ErrCodeNotSupported) }
