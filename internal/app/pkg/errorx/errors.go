package errorx

import (
	"errors"
	"fmt"
)

// Kind 错误分类，决定 HTTP 状态码与是否可重试
type Kind string

const (
	KindValidation            Kind = "ValidationError"
	KindNotFound              Kind = "NotFound"
	KindDependencyUnavailable Kind = "DependencyUnavailable"
	KindNotImplemented        Kind = "NotImplemented"
	KindConflict              Kind = "Conflict"
	KindInternal              Kind = "InternalError"
)

// 业务错误码
const (
	CodeInvalidShortage   = "INVALID_SHORTAGE"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeLineNotFound      = "LINE_NOT_FOUND"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeStaleVersion      = "STALE_VERSION"
	CodeDuplicateOrder    = "DUPLICATE_ORDER"
	CodeNotImplemented    = "NOT_IMPLEMENTED"
	CodeDependencyDown    = "DEPENDENCY_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)

// 哨兵错误，用于 errors.Is 判断
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrModelUnavailable = errors.New("model unavailable")
)

// ErrorDetail 错误详情
type ErrorDetail struct {
	Path string
	Info string
}

// Error 业务错误结构（包含可重试标记）
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Retryable bool
	Details   []ErrorDetail
	// Payload 附加的结构化数据（例如 claim 占位响应）
	Payload interface{}
	cause   error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap 支持 errors.Is / errors.As
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail 追加错误详情
func (e *Error) WithDetail(path, info string) *Error {
	e.Details = append(e.Details, ErrorDetail{Path: path, Info: info})
	return e
}

// WithCause 记录底层错误
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// Validation 参数或业务规则错误（400）
func Validation(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound 资源不存在（404）
func NotFound(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// DependencyUnavailable 下游依赖不可用（503，可重试）
func DependencyUnavailable(format string, args ...interface{}) *Error {
	return &Error{
		Kind:      KindDependencyUnavailable,
		Code:      CodeDependencyDown,
		Message:   fmt.Sprintf(format, args...),
		Retryable: true,
	}
}

// NotImplemented 功能未实现（501，不可重试）
func NotImplemented(message string, payload interface{}) *Error {
	return &Error{
		Kind:    KindNotImplemented,
		Code:    CodeNotImplemented,
		Message: message,
		Payload: payload,
	}
}

// Conflict 非法的状态流转（409）
func Conflict(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Internal 内部错误（500）
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal error", cause: err}
}

// As 提取 *Error
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf 返回错误分类，非业务错误视为 InternalError
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind 判断错误分类
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable 判断是否可重试
func IsRetryable(err error) bool {
	if e, ok := As(err); ok {
		return e.Retryable
	}
	return false
}
