package ginx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"fulfilment/internal/app/pkg/errorx"
)

// Response 统一响应结构 {meta, data}
type Response struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data,omitempty"`
}

// Meta 元数据，Type 与 errorx.Kind 取值一致
type Meta struct {
	Code    int           `json:"code"`
	Type    string        `json:"type"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail 字段级错误
type ErrorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

// 响应类型
const (
	TypeOK              = "OK"
	TypeValidationError = string(errorx.KindValidation)
	TypeNotFound        = string(errorx.KindNotFound)
	TypeInternalError   = string(errorx.KindInternal)
	TypeTooManyRequests = "TooManyRequests"
)

// Success 成功响应（200）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Meta: Meta{
			Code:    http.StatusOK,
			Type:    TypeOK,
			Message: "OK",
		},
		Data: data,
	})
}

// Created 创建成功（201）
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Meta: Meta{
			Code:    http.StatusCreated,
			Type:    TypeOK,
			Message: "Created",
		},
		Data: data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, respType string, message string) {
	ErrorWithDetails(c, httpCode, respType, message, nil)
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpCode int, respType string, message string, details []ErrorDetail) {
	c.JSON(httpCode, Response{
		Meta: Meta{
			Code:    httpCode,
			Type:    respType,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, TypeValidationError, message)
}

// BadRequestWithValidation 400 错误（带验证详情）
func BadRequestWithValidation(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]ErrorDetail, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, ErrorDetail{
				Path: fieldErr.Field(),
				Info: getValidationErrorMessage(fieldErr),
			})
		}
		ErrorWithDetails(c, http.StatusBadRequest, TypeValidationError, "Validation failed", details)
		return
	}

	BadRequest(c, err.Error())
}

// NotFound 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, TypeNotFound, message)
}

// InternalError 500 错误
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, TypeInternalError, message)
}

// FromError 按错误分类输出响应
func FromError(c *gin.Context, err error) {
	e, ok := errorx.As(err)
	if !ok {
		InternalError(c, "internal error")
		return
	}

	status := StatusOf(e.Kind)
	message := e.Message
	if e.Kind == errorx.KindInternal {
		message = "internal error"
	}

	var details []ErrorDetail
	for _, d := range e.Details {
		details = append(details, ErrorDetail{Path: d.Path, Info: d.Info})
	}

	c.JSON(status, Response{
		Meta: Meta{
			Code:    status,
			Type:    string(e.Kind),
			Message: message,
			Details: details,
		},
		Data: e.Payload,
	})
}

// StatusOf 错误分类到 HTTP 状态码
func StatusOf(kind errorx.Kind) int {
	switch kind {
	case errorx.KindValidation:
		return http.StatusBadRequest
	case errorx.KindNotFound:
		return http.StatusNotFound
	case errorx.KindConflict:
		return http.StatusConflict
	case errorx.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	case errorx.KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// getValidationErrorMessage 根据验证错误类型返回友好的错误消息
func getValidationErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "min", "gte":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "max", "lte":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	case "gt":
		return fieldErr.Field() + " must be greater than " + fieldErr.Param()
	case "oneof":
		return fieldErr.Field() + " must be one of [" + fieldErr.Param() + "]"
	case "dive":
		return fieldErr.Field() + " contains an invalid item"
	default:
		return fieldErr.Field() + " is invalid"
	}
}
