package util

import (
	"errors"
	"fmt"
)

// ErrorKind 稳定的机器可读错误类别
type ErrorKind string

const (
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindNotFound           ErrorKind = "not_found"
	KindInsufficientSource ErrorKind = "insufficient_source"
	KindPartialFailure     ErrorKind = "partial_failure"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindInternal           ErrorKind = "internal_error"
)

// AppError 携带错误类别和人类可读信息
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func WrapAppError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf 提取错误类别，非 AppError 一律视为内部错误
func KindOf(err error) ErrorKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

var (
	ErrPlanNotFound = NewAppError(KindNotFound, "学习路径不存在")
	ErrQuizNotFound = NewAppError(KindNotFound, "测验不存在")
)
