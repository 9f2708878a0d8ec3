package util

import "errors"

// ErrorKind 服务层错误分类，边界层据此映射 HTTP 状态码
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindForbidden
	KindConflict
	KindLimitExceeded
	KindInvalidInput
)

// ServiceError 携带分类与可读信息的业务错误
type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NotFoundError(message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message}
}

func ForbiddenError(message string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: message}
}

func ConflictError(message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: message}
}

func LimitExceededError(message string) *ServiceError {
	return &ServiceError{Kind: KindLimitExceeded, Message: message}
}

func InvalidInputError(message string) *ServiceError {
	return &ServiceError{Kind: KindInvalidInput, Message: message}
}

// KindOf 取出错误分类，非业务错误返回 0
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
