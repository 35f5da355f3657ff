package response

import "errors"

// AppError 携带业务码与翻译 key 的接口错误
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

// NewAppError 创建接口错误
func NewAppError(code int, key, message string, err error) *AppError {
	return &AppError{Code: code, Key: key, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Internal 是否为服务端错误，决定日志级别
func (e *AppError) Internal() bool {
	return e.Code >= CodeInternal
}

// AsAppError 从错误链中取出 AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
