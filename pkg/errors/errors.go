package errors

import (
	"errors"
	"fmt"
)

// ValidationError 输入校验失败（缺少字段、时间区间非法等），可安全展示给用户
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation 创建校验错误
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation 从错误链中提取 ValidationError
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
