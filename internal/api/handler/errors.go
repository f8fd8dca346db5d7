package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"study-hub/backend/internal/service"
	apperrors "study-hub/backend/pkg/errors"
	"study-hub/backend/pkg/response"
)

// handleAccessError 处理跨模块共用的学生访问控制错误；已写入响应时返回 true
func handleAccessError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14001, "学生不存在")
	case errors.Is(err, service.ErrStudentAccessDenied):
		response.Forbidden(c, 14002, "无权访问该学生的数据")
	default:
		return false
	}
	return true
}

// handleValidationError 业务层校验失败统一转为 10006，并携带字段名
func handleValidationError(c *gin.Context, err error) bool {
	v, ok := apperrors.AsValidation(err)
	if !ok {
		return false
	}
	response.ValidationFailed(c, v.Field, v.Message)
	return true
}
