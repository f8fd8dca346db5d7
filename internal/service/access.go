package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"study-hub/backend/internal/model"
	"study-hub/backend/internal/repository"
)

// ── 访问控制业务错误 ──

var (
	ErrStudentNotFound     = errors.New("学生不存在")
	ErrStudentAccessDenied = errors.New("无权访问该学生的数据")
)

// authorizeStudent 校验调用方能否操作指定学生
//   - 学生：只能访问本人
//   - 家长：只能访问关联的子女
//   - 管理员：只能访问本分店学生
func authorizeStudent(ctx context.Context, repo *repository.Repository, logger *zap.Logger, caller Caller, studentID string) (*model.Student, error) {
	if caller.Role == model.RoleStudent && caller.UserID != studentID {
		return nil, ErrStudentAccessDenied
	}

	student, err := repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		logger.Error("查询学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	switch caller.Role {
	case model.RoleStudent:
		return student, nil
	case model.RoleParent:
		if student.ParentID != nil && *student.ParentID == caller.UserID {
			return student, nil
		}
	case model.RoleAdmin:
		if student.BranchID == caller.BranchID {
			return student, nil
		}
	}
	return nil, ErrStudentAccessDenied
}
