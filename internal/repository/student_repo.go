package repository

import (
	"context"

	"gorm.io/gorm"

	"study-hub/backend/internal/model"
)

// StudentRepository 学生数据访问接口（学生档案由会员模块维护，此处只读）
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*model.Student, error)
	ListByBranch(ctx context.Context, branchID string) ([]model.Student, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var s model.Student
	if err := r.db.WithContext(ctx).Where("student_id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) ListByBranch(ctx context.Context, branchID string) ([]model.Student, error) {
	var list []model.Student
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND is_active = ?", branchID, true).
		Order("name ASC").
		Find(&list).Error
	return list, err
}
