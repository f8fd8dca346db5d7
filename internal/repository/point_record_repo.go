package repository

import (
	"context"

	"gorm.io/gorm"

	"study-hub/backend/internal/model"
)

// PointRecordRepository 积分流水数据访问接口
type PointRecordRepository interface {
	Create(ctx context.Context, p *model.PointRecord) error
	ListByStudent(ctx context.Context, studentID string) ([]model.PointRecord, error)
}

type pointRecordRepo struct {
	db *gorm.DB
}

// NewPointRecordRepo 创建 PointRecordRepository 实例
func NewPointRecordRepo(db *gorm.DB) PointRecordRepository {
	return &pointRecordRepo{db: db}
}

func (r *pointRecordRepo) Create(ctx context.Context, p *model.PointRecord) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pointRecordRepo) ListByStudent(ctx context.Context, studentID string) ([]model.PointRecord, error) {
	var list []model.PointRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
