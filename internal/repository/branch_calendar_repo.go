package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"study-hub/backend/internal/model"
)

// BranchCalendarRepository 分店日历与必修时段数据访问接口
type BranchCalendarRepository interface {
	// GetDay 查询某天的日期类型；未配置时返回 gorm.ErrRecordNotFound
	GetDay(ctx context.Context, branchID string, date time.Time) (*model.BranchCalendarDay, error)
	GetMandatoryTime(ctx context.Context, branchID, dateType string) (*model.MandatoryTime, error)
}

type branchCalendarRepo struct {
	db *gorm.DB
}

// NewBranchCalendarRepo 创建 BranchCalendarRepository 实例
func NewBranchCalendarRepo(db *gorm.DB) BranchCalendarRepository {
	return &branchCalendarRepo{db: db}
}

func (r *branchCalendarRepo) GetDay(ctx context.Context, branchID string, date time.Time) (*model.BranchCalendarDay, error) {
	var d model.BranchCalendarDay
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND date = ?", branchID, date.Format("2006-01-02")).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *branchCalendarRepo) GetMandatoryTime(ctx context.Context, branchID, dateType string) (*model.MandatoryTime, error) {
	var m model.MandatoryTime
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND date_type = ?", branchID, dateType).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}
