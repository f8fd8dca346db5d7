package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"study-hub/backend/internal/model"
)

// StudySubjectRepository 学习科目记录数据访问接口
type StudySubjectRepository interface {
	GetCurrent(ctx context.Context, studentID string) (*model.StudySubject, error)
	CloseCurrent(ctx context.Context, studentID string, asOf time.Time) error
}

type studySubjectRepo struct {
	db *gorm.DB
}

// NewStudySubjectRepo 创建 StudySubjectRepository 实例
func NewStudySubjectRepo(db *gorm.DB) StudySubjectRepository {
	return &studySubjectRepo{db: db}
}

func (r *studySubjectRepo) GetCurrent(ctx context.Context, studentID string) (*model.StudySubject, error) {
	var s model.StudySubject
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND is_current = ?", studentID, true).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studySubjectRepo) CloseCurrent(ctx context.Context, studentID string, asOf time.Time) error {
	return closeCurrentSubject(r.db.WithContext(ctx), studentID, asOf)
}

// closeCurrentSubject 供事务内复用；没有进行中的科目时为空操作
func closeCurrentSubject(tx *gorm.DB, studentID string, asOf time.Time) error {
	return tx.Model(&model.StudySubject{}).
		Where("student_id = ? AND is_current = ?", studentID, true).
		Updates(map[string]interface{}{
			"is_current": false,
			"ended_at":   asOf,
		}).Error
}
