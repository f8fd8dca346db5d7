package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"study-hub/backend/internal/model"
)

// AbsenceScheduleRepository 外出日程数据访问接口
type AbsenceScheduleRepository interface {
	Create(ctx context.Context, s *model.AbsenceSchedule) error
	GetByID(ctx context.Context, id string) (*model.AbsenceSchedule, error)
	Update(ctx context.Context, s *model.AbsenceSchedule) error
	// Delete 硬删除
	Delete(ctx context.Context, id string) error
	// Reject 标记为 rejected 并软删除，保留审计记录；
	// 记录已不是 pending（例如并发批准先完成）时不做修改并返回 gorm.ErrRecordNotFound
	Reject(ctx context.Context, id string, rejectedBy string, at time.Time) error
	ListByStudent(ctx context.Context, studentID string) ([]model.AbsenceSchedule, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]model.AbsenceSchedule, error)
	ListPendingByStudent(ctx context.Context, studentID string) ([]model.AbsenceSchedule, error)
	ListPendingByBranch(ctx context.Context, branchID string) ([]model.AbsenceSchedule, error)
	ListApprovedByBranch(ctx context.Context, branchID string) ([]model.AbsenceSchedule, error)
	ListRejectedByStudent(ctx context.Context, studentID string) ([]model.AbsenceSchedule, error)
}

type absenceScheduleRepo struct {
	db *gorm.DB
}

// NewAbsenceScheduleRepo 创建 AbsenceScheduleRepository 实例
func NewAbsenceScheduleRepo(db *gorm.DB) AbsenceScheduleRepository {
	return &absenceScheduleRepo{db: db}
}

func (r *absenceScheduleRepo) Create(ctx context.Context, s *model.AbsenceSchedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *absenceScheduleRepo) GetByID(ctx context.Context, id string) (*model.AbsenceSchedule, error) {
	var s model.AbsenceSchedule
	err := r.db.WithContext(ctx).Where("absence_schedule_id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *absenceScheduleRepo) Update(ctx context.Context, s *model.AbsenceSchedule) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *absenceScheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("absence_schedule_id = ?", id).
		Delete(&model.AbsenceSchedule{}).Error
}

func (r *absenceScheduleRepo) Reject(ctx context.Context, id string, rejectedBy string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.AbsenceSchedule{}).
		Where("absence_schedule_id = ? AND status = ?", id, model.ScheduleStatusPending).
		Updates(map[string]interface{}{
			"status":     model.ScheduleStatusRejected,
			"decided_by": rejectedBy,
			"decided_at": at,
			"deleted_by": rejectedBy,
			"deleted_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *absenceScheduleRepo) ListByStudent(ctx context.Context, studentID string) ([]model.AbsenceSchedule, error) {
	var list []model.AbsenceSchedule
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *absenceScheduleRepo) ListActiveByStudent(ctx context.Context, studentID string) ([]model.AbsenceSchedule, error) {
	var list []model.AbsenceSchedule
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Order("start_time ASC").
		Find(&list).Error
	return list, err
}

func (r *absenceScheduleRepo) ListPendingByStudent(ctx context.Context, studentID string) ([]model.AbsenceSchedule, error) {
	var list []model.AbsenceSchedule
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, model.ScheduleStatusPending).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *absenceScheduleRepo) ListPendingByBranch(ctx context.Context, branchID string) ([]model.AbsenceSchedule, error) {
	var list []model.AbsenceSchedule
	err := r.db.WithContext(ctx).
		Preload("Student").
		Joins("JOIN students ON students.student_id = absence_schedules.student_id").
		Where("students.branch_id = ? AND absence_schedules.status = ?", branchID, model.ScheduleStatusPending).
		Order("absence_schedules.created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *absenceScheduleRepo) ListApprovedByBranch(ctx context.Context, branchID string) ([]model.AbsenceSchedule, error) {
	var list []model.AbsenceSchedule
	err := r.db.WithContext(ctx).
		Preload("Student").
		Joins("JOIN students ON students.student_id = absence_schedules.student_id").
		Where("students.branch_id = ? AND absence_schedules.status = ?", branchID, model.ScheduleStatusApproved).
		Order("students.name ASC, absence_schedules.start_time ASC").
		Find(&list).Error
	return list, err
}

func (r *absenceScheduleRepo) ListRejectedByStudent(ctx context.Context, studentID string) ([]model.AbsenceSchedule, error) {
	var list []model.AbsenceSchedule
	err := r.db.WithContext(ctx).Unscoped().
		Where("student_id = ? AND status = ?", studentID, model.ScheduleStatusRejected).
		Order("decided_at DESC").
		Find(&list).Error
	return list, err
}
