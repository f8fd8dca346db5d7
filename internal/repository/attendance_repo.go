package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"study-hub/backend/internal/model"
)

// AttendanceRepository 出勤事件数据访问接口（仅追加）
type AttendanceRepository interface {
	Create(ctx context.Context, ev *model.AttendanceEvent) error
	// ListByStudentBetween 返回 [from, to] 闭区间内的事件，按时间升序
	ListByStudentBetween(ctx context.Context, studentID string, from, to time.Time) ([]model.AttendanceEvent, error)
	ListByStudentsBetween(ctx context.Context, studentIDs []string, from, to time.Time) ([]model.AttendanceEvent, error)
	// LatestByType 区间内指定类型的最后一条事件；不存在时返回 gorm.ErrRecordNotFound
	LatestByType(ctx context.Context, studentID string, eventType model.EventType, from, to time.Time) (*model.AttendanceEvent, error)
	// AppendCheckOut 写入签退事件并关闭当前科目记录
	AppendCheckOut(ctx context.Context, ev *model.AttendanceEvent) error
	// SplitLongBreak 长休息拆分：关闭科目 → 在休息开始时刻签退 → 在 now 重新签到
	SplitLongBreak(ctx context.Context, studentID string, breakStart, now time.Time, source model.EventSource) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, ev *model.AttendanceEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *attendanceRepo) ListByStudentBetween(ctx context.Context, studentID string, from, to time.Time) ([]model.AttendanceEvent, error) {
	var events []model.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND occurred_at >= ? AND occurred_at <= ?", studentID, from, to).
		Order("occurred_at ASC, created_at ASC").
		Find(&events).Error
	return events, err
}

func (r *attendanceRepo) ListByStudentsBetween(ctx context.Context, studentIDs []string, from, to time.Time) ([]model.AttendanceEvent, error) {
	var events []model.AttendanceEvent
	if len(studentIDs) == 0 {
		return events, nil
	}
	err := r.db.WithContext(ctx).
		Where("student_id IN ? AND occurred_at >= ? AND occurred_at <= ?", studentIDs, from, to).
		Order("student_id ASC, occurred_at ASC, created_at ASC").
		Find(&events).Error
	return events, err
}

func (r *attendanceRepo) LatestByType(ctx context.Context, studentID string, eventType model.EventType, from, to time.Time) (*model.AttendanceEvent, error) {
	var ev model.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND event_type = ? AND occurred_at >= ? AND occurred_at <= ?", studentID, eventType, from, to).
		Order("occurred_at DESC, created_at DESC").
		First(&ev).Error
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *attendanceRepo) AppendCheckOut(ctx context.Context, ev *model.AttendanceEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ev).Error; err != nil {
			return err
		}
		return closeCurrentSubject(tx, ev.StudentID, ev.OccurredAt)
	})
}

func (r *attendanceRepo) SplitLongBreak(ctx context.Context, studentID string, breakStart, now time.Time, source model.EventSource) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := closeCurrentSubject(tx, studentID, breakStart); err != nil {
			return err
		}
		checkOut := &model.AttendanceEvent{
			StudentID:  studentID,
			EventType:  model.EventCheckOut,
			OccurredAt: breakStart,
			Source:     source,
		}
		if err := tx.Create(checkOut).Error; err != nil {
			return err
		}
		checkIn := &model.AttendanceEvent{
			StudentID:  studentID,
			EventType:  model.EventCheckIn,
			OccurredAt: now,
			Source:     source,
		}
		return tx.Create(checkIn).Error
	})
}
