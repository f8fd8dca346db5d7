package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"study-hub/backend/config"
	"study-hub/backend/internal/model"
	"study-hub/backend/internal/repository"
	"study-hub/backend/pkg/studyday"
)

// PenaltyService 迟到/早退自动扣分
//
// 由打卡接口提交到后台任务执行；返回的 error 只用于日志。
type PenaltyService interface {
	// CheckLateArrival at 晚于必修开始时间且不在免责时段内时扣分，返回是否扣分
	CheckLateArrival(ctx context.Context, studentID string, at time.Time) (bool, error)
	// CheckEarlyDeparture at 早于必修结束时间且不在免责时段内时扣分，返回是否扣分
	CheckEarlyDeparture(ctx context.Context, studentID string, at time.Time) (bool, error)
}

type penaltyService struct {
	repo      *repository.Repository
	cal       *studyday.Calendar
	policy    *config.StudyConfig
	mandatory MandatoryTimeResolver
	exemption ExemptionService
	notifier  Notifier
	logger    *zap.Logger
}

// NewPenaltyService 创建 PenaltyService 实例
func NewPenaltyService(
	repo *repository.Repository,
	cal *studyday.Calendar,
	policy *config.StudyConfig,
	mandatory MandatoryTimeResolver,
	exemption ExemptionService,
	notifier Notifier,
	logger *zap.Logger,
) PenaltyService {
	return &penaltyService{
		repo:      repo,
		cal:       cal,
		policy:    policy,
		mandatory: mandatory,
		exemption: exemption,
		notifier:  notifier,
		logger:    logger,
	}
}

// ════════════════════════════════════════════════════════════
// CheckLateArrival — 迟到判定
// ════════════════════════════════════════════════════════════

func (s *penaltyService) CheckLateArrival(ctx context.Context, studentID string, at time.Time) (bool, error) {
	student, window, err := s.resolve(ctx, studentID, at)
	if err != nil || window == nil {
		return false, err
	}

	threshold := window.Start.On(s.cal.StudyDate(at))
	if !at.After(threshold) {
		return false, nil
	}

	if ex := s.exemption.IsInAbsencePeriod(ctx, studentID, at, window.DateType); ex.IsExempted {
		s.logger.Info("迟到已被外出日程豁免",
			zap.String("student_id", studentID),
			zap.String("schedule_id", ex.Schedule.AbsenceScheduleID),
		)
		return false, nil
	}

	minutes := int(at.Sub(threshold) / time.Minute)
	if err := s.penalize(ctx, student, s.policy.LatePenaltyPoints, s.policy.LatePenaltyReason); err != nil {
		return false, err
	}
	s.notifier.Notify(ctx, studentID, model.NotificationLate,
		"지각 알림",
		fmt.Sprintf("필수 입실 시간(%s)보다 %d분 늦게 입실하여 벌점 %d점이 부과되었습니다.", window.Start, minutes, s.policy.LatePenaltyPoints),
		"/points",
	)
	return true, nil
}

// ════════════════════════════════════════════════════════════
// CheckEarlyDeparture — 早退判定（结束时间 ≥24:00 时顺延到次日）
// ════════════════════════════════════════════════════════════

func (s *penaltyService) CheckEarlyDeparture(ctx context.Context, studentID string, at time.Time) (bool, error) {
	student, window, err := s.resolve(ctx, studentID, at)
	if err != nil || window == nil {
		return false, err
	}

	threshold := window.End.On(s.cal.StudyDate(at))
	if !at.Before(threshold) {
		return false, nil
	}

	if ex := s.exemption.IsInAbsencePeriod(ctx, studentID, at, window.DateType); ex.IsExempted {
		s.logger.Info("早退已被外出日程豁免",
			zap.String("student_id", studentID),
			zap.String("schedule_id", ex.Schedule.AbsenceScheduleID),
		)
		return false, nil
	}

	if err := s.penalize(ctx, student, s.policy.EarlyLeavePenaltyPoints, s.policy.EarlyLeavePenaltyReason); err != nil {
		return false, err
	}
	s.notifier.Notify(ctx, studentID, model.NotificationEarlyLeave,
		"조퇴 알림",
		fmt.Sprintf("필수 퇴실 시간(%s) 이전에 퇴실하여 벌점 %d점이 부과되었습니다.", window.End, s.policy.EarlyLeavePenaltyPoints),
		"/points",
	)
	return true, nil
}

// ── 辅助函数 ──

func (s *penaltyService) resolve(ctx context.Context, studentID string, at time.Time) (*model.Student, *MandatoryWindow, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrStudentNotFound
		}
		return nil, nil, fmt.Errorf("查询学生失败: %w", err)
	}

	window, err := s.mandatory.Resolve(ctx, student.BranchID, s.cal.StudyDate(at))
	if err != nil {
		return nil, nil, fmt.Errorf("解析必修时段失败: %w", err)
	}
	return student, window, nil
}

func (s *penaltyService) penalize(ctx context.Context, student *model.Student, amount int, reason string) error {
	rec := &model.PointRecord{
		StudentID: student.StudentID,
		Type:      model.PointTypePenalty,
		Amount:    amount,
		Reason:    reason,
		IsAuto:    true,
	}
	if err := s.repo.PointRecord.Create(ctx, rec); err != nil {
		return fmt.Errorf("写入自动扣分失败: %w", err)
	}
	s.logger.Info("已自动扣分",
		zap.String("student_id", student.StudentID),
		zap.String("reason", reason),
		zap.Int("amount", amount),
	)
	return nil
}
