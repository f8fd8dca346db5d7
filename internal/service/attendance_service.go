package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"study-hub/backend/config"
	"study-hub/backend/internal/dto"
	"study-hub/backend/internal/model"
	"study-hub/backend/internal/repository"
	"study-hub/backend/pkg/studyday"
)

// TaskRunner 后台任务提交（由 pkg/tasks.Runner 实现）
type TaskRunner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// AttendanceService 出勤业务接口
//
// 出勤状态不落库，每次都由当日事件流推导。
type AttendanceService interface {
	CheckIn(ctx context.Context, studentID string) (*dto.AttendanceActionResponse, error)
	CheckOut(ctx context.Context, studentID string) (*dto.AttendanceActionResponse, error)
	StartBreak(ctx context.Context, studentID string) (*dto.AttendanceActionResponse, error)
	EndBreak(ctx context.Context, studentID string) (*dto.EndBreakResponse, error)
	GetTodayAttendance(ctx context.Context, studentID string) (*dto.TodayAttendanceResponse, error)
	GetTodayStudyTime(ctx context.Context, studentID string) (*dto.TodayStudyTimeResponse, error)
	// GetWeeklyStudyTime studentID 为空时查询调用方本人
	GetWeeklyStudyTime(ctx context.Context, caller Caller, studentID string) (*dto.WeeklyStudyTimeResponse, error)
}

type attendanceService struct {
	repo    *repository.Repository
	cal     *studyday.Calendar
	policy  *config.StudyConfig
	runner  TaskRunner
	penalty PenaltyService
	now     Clock
	logger  *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	repo *repository.Repository,
	cal *studyday.Calendar,
	policy *config.StudyConfig,
	runner TaskRunner,
	penalty PenaltyService,
	now Clock,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		repo:    repo,
		cal:     cal,
		policy:  policy,
		runner:  runner,
		penalty: penalty,
		now:     now,
		logger:  logger,
	}
}

// ────────────────────── CheckIn ──────────────────────

func (s *attendanceService) CheckIn(ctx context.Context, studentID string) (*dto.AttendanceActionResponse, error) {
	now := s.now()
	if err := s.append(ctx, studentID, model.EventCheckIn, now); err != nil {
		return nil, err
	}

	s.runner.Go("late-arrival", func(ctx context.Context) error {
		_, err := s.penalty.CheckLateArrival(ctx, studentID, now)
		return err
	})

	return &dto.AttendanceActionResponse{Status: string(model.StatusCheckedIn), Timestamp: formatTime(now)}, nil
}

// ────────────────────── CheckOut ──────────────────────

func (s *attendanceService) CheckOut(ctx context.Context, studentID string) (*dto.AttendanceActionResponse, error) {
	now := s.now()

	// 早退判定先于签退落库提交，只依赖时间戳，不依赖事件是否已写入
	s.runner.Go("early-departure", func(ctx context.Context) error {
		_, err := s.penalty.CheckEarlyDeparture(ctx, studentID, now)
		return err
	})

	ev := &model.AttendanceEvent{
		StudentID:  studentID,
		EventType:  model.EventCheckOut,
		OccurredAt: now,
		Source:     model.SourceManual,
	}
	if err := s.repo.Attendance.AppendCheckOut(ctx, ev); err != nil {
		s.logger.Error("签退失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	return &dto.AttendanceActionResponse{Status: string(model.StatusCheckedOut), Timestamp: formatTime(now)}, nil
}

// ────────────────────── StartBreak ──────────────────────

func (s *attendanceService) StartBreak(ctx context.Context, studentID string) (*dto.AttendanceActionResponse, error) {
	now := s.now()
	if err := s.append(ctx, studentID, model.EventBreakStart, now); err != nil {
		return nil, err
	}
	return &dto.AttendanceActionResponse{Status: string(model.StatusOnBreak), Timestamp: formatTime(now)}, nil
}

// ════════════════════════════════════════════════════════════
// EndBreak — 结束休息（宽限期策略）
// ════════════════════════════════════════════════════════════
//
//   - 当日没有未结束的 break_start：直接追加 break_end
//   - 休息分钟数（向下取整）≤ 宽限期：追加 break_end，时段延续
//   - 超出宽限期：在一个事务内关闭当前科目、在休息开始时刻签退、在 now 重新签到

func (s *attendanceService) EndBreak(ctx context.Context, studentID string) (*dto.EndBreakResponse, error) {
	now := s.now()
	date := s.cal.StudyDate(now)
	start, _ := s.cal.Bounds(date)
	// 切换时刻与开始时刻之间，当前学习日尚未开始，从上一学习日开始查找
	if now.Before(start) {
		start, _ = s.cal.Bounds(date.AddDate(0, 0, -1))
	}

	breakStart, err := s.openBreakStart(ctx, studentID, start, now)
	if err != nil {
		return nil, err
	}

	if breakStart != nil {
		elapsed := int(now.Sub(breakStart.OccurredAt) / time.Minute)
		if elapsed > s.policy.GracePeriodMinutes {
			if err := s.repo.Attendance.SplitLongBreak(ctx, studentID, breakStart.OccurredAt, now, model.SourceManual); err != nil {
				s.logger.Error("长休息拆分失败", zap.String("student_id", studentID), zap.Error(err))
				return nil, err
			}
			s.logger.Info("休息超出宽限期，已拆分为签退与重新签到",
				zap.String("student_id", studentID),
				zap.Int("elapsed_minutes", elapsed),
			)
			return &dto.EndBreakResponse{
				Status:       string(model.StatusCheckedIn),
				Timestamp:    formatTime(now),
				WasLongBreak: true,
			}, nil
		}
	}

	if err := s.append(ctx, studentID, model.EventBreakEnd, now); err != nil {
		return nil, err
	}
	return &dto.EndBreakResponse{Status: string(model.StatusCheckedIn), Timestamp: formatTime(now)}, nil
}

// openBreakStart 当日最近一条 break_start；其后已有其他事件时视为已结束，返回 nil
func (s *attendanceService) openBreakStart(ctx context.Context, studentID string, from, now time.Time) (*model.AttendanceEvent, error) {
	bs, err := s.repo.Attendance.LatestByType(ctx, studentID, model.EventBreakStart, from, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询休息开始事件失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	after, err := s.repo.Attendance.ListByStudentBetween(ctx, studentID, bs.OccurredAt, now)
	if err != nil {
		s.logger.Error("查询出勤事件失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	for i := range after {
		if after[i].AttendanceEventID != bs.AttendanceEventID && after[i].OccurredAt.After(bs.OccurredAt) {
			return nil, nil
		}
	}
	return bs, nil
}

// ────────────────────── GetTodayAttendance ──────────────────────

func (s *attendanceService) GetTodayAttendance(ctx context.Context, studentID string) (*dto.TodayAttendanceResponse, error) {
	date, events, err := s.todayEvents(ctx, studentID)
	if err != nil {
		return nil, err
	}

	resp := &dto.TodayAttendanceResponse{
		StudyDate: studyday.FormatDate(date),
		Status:    string(StatusFromLast(events)),
		Events:    make([]dto.AttendanceEventResponse, 0, len(events)),
	}
	for i := range events {
		resp.Events = append(resp.Events, toEventResponse(&events[i]))
	}
	if len(events) > 0 {
		last := resp.Events[len(resp.Events)-1]
		resp.LastEvent = &last
	}

	subject, err := s.repo.StudySubject.GetCurrent(ctx, studentID)
	switch {
	case err == nil:
		resp.CurrentSubject = subject.SubjectName
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Warn("查询当前科目失败", zap.String("student_id", studentID), zap.Error(err))
	}

	return resp, nil
}

// ────────────────────── GetTodayStudyTime ──────────────────────

func (s *attendanceService) GetTodayStudyTime(ctx context.Context, studentID string) (*dto.TodayStudyTimeResponse, error) {
	date, events, err := s.todayEvents(ctx, studentID)
	if err != nil {
		return nil, err
	}

	res := Replay(events)
	resp := &dto.TodayStudyTimeResponse{
		StudyDate:    studyday.FormatDate(date),
		TotalSeconds: res.TotalSeconds,
	}
	if res.OpenSince != nil {
		ts := formatTime(*res.OpenSince)
		resp.CheckInTime = &ts
	}
	return resp, nil
}

// ────────────────────── GetWeeklyStudyTime ──────────────────────

func (s *attendanceService) GetWeeklyStudyTime(ctx context.Context, caller Caller, studentID string) (*dto.WeeklyStudyTimeResponse, error) {
	if studentID == "" {
		studentID = caller.UserID
	}
	if _, err := authorizeStudent(ctx, s.repo, s.logger, caller, studentID); err != nil {
		return nil, err
	}

	now := s.now()
	weekStart := s.cal.WeekStart(now)
	weekEnd := weekStart.AddDate(0, 0, 7).Add(-time.Nanosecond)

	events, err := s.repo.Attendance.ListByStudentBetween(ctx, studentID, weekStart, weekEnd)
	if err != nil {
		s.logger.Error("查询本周出勤事件失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	seconds := Replay(events).StudySeconds(now)
	return &dto.WeeklyStudyTimeResponse{
		StudentID:    studentID,
		WeekStart:    studyday.FormatDate(weekStart),
		TotalMinutes: seconds / 60,
	}, nil
}

// ── 辅助函数 ──

func (s *attendanceService) append(ctx context.Context, studentID string, typ model.EventType, at time.Time) error {
	ev := &model.AttendanceEvent{
		StudentID:  studentID,
		EventType:  typ,
		OccurredAt: at,
		Source:     model.SourceManual,
	}
	if err := s.repo.Attendance.Create(ctx, ev); err != nil {
		s.logger.Error("写入出勤事件失败",
			zap.String("student_id", studentID),
			zap.String("event_type", string(typ)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *attendanceService) todayEvents(ctx context.Context, studentID string) (time.Time, []model.AttendanceEvent, error) {
	date := s.cal.StudyDate(s.now())
	start, end := s.cal.Bounds(date)

	events, err := s.repo.Attendance.ListByStudentBetween(ctx, studentID, start, end)
	if err != nil {
		s.logger.Error("查询今日出勤事件失败", zap.String("student_id", studentID), zap.Error(err))
		return date, nil, err
	}
	return date, events, nil
}

func toEventResponse(e *model.AttendanceEvent) dto.AttendanceEventResponse {
	return dto.AttendanceEventResponse{
		ID:        e.AttendanceEventID,
		EventType: string(e.EventType),
		Timestamp: formatTime(e.OccurredAt),
		Source:    string(e.Source),
	}
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
