package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"study-hub/backend/config"
	"study-hub/backend/internal/dto"
	"study-hub/backend/internal/model"
	"study-hub/backend/internal/repository"
	"study-hub/backend/pkg/studyday"
)

// ExemptionResult 免责检查结果
type ExemptionResult struct {
	IsExempted     bool
	Schedule       *model.AbsenceSchedule
	ExemptionStart time.Time
	ExemptionEnd   time.Time
}

// ExemptionService 外出免责判定接口
type ExemptionService interface {
	// IsInAbsencePeriod 判断 at 是否落在学生某个已批准且启用的外出日程（含缓冲）内。
	// dateType 为空时不按日期类型过滤。查询失败按"未免责"处理。
	IsInAbsencePeriod(ctx context.Context, studentID string, at time.Time, dateType string) *ExemptionResult
	// Check 供家长/管理员排查扣分争议，先校验调用方对该学生的访问权
	Check(ctx context.Context, caller Caller, studentID string, at time.Time, dateType string) (*dto.ExemptionCheckResponse, error)
}

type exemptionService struct {
	repo   *repository.Repository
	cal    *studyday.Calendar
	policy *config.StudyConfig
	logger *zap.Logger
}

// NewExemptionService 创建 ExemptionService 实例
func NewExemptionService(repo *repository.Repository, cal *studyday.Calendar, policy *config.StudyConfig, logger *zap.Logger) ExemptionService {
	return &exemptionService{repo: repo, cal: cal, policy: policy, logger: logger}
}

func (s *exemptionService) IsInAbsencePeriod(ctx context.Context, studentID string, at time.Time, dateType string) *ExemptionResult {
	schedules, err := s.repo.AbsenceSchedule.ListActiveByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询外出日程失败，按未免责处理",
			zap.String("student_id", studentID),
			zap.Error(err),
		)
		return &ExemptionResult{}
	}

	local := at.In(s.cal.Location())
	for i := range schedules {
		sch := &schedules[i]
		if sch.Status != model.ScheduleStatusApproved || !sch.IsActive {
			continue
		}
		if !matchesDateType(sch, dateType) || !occursOn(sch, local) {
			continue
		}
		start, end, ok := s.window(sch, local)
		if !ok {
			continue
		}
		if !local.Before(start) && !local.After(end) {
			return &ExemptionResult{
				IsExempted:     true,
				Schedule:       sch,
				ExemptionStart: start,
				ExemptionEnd:   end,
			}
		}
	}
	return &ExemptionResult{}
}

func (s *exemptionService) Check(ctx context.Context, caller Caller, studentID string, at time.Time, dateType string) (*dto.ExemptionCheckResponse, error) {
	if _, err := authorizeStudent(ctx, s.repo, s.logger, caller, studentID); err != nil {
		return nil, err
	}

	res := s.IsInAbsencePeriod(ctx, studentID, at, dateType)
	if !res.IsExempted {
		return &dto.ExemptionCheckResponse{}, nil
	}
	return &dto.ExemptionCheckResponse{
		IsExempted:     true,
		Schedule:       toScheduleResponse(res.Schedule, s.policy.DefaultBufferMinutes),
		ExemptionStart: formatTime(res.ExemptionStart),
		ExemptionEnd:   formatTime(res.ExemptionEnd),
	}, nil
}

// window 在 local 所在自然日上展开日程时段并向两侧扩展缓冲分钟
func (s *exemptionService) window(sch *model.AbsenceSchedule, local time.Time) (time.Time, time.Time, bool) {
	start, err := studyday.ParseTimeOfDay(sch.StartTime)
	if err != nil {
		s.logger.Warn("外出日程开始时间无效", zap.String("id", sch.AbsenceScheduleID), zap.String("start_time", sch.StartTime))
		return time.Time{}, time.Time{}, false
	}
	end, err := studyday.ParseTimeOfDay(sch.EndTime)
	if err != nil {
		s.logger.Warn("外出日程结束时间无效", zap.String("id", sch.AbsenceScheduleID), zap.String("end_time", sch.EndTime))
		return time.Time{}, time.Time{}, false
	}

	buffer := time.Duration(bufferOf(sch, s.policy.DefaultBufferMinutes)) * time.Minute
	date := s.cal.DateOf(local)
	return start.On(date).Add(-buffer), end.On(date).Add(buffer), true
}

// ── 纯函数 ──

func bufferOf(sch *model.AbsenceSchedule, fallback int) int {
	if sch.BufferMinutes != nil {
		return *sch.BufferMinutes
	}
	return fallback
}

func matchesDateType(sch *model.AbsenceSchedule, current string) bool {
	if sch.DateTypeScope == "" || sch.DateTypeScope == model.DateTypeAll || current == "" {
		return true
	}
	return sch.DateTypeScope == current
}

// occursOn 日程在 local 所在自然日是否生效（有效期与重复规则，不看时刻）
func occursOn(sch *model.AbsenceSchedule, local time.Time) bool {
	day := studyday.FormatDate(local)

	if !sch.IsRecurring {
		return sch.SpecificDate != nil && dateKey(*sch.SpecificDate) == day
	}

	if sch.ValidFrom != nil && day < dateKey(*sch.ValidFrom) {
		return false
	}
	if sch.ValidUntil != nil && day > dateKey(*sch.ValidUntil) {
		return false
	}
	if len(sch.DaysOfWeek) == 0 {
		return true
	}
	return sch.DaysOfWeek.Contains(int(local.Weekday()))
}

// dateKey date 列按其自身时区格式化（PostgreSQL date 扫描为 UTC 零点）
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
