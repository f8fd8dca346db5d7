package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"study-hub/backend/config"
	"study-hub/backend/internal/dto"
	"study-hub/backend/internal/model"
	"study-hub/backend/internal/repository"
	apperrors "study-hub/backend/pkg/errors"
	"study-hub/backend/pkg/studyday"
)

// ── 外出日程模块业务错误 ──

var (
	ErrAbsenceScheduleNotFound          = errors.New("外出日程不存在")
	ErrAbsenceScheduleInvalidTransition = errors.New("只有待审批的外出日程可以审批或拒绝")
	ErrAbsenceScheduleApproverOnly      = errors.New("只有家长或管理员可以审批外出日程")
)

// AbsenceScheduleService 外出日程业务接口
type AbsenceScheduleService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateAbsenceScheduleRequest) (*dto.AbsenceScheduleResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.UpdateAbsenceScheduleRequest) (*dto.AbsenceScheduleResponse, error)
	Approve(ctx context.Context, caller Caller, id string) error
	Reject(ctx context.Context, caller Caller, id string) error
	ToggleActive(ctx context.Context, caller Caller, id string) (*dto.AbsenceScheduleResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error

	ListForStudent(ctx context.Context, caller Caller, studentID string) ([]dto.AbsenceScheduleResponse, error)
	ListPendingForStudent(ctx context.Context, caller Caller, studentID string) ([]dto.AbsenceScheduleResponse, error)
	ListRejectedForStudent(ctx context.Context, caller Caller, studentID string) ([]dto.AbsenceScheduleResponse, error)
	ListPendingForBranch(ctx context.Context, caller Caller) ([]dto.AbsenceScheduleResponse, error)
	ListApprovedWithStudentNames(ctx context.Context, caller Caller) ([]dto.AbsenceScheduleResponse, error)

	// GetTodaySchedules 今天生效的已批准日程（仅用于展示，不含缓冲与时刻判断）
	GetTodaySchedules(ctx context.Context, caller Caller) ([]dto.AbsenceScheduleResponse, error)
	// ExportCalendar 将已批准且启用的日程导出为 iCalendar，返回内容与建议文件名
	ExportCalendar(ctx context.Context, caller Caller, studentID string) ([]byte, string, error)
}

type absenceScheduleService struct {
	repo   *repository.Repository
	cal    *studyday.Calendar
	policy *config.StudyConfig
	now    Clock
	logger *zap.Logger
}

// NewAbsenceScheduleService 创建 AbsenceScheduleService 实例
func NewAbsenceScheduleService(
	repo *repository.Repository,
	cal *studyday.Calendar,
	policy *config.StudyConfig,
	now Clock,
	logger *zap.Logger,
) AbsenceScheduleService {
	return &absenceScheduleService{repo: repo, cal: cal, policy: policy, now: now, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Create — 学生创建为 pending，家长/管理员代建直接 approved
// ════════════════════════════════════════════════════════════

func (s *absenceScheduleService) Create(ctx context.Context, caller Caller, req *dto.CreateAbsenceScheduleRequest) (*dto.AbsenceScheduleResponse, error) {
	studentID := req.StudentID
	if caller.Role == model.RoleStudent || studentID == "" {
		studentID = caller.UserID
	}
	if _, err := authorizeStudent(ctx, s.repo, s.logger, caller, studentID); err != nil {
		return nil, err
	}

	sch := &model.AbsenceSchedule{
		StudentID:     studentID,
		Title:         strings.TrimSpace(req.Title),
		IsRecurring:   req.IsRecurring,
		DaysOfWeek:    model.IntArray(req.DaysOfWeek),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		DateTypeScope: req.DateType,
		BufferMinutes: req.BufferMinutes,
		IsActive:      true,
	}
	var err error
	if sch.ValidFrom, err = parseDateField("valid_from", req.ValidFrom); err != nil {
		return nil, err
	}
	if sch.ValidUntil, err = parseDateField("valid_until", req.ValidUntil); err != nil {
		return nil, err
	}
	if sch.SpecificDate, err = parseDateField("specific_date", req.SpecificDate); err != nil {
		return nil, err
	}
	if sch.BufferMinutes == nil {
		buffer := s.policy.DefaultBufferMinutes
		sch.BufferMinutes = &buffer
	}

	if err := normalizeSchedule(sch); err != nil {
		return nil, err
	}

	now := s.now()
	if caller.Role == model.RoleStudent {
		sch.Status = model.ScheduleStatusPending
	} else {
		sch.Status = model.ScheduleStatusApproved
		sch.DecidedBy = &caller.UserID
		sch.DecidedAt = &now
	}
	sch.CreatedBy = &caller.UserID
	sch.UpdatedBy = &caller.UserID

	if err := s.repo.AbsenceSchedule.Create(ctx, sch); err != nil {
		s.logger.Error("创建外出日程失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	return toScheduleResponse(sch, s.policy.DefaultBufferMinutes), nil
}

// ════════════════════════════════════════════════════════════
// Update — 学生修改已批准的日程需重新审批
// ════════════════════════════════════════════════════════════

func (s *absenceScheduleService) Update(ctx context.Context, caller Caller, id string, req *dto.UpdateAbsenceScheduleRequest) (*dto.AbsenceScheduleResponse, error) {
	sch, err := s.getAuthorized(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		sch.Title = strings.TrimSpace(*req.Title)
	}
	if req.IsRecurring != nil {
		sch.IsRecurring = *req.IsRecurring
	}
	if req.DaysOfWeek != nil {
		sch.DaysOfWeek = model.IntArray(*req.DaysOfWeek)
	}
	if req.StartTime != nil {
		sch.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		sch.EndTime = *req.EndTime
	}
	if req.DateType != nil {
		sch.DateTypeScope = *req.DateType
	}
	if req.ValidFrom != nil {
		if sch.ValidFrom, err = parseDateField("valid_from", *req.ValidFrom); err != nil {
			return nil, err
		}
	}
	if req.ValidUntil != nil {
		if sch.ValidUntil, err = parseDateField("valid_until", *req.ValidUntil); err != nil {
			return nil, err
		}
	}
	if req.SpecificDate != nil {
		if sch.SpecificDate, err = parseDateField("specific_date", *req.SpecificDate); err != nil {
			return nil, err
		}
	}
	if req.BufferMinutes != nil {
		sch.BufferMinutes = req.BufferMinutes
	}

	if err := normalizeSchedule(sch); err != nil {
		return nil, err
	}

	if caller.Role == model.RoleStudent {
		if sch.Status == model.ScheduleStatusApproved {
			sch.Status = model.ScheduleStatusPending
			sch.DecidedBy = nil
			sch.DecidedAt = nil
		}
	} else {
		now := s.now()
		sch.Status = model.ScheduleStatusApproved
		sch.DecidedBy = &caller.UserID
		sch.DecidedAt = &now
	}
	sch.UpdatedBy = &caller.UserID

	if err := s.repo.AbsenceSchedule.Update(ctx, sch); err != nil {
		s.logger.Error("更新外出日程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toScheduleResponse(sch, s.policy.DefaultBufferMinutes), nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *absenceScheduleService) Approve(ctx context.Context, caller Caller, id string) error {
	if caller.Role == model.RoleStudent {
		return ErrAbsenceScheduleApproverOnly
	}
	sch, err := s.getAuthorized(ctx, caller, id)
	if err != nil {
		return err
	}
	if sch.Status != model.ScheduleStatusPending {
		return ErrAbsenceScheduleInvalidTransition
	}

	now := s.now()
	sch.Status = model.ScheduleStatusApproved
	sch.DecidedBy = &caller.UserID
	sch.DecidedAt = &now
	sch.UpdatedBy = &caller.UserID

	if err := s.repo.AbsenceSchedule.Update(ctx, sch); err != nil {
		s.logger.Error("批准外出日程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// Reject 拒绝后记录保留为 rejected 并软删除，不再出现在常规列表中
func (s *absenceScheduleService) Reject(ctx context.Context, caller Caller, id string) error {
	if caller.Role == model.RoleStudent {
		return ErrAbsenceScheduleApproverOnly
	}
	sch, err := s.getAuthorized(ctx, caller, id)
	if err != nil {
		return err
	}
	if sch.Status != model.ScheduleStatusPending {
		return ErrAbsenceScheduleInvalidTransition
	}

	if err := s.repo.AbsenceSchedule.Reject(ctx, id, caller.UserID, s.now()); err != nil {
		// 读取之后状态已被并发修改
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAbsenceScheduleInvalidTransition
		}
		s.logger.Error("拒绝外出日程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ToggleActive ──────────────────────

func (s *absenceScheduleService) ToggleActive(ctx context.Context, caller Caller, id string) (*dto.AbsenceScheduleResponse, error) {
	sch, err := s.getAuthorized(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	sch.IsActive = !sch.IsActive
	sch.UpdatedBy = &caller.UserID
	if err := s.repo.AbsenceSchedule.Update(ctx, sch); err != nil {
		s.logger.Error("切换外出日程启用状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toScheduleResponse(sch, s.policy.DefaultBufferMinutes), nil
}

// ────────────────────── Delete ──────────────────────

func (s *absenceScheduleService) Delete(ctx context.Context, caller Caller, id string) error {
	if _, err := s.getAuthorized(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.AbsenceSchedule.Delete(ctx, id); err != nil {
		s.logger.Error("删除外出日程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 列表查询
// ════════════════════════════════════════════════════════════

func (s *absenceScheduleService) ListForStudent(ctx context.Context, caller Caller, studentID string) ([]dto.AbsenceScheduleResponse, error) {
	return s.listForStudent(ctx, caller, studentID, s.repo.AbsenceSchedule.ListByStudent)
}

func (s *absenceScheduleService) ListPendingForStudent(ctx context.Context, caller Caller, studentID string) ([]dto.AbsenceScheduleResponse, error) {
	return s.listForStudent(ctx, caller, studentID, s.repo.AbsenceSchedule.ListPendingByStudent)
}

func (s *absenceScheduleService) ListRejectedForStudent(ctx context.Context, caller Caller, studentID string) ([]dto.AbsenceScheduleResponse, error) {
	return s.listForStudent(ctx, caller, studentID, s.repo.AbsenceSchedule.ListRejectedByStudent)
}

func (s *absenceScheduleService) listForStudent(
	ctx context.Context,
	caller Caller,
	studentID string,
	query func(ctx context.Context, studentID string) ([]model.AbsenceSchedule, error),
) ([]dto.AbsenceScheduleResponse, error) {
	if _, err := authorizeStudent(ctx, s.repo, s.logger, caller, studentID); err != nil {
		return nil, err
	}
	list, err := query(ctx, studentID)
	if err != nil {
		s.logger.Error("查询外出日程失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return s.toResponses(list), nil
}

func (s *absenceScheduleService) ListPendingForBranch(ctx context.Context, caller Caller) ([]dto.AbsenceScheduleResponse, error) {
	list, err := s.repo.AbsenceSchedule.ListPendingByBranch(ctx, caller.BranchID)
	if err != nil {
		s.logger.Error("查询分店待审批日程失败", zap.String("branch_id", caller.BranchID), zap.Error(err))
		return nil, err
	}
	return s.toResponses(list), nil
}

func (s *absenceScheduleService) ListApprovedWithStudentNames(ctx context.Context, caller Caller) ([]dto.AbsenceScheduleResponse, error) {
	list, err := s.repo.AbsenceSchedule.ListApprovedByBranch(ctx, caller.BranchID)
	if err != nil {
		s.logger.Error("查询分店已批准日程失败", zap.String("branch_id", caller.BranchID), zap.Error(err))
		return nil, err
	}
	return s.toResponses(list), nil
}

func (s *absenceScheduleService) GetTodaySchedules(ctx context.Context, caller Caller) ([]dto.AbsenceScheduleResponse, error) {
	list, err := s.repo.AbsenceSchedule.ListActiveByStudent(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("查询今日外出日程失败", zap.String("student_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	local := s.now().In(s.cal.Location())
	today := make([]model.AbsenceSchedule, 0, len(list))
	for i := range list {
		if list[i].Status == model.ScheduleStatusApproved && occursOn(&list[i], local) {
			today = append(today, list[i])
		}
	}
	return s.toResponses(today), nil
}

// ════════════════════════════════════════════════════════════
// ExportCalendar — iCalendar 导出
// ════════════════════════════════════════════════════════════
//
//   - 每周重复：RRULE FREQ=WEEKLY;BYDAY=…，有 valid_until 时附带 UNTIL
//   - 一次性：单个事件
//   - 日期类型限制无法用 RRULE 表达，写入 DESCRIPTION

var icsWeekdays = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

func (s *absenceScheduleService) ExportCalendar(ctx context.Context, caller Caller, studentID string) ([]byte, string, error) {
	if studentID == "" {
		studentID = caller.UserID
	}
	student, err := authorizeStudent(ctx, s.repo, s.logger, caller, studentID)
	if err != nil {
		return nil, "", err
	}

	list, err := s.repo.AbsenceSchedule.ListActiveByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询外出日程失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, "", err
	}

	now := s.now()
	loc := s.cal.Location()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//study-hub//absence-schedules//KO")
	cal.SetXWRCalName(student.Name + " 외출 일정")
	cal.SetXWRTimezone(loc.String())

	for i := range list {
		sch := &list[i]
		if sch.Status != model.ScheduleStatusApproved {
			continue
		}
		start, err := studyday.ParseTimeOfDay(sch.StartTime)
		if err != nil {
			continue
		}
		end, err := studyday.ParseTimeOfDay(sch.EndTime)
		if err != nil {
			continue
		}

		var first time.Time
		if sch.IsRecurring {
			anchor := s.cal.DateOf(now)
			if sch.ValidFrom != nil {
				anchor = localDate(*sch.ValidFrom, loc)
			}
			first = firstOccurrence(anchor, sch.DaysOfWeek)
		} else {
			if sch.SpecificDate == nil {
				continue
			}
			first = localDate(*sch.SpecificDate, loc)
		}

		event := cal.AddEvent(sch.AbsenceScheduleID + "@study-hub")
		event.SetDtStampTime(now)
		event.SetSummary(sch.Title)
		setZonedTime(event, ics.ComponentPropertyDtStart, start.On(first), loc)
		setZonedTime(event, ics.ComponentPropertyDtEnd, end.On(first), loc)
		if sch.DateTypeScope != "" && sch.DateTypeScope != model.DateTypeAll {
			event.SetDescription("date_type=" + sch.DateTypeScope)
		}
		if sch.IsRecurring {
			event.AddProperty(ics.ComponentPropertyRrule, weeklyRule(sch, loc))
		}
	}

	filename := fmt.Sprintf("absence_%s.ics", studentID)
	return []byte(cal.Serialize()), filename, nil
}

// setZonedTime 以 TZID + 本地时间写入 DTSTART/DTEND；BYDAY 按 DTSTART 所在时区展开，不能写 UTC
func setZonedTime(event *ics.VEvent, prop ics.ComponentProperty, t time.Time, loc *time.Location) {
	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{loc.String()}}
	event.SetProperty(prop, t.In(loc).Format("20060102T150405"), tzid)
}

func weeklyRule(sch *model.AbsenceSchedule, loc *time.Location) string {
	rule := "FREQ=DAILY"
	if len(sch.DaysOfWeek) > 0 {
		days := append([]int(nil), sch.DaysOfWeek...)
		sort.Ints(days)
		names := make([]string, 0, len(days))
		for _, d := range days {
			names = append(names, icsWeekdays[d])
		}
		rule = "FREQ=WEEKLY;BYDAY=" + strings.Join(names, ",")
	}
	if sch.ValidUntil != nil {
		until := localDate(*sch.ValidUntil, loc).AddDate(0, 0, 1).Add(-time.Second)
		rule += ";UNTIL=" + until.UTC().Format("20060102T150405Z")
	}
	return rule
}

// firstOccurrence anchor 当天或之后第一个落在 days 内的日期
func firstOccurrence(anchor time.Time, days model.IntArray) time.Time {
	if len(days) == 0 {
		return anchor
	}
	for i := 0; i < 7; i++ {
		d := anchor.AddDate(0, 0, i)
		if days.Contains(int(d.Weekday())) {
			return d
		}
	}
	return anchor
}

// ── 校验 ──

// normalizeSchedule 同步重复类型字段并校验不变量
func normalizeSchedule(sch *model.AbsenceSchedule) error {
	if sch.Title == "" {
		return apperrors.NewValidation("title", "标题不能为空")
	}

	start, err := studyday.ParseTimeOfDay(sch.StartTime)
	if err != nil || start.OverMidnight() {
		return apperrors.NewValidation("start_time", "开始时间格式无效")
	}
	end, err := studyday.ParseTimeOfDay(sch.EndTime)
	if err != nil || end.OverMidnight() {
		return apperrors.NewValidation("end_time", "结束时间格式无效")
	}
	if end.Minutes() <= start.Minutes() {
		return apperrors.NewValidation("end_time", "结束时间必须晚于开始时间")
	}
	sch.StartTime, sch.EndTime = start.String(), end.String()

	if sch.BufferMinutes != nil && *sch.BufferMinutes < 0 {
		return apperrors.NewValidation("buffer_minutes", "缓冲分钟数不能为负")
	}

	switch sch.DateTypeScope {
	case "":
		sch.DateTypeScope = model.DateTypeAll
	case model.DateTypeSemester, model.DateTypeVacation, model.DateTypeAll:
	default:
		return apperrors.NewValidation("date_type", "日期类型无效")
	}

	if sch.IsRecurring {
		if len(sch.DaysOfWeek) == 0 {
			return apperrors.NewValidation("days_of_week", "每周重复的日程必须选择星期")
		}
		for _, d := range sch.DaysOfWeek {
			if d < 0 || d > 6 {
				return apperrors.NewValidation("days_of_week", "星期取值必须在 0-6 之间")
			}
		}
		if sch.ValidFrom != nil && sch.ValidUntil != nil && sch.ValidUntil.Before(*sch.ValidFrom) {
			return apperrors.NewValidation("valid_until", "有效期结束日期不能早于开始日期")
		}
		sch.RecurrenceType = model.RecurrenceWeekly
		sch.SpecificDate = nil
		return nil
	}

	if sch.SpecificDate == nil {
		return apperrors.NewValidation("specific_date", "一次性日程必须指定日期")
	}
	sch.RecurrenceType = model.RecurrenceOneTime
	sch.DaysOfWeek = nil
	sch.ValidFrom = nil
	sch.ValidUntil = nil
	return nil
}

func parseDateField(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, apperrors.NewValidation(field, "日期格式必须为 YYYY-MM-DD")
	}
	return &d, nil
}

// localDate 把 date 列的日历日期放到机构时区的零点
func localDate(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// ── 内部辅助 ──

func (s *absenceScheduleService) getAuthorized(ctx context.Context, caller Caller, id string) (*model.AbsenceSchedule, error) {
	sch, err := s.repo.AbsenceSchedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAbsenceScheduleNotFound
		}
		s.logger.Error("查询外出日程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if _, err := authorizeStudent(ctx, s.repo, s.logger, caller, sch.StudentID); err != nil {
		return nil, err
	}
	return sch, nil
}

func (s *absenceScheduleService) toResponses(list []model.AbsenceSchedule) []dto.AbsenceScheduleResponse {
	result := make([]dto.AbsenceScheduleResponse, 0, len(list))
	for i := range list {
		result = append(result, *toScheduleResponse(&list[i], s.policy.DefaultBufferMinutes))
	}
	return result
}

func toScheduleResponse(sch *model.AbsenceSchedule, defaultBuffer int) *dto.AbsenceScheduleResponse {
	resp := &dto.AbsenceScheduleResponse{
		ID:             sch.AbsenceScheduleID,
		StudentID:      sch.StudentID,
		Title:          sch.Title,
		IsRecurring:    sch.IsRecurring,
		RecurrenceType: sch.RecurrenceType,
		DaysOfWeek:     []int(sch.DaysOfWeek),
		StartTime:      trimSeconds(sch.StartTime),
		EndTime:        trimSeconds(sch.EndTime),
		DateType:       sch.DateTypeScope,
		BufferMinutes:  bufferOf(sch, defaultBuffer),
		IsActive:       sch.IsActive,
		Status:         sch.Status,
		CreatedAt:      formatTime(sch.CreatedAt),
		UpdatedAt:      formatTime(sch.UpdatedAt),
	}
	if resp.DaysOfWeek == nil {
		resp.DaysOfWeek = []int{}
	}
	if sch.Student != nil {
		resp.StudentName = sch.Student.Name
	}
	if sch.ValidFrom != nil {
		resp.ValidFrom = dateKey(*sch.ValidFrom)
	}
	if sch.ValidUntil != nil {
		resp.ValidUntil = dateKey(*sch.ValidUntil)
	}
	if sch.SpecificDate != nil {
		resp.SpecificDate = dateKey(*sch.SpecificDate)
	}
	if sch.DecidedAt != nil {
		resp.DecidedAt = formatTime(*sch.DecidedAt)
	}
	return resp
}

// trimSeconds PostgreSQL time 列返回 HH:MM:SS，对外统一为 HH:MM
func trimSeconds(t string) string {
	if len(t) == len("15:04:05") {
		return t[:5]
	}
	return t
}
