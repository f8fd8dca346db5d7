package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"study-hub/backend/config"
	"study-hub/backend/internal/model"
	"study-hub/backend/internal/repository"
	"study-hub/backend/pkg/studyday"
	"study-hub/backend/pkg/tasks"
)

// ── 测试辅助 ──

var kst = time.FixedZone("KST", 9*60*60)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, kst)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func datePtr(s string) *time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return &d
}

type testEnv struct {
	now time.Time

	students      *mockStudentRepo
	attendance    *mockAttendanceRepo
	subjects      *mockStudySubjectRepo
	schedules     *mockAbsenceScheduleRepo
	points        *mockPointRecordRepo
	notifications *mockNotificationRepo
	calendar      *mockBranchCalendarRepo
	cache         *mockCache

	policy *config.StudyConfig
	cal    *studyday.Calendar
	runner *tasks.Runner

	attendanceSvc AttendanceService
	scheduleSvc   AbsenceScheduleService
	exemptionSvc  ExemptionService
	penaltySvc    PenaltyService
	mandatorySvc  MandatoryTimeResolver
	exportSvc     ExportService
}

var (
	student1 = Caller{UserID: "stu-1", Role: model.RoleStudent, BranchID: "branch-1"}
	student2 = Caller{UserID: "stu-2", Role: model.RoleStudent, BranchID: "branch-1"}
	parent1  = Caller{UserID: "par-1", Role: model.RoleParent}
	admin1   = Caller{UserID: "adm-1", Role: model.RoleAdmin, BranchID: "branch-1"}
	admin2   = Caller{UserID: "adm-2", Role: model.RoleAdmin, BranchID: "branch-2"}
)

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	cal, err := studyday.New(kst, "07:30", "01:30", time.Monday)
	if err != nil {
		t.Fatalf("studyday.New 失败: %v", err)
	}

	env := &testEnv{
		now:           now,
		students:      newMockStudentRepo(),
		subjects:      newMockStudySubjectRepo(),
		points:        newMockPointRecordRepo(),
		notifications: newMockNotificationRepo(),
		calendar:      newMockBranchCalendarRepo(),
		cache:         newMockCache(),
		cal:           cal,
		policy: &config.StudyConfig{
			GracePeriodMinutes:      10,
			DefaultBufferMinutes:    10,
			LatePenaltyPoints:       1,
			LatePenaltyReason:       "지각 (자동)",
			EarlyLeavePenaltyPoints: 2,
			EarlyLeavePenaltyReason: "조퇴 (자동)",
		},
	}
	env.attendance = newMockAttendanceRepo(env.subjects)
	env.schedules = newMockAbsenceScheduleRepo(env.students)

	parentID := "par-1"
	env.students.add(&model.Student{StudentID: "stu-1", Name: "김민준", BranchID: "branch-1", ParentID: &parentID, IsActive: true})
	env.students.add(&model.Student{StudentID: "stu-2", Name: "이서연", BranchID: "branch-1", IsActive: true})

	repo := &repository.Repository{
		Student:         env.students,
		Attendance:      env.attendance,
		AbsenceSchedule: env.schedules,
		StudySubject:    env.subjects,
		PointRecord:     env.points,
		Notification:    env.notifications,
		BranchCalendar:  env.calendar,
	}
	logger := zap.NewNop()
	clock := func() time.Time { return env.now }

	env.runner = tasks.NewRunner(4, 5*time.Second, logger)
	env.mandatorySvc = NewMandatoryTimeResolver(repo, env.cache, time.Minute, logger)
	env.exemptionSvc = NewExemptionService(repo, cal, env.policy, logger)
	env.penaltySvc = NewPenaltyService(repo, cal, env.policy, env.mandatorySvc, env.exemptionSvc, NewNotifier(repo, logger), logger)
	env.attendanceSvc = NewAttendanceService(repo, cal, env.policy, env.runner, env.penaltySvc, clock, logger)
	env.scheduleSvc = NewAbsenceScheduleService(repo, cal, env.policy, clock, logger)
	env.exportSvc = NewExportService(repo, cal, clock, logger)
	return env
}

// seedEvent 直接写入一条历史事件
func (e *testEnv) seedEvent(studentID string, typ model.EventType, t time.Time) {
	e.attendance.add(model.AttendanceEvent{StudentID: studentID, EventType: typ, OccurredAt: t, Source: model.SourceManual})
}

// seedSchedule 直接写入一条外出日程
func (e *testEnv) seedSchedule(s model.AbsenceSchedule) string {
	if s.StudentID == "" {
		s.StudentID = "stu-1"
	}
	if s.DateTypeScope == "" {
		s.DateTypeScope = model.DateTypeAll
	}
	_ = e.schedules.Create(context.Background(), &s)
	return s.AbsenceScheduleID
}
