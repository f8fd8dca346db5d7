package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"study-hub/backend/internal/model"
	"study-hub/backend/pkg/redis"
)

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	mu       sync.Mutex
	students map[string]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) add(s *model.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.StudentID] = s
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) ListByBranch(_ context.Context, branchID string) ([]model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Student
	for _, s := range m.students {
		if s.BranchID == branchID && s.IsActive {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	mu       sync.Mutex
	events   []model.AttendanceEvent
	subjects *mockStudySubjectRepo
	err      error // 非空时所有写操作返回该错误
}

func newMockAttendanceRepo(subjects *mockStudySubjectRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{subjects: subjects}
}

func (m *mockAttendanceRepo) add(ev model.AttendanceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.AttendanceEventID == "" {
		ev.AttendanceEventID = uuid.NewString()
	}
	m.events = append(m.events, ev)
}

func (m *mockAttendanceRepo) byStudent(studentID string) []model.AttendanceEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AttendanceEvent
	for _, e := range m.events {
		if e.StudentID == studentID {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].OccurredAt.Before(result[j].OccurredAt) })
	return result
}

func (m *mockAttendanceRepo) Create(_ context.Context, ev *model.AttendanceEvent) error {
	if m.err != nil {
		return m.err
	}
	ev.AttendanceEventID = uuid.NewString()
	m.add(*ev)
	return nil
}

func (m *mockAttendanceRepo) ListByStudentBetween(_ context.Context, studentID string, from, to time.Time) ([]model.AttendanceEvent, error) {
	var result []model.AttendanceEvent
	for _, e := range m.byStudent(studentID) {
		if !e.OccurredAt.Before(from) && !e.OccurredAt.After(to) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByStudentsBetween(ctx context.Context, studentIDs []string, from, to time.Time) ([]model.AttendanceEvent, error) {
	var result []model.AttendanceEvent
	for _, id := range studentIDs {
		list, _ := m.ListByStudentBetween(ctx, id, from, to)
		result = append(result, list...)
	}
	return result, nil
}

func (m *mockAttendanceRepo) LatestByType(ctx context.Context, studentID string, eventType model.EventType, from, to time.Time) (*model.AttendanceEvent, error) {
	list, _ := m.ListByStudentBetween(ctx, studentID, from, to)
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].EventType == eventType {
			return &list[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) AppendCheckOut(ctx context.Context, ev *model.AttendanceEvent) error {
	if err := m.Create(ctx, ev); err != nil {
		return err
	}
	return m.subjects.CloseCurrent(ctx, ev.StudentID, ev.OccurredAt)
}

func (m *mockAttendanceRepo) SplitLongBreak(ctx context.Context, studentID string, breakStart, now time.Time, source model.EventSource) error {
	if m.err != nil {
		return m.err
	}
	_ = m.subjects.CloseCurrent(ctx, studentID, breakStart)
	m.add(model.AttendanceEvent{StudentID: studentID, EventType: model.EventCheckOut, OccurredAt: breakStart, Source: source})
	m.add(model.AttendanceEvent{StudentID: studentID, EventType: model.EventCheckIn, OccurredAt: now, Source: source})
	return nil
}

// ── Mock StudySubjectRepository ──

type mockStudySubjectRepo struct {
	mu       sync.Mutex
	subjects []*model.StudySubject
}

func newMockStudySubjectRepo() *mockStudySubjectRepo {
	return &mockStudySubjectRepo{}
}

func (m *mockStudySubjectRepo) GetCurrent(_ context.Context, studentID string) (*model.StudySubject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subjects {
		if s.StudentID == studentID && s.IsCurrent {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudySubjectRepo) CloseCurrent(_ context.Context, studentID string, asOf time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subjects {
		if s.StudentID == studentID && s.IsCurrent {
			s.IsCurrent = false
			at := asOf
			s.EndedAt = &at
		}
	}
	return nil
}

// ── Mock AbsenceScheduleRepository ──

type mockAbsenceScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*model.AbsenceSchedule
	rejected  map[string]*model.AbsenceSchedule // 软删除
	students  *mockStudentRepo
	listErr   error
	// beforeReject 在 Reject 加锁前调用，用于模拟读取与写入之间的并发修改
	beforeReject func(id string)
}

func newMockAbsenceScheduleRepo(students *mockStudentRepo) *mockAbsenceScheduleRepo {
	return &mockAbsenceScheduleRepo{
		schedules: make(map[string]*model.AbsenceSchedule),
		rejected:  make(map[string]*model.AbsenceSchedule),
		students:  students,
	}
}

func (m *mockAbsenceScheduleRepo) Create(_ context.Context, s *model.AbsenceSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.AbsenceScheduleID == "" {
		s.AbsenceScheduleID = uuid.NewString()
	}
	cp := *s
	m.schedules[s.AbsenceScheduleID] = &cp
	return nil
}

func (m *mockAbsenceScheduleRepo) GetByID(_ context.Context, id string) (*model.AbsenceSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.schedules[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAbsenceScheduleRepo) Update(_ context.Context, s *model.AbsenceSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.schedules[s.AbsenceScheduleID] = &cp
	return nil
}

func (m *mockAbsenceScheduleRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	delete(m.rejected, id)
	return nil
}

func (m *mockAbsenceScheduleRepo) Reject(_ context.Context, id string, rejectedBy string, at time.Time) error {
	if m.beforeReject != nil {
		m.beforeReject(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok || s.Status != model.ScheduleStatusPending {
		return gorm.ErrRecordNotFound
	}
	s.Status = model.ScheduleStatusRejected
	s.DecidedBy = &rejectedBy
	s.DecidedAt = &at
	delete(m.schedules, id)
	m.rejected[id] = s
	return nil
}

func (m *mockAbsenceScheduleRepo) filter(pred func(*model.AbsenceSchedule) bool) []model.AbsenceSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AbsenceSchedule
	for _, s := range m.schedules {
		if pred(s) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })
	return result
}

func (m *mockAbsenceScheduleRepo) ListByStudent(_ context.Context, studentID string) ([]model.AbsenceSchedule, error) {
	return m.filter(func(s *model.AbsenceSchedule) bool { return s.StudentID == studentID }), nil
}

func (m *mockAbsenceScheduleRepo) ListActiveByStudent(_ context.Context, studentID string) ([]model.AbsenceSchedule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.filter(func(s *model.AbsenceSchedule) bool { return s.StudentID == studentID && s.IsActive }), nil
}

func (m *mockAbsenceScheduleRepo) ListPendingByStudent(_ context.Context, studentID string) ([]model.AbsenceSchedule, error) {
	return m.filter(func(s *model.AbsenceSchedule) bool {
		return s.StudentID == studentID && s.Status == model.ScheduleStatusPending
	}), nil
}

func (m *mockAbsenceScheduleRepo) inBranch(studentID, branchID string) bool {
	st, err := m.students.GetByID(context.Background(), studentID)
	return err == nil && st.BranchID == branchID
}

func (m *mockAbsenceScheduleRepo) withStudent(list []model.AbsenceSchedule) []model.AbsenceSchedule {
	for i := range list {
		if st, err := m.students.GetByID(context.Background(), list[i].StudentID); err == nil {
			list[i].Student = st
		}
	}
	return list
}

func (m *mockAbsenceScheduleRepo) ListPendingByBranch(_ context.Context, branchID string) ([]model.AbsenceSchedule, error) {
	list := m.filter(func(s *model.AbsenceSchedule) bool { return s.Status == model.ScheduleStatusPending })
	var result []model.AbsenceSchedule
	for _, s := range list {
		if m.inBranch(s.StudentID, branchID) {
			result = append(result, s)
		}
	}
	return m.withStudent(result), nil
}

func (m *mockAbsenceScheduleRepo) ListApprovedByBranch(_ context.Context, branchID string) ([]model.AbsenceSchedule, error) {
	list := m.filter(func(s *model.AbsenceSchedule) bool { return s.Status == model.ScheduleStatusApproved })
	var result []model.AbsenceSchedule
	for _, s := range list {
		if m.inBranch(s.StudentID, branchID) {
			result = append(result, s)
		}
	}
	return m.withStudent(result), nil
}

func (m *mockAbsenceScheduleRepo) ListRejectedByStudent(_ context.Context, studentID string) ([]model.AbsenceSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AbsenceSchedule
	for _, s := range m.rejected {
		if s.StudentID == studentID {
			result = append(result, *s)
		}
	}
	return result, nil
}

// ── Mock PointRecordRepository ──

type mockPointRecordRepo struct {
	mu      sync.Mutex
	records []model.PointRecord
}

func newMockPointRecordRepo() *mockPointRecordRepo {
	return &mockPointRecordRepo{}
}

func (m *mockPointRecordRepo) Create(_ context.Context, p *model.PointRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.PointRecordID = uuid.NewString()
	m.records = append(m.records, *p)
	return nil
}

func (m *mockPointRecordRepo) ListByStudent(_ context.Context, studentID string) ([]model.PointRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.PointRecord
	for _, r := range m.records {
		if r.StudentID == studentID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockPointRecordRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications []model.Notification
	err           error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *mockNotificationRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

// ── Mock BranchCalendarRepository ──

type mockBranchCalendarRepo struct {
	mu        sync.Mutex
	days      map[string]string // branchID|YYYY-MM-DD → date_type
	mandatory map[string]*model.MandatoryTime
	dayCalls  int
}

func newMockBranchCalendarRepo() *mockBranchCalendarRepo {
	return &mockBranchCalendarRepo{
		days:      make(map[string]string),
		mandatory: make(map[string]*model.MandatoryTime),
	}
}

func (m *mockBranchCalendarRepo) setDay(branchID, date, dateType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days[branchID+"|"+date] = dateType
}

func (m *mockBranchCalendarRepo) setMandatory(branchID, dateType, start, end string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mandatory[branchID+"|"+dateType] = &model.MandatoryTime{
		BranchID: branchID, DateType: dateType, StartTime: start, EndTime: end,
	}
}

func (m *mockBranchCalendarRepo) GetDay(_ context.Context, branchID string, date time.Time) (*model.BranchCalendarDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dayCalls++
	dt, ok := m.days[branchID+"|"+date.Format("2006-01-02")]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.BranchCalendarDay{BranchID: branchID, Date: date, DateType: dt}, nil
}

func (m *mockBranchCalendarRepo) GetMandatoryTime(_ context.Context, branchID, dateType string) (*model.MandatoryTime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mt, ok := m.mandatory[branchID+"|"+dateType]; ok {
		cp := *mt
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock JSONCache ──

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) GetJSON(_ context.Context, key string, dst interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(raw, dst)
}

func (m *mockCache) SetJSON(_ context.Context, key string, val interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.sets++
	return nil
}
