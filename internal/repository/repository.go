package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Student         StudentRepository
	Attendance      AttendanceRepository
	AbsenceSchedule AbsenceScheduleRepository
	StudySubject    StudySubjectRepository
	PointRecord     PointRecordRepository
	Notification    NotificationRepository
	BranchCalendar  BranchCalendarRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Student:         NewStudentRepo(db),
		Attendance:      NewAttendanceRepo(db),
		AbsenceSchedule: NewAbsenceScheduleRepo(db),
		StudySubject:    NewStudySubjectRepo(db),
		PointRecord:     NewPointRecordRepo(db),
		Notification:    NewNotificationRepo(db),
		BranchCalendar:  NewBranchCalendarRepo(db),
	}
}
