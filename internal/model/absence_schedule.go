package model

import "time"

// 外出日程审批状态
const (
	ScheduleStatusPending  = "pending"
	ScheduleStatusApproved = "approved"
	ScheduleStatusRejected = "rejected"
)

// 重复类型（与 IsRecurring 保持同步）
const (
	RecurrenceWeekly  = "weekly"
	RecurrenceOneTime = "one_time"
)

// 适用日期类型
const (
	DateTypeSemester = "semester"
	DateTypeVacation = "vacation"
	DateTypeAll      = "all"
)

// AbsenceSchedule 外出日程表 — 对应 absence_schedules
//
// IsRecurring=true 时 DaysOfWeek / ValidFrom / ValidUntil 有效；
// 否则仅 SpecificDate 有效。被拒绝的记录状态置为 rejected 并软删除，保留审计痕迹。
type AbsenceSchedule struct {
	AbsenceScheduleID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID         string     `gorm:"type:uuid;not null;index"                       json:"student_id"`
	Title             string     `gorm:"type:varchar(100);not null"                     json:"title"`
	IsRecurring       bool       `gorm:"not null;default:true"                          json:"is_recurring"`
	RecurrenceType    string     `gorm:"type:varchar(20);not null;default:'weekly'"     json:"recurrence_type"` // weekly | one_time
	DaysOfWeek        IntArray   `gorm:"type:smallint[]"                                json:"days_of_week"`    // 0=周日 … 6=周六
	StartTime         string     `gorm:"type:time;not null"                             json:"start_time"`
	EndTime           string     `gorm:"type:time;not null"                             json:"end_time"`
	DateTypeScope     string     `gorm:"type:varchar(20);not null;default:'all'"        json:"date_type"` // semester | vacation | all
	ValidFrom         *time.Time `gorm:"type:date"                                      json:"valid_from,omitempty"`
	ValidUntil        *time.Time `gorm:"type:date"                                      json:"valid_until,omitempty"`
	SpecificDate      *time.Time `gorm:"type:date"                                      json:"specific_date,omitempty"`
	BufferMinutes     *int       `gorm:"type:smallint"                                  json:"buffer_minutes,omitempty"`
	IsActive          bool       `gorm:"not null;default:true"                          json:"is_active"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	DecidedBy         *string    `gorm:"type:uuid"                                      json:"decided_by,omitempty"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
	SoftDeleteModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (AbsenceSchedule) TableName() string { return "absence_schedules" }
