package model

import "time"

// EventType 打卡事件类型
type EventType string

const (
	EventCheckIn    EventType = "check_in"
	EventCheckOut   EventType = "check_out"
	EventBreakStart EventType = "break_start"
	EventBreakEnd   EventType = "break_end"
)

// EventSource 事件来源
type EventSource string

const (
	SourceDevice EventSource = "device" // 门禁/刷卡设备同步
	SourceManual EventSource = "manual" // 学生在应用内操作
)

// AttendanceStatus 由事件流推导出的出勤状态（不落库）
type AttendanceStatus string

const (
	StatusCheckedOut AttendanceStatus = "checked_out"
	StatusCheckedIn  AttendanceStatus = "checked_in"
	StatusOnBreak    AttendanceStatus = "on_break"
)

// AttendanceEvent 出勤事件表 — 对应 attendance_events（仅追加，不更新不删除）
type AttendanceEvent struct {
	AttendanceEventID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID         string      `gorm:"type:uuid;not null;index:idx_attendance_student_time,priority:1" json:"student_id"`
	EventType         EventType   `gorm:"type:varchar(20);not null"                      json:"event_type"`
	OccurredAt        time.Time   `gorm:"not null;index:idx_attendance_student_time,priority:2" json:"timestamp"`
	Source            EventSource `gorm:"type:varchar(20);not null;default:'manual'"     json:"source"`
	CreatedAt         time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AttendanceEvent) TableName() string { return "attendance_events" }
