package model

import "time"

// BranchCalendarDay 分店日历 — 对应 branch_calendar_days（某天属于学期还是假期）
type BranchCalendarDay struct {
	BranchID string    `gorm:"type:uuid;primaryKey"       json:"branch_id"`
	Date     time.Time `gorm:"type:date;primaryKey"       json:"date"`
	DateType string    `gorm:"type:varchar(20);not null"  json:"date_type"` // semester | vacation
}

// TableName 指定表名
func (BranchCalendarDay) TableName() string { return "branch_calendar_days" }

// MandatoryTime 分店必修时段 — 对应 mandatory_times
// EndTime 可超过 24:00（如 "25:00" 表示次日 01:00），因此以文本存储
type MandatoryTime struct {
	MandatoryTimeID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BranchID        string `gorm:"type:uuid;not null;uniqueIndex:uq_mandatory_branch_type" json:"branch_id"`
	DateType        string `gorm:"type:varchar(20);not null;uniqueIndex:uq_mandatory_branch_type" json:"date_type"`
	StartTime       string `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime         string `gorm:"type:varchar(5);not null"                       json:"end_time"`
	BaseModel
}

// TableName 指定表名
func (MandatoryTime) TableName() string { return "mandatory_times" }
