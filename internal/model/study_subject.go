package model

import "time"

// StudySubject 学习科目记录表 — 对应 study_subjects
// 每个学生同一时刻最多一条 is_current=true
type StudySubject struct {
	StudySubjectID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID      string     `gorm:"type:uuid;not null;index"                       json:"student_id"`
	SubjectName    string     `gorm:"type:varchar(50);not null"                      json:"subject_name"`
	StartedAt      time.Time  `gorm:"not null"                                       json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	IsCurrent      bool       `gorm:"not null;default:true"                          json:"is_current"`
}

// TableName 指定表名
func (StudySubject) TableName() string { return "study_subjects" }
