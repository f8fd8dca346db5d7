package model

import "time"

// 积分类型
const (
	PointTypeReward  = "reward"
	PointTypePenalty = "penalty"
)

// PointRecord 奖惩积分流水表 — 对应 point_records
// 系统自动生成的扣分 IsAuto=true 且 AdminID 为空
type PointRecord struct {
	PointRecordID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID     string    `gorm:"type:uuid;not null;index"                       json:"student_id"`
	Type          string    `gorm:"type:varchar(20);not null"                      json:"type"` // reward | penalty
	Amount        int       `gorm:"not null"                                       json:"amount"`
	Reason        string    `gorm:"type:varchar(200);not null"                     json:"reason"`
	IsAuto        bool      `gorm:"not null;default:false"                         json:"is_auto"`
	AdminID       *string   `gorm:"type:uuid"                                      json:"admin_id,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (PointRecord) TableName() string { return "point_records" }
