package model

// Student 学生表 — 对应 students（student_id 与认证服务中的用户 ID 一致）
type Student struct {
	StudentID string  `gorm:"type:uuid;primaryKey"       json:"student_id"`
	Name      string  `gorm:"type:varchar(50);not null"  json:"name"`
	BranchID  string  `gorm:"type:uuid;not null;index"   json:"branch_id"`
	ParentID  *string `gorm:"type:uuid;index"            json:"parent_id,omitempty"`
	IsActive  bool    `gorm:"not null;default:true"      json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// 调用方角色（与 JWT 中的 role 一致）
const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleAdmin   = "admin"
)
