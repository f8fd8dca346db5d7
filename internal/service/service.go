package service

import (
	"time"

	"go.uber.org/zap"

	"study-hub/backend/config"
	"study-hub/backend/internal/repository"
	"study-hub/backend/pkg/studyday"
	"study-hub/backend/pkg/tasks"
)

// Clock 当前时间来源；测试中替换为固定时间
type Clock func() time.Time

// Caller 当前调用方身份（来自 JWT）
type Caller struct {
	UserID   string
	Role     string
	BranchID string
}

// Service 所有 Service 的聚合入口
type Service struct {
	Attendance      AttendanceService
	AbsenceSchedule AbsenceScheduleService
	Exemption       ExemptionService
	Penalty         PenaltyService
	MandatoryTime   MandatoryTimeResolver
	Export          ExportService
}

// NewService 创建 Service 聚合
// cache 为 nil 时必修时段直接查库
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cal *studyday.Calendar,
	runner *tasks.Runner,
	cache JSONCache,
	logger *zap.Logger,
) *Service {
	clock := Clock(time.Now)
	policy := &cfg.Study

	mandatory := NewMandatoryTimeResolver(repo, cache, cfg.Redis.MandatoryCacheTTL, logger)
	exemption := NewExemptionService(repo, cal, policy, logger)
	notifier := NewNotifier(repo, logger)
	penalty := NewPenaltyService(repo, cal, policy, mandatory, exemption, notifier, logger)

	return &Service{
		Attendance:      NewAttendanceService(repo, cal, policy, runner, penalty, clock, logger),
		AbsenceSchedule: NewAbsenceScheduleService(repo, cal, policy, clock, logger),
		Exemption:       exemption,
		Penalty:         penalty,
		MandatoryTime:   mandatory,
		Export:          NewExportService(repo, cal, clock, logger),
	}
}
