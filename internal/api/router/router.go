package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"study-hub/backend/config"
	"study-hub/backend/internal/api/handler"
	"study-hub/backend/internal/api/middleware"
	"study-hub/backend/internal/model"
	"study-hub/backend/pkg/jwt"
	"study-hub/backend/pkg/redis"
)

// maxBodyBytes JSON 请求体上限
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时跳过 Token 黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	staff := middleware.RoleAuth(model.RoleParent, model.RoleAdmin)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 出勤模块（打卡只允许学生本人，并按用户限流）
		attendance := v1.Group("/attendance")
		{
			punch := attendance.Group("")
			punch.Use(middleware.RoleAuth(model.RoleStudent))
			punch.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window))
			{
				punch.POST("/check-in", h.Attendance.CheckIn)
				punch.POST("/check-out", h.Attendance.CheckOut)
				punch.POST("/break-start", h.Attendance.StartBreak)
				punch.POST("/break-end", h.Attendance.EndBreak)
			}
			attendance.GET("/today", middleware.RoleAuth(model.RoleStudent), h.Attendance.GetToday)
			attendance.GET("/today/study-time", middleware.RoleAuth(model.RoleStudent), h.Attendance.GetTodayStudyTime)
			attendance.GET("/weekly", h.Attendance.GetWeeklyStudyTime) // 归属校验在 Service 层
		}

		// 外出日程模块
		schedules := v1.Group("/absence-schedules")
		{
			schedules.POST("", h.AbsenceSchedule.Create)
			schedules.GET("/me", middleware.RoleAuth(model.RoleStudent), h.AbsenceSchedule.ListMine)
			schedules.GET("/me/today", middleware.RoleAuth(model.RoleStudent), h.AbsenceSchedule.ListToday)
			schedules.GET("/me/calendar.ics", middleware.RoleAuth(model.RoleStudent), h.AbsenceSchedule.ExportMyCalendar)
			schedules.GET("/students/:id", h.AbsenceSchedule.ListForStudent)
			schedules.GET("/students/:id/pending", h.AbsenceSchedule.ListPendingForStudent)
			schedules.GET("/students/:id/rejected", h.AbsenceSchedule.ListRejectedForStudent)
			schedules.GET("/students/:id/calendar.ics", staff, h.AbsenceSchedule.ExportStudentCalendar)
			schedules.GET("/pending", adminOnly, h.AbsenceSchedule.ListPendingForBranch)
			schedules.GET("/approved", adminOnly, h.AbsenceSchedule.ListApproved)
			schedules.PUT("/:id", h.AbsenceSchedule.Update)
			schedules.PUT("/:id/approve", staff, h.AbsenceSchedule.Approve)
			schedules.PUT("/:id/reject", staff, h.AbsenceSchedule.Reject)
			schedules.PUT("/:id/toggle-active", h.AbsenceSchedule.ToggleActive)
			schedules.DELETE("/:id", h.AbsenceSchedule.Delete)
		}

		// 免责排查
		v1.GET("/exemptions/check", staff, h.Exemption.Check)

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/weekly-report", adminOnly, h.Export.ExportWeeklyReport)
		}
	}

	return r, nil
}
