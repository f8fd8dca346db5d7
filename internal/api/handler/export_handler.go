package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"study-hub/backend/internal/dto"
	"study-hub/backend/internal/service"
	"study-hub/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
	now       func() time.Time
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, now: time.Now}
}

// ExportWeeklyReport 导出本分店学习时长周报
// GET /api/v1/export/weekly-report?week_of=2024-03-11
func (h *ExportHandler) ExportWeeklyReport(c *gin.Context) {
	var req dto.WeeklyReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "week_of 须为 YYYY-MM-DD")
		return
	}

	branchID, ok := MustGetBranchID(c)
	if !ok {
		return
	}
	if branchID == "" {
		response.Forbidden(c, 10003, "无权限访问")
		return
	}

	weekOf := h.now()
	if req.WeekOf != "" {
		// 日期按中午解析，避免时区换算跨到相邻自然日
		d, _ := time.Parse("2006-01-02", req.WeekOf)
		weekOf = d.Add(12 * time.Hour)
	}

	buf, filename, err := h.exportSvc.ExportWeeklyReport(c.Request.Context(), branchID, weekOf)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoStudents):
		response.NotFound(c, 16101, "该分店暂无学生")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
