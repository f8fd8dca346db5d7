package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"study-hub/backend/internal/model"
	"study-hub/backend/internal/repository"
	"study-hub/backend/pkg/studyday"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoStudents   = errors.New("该分店暂无学生")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportWeeklyReport 导出分店 weekOf 所在周的学习时长周报
	ExportWeeklyReport(ctx context.Context, branchID string, weekOf time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	cal    *studyday.Calendar
	now    Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, cal *studyday.Calendar, now Clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, cal: cal, now: now, logger: logger}
}

var weekdayNames = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// ═══════════════════════════════════════════════════════════
// ExportWeeklyReport — 学习时长周报
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 行：分店学生（按姓名）
//   - 列：一周 7 个学习日 + 合计
//   - 单元格：当日学习分钟数（按学习日边界切分，进行中的时段计到 now）
//   - 合计：一周学习秒数之和取整为分钟

func (s *exportService) ExportWeeklyReport(ctx context.Context, branchID string, weekOf time.Time) (*bytes.Buffer, string, error) {
	students, err := s.repo.Student.ListByBranch(ctx, branchID)
	if err != nil {
		s.logger.Error("查询分店学生失败", zap.String("branch_id", branchID), zap.Error(err))
		return nil, "", err
	}
	if len(students) == 0 {
		return nil, "", ErrExportNoStudents
	}

	weekStart := s.cal.WeekStart(weekOf)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	from, _ := s.cal.Bounds(days[0])
	_, to := s.cal.Bounds(days[6])

	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.StudentID)
	}
	events, err := s.repo.Attendance.ListByStudentsBetween(ctx, ids, from, to)
	if err != nil {
		s.logger.Error("查询周出勤事件失败", zap.String("branch_id", branchID), zap.Error(err))
		return nil, "", err
	}

	byStudent := make(map[string][]model.AttendanceEvent, len(students))
	for _, e := range events {
		byStudent[e.StudentID] = append(byStudent[e.StudentID], e)
	}

	now := s.now()
	seconds := make(map[string][]int64, len(students))
	for _, st := range students {
		seconds[st.StudentID] = s.dailySeconds(byStudent[st.StudentID], days, now)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "주간 학습시간"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 16)
	f.SetColWidth(sheetName, colName(1), colName(8), 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	title := fmt.Sprintf("주간 학습시간 (%s ~ %s, 분)", studyday.FormatDate(days[0]), studyday.FormatDate(days[6]))
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", cell(colName(8), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "학생")
	for i, d := range days {
		f.SetCellValue(sheetName, cell(colName(1+i), row), fmt.Sprintf("%s (%s)", d.Format("01-02"), weekdayNames[d.Weekday()]))
	}
	f.SetCellValue(sheetName, cell(colName(8), row), "합계")
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(8), row), headerStyle)

	// 数据行
	row = 3
	for _, st := range students {
		f.SetCellValue(sheetName, cell("A", row), st.Name)
		var total int64
		for i, sec := range seconds[st.StudentID] {
			f.SetCellValue(sheetName, cell(colName(1+i), row), sec/60)
			total += sec
		}
		// 合计按秒累加后取整，不是各日分钟数之和
		f.SetCellValue(sheetName, cell(colName(8), row), total/60)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("weekly_study_%s.xlsx", studyday.FormatDate(days[0]))
	return buf, filename, nil
}

// dailySeconds 按学习日切分事件并分别回放
func (s *exportService) dailySeconds(events []model.AttendanceEvent, days []time.Time, now time.Time) []int64 {
	result := make([]int64, len(days))
	for i, d := range days {
		start, end := s.cal.Bounds(d)
		var dayEvents []model.AttendanceEvent
		for _, e := range events {
			if !e.OccurredAt.Before(start) && !e.OccurredAt.After(end) {
				dayEvents = append(dayEvents, e)
			}
		}
		until := end
		if now.Before(end) {
			until = now
		}
		result[i] = Replay(dayEvents).StudySeconds(until)
	}
	return result
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
