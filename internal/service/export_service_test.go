package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"study-hub/backend/internal/model"
)

func TestExportService_ExportWeeklyReport_NoStudents(t *testing.T) {
	env := newTestEnv(t, at(2024, 3, 13, 12, 0))

	_, _, err := env.exportSvc.ExportWeeklyReport(context.Background(), "branch-empty", env.now)
	if !errors.Is(err, ErrExportNoStudents) {
		t.Errorf("期望 ErrExportNoStudents，实际: %v", err)
	}
}

func TestExportService_ExportWeeklyReport(t *testing.T) {
	env := newTestEnv(t, at(2024, 3, 17, 12, 0))
	// 周一 2 小时；周二 23:00 ~ 周三 01:00 跨午夜，全部计入周二学习日
	env.seedEvent("stu-1", model.EventCheckIn, at(2024, 3, 11, 9, 0))
	env.seedEvent("stu-1", model.EventCheckOut, at(2024, 3, 11, 11, 0))
	env.seedEvent("stu-1", model.EventCheckIn, at(2024, 3, 12, 23, 0))
	env.seedEvent("stu-1", model.EventCheckOut, at(2024, 3, 13, 1, 0))

	buf, filename, err := env.exportSvc.ExportWeeklyReport(context.Background(), "branch-1", at(2024, 3, 13, 0, 0))
	if err != nil {
		t.Fatalf("ExportWeeklyReport 应成功: %v", err)
	}
	if filename != "weekly_study_2024-03-11.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("应为合法 xlsx: %v", err)
	}
	defer f.Close()

	sheet := "주간 학습시간"
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	// 标题 + 表头 + 2 名学生
	if len(rows) != 4 {
		t.Fatalf("期望 4 行，实际=%d", len(rows))
	}

	// 学生按姓名排序：김민준(stu-1) 在前
	student := rows[2]
	if student[0] != "김민준" {
		t.Fatalf("第一行学生错误: %v", student)
	}
	if student[1] != "120" || student[2] != "120" || student[3] != "0" {
		t.Errorf("每日分钟数错误: %v", student)
	}
	if student[8] != "240" {
		t.Errorf("合计错误: %s", student[8])
	}
}

func TestExportService_ExportWeeklyReport_TotalFromSeconds(t *testing.T) {
	env := newTestEnv(t, at(2024, 3, 17, 12, 0))
	// 周一、周二各 40 秒：单日取整为 0 分钟，一周合计 80 秒取整为 1 分钟
	env.seedEvent("stu-1", model.EventCheckIn, at(2024, 3, 11, 9, 0))
	env.seedEvent("stu-1", model.EventCheckOut, at(2024, 3, 11, 9, 0).Add(40*time.Second))
	env.seedEvent("stu-1", model.EventCheckIn, at(2024, 3, 12, 9, 0))
	env.seedEvent("stu-1", model.EventCheckOut, at(2024, 3, 12, 9, 0).Add(40*time.Second))

	buf, _, err := env.exportSvc.ExportWeeklyReport(context.Background(), "branch-1", at(2024, 3, 13, 0, 0))
	if err != nil {
		t.Fatalf("ExportWeeklyReport 应成功: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("应为合法 xlsx: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("주간 학습시간")
	student := rows[2]
	if student[1] != "0" || student[2] != "0" {
		t.Errorf("单日分钟数应取整为 0: %v", student)
	}
	if student[8] != "1" {
		t.Errorf("合计应按秒累加后取整为 1，实际: %s", student[8])
	}
}
