package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"study-hub/backend/internal/model"
	"study-hub/backend/internal/repository"
)

func TestMandatoryTimeResolver_NoCalendarDay(t *testing.T) {
	env := newTestEnv(t, at(2024, 3, 11, 12, 0))

	w, err := env.mandatorySvc.Resolve(context.Background(), "branch-1", at(2024, 3, 11, 0, 0))
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	if w != nil {
		t.Errorf("未配置日期类型时应返回 nil，实际=%+v", w)
	}
}

func TestMandatoryTimeResolver_ResolvesAndCaches(t *testing.T) {
	env := newTestEnv(t, at(2024, 3, 11, 12, 0))
	env.calendar.setDay("branch-1", "2024-03-11", model.DateTypeVacation)
	env.calendar.setMandatory("branch-1", model.DateTypeVacation, "09:00", "25:30")

	date := at(2024, 3, 11, 0, 0)
	w, err := env.mandatorySvc.Resolve(context.Background(), "branch-1", date)
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	if w == nil || w.Start.String() != "09:00" || w.End.String() != "25:30" || w.DateType != model.DateTypeVacation {
		t.Fatalf("必修时段错误: %+v", w)
	}
	if !w.End.OverMidnight() {
		t.Error("25:30 应表示次日凌晨")
	}

	again, _ := env.mandatorySvc.Resolve(context.Background(), "branch-1", date)
	if again == nil || again.End != w.End {
		t.Errorf("缓存结果不一致: %+v", again)
	}
	if env.calendar.dayCalls != 1 {
		t.Errorf("第二次应命中缓存，实际查库 %d 次", env.calendar.dayCalls)
	}
	if env.cache.sets != 1 {
		t.Errorf("期望写缓存 1 次，实际=%d", env.cache.sets)
	}
}

func TestMandatoryTimeResolver_WithoutCache(t *testing.T) {
	cal := newMockBranchCalendarRepo()
	cal.setDay("branch-1", "2024-03-11", model.DateTypeSemester)
	cal.setMandatory("branch-1", model.DateTypeSemester, "08:00", "22:00")
	repo := &repository.Repository{BranchCalendar: cal}

	r := NewMandatoryTimeResolver(repo, nil, time.Minute, zap.NewNop())
	for i := 0; i < 2; i++ {
		w, err := r.Resolve(context.Background(), "branch-1", at(2024, 3, 11, 0, 0))
		if err != nil || w == nil {
			t.Fatalf("Resolve 应成功: %v", err)
		}
	}
	if cal.dayCalls != 2 {
		t.Errorf("无缓存时每次都应查库，实际=%d", cal.dayCalls)
	}
}
