package studyday

import (
	"testing"
	"time"
)

var kst = time.FixedZone("KST", 9*60*60)

func newTestCalendar(t *testing.T) *Calendar {
	t.Helper()
	c, err := New(kst, "07:30", "01:30", time.Monday)
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}
	return c
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, kst)
}

func TestStudyDate_BeforeAndAfterCutover(t *testing.T) {
	c := newTestCalendar(t)

	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{at(2024, 3, 10, 1, 0), at(2024, 3, 9, 0, 0)},
		{at(2024, 3, 10, 1, 29), at(2024, 3, 9, 0, 0)},
		{at(2024, 3, 10, 1, 30), at(2024, 3, 10, 0, 0)},
		{at(2024, 3, 10, 2, 0), at(2024, 3, 10, 0, 0)},
		{at(2024, 3, 10, 23, 59), at(2024, 3, 10, 0, 0)},
	}
	for _, tc := range cases {
		if got := c.StudyDate(tc.now); !got.Equal(tc.want) {
			t.Errorf("StudyDate(%v) = %v，期望 %v", tc.now, got, tc.want)
		}
	}
}

func TestStudyDate_ConvertsToInstitutionZone(t *testing.T) {
	c := newTestCalendar(t)
	// 2024-03-09T16:00Z = 2024-03-10T01:00 KST
	got := c.StudyDate(time.Date(2024, 3, 9, 16, 0, 0, 0, time.UTC))
	if !got.Equal(at(2024, 3, 9, 0, 0)) {
		t.Errorf("期望学习日 2024-03-09，实际=%v", got)
	}
}

func TestBounds(t *testing.T) {
	c := newTestCalendar(t)

	start, end := c.Bounds(at(2024, 3, 10, 0, 0))
	if !start.Equal(at(2024, 3, 10, 7, 30)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(at(2024, 3, 11, 1, 30)) {
		t.Errorf("end = %v", end)
	}
}

func TestWeekStart(t *testing.T) {
	c := newTestCalendar(t)

	// 2024-03-10 是周日 → 周一起始为 2024-03-04
	if got := c.WeekStart(at(2024, 3, 10, 22, 0)); !got.Equal(at(2024, 3, 4, 0, 0)) {
		t.Errorf("WeekStart(周日) = %v", got)
	}
	// 周一当天 → 当天零点
	if got := c.WeekStart(at(2024, 3, 11, 0, 5)); !got.Equal(at(2024, 3, 11, 0, 0)) {
		t.Errorf("WeekStart(周一) = %v", got)
	}

	sunday, _ := New(kst, "07:30", "01:30", time.Sunday)
	if got := sunday.WeekStart(at(2024, 3, 13, 12, 0)); !got.Equal(at(2024, 3, 10, 0, 0)) {
		t.Errorf("WeekStart(周日起始) = %v", got)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"09:00":    {9, 0},
		"9:05":     {9, 5},
		"10:15:00": {10, 15},
		"25:30":    {25, 30},
	}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) 失败: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseTimeOfDay(%q) = %v，期望 %v", in, got, want)
		}
	}

	for _, bad := range []string{"", "9", "ab:cd", "12:60", "48:00", "1:2:3:4"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Errorf("ParseTimeOfDay(%q) 应失败", bad)
		}
	}
}

func TestTimeOfDay_OnRollsOverMidnight(t *testing.T) {
	d := at(2024, 3, 10, 0, 0)

	if got := MustParseTimeOfDay("22:00").On(d); !got.Equal(at(2024, 3, 10, 22, 0)) {
		t.Errorf("22:00 → %v", got)
	}
	if got := MustParseTimeOfDay("25:00").On(d); !got.Equal(at(2024, 3, 11, 1, 0)) {
		t.Errorf("25:00 → %v", got)
	}
}
