// Package studyday 计算机构定义的"学习日"与"周"边界。
//
// 学习日不与自然日对齐：例如 07:30 开始、次日 01:30 结束。
// 切换点（cutover）之前的时刻归属前一个学习日。
// 所有函数都是纯函数，不做 I/O。
package studyday

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"study-hub/backend/config"
)

// TimeOfDay 一天中的时刻（不含日期）。Hour 允许 ≥24，表示"次日凌晨"。
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay 解析 HH:MM 或 HH:MM:SS（PostgreSQL time 列的文本格式）
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("时间格式无效 %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 47 {
		return TimeOfDay{}, fmt.Errorf("小时无效 %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("分钟无效 %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// MustParseTimeOfDay 仅用于常量与测试
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Minutes 距零点的分钟数
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// OverMidnight 是否表示次日凌晨（如 25:00）
func (t TimeOfDay) OverMidnight() bool { return t.Hour >= 24 }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// On 返回 date 当天该时刻的绝对时间；Hour≥24 时顺延到次日
func (t TimeOfDay) On(date time.Time) time.Time {
	h := t.Hour
	if t.OverMidnight() {
		date = date.AddDate(0, 0, 1)
		h -= 24
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, t.Minute, 0, 0, date.Location())
}

// Calendar 机构学习日日历
type Calendar struct {
	loc       *time.Location
	dayStart  TimeOfDay
	cutover   TimeOfDay
	weekStart time.Weekday
}

// New 创建 Calendar
func New(loc *time.Location, dayStart, cutover string, weekStart time.Weekday) (*Calendar, error) {
	start, err := ParseTimeOfDay(dayStart)
	if err != nil {
		return nil, fmt.Errorf("学习日开始时间: %w", err)
	}
	cut, err := ParseTimeOfDay(cutover)
	if err != nil {
		return nil, fmt.Errorf("学习日切换时间: %w", err)
	}
	if weekStart < time.Sunday || weekStart > time.Saturday {
		return nil, fmt.Errorf("周起始日无效: %d", weekStart)
	}
	return &Calendar{loc: loc, dayStart: start, cutover: cut, weekStart: weekStart}, nil
}

// FromConfig 按 study.* 配置创建 Calendar
func FromConfig(cfg *config.StudyConfig) (*Calendar, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return New(loc, cfg.DayStart, cfg.DayCutover, time.Weekday(cfg.WeekStart))
}

// Location 机构时区
func (c *Calendar) Location() *time.Location { return c.loc }

// DateOf 返回 t 所在自然日的本地零点
func (c *Calendar) DateOf(t time.Time) time.Time {
	l := t.In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.loc)
}

// StudyDate 返回 now 所属学习日（本地零点表示）
func (c *Calendar) StudyDate(now time.Time) time.Time {
	l := now.In(c.loc)
	date := c.DateOf(l)
	if l.Hour()*60+l.Minute() < c.cutover.Minutes() {
		return date.AddDate(0, 0, -1)
	}
	return date
}

// Bounds 返回学习日的闭区间 [start, end]：当日开始时刻 ~ 次日切换时刻
func (c *Calendar) Bounds(date time.Time) (time.Time, time.Time) {
	d := c.DateOf(date)
	return c.dayStart.On(d), c.cutover.On(d.AddDate(0, 0, 1))
}

// WeekStart 返回 now 之前（含）最近一个周起始日的本地零点
func (c *Calendar) WeekStart(now time.Time) time.Time {
	d := c.DateOf(now)
	diff := (int(d.Weekday()) - int(c.weekStart) + 7) % 7
	return d.AddDate(0, 0, -diff)
}

// FormatDate 以 YYYY-MM-DD 格式输出日期
func FormatDate(d time.Time) string { return d.Format("2006-01-02") }
