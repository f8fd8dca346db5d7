package service

import (
	"time"

	"study-hub/backend/internal/model"
)

// ReplayResult 事件流回放结果
type ReplayResult struct {
	Status model.AttendanceStatus
	// TotalSeconds 已结束时段的累计秒数，不含仍在进行中的时段
	TotalSeconds int64
	// OpenSince 进行中时段的开始时刻；nil 表示当前没有进行中的时段
	OpenSince *time.Time
}

// Replay 按时间顺序回放事件，推导状态与累计学习时长。
//
// 不校验事件序列是否合法：没有签到的 break_start 不计时，
// 重复的 check_in 保留第一次的开始时刻。
func Replay(events []model.AttendanceEvent) ReplayResult {
	res := ReplayResult{Status: model.StatusCheckedOut}
	var open *time.Time

	flush := func(at time.Time) {
		if open == nil {
			return
		}
		if d := at.Sub(*open); d > 0 {
			res.TotalSeconds += int64(d / time.Second)
		}
		open = nil
	}

	for i := range events {
		at := events[i].OccurredAt
		switch events[i].EventType {
		case model.EventCheckIn, model.EventBreakEnd:
			res.Status = model.StatusCheckedIn
			if open == nil {
				t := at
				open = &t
			}
		case model.EventCheckOut:
			res.Status = model.StatusCheckedOut
			flush(at)
		case model.EventBreakStart:
			res.Status = model.StatusOnBreak
			flush(at)
		}
	}

	res.OpenSince = open
	return res
}

// StatusFromLast 仅根据最后一条事件推导状态（状态与事件类型一一对应）
func StatusFromLast(events []model.AttendanceEvent) model.AttendanceStatus {
	if len(events) == 0 {
		return model.StatusCheckedOut
	}
	return statusOf(events[len(events)-1].EventType)
}

func statusOf(t model.EventType) model.AttendanceStatus {
	switch t {
	case model.EventCheckIn, model.EventBreakEnd:
		return model.StatusCheckedIn
	case model.EventBreakStart:
		return model.StatusOnBreak
	default:
		return model.StatusCheckedOut
	}
}

// StudySeconds 截止 now 的学习秒数，包含进行中的时段
func (r ReplayResult) StudySeconds(now time.Time) int64 {
	total := r.TotalSeconds
	if r.OpenSince != nil && now.After(*r.OpenSince) {
		total += int64(now.Sub(*r.OpenSince) / time.Second)
	}
	return total
}
