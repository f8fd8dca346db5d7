package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"study-hub/backend/internal/repository"
	"study-hub/backend/pkg/studyday"
)

// MandatoryWindow 某分店某学习日的必修时段
// End 可能 ≥24:00，表示次日凌晨
type MandatoryWindow struct {
	Start    studyday.TimeOfDay
	End      studyday.TimeOfDay
	DateType string
}

// MandatoryTimeResolver 必修时段解析接口
type MandatoryTimeResolver interface {
	// Resolve 返回 date 当天的必修时段；当天未配置日期类型或必修时段时返回 nil, nil
	Resolve(ctx context.Context, branchID string, date time.Time) (*MandatoryWindow, error)
}

// JSONCache 必修时段缓存（由 pkg/redis.Client 实现）
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, val interface{}, ttl time.Duration) error
}

type mandatoryTimeResolver struct {
	repo   *repository.Repository
	cache  JSONCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewMandatoryTimeResolver 创建 MandatoryTimeResolver 实例
func NewMandatoryTimeResolver(repo *repository.Repository, cache JSONCache, ttl time.Duration, logger *zap.Logger) MandatoryTimeResolver {
	return &mandatoryTimeResolver{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// cachedWindow 缓存中的序列化形式；Found=false 也会缓存，避免未配置的日期反复查库
type cachedWindow struct {
	Found    bool   `json:"found"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	DateType string `json:"date_type,omitempty"`
}

func (r *mandatoryTimeResolver) Resolve(ctx context.Context, branchID string, date time.Time) (*MandatoryWindow, error) {
	key := fmt.Sprintf("mandatory:%s:%s", branchID, studyday.FormatDate(date))

	if r.cache != nil {
		var cw cachedWindow
		if err := r.cache.GetJSON(ctx, key, &cw); err == nil {
			return cw.window()
		}
		// 缓存不可用时降级为直接查库
	}

	cw, err := r.load(ctx, branchID, date)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, key, cw, r.ttl); err != nil {
			r.logger.Warn("写入必修时段缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return cw.window()
}

func (r *mandatoryTimeResolver) load(ctx context.Context, branchID string, date time.Time) (cachedWindow, error) {
	day, err := r.repo.BranchCalendar.GetDay(ctx, branchID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cachedWindow{}, nil
		}
		r.logger.Error("查询分店日历失败", zap.String("branch_id", branchID), zap.Error(err))
		return cachedWindow{}, err
	}

	mt, err := r.repo.BranchCalendar.GetMandatoryTime(ctx, branchID, day.DateType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cachedWindow{}, nil
		}
		r.logger.Error("查询必修时段失败", zap.String("branch_id", branchID), zap.Error(err))
		return cachedWindow{}, err
	}

	return cachedWindow{Found: true, Start: mt.StartTime, End: mt.EndTime, DateType: day.DateType}, nil
}

func (cw cachedWindow) window() (*MandatoryWindow, error) {
	if !cw.Found {
		return nil, nil
	}
	start, err := studyday.ParseTimeOfDay(cw.Start)
	if err != nil {
		return nil, fmt.Errorf("必修开始时间: %w", err)
	}
	end, err := studyday.ParseTimeOfDay(cw.End)
	if err != nil {
		return nil, fmt.Errorf("必修结束时间: %w", err)
	}
	return &MandatoryWindow{Start: start, End: end, DateType: cw.DateType}, nil
}
