package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Runner 后台任务执行器
//
// 用于"触发即忘"的副作用（自动扣分、通知等）：
//   - 与请求上下文解耦，请求结束不会取消任务
//   - 信号量限制并发数，单任务带超时
//   - 错误与 panic 只记录日志，绝不回传给调用方
type Runner struct {
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner 创建 Runner
func NewRunner(concurrency int, timeout time.Duration, logger *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		sem:     semaphore.NewWeighted(int64(concurrency)),
		timeout: timeout,
		logger:  logger,
	}
}

// Go 提交一个后台任务，立即返回
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.logger.Warn("后台任务排队超时", zap.String("task", name), zap.Error(err))
			return
		}
		defer r.sem.Release(1)

		if err := r.run(ctx, fn); err != nil {
			r.logger.Error("后台任务执行失败", zap.String("task", name), zap.Error(err))
		}
	}()
}

func (r *Runner) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx)
}

// Wait 等待所有已提交任务结束（优雅关闭与测试使用）
func (r *Runner) Wait() {
	r.wg.Wait()
}
