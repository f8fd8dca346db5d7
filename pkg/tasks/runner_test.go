package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunner_LogsErrorAndPanic(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRunner(2, time.Second, zap.New(core))

	r.Go("fails", func(context.Context) error { return errors.New("boom") })
	r.Go("panics", func(context.Context) error { panic("kaboom") })
	r.Go("ok", func(context.Context) error { return nil })
	r.Wait()

	failed := logs.FilterMessage("后台任务执行失败")
	if failed.Len() != 2 {
		t.Fatalf("期望 2 条失败日志，实际=%d", failed.Len())
	}
	for _, e := range failed.All() {
		name := e.ContextMap()["task"]
		if name != "fails" && name != "panics" {
			t.Errorf("意外的任务名: %v", name)
		}
	}
}

func TestRunner_BoundsConcurrency(t *testing.T) {
	r := NewRunner(2, 5*time.Second, zap.NewNop())

	var running, peak int32
	for i := 0; i < 8; i++ {
		r.Go("work", func(context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		})
	}
	r.Wait()

	if peak > 2 {
		t.Errorf("并发峰值应 ≤2，实际=%d", peak)
	}
}

func TestRunner_DetachedFromCaller(t *testing.T) {
	r := NewRunner(1, time.Second, zap.NewNop())

	var ctxErr error
	r.Go("detached", func(ctx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		ctxErr = ctx.Err()
		return nil
	})
	r.Wait()

	if ctxErr != nil {
		t.Errorf("任务上下文不应被取消: %v", ctxErr)
	}
}
