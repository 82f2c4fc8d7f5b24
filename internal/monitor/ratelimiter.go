package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// 连续成功多少次后放宽延迟
const relaxAfterSuccesses = 5

// RateLimiter 自适应限流器
// 职责: 将请求成败信号转换为自适应延迟,失败时加压,连续成功时放宽
// current始终被钳制在[base, max]区间内
type RateLimiter struct {
	mu sync.Mutex

	base    time.Duration // 基础延迟(下限)
	max     time.Duration // 最大延迟(上限)
	current time.Duration // 当前延迟

	lastRequest  time.Time // 上次请求开始时间
	successCount int       // 连续成功计数
	failureCount int       // 连续失败计数

	log zerolog.Logger

	// 测试注入点
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter 创建自适应限流器
func NewRateLimiter(base, max time.Duration, log zerolog.Logger) *RateLimiter {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	// 上限不得低于下限,否则钳制区间[base, max]不成立
	if max < base {
		max = base
	}
	return &RateLimiter{
		base:    base,
		max:     max,
		current: base,
		log:     log,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait 等待当前延迟时间
// 阻塞调用方,直到距上次请求开始已经过current时长,然后记录新的请求开始时间
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	var remaining time.Duration
	if !r.lastRequest.IsZero() {
		elapsed := r.now().Sub(r.lastRequest)
		if elapsed < r.current {
			remaining = r.current - elapsed
		}
	}
	r.mu.Unlock()

	if remaining > 0 {
		r.log.Debug().Dur("sleep", remaining).Msg("限流等待")
		if err := r.sleep(ctx, remaining); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.lastRequest = r.now()
	r.mu.Unlock()
	return nil
}

// RecordSuccess 记录一次成功请求
// 每连续5次成功,延迟乘以0.9放宽一次(下限为base),并重置成功计数
func (r *RateLimiter) RecordSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.successCount++
	r.failureCount = 0

	if r.successCount >= relaxAfterSuccesses {
		relaxed := time.Duration(float64(r.current) * 0.9)
		if relaxed < r.base {
			relaxed = r.base
		}
		if relaxed != r.current {
			r.log.Debug().
				Dur("old", r.current).
				Dur("new", relaxed).
				Msg("连续成功,放宽延迟")
		}
		r.current = relaxed
		r.successCount = 0
	}
}

// RecordFailure 记录一次失败请求
// 根据错误类型加压: 限流错误×2.0, 网络错误×1.5, 其他×1.2,上限为max
func (r *RateLimiter) RecordFailure(kind ErrorKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failureCount++
	r.successCount = 0

	factor := 1.2
	switch kind {
	case ErrorRateLimit:
		factor = 2.0
	case ErrorNetwork:
		factor = 1.5
	}

	raised := time.Duration(float64(r.current) * factor)
	if raised > r.max {
		raised = r.max
	}
	if raised != r.current {
		r.log.Debug().
			Str("kind", string(kind)).
			Dur("old", r.current).
			Dur("new", raised).
			Msg("请求失败,提高延迟")
	}
	r.current = raised
}

// CurrentDelay 获取当前延迟
func (r *RateLimiter) CurrentDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// ConsecutiveFailures 获取当前连续失败次数
func (r *RateLimiter) ConsecutiveFailures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failureCount
}
