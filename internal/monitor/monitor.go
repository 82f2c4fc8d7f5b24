package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrorRecord 错误记录
// 插入后不可变,仅Resolved字段允许更新
type ErrorRecord struct {
	ID         string    `json:"id"`                 // 记录唯一ID (UUID)
	Timestamp  time.Time `json:"timestamp"`          // 发生时间
	Kind       ErrorKind `json:"kind"`               // 错误分类
	Message    string    `json:"message"`            // 错误消息
	URL        string    `json:"url,omitempty"`      // 相关URL
	MatchID    string    `json:"match_id,omitempty"` // 相关比赛ID
	Detail     string    `json:"detail,omitempty"`   // 详细信息
	RetryCount int       `json:"retry_count"`        // 重试次数
	Resolved   bool      `json:"resolved"`           // 是否已解决
}

// ErrorContext 错误上下文(可选字段)
type ErrorContext struct {
	URL        string
	MatchID    string
	Detail     string
	RetryCount int
}

// Monitor 运行监控器
// 职责: 维护运行期间的追加式错误日志和分类计数,提供通用重试原语
// 不变式: 各分类计数之和始终等于错误记录总数
type Monitor struct {
	mu sync.Mutex

	metrics     *MetricsCollector
	errors      []ErrorRecord
	errorCounts map[ErrorKind]int

	maxRetries int           // 监控层重试次数
	retryDelay time.Duration // 监控层重试基础延迟

	log zerolog.Logger

	// 测试注入点
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewMonitor 创建运行监控器
func NewMonitor(metrics *MetricsCollector, maxRetries int, retryDelay time.Duration, log zerolog.Logger) *Monitor {
	if maxRetries < 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	counts := make(map[ErrorKind]int, len(AllErrorKinds))
	for _, kind := range AllErrorKinds {
		counts[kind] = 0
	}
	return &Monitor{
		metrics:     metrics,
		errorCounts: counts,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
		log:         log,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Metrics 获取关联的指标收集器
func (m *Monitor) Metrics() *MetricsCollector {
	return m.metrics
}

// RecordError 记录一次错误
// 记录路径本身绝不失败: 这里只做内存追加和日志输出
func (m *Monitor) RecordError(kind ErrorKind, message string, ctx ErrorContext) {
	record := ErrorRecord{
		ID:         uuid.New().String(),
		Timestamp:  m.now().UTC(),
		Kind:       kind,
		Message:    message,
		URL:        ctx.URL,
		MatchID:    ctx.MatchID,
		Detail:     ctx.Detail,
		RetryCount: ctx.RetryCount,
	}

	m.mu.Lock()
	m.errors = append(m.errors, record)
	m.errorCounts[kind]++
	m.mu.Unlock()

	event := m.log.Error().
		Str("kind", string(kind)).
		Str("message", message)
	if ctx.URL != "" {
		event = event.Str("url", ctx.URL)
	}
	if ctx.MatchID != "" {
		event = event.Str("match_id", ctx.MatchID)
	}
	event.Msg("记录错误")
}

// RetryOperation 带指数退避的通用重试原语
// 退避时长为 retry_delay * 2^attempt,全部尝试耗尽后返回最后一次的错误
// 与导航层的线性退避重试相互独立,面向任意调用方操作
func (m *Monitor) RetryOperation(ctx context.Context, name string, op func() error) error {
	var lastErr error

	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if err := op(); err != nil {
			lastErr = err

			if attempt < m.maxRetries {
				delay := m.retryDelay * time.Duration(1<<uint(attempt))
				m.log.Warn().
					Str("operation", name).
					Int("attempt", attempt+1).
					Dur("delay", delay).
					Err(err).
					Msg("操作失败,准备重试")
				if serr := m.sleep(ctx, delay); serr != nil {
					return serr
				}
				continue
			}
			m.log.Error().
				Str("operation", name).
				Int("attempts", m.maxRetries+1).
				Msg("全部重试已耗尽")
		} else {
			return nil
		}
	}

	return lastErr
}

// TrackRequest 执行一次受限流与计量约束的请求
// 先经过限流器等待,再执行操作并计时,结果回报指标收集器;
// 失败时对错误做分类并通知限流器调整延迟。等待被取消时操作不会执行
func (m *Monitor) TrackRequest(ctx context.Context, limiter *RateLimiter, op func() error) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	start := m.now()
	err := op()
	elapsed := m.now().Sub(start).Seconds()

	if err != nil {
		m.metrics.RecordRequestOutcome(false, elapsed)
		limiter.RecordFailure(ClassifyErr(err))
		return err
	}

	m.metrics.RecordRequestOutcome(true, elapsed)
	limiter.RecordSuccess()
	return nil
}

// TotalErrors 错误总数
func (m *Monitor) TotalErrors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

// CountByKind 指定分类的错误数
func (m *Monitor) CountByKind(kind ErrorKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorCounts[kind]
}

// ErrorCounts 各分类错误数快照
func (m *Monitor) ErrorCounts() map[ErrorKind]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[ErrorKind]int, len(m.errorCounts))
	for k, v := range m.errorCounts {
		counts[k] = v
	}
	return counts
}

// Errors 错误记录快照
func (m *Monitor) Errors() []ErrorRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ErrorRecord, len(m.errors))
	copy(out, m.errors)
	return out
}

// MarkResolved 将指定记录标记为已解决
func (m *Monitor) MarkResolved(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.errors {
		if m.errors[i].ID == id {
			m.errors[i].Resolved = true
			return true
		}
	}
	return false
}

// ErrorReport 生成详细错误报告
// 包含最近10条错误和最常见的错误分类
func (m *Monitor) ErrorReport() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := m.errors
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	recentOut := make([]map[string]interface{}, 0, len(recent))
	for _, e := range recent {
		recentOut = append(recentOut, map[string]interface{}{
			"timestamp": e.Timestamp.Format(time.RFC3339),
			"kind":      string(e.Kind),
			"message":   e.Message,
			"url":       e.URL,
			"match_id":  e.MatchID,
		})
	}

	counts := make(map[string]interface{}, len(m.errorCounts))
	for k, v := range m.errorCounts {
		counts[string(k)] = v
	}

	var mostCommon string
	maxCount := 0
	for _, kind := range AllErrorKinds {
		if m.errorCounts[kind] > maxCount {
			maxCount = m.errorCounts[kind]
			mostCommon = string(kind)
		}
	}

	return map[string]interface{}{
		"total_errors":         len(m.errors),
		"error_counts_by_type": counts,
		"recent_errors":        recentOut,
		"most_common_error":    mostCommon,
	}
}
