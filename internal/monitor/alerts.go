package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// 告警类型
const (
	AlertHighErrorRate       = "high_error_rate"      // 错误率过高
	AlertHighMemory          = "high_memory"          // 内存占用过高
	AlertSlowRequests        = "slow_requests"        // 请求过慢
	AlertConsecutiveFailures = "consecutive_failures" // 连续失败
)

// 错误率告警的最小请求数,样本太少时错误率没有意义
const minRequestsForErrorRate = 10

// AlertThresholds 告警阈值配置
type AlertThresholds struct {
	ErrorRatePercent    float64 // 错误率阈值(%)
	MemoryMB            float64 // 峰值内存阈值(MB)
	RequestTimeSeconds  float64 // 平均请求耗时阈值(秒)
	ConsecutiveFailures int     // 连续失败次数阈值
}

// DefaultAlertThresholds 默认告警阈值
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		ErrorRatePercent:    15.0,
		MemoryMB:            800,
		RequestTimeSeconds:  8.0,
		ConsecutiveFailures: 5,
	}
}

// AlertManager 告警管理器
// 职责: 根据指标和错误历史触发阈值告警,同类告警在冷却期内被抑制,
// 避免条件持续满足时的告警风暴
type AlertManager struct {
	mu sync.Mutex

	metrics    *MetricsCollector
	mon        *Monitor
	thresholds AlertThresholds

	consecutiveFailures int
	lastAlertTime       map[string]time.Time
	cooldown            time.Duration

	log zerolog.Logger

	// 测试注入点
	now func() time.Time
}

// NewAlertManager 创建告警管理器
func NewAlertManager(metrics *MetricsCollector, mon *Monitor, thresholds AlertThresholds, log zerolog.Logger) *AlertManager {
	return &AlertManager{
		metrics:       metrics,
		mon:           mon,
		thresholds:    thresholds,
		lastAlertTime: make(map[string]time.Time),
		cooldown:      300 * time.Second,
		log:           log,
		now:           time.Now,
	}
}

// CheckAlerts 检查所有告警条件
// 返回本次实际触发(未被冷却抑制)的告警类型列表
func (a *AlertManager) CheckAlerts() []string {
	var fired []string

	// 错误率
	if a.metrics.RequestsMade() > minRequestsForErrorRate {
		errorRate := float64(a.mon.TotalErrors()) / float64(a.metrics.RequestsMade()) * 100
		if errorRate > a.thresholds.ErrorRatePercent {
			if a.trigger(AlertHighErrorRate, fmt.Sprintf("错误率: %.1f%%", errorRate)) {
				fired = append(fired, AlertHighErrorRate)
			}
		}
	}

	// 内存占用
	if peak := a.metrics.PeakMemoryMB(); peak > a.thresholds.MemoryMB {
		if a.trigger(AlertHighMemory, fmt.Sprintf("峰值内存: %.1fMB", peak)) {
			fired = append(fired, AlertHighMemory)
		}
	}

	// 请求性能
	if avg := a.metrics.AverageRequestTime(); avg > a.thresholds.RequestTimeSeconds {
		if a.trigger(AlertSlowRequests, fmt.Sprintf("平均请求耗时: %.1f秒", avg)) {
			fired = append(fired, AlertSlowRequests)
		}
	}

	return fired
}

// RecordFailure 记录一次连续失败
// 达到阈值时触发consecutive_failures告警
func (a *AlertManager) RecordFailure() {
	a.mu.Lock()
	a.consecutiveFailures++
	count := a.consecutiveFailures
	a.mu.Unlock()

	if count >= a.thresholds.ConsecutiveFailures {
		a.trigger(AlertConsecutiveFailures, fmt.Sprintf("连续失败%d次", count))
	}
}

// RecordSuccess 重置连续失败计数
func (a *AlertManager) RecordSuccess() {
	a.mu.Lock()
	a.consecutiveFailures = 0
	a.mu.Unlock()
}

// ConsecutiveFailures 当前连续失败计数
func (a *AlertManager) ConsecutiveFailures() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.consecutiveFailures
}

// trigger 触发告警(冷却期内返回false)
// 每种告警类型拥有独立的冷却时间
func (a *AlertManager) trigger(alertType string, message string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if last, ok := a.lastAlertTime[alertType]; ok && now.Sub(last) <= a.cooldown {
		return false
	}
	a.lastAlertTime[alertType] = now

	a.log.Warn().
		Str("alert", alertType).
		Msgf("⚠️ 告警 [%s]: %s", alertType, message)
	return true
}
