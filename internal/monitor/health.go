package monitor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HealthStatus 健康状态
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"  // 健康
	StatusWarning  HealthStatus = "warning"  // 警告
	StatusCritical HealthStatus = "critical" // 严重
	StatusUnknown  HealthStatus = "unknown"  // 未知(无数据)
)

// 健康趋势
const (
	TrendInsufficientData = "insufficient_data" // 样本不足
	TrendStableHealthy    = "stable_healthy"    // 持续健康
	TrendDeclining        = "declining"         // 持续恶化
	TrendImproving        = "improving"         // 正在恢复
	TrendUnstable         = "unstable"          // 不稳定
)

// 健康快照历史上限
const maxHealthHistory = 10

// ComponentHealth 单个组件的健康评估
type ComponentHealth struct {
	Status  HealthStatus `json:"status"`            // 组件状态
	Message string       `json:"message,omitempty"` // 状态说明
	Metric  float64      `json:"metric"`            // 评估依据的指标值
}

// HealthSnapshot 健康快照
type HealthSnapshot struct {
	Timestamp       time.Time                  `json:"timestamp"`       // 快照时间
	Overall         HealthStatus               `json:"overall_status"`  // 整体状态(取最差组件)
	Components      map[string]ComponentHealth `json:"components"`      // 各组件状态
	Recommendations []string                   `json:"recommendations"` // 改进建议
}

// HealthChecker 系统健康检查器
// 职责: 独立评估网络/内存/错误/性能四个组件并汇总为整体状态,
// 维护有界的快照历史用于趋势分析
type HealthChecker struct {
	mu sync.Mutex

	metrics *MetricsCollector
	mon     *Monitor
	history []HealthSnapshot

	log zerolog.Logger

	// 测试注入点
	now func() time.Time
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(metrics *MetricsCollector, mon *Monitor, log zerolog.Logger) *HealthChecker {
	return &HealthChecker{
		metrics: metrics,
		mon:     mon,
		log:     log,
		now:     time.Now,
	}
}

// Check 执行一次完整健康检查
// 整体状态为所有组件中最差者(critical > warning > healthy),
// 快照追加到历史,超过上限时淘汰最旧的(FIFO)
func (h *HealthChecker) Check() HealthSnapshot {
	components := map[string]ComponentHealth{
		"network":     h.checkNetwork(),
		"memory":      h.checkMemory(),
		"errors":      h.checkErrors(),
		"performance": h.checkPerformance(),
	}

	overall := StatusHealthy
	for _, comp := range components {
		switch comp.Status {
		case StatusCritical:
			overall = StatusCritical
		case StatusWarning:
			if overall != StatusCritical {
				overall = StatusWarning
			}
		}
	}

	snapshot := HealthSnapshot{
		Timestamp:       h.now().UTC(),
		Overall:         overall,
		Components:      components,
		Recommendations: h.recommendations(components),
	}

	h.mu.Lock()
	h.history = append(h.history, snapshot)
	if len(h.history) > maxHealthHistory {
		h.history = h.history[1:]
	}
	h.mu.Unlock()

	if overall != StatusHealthy {
		h.log.Warn().Str("status", string(overall)).Msg("健康检查状态异常")
	} else {
		h.log.Debug().Msg("健康检查通过")
	}

	return snapshot
}

// checkNetwork 网络健康: 基于请求成功率分档
// ≥90%健康, ≥70%警告, 其余严重; 尚无请求时为unknown
func (h *HealthChecker) checkNetwork() ComponentHealth {
	if h.metrics.RequestsMade() == 0 {
		return ComponentHealth{Status: StatusUnknown, Message: "尚无请求"}
	}

	rate := h.metrics.SuccessRate()
	switch {
	case rate >= 90:
		return ComponentHealth{Status: StatusHealthy, Metric: rate}
	case rate >= 70:
		return ComponentHealth{Status: StatusWarning, Metric: rate, Message: "网络状况一般"}
	default:
		return ComponentHealth{Status: StatusCritical, Metric: rate, Message: "网络状况严重异常"}
	}
}

// checkMemory 内存健康: 基于峰值内存分档
// <500MB健康, <1000MB警告, 1000MB及以上严重
func (h *HealthChecker) checkMemory() ComponentHealth {
	peak := h.metrics.PeakMemoryMB()
	switch {
	case peak < 500:
		return ComponentHealth{Status: StatusHealthy, Metric: peak}
	case peak < 1000:
		return ComponentHealth{Status: StatusWarning, Metric: peak, Message: "内存占用偏高"}
	default:
		return ComponentHealth{Status: StatusCritical, Metric: peak, Message: "内存占用严重超标"}
	}
}

// checkErrors 错误健康: 无错误健康; 出现人机验证或认证错误即为严重;
// 错误总数超过10为警告
func (h *HealthChecker) checkErrors() ComponentHealth {
	total := h.mon.TotalErrors()
	if total == 0 {
		return ComponentHealth{Status: StatusHealthy}
	}

	critical := h.mon.CountByKind(ErrorBotChallenge) + h.mon.CountByKind(ErrorAuth)
	if critical > 0 {
		return ComponentHealth{
			Status:  StatusCritical,
			Metric:  float64(total),
			Message: "检测到人机验证或认证错误",
		}
	}
	if total > 10 {
		return ComponentHealth{Status: StatusWarning, Metric: float64(total), Message: "错误数量偏多"}
	}
	return ComponentHealth{Status: StatusHealthy, Metric: float64(total)}
}

// checkPerformance 性能健康: 基于平均请求耗时分档
// <3秒健康, <8秒警告, 其余严重
func (h *HealthChecker) checkPerformance() ComponentHealth {
	avg := h.metrics.AverageRequestTime()
	switch {
	case avg < 3.0:
		return ComponentHealth{Status: StatusHealthy, Metric: avg}
	case avg < 8.0:
		return ComponentHealth{Status: StatusWarning, Metric: avg, Message: "请求速度偏慢"}
	default:
		return ComponentHealth{Status: StatusCritical, Metric: avg, Message: "请求速度严重过慢"}
	}
}

// recommendations 根据组件状态生成改进建议
func (h *HealthChecker) recommendations(components map[string]ComponentHealth) []string {
	var recs []string
	if components["network"].Status == StatusWarning || components["network"].Status == StatusCritical {
		recs = append(recs, "检查网络连接或降低请求频率")
	}
	if components["memory"].Status != StatusHealthy && components["memory"].Status != StatusUnknown {
		recs = append(recs, "考虑分批处理数据以降低内存占用")
	}
	if components["errors"].Status == StatusCritical {
		recs = append(recs, "检测到反爬机制,建议使用代理轮换或降低请求频率")
	} else if components["errors"].Status == StatusWarning {
		recs = append(recs, "检查错误日志并调整爬取策略")
	}
	if components["performance"].Status != StatusHealthy {
		recs = append(recs, "考虑增加请求延迟或更换代理")
	}
	return recs
}

// Trend 分析健康趋势
// 基于最近3次快照: 全部健康为stable_healthy, 全部非健康为declining,
// 最旧非健康且最新健康为improving, 其余为unstable; 样本不足3次为insufficient_data
func (h *HealthChecker) Trend() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.history) < 3 {
		return TrendInsufficientData
	}

	recent := h.history[len(h.history)-3:]
	allHealthy := true
	allUnhealthy := true
	for _, s := range recent {
		if s.Overall == StatusHealthy {
			allUnhealthy = false
		} else {
			allHealthy = false
		}
	}

	switch {
	case allHealthy:
		return TrendStableHealthy
	case allUnhealthy:
		return TrendDeclining
	case recent[2].Overall == StatusHealthy && recent[0].Overall != StatusHealthy:
		return TrendImproving
	default:
		return TrendUnstable
	}
}

// History 获取快照历史副本
func (h *HealthChecker) History() []HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HealthSnapshot, len(h.history))
	copy(out, h.history)
	return out
}

// SnapshotMap 将健康快照转换为基础类型的嵌套映射,便于外部导出
func SnapshotMap(s HealthSnapshot) map[string]interface{} {
	components := make(map[string]interface{}, len(s.Components))
	for name, comp := range s.Components {
		components[name] = map[string]interface{}{
			"status":  string(comp.Status),
			"message": comp.Message,
			"metric":  comp.Metric,
		}
	}
	return map[string]interface{}{
		"timestamp":       s.Timestamp.Format(time.RFC3339),
		"overall_status":  string(s.Overall),
		"components":      components,
		"recommendations": s.Recommendations,
	}
}
