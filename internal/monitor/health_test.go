package monitor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestHealthChecker() (*HealthChecker, *MetricsCollector, *Monitor) {
	metrics := newTestMetrics()
	mon := NewMonitor(metrics, 3, time.Second, zerolog.Nop())
	h := NewHealthChecker(metrics, mon, zerolog.Nop())
	return h, metrics, mon
}

func TestHealthNetworkBands(t *testing.T) {
	tests := []struct {
		name       string
		successes  int
		failures   int
		wantStatus HealthStatus
	}{
		{"无请求时未知", 0, 0, StatusUnknown},
		{"成功率90%健康", 9, 1, StatusHealthy},
		{"成功率80%警告", 8, 2, StatusWarning},
		{"成功率50%严重", 5, 5, StatusCritical},
		{"全部成功健康", 10, 0, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, metrics, _ := newTestHealthChecker()
			for i := 0; i < tt.successes; i++ {
				metrics.RecordRequestOutcome(true, 1.0)
			}
			for i := 0; i < tt.failures; i++ {
				metrics.RecordRequestOutcome(false, 1.0)
			}
			snap := h.Check()
			if got := snap.Components["network"].Status; got != tt.wantStatus {
				t.Errorf("network状态 = %s, 期望 %s", got, tt.wantStatus)
			}
		})
	}
}

func TestHealthMemoryBands(t *testing.T) {
	tests := []struct {
		name       string
		memoryMB   float64
		wantStatus HealthStatus
	}{
		{"低内存健康", 200, StatusHealthy},
		{"临界值499健康", 499.9, StatusHealthy},
		{"500进入警告", 500, StatusWarning},
		{"临界值999警告", 999.9, StatusWarning},
		{"1000进入严重", 1000, StatusCritical},
		{"超高内存严重", 1500, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, metrics, _ := newTestHealthChecker()
			metrics.memMB = func() (float64, error) { return tt.memoryMB, nil }
			metrics.RecordMemorySample()
			snap := h.Check()
			if got := snap.Components["memory"].Status; got != tt.wantStatus {
				t.Errorf("memory状态 = %s, 期望 %s", got, tt.wantStatus)
			}
		})
	}
}

func TestHealthErrorsComponent(t *testing.T) {
	t.Run("无错误健康", func(t *testing.T) {
		h, _, _ := newTestHealthChecker()
		if got := h.Check().Components["errors"].Status; got != StatusHealthy {
			t.Errorf("errors状态 = %s, 期望 healthy", got)
		}
	})

	t.Run("人机验证错误严重", func(t *testing.T) {
		h, _, mon := newTestHealthChecker()
		mon.RecordError(ErrorBotChallenge, "captcha detected", ErrorContext{})
		if got := h.Check().Components["errors"].Status; got != StatusCritical {
			t.Errorf("errors状态 = %s, 期望 critical", got)
		}
	})

	t.Run("认证错误严重", func(t *testing.T) {
		h, _, mon := newTestHealthChecker()
		mon.RecordError(ErrorAuth, "403 forbidden", ErrorContext{})
		if got := h.Check().Components["errors"].Status; got != StatusCritical {
			t.Errorf("errors状态 = %s, 期望 critical", got)
		}
	})

	t.Run("普通错误超过10警告", func(t *testing.T) {
		h, _, mon := newTestHealthChecker()
		for i := 0; i < 11; i++ {
			mon.RecordError(ErrorNetwork, "network error", ErrorContext{})
		}
		if got := h.Check().Components["errors"].Status; got != StatusWarning {
			t.Errorf("errors状态 = %s, 期望 warning", got)
		}
	})

	t.Run("少量普通错误健康", func(t *testing.T) {
		h, _, mon := newTestHealthChecker()
		mon.RecordError(ErrorParsing, "parse error", ErrorContext{})
		if got := h.Check().Components["errors"].Status; got != StatusHealthy {
			t.Errorf("errors状态 = %s, 期望 healthy", got)
		}
	})
}

func TestHealthPerformanceBands(t *testing.T) {
	tests := []struct {
		name       string
		duration   float64
		wantStatus HealthStatus
	}{
		{"快速请求健康", 1.5, StatusHealthy},
		{"偏慢请求警告", 5.0, StatusWarning},
		{"严重过慢", 9.0, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, metrics, _ := newTestHealthChecker()
			metrics.RecordRequestOutcome(true, tt.duration)
			snap := h.Check()
			if got := snap.Components["performance"].Status; got != tt.wantStatus {
				t.Errorf("performance状态 = %s, 期望 %s", got, tt.wantStatus)
			}
		})
	}
}

func TestHealthOverallWorstComponent(t *testing.T) {
	h, metrics, mon := newTestHealthChecker()

	// 网络健康但错误组件严重,整体取最差
	for i := 0; i < 10; i++ {
		metrics.RecordRequestOutcome(true, 1.0)
	}
	mon.RecordError(ErrorBotChallenge, "captcha", ErrorContext{})

	snap := h.Check()
	if snap.Overall != StatusCritical {
		t.Errorf("整体状态 = %s, 期望 critical", snap.Overall)
	}
	if len(snap.Recommendations) == 0 {
		t.Error("严重状态应附带改进建议")
	}
}

func TestHealthUnknownDoesNotDegrade(t *testing.T) {
	h, _, _ := newTestHealthChecker()

	// 无任何请求: network为unknown, 其余组件健康, 整体仍为healthy
	snap := h.Check()
	if snap.Overall != StatusHealthy {
		t.Errorf("unknown组件不应拉低整体状态, 实际: %s", snap.Overall)
	}
}

func TestHealthHistoryBounded(t *testing.T) {
	h, _, _ := newTestHealthChecker()

	for i := 0; i < 12; i++ {
		h.Check()
	}
	if got := len(h.History()); got != maxHealthHistory {
		t.Errorf("历史长度 = %d, 期望 %d", got, maxHealthHistory)
	}
}

func TestHealthTrend(t *testing.T) {
	t.Run("样本不足", func(t *testing.T) {
		h, _, _ := newTestHealthChecker()
		h.Check()
		h.Check()
		if got := h.Trend(); got != TrendInsufficientData {
			t.Errorf("Trend() = %s, 期望 insufficient_data", got)
		}
	})

	t.Run("持续健康", func(t *testing.T) {
		h, _, _ := newTestHealthChecker()
		for i := 0; i < 3; i++ {
			h.Check()
		}
		if got := h.Trend(); got != TrendStableHealthy {
			t.Errorf("Trend() = %s, 期望 stable_healthy", got)
		}
	})

	t.Run("持续恶化", func(t *testing.T) {
		h, metrics, _ := newTestHealthChecker()
		metrics.RecordRequestOutcome(false, 9.0)
		for i := 0; i < 3; i++ {
			h.Check()
		}
		if got := h.Trend(); got != TrendDeclining {
			t.Errorf("Trend() = %s, 期望 declining", got)
		}
	})

	t.Run("正在恢复", func(t *testing.T) {
		h, metrics, _ := newTestHealthChecker()
		// 第一次检查时请求过慢, 之后大量快速请求把平均值拉回健康区间
		metrics.RecordRequestOutcome(false, 9.0)
		h.Check()
		for i := 0; i < 99; i++ {
			metrics.RecordRequestOutcome(true, 0.5)
		}
		h.Check()
		h.Check()
		if got := h.Trend(); got != TrendImproving {
			t.Errorf("Trend() = %s, 期望 improving", got)
		}
	})
}
