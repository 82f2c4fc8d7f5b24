package monitor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestAlertManager() (*AlertManager, *MetricsCollector, *Monitor) {
	metrics := newTestMetrics()
	mon := NewMonitor(metrics, 3, time.Second, zerolog.Nop())
	a := NewAlertManager(metrics, mon, DefaultAlertThresholds(), zerolog.Nop())
	return a, metrics, mon
}

func TestAlertHighErrorRateNeedsMinimumRequests(t *testing.T) {
	a, metrics, mon := newTestAlertManager()

	// 10次请求不足以触发错误率告警(需要严格大于10)
	for i := 0; i < 10; i++ {
		metrics.RecordRequestOutcome(false, 1.0)
		mon.RecordError(ErrorNetwork, "network error", ErrorContext{})
	}
	if fired := a.CheckAlerts(); len(fired) != 0 {
		t.Errorf("样本不足时不应触发告警: %v", fired)
	}

	// 第11次请求后错误率100%,超过15%阈值
	metrics.RecordRequestOutcome(false, 1.0)
	mon.RecordError(ErrorNetwork, "network error", ErrorContext{})
	fired := a.CheckAlerts()
	if len(fired) != 1 || fired[0] != AlertHighErrorRate {
		t.Errorf("期望触发high_error_rate, 实际: %v", fired)
	}
}

func TestAlertErrorRateBelowThreshold(t *testing.T) {
	a, metrics, mon := newTestAlertManager()

	// 20次请求中2次错误(10%),低于15%阈值
	for i := 0; i < 20; i++ {
		metrics.RecordRequestOutcome(i >= 2, 1.0)
	}
	mon.RecordError(ErrorNetwork, "network error", ErrorContext{})
	mon.RecordError(ErrorNetwork, "network error", ErrorContext{})

	if fired := a.CheckAlerts(); len(fired) != 0 {
		t.Errorf("错误率低于阈值不应触发告警: %v", fired)
	}
}

func TestAlertHighMemory(t *testing.T) {
	a, metrics, _ := newTestAlertManager()

	metrics.memMB = func() (float64, error) { return 850, nil }
	metrics.RecordMemorySample()

	fired := a.CheckAlerts()
	if len(fired) != 1 || fired[0] != AlertHighMemory {
		t.Errorf("期望触发high_memory, 实际: %v", fired)
	}
}

func TestAlertSlowRequests(t *testing.T) {
	a, metrics, _ := newTestAlertManager()

	metrics.RecordRequestOutcome(true, 9.0)
	metrics.RecordRequestOutcome(true, 10.0)

	fired := a.CheckAlerts()
	if len(fired) != 1 || fired[0] != AlertSlowRequests {
		t.Errorf("期望触发slow_requests, 实际: %v", fired)
	}
}

func TestAlertCooldown(t *testing.T) {
	a, metrics, _ := newTestAlertManager()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return current }

	metrics.memMB = func() (float64, error) { return 900, nil }
	metrics.RecordMemorySample()

	if fired := a.CheckAlerts(); len(fired) != 1 {
		t.Fatalf("首次检查应触发告警: %v", fired)
	}

	// 冷却期内(300秒)同类告警被抑制
	current = current.Add(300 * time.Second)
	if fired := a.CheckAlerts(); len(fired) != 0 {
		t.Errorf("冷却期内不应重复触发: %v", fired)
	}

	// 冷却期过后再次触发
	current = current.Add(time.Second)
	if fired := a.CheckAlerts(); len(fired) != 1 {
		t.Errorf("冷却期过后应再次触发: %v", fired)
	}
}

func TestAlertConsecutiveFailures(t *testing.T) {
	a, _, _ := newTestAlertManager()

	fakeNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fakeNow }

	for i := 0; i < 4; i++ {
		a.RecordFailure()
	}
	if _, ok := a.lastAlertTime[AlertConsecutiveFailures]; ok {
		t.Error("未达阈值不应触发连续失败告警")
	}

	a.RecordFailure()
	if _, ok := a.lastAlertTime[AlertConsecutiveFailures]; !ok {
		t.Error("达到5次连续失败应触发告警")
	}
}

func TestAlertRecordSuccessResetsStreak(t *testing.T) {
	a, _, _ := newTestAlertManager()

	for i := 0; i < 4; i++ {
		a.RecordFailure()
	}
	a.RecordSuccess()
	a.RecordFailure()

	if a.consecutiveFailures != 1 {
		t.Errorf("成功后连续失败计数应重置, 实际: %d", a.consecutiveFailures)
	}
}

func TestAlertMultipleFired(t *testing.T) {
	a, metrics, mon := newTestAlertManager()

	metrics.memMB = func() (float64, error) { return 900, nil }
	metrics.RecordMemorySample()
	for i := 0; i < 12; i++ {
		metrics.RecordRequestOutcome(false, 9.0)
		mon.RecordError(ErrorTimeout, "timeout", ErrorContext{})
	}

	fired := a.CheckAlerts()
	if len(fired) != 3 {
		t.Errorf("三个条件同时满足应触发3个告警, 实际: %v", fired)
	}
}
