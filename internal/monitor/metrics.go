package monitor

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// 内存采样历史上限,超过后丢弃最旧样本
const maxMemorySamples = 1024

// 内存占用警告阈值(MB)
const memoryWarnMB = 500

// MetricsCollector 性能指标收集器
// 职责: 累积整个运行期间的计数器,并按需生成派生摘要
type MetricsCollector struct {
	mu sync.Mutex

	startTime time.Time
	endTime   time.Time
	finalized bool

	requestsMade       int
	successfulRequests int
	failedRequests     int
	matchesExtracted   int
	dataSizeBytes      int64

	requestTimes  []float64 // 每次请求耗时(秒)
	memorySamples []float64 // 内存采样(MB),有界
	peakMemoryMB  float64

	// finalize后固定的派生值
	duration           float64
	averageRequestTime float64

	log zerolog.Logger

	// 测试注入点
	now   func() time.Time
	memMB func() (float64, error)
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector(log zerolog.Logger) *MetricsCollector {
	m := &MetricsCollector{
		log:   log,
		now:   time.Now,
		memMB: processMemoryMB,
	}
	m.startTime = m.now()
	return m
}

// processMemoryMB 获取当前进程RSS内存占用(MB)
func processMemoryMB() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / 1024 / 1024, nil
}

// RecordRequestOutcome 记录一次请求结果
func (m *MetricsCollector) RecordRequestOutcome(success bool, durationSeconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestsMade++
	if success {
		m.successfulRequests++
	} else {
		m.failedRequests++
	}
	m.requestTimes = append(m.requestTimes, durationSeconds)
}

// RecordExtraction 记录一次成功提取
func (m *MetricsCollector) RecordExtraction(sizeBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.matchesExtracted++
	m.dataSizeBytes += sizeBytes
}

// RecordMemorySample 采样当前进程内存
// 采样失败只记录debug日志,不影响调用方
func (m *MetricsCollector) RecordMemorySample() {
	memMB, err := m.memMB()
	if err != nil {
		m.log.Debug().Err(err).Msg("内存采样失败")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.memorySamples = append(m.memorySamples, memMB)
	if len(m.memorySamples) > maxMemorySamples {
		m.memorySamples = m.memorySamples[1:]
	}
	if memMB > m.peakMemoryMB {
		m.peakMemoryMB = memMB
	}

	if memMB > memoryWarnMB {
		m.log.Warn().Float64("memory_mb", memMB).Msg("内存占用过高")
	}
}

// Finalize 结束指标收集,计算派生值
// 幂等: 重复调用不改变end_time和派生字段
func (m *MetricsCollector) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized {
		return
	}
	m.finalized = true
	m.endTime = m.now()
	m.duration = m.endTime.Sub(m.startTime).Seconds()
	m.averageRequestTime = mean(m.requestTimes)
}

// Summarize 生成性能摘要快照
// 输出为基础类型的嵌套映射,可直接导出到任意下游存储
// 除法全部带零值保护: 无请求时成功率为0,零时长时提取速率为0
func (m *MetricsCollector) Summarize() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.duration
	if !m.finalized {
		duration = m.now().Sub(m.startTime).Seconds()
	}

	successRate := 0.0
	if m.requestsMade > 0 {
		successRate = float64(m.successfulRequests) / float64(m.requestsMade) * 100
	}

	extractionRate := 0.0
	if duration > 0 {
		extractionRate = float64(m.matchesExtracted) / duration
	}

	avgRequestTime := m.averageRequestTime
	if !m.finalized {
		avgRequestTime = mean(m.requestTimes)
	}

	var endTime interface{}
	if m.finalized {
		endTime = m.endTime.UTC().Format(time.RFC3339)
	}

	return map[string]interface{}{
		"execution_summary": map[string]interface{}{
			"total_duration": duration,
			"start_time":     m.startTime.UTC().Format(time.RFC3339),
			"end_time":       endTime,
		},
		"request_metrics": map[string]interface{}{
			"total_requests":       m.requestsMade,
			"successful_requests":  m.successfulRequests,
			"failed_requests":      m.failedRequests,
			"success_rate":         successRate,
			"average_request_time": avgRequestTime,
		},
		"extraction_metrics": map[string]interface{}{
			"matches_extracted":  m.matchesExtracted,
			"total_data_size_mb": float64(m.dataSizeBytes) / 1024 / 1024,
			"extraction_rate":    extractionRate,
		},
		"memory_metrics": map[string]interface{}{
			"peak_memory_mb":    m.peakMemoryMB,
			"average_memory_mb": mean(m.memorySamples),
		},
	}
}

// RequestsMade 总请求数
func (m *MetricsCollector) RequestsMade() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestsMade
}

// SuccessRate 成功率(百分比),无请求时为0
func (m *MetricsCollector) SuccessRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requestsMade == 0 {
		return 0
	}
	return float64(m.successfulRequests) / float64(m.requestsMade) * 100
}

// AverageRequestTime 平均请求耗时(秒)
func (m *MetricsCollector) AverageRequestTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized {
		return m.averageRequestTime
	}
	return mean(m.requestTimes)
}

// PeakMemoryMB 峰值内存(MB)
func (m *MetricsCollector) PeakMemoryMB() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peakMemoryMB
}

// MatchesExtracted 提取到的比赛数
func (m *MetricsCollector) MatchesExtracted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesExtracted
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
