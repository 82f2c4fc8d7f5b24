package models

import (
	"encoding/json"
	"time"
)

// RunStatus 运行状态
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"   // 执行中
	RunStatusCompleted RunStatus = "completed" // 已完成
	RunStatusFailed    RunStatus = "failed"    // 失败
)

// RunReport 运行报告
// 一次完整爬取运行的汇总,包含性能摘要、错误报告和健康快照
type RunReport struct {
	// 运行信息
	RunID     string    `json:"run_id"`     // 运行唯一ID (UUID)
	Sports    []string  `json:"sports"`     // 本次运行的运动列表
	Status    RunStatus `json:"status"`     // 运行状态
	StartTime time.Time `json:"start_time"` // 开始时间
	EndTime   time.Time `json:"end_time"`   // 结束时间

	// 提取结果
	TotalMatches     int `json:"total_matches"`     // 提取到的比赛总数
	ValidationErrors int `json:"validation_errors"` // 验证失败数
	SportsCompleted  int `json:"sports_completed"`  // 完成的运动数
	SportsFailed     int `json:"sports_failed"`     // 失败的运动数

	// 监控输出(作为普通嵌套映射原样导出)
	PerformanceSummary map[string]interface{} `json:"performance_summary"` // 性能摘要
	ErrorReport        map[string]interface{} `json:"error_report"`        // 错误报告
	HealthSnapshot     map[string]interface{} `json:"health_snapshot"`     // 最终健康快照

	// 配置快照
	Config ScrapeConfig `json:"config"`
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
