package models

import (
	"fmt"
	"strings"
	"time"
)

// 支持的运动类型
var ValidSports = map[string]bool{
	"football":   true,
	"tennis":     true,
	"basketball": true,
	"hockey":     true,
	"volleyball": true,
	"baseball":   true,
	"handball":   true,
}

// 室外运动(天气数据提取仅对这些运动有意义)
var OutdoorSports = map[string]bool{
	"football": true,
	"baseball": true,
	"tennis":   true,
}

// ProxyConfig 代理配置
// 原样透传给浏览器上下文创建,核心逻辑不解析其内容
type ProxyConfig struct {
	Server      string   `json:"server" mapstructure:"server"`             // 代理服务器地址
	Username    string   `json:"username" mapstructure:"username"`         // 认证用户名
	Password    string   `json:"-" mapstructure:"password"`                // 认证密码(不序列化)
	CountryCode string   `json:"country_code" mapstructure:"country_code"` // 国家提示
	Groups      []string `json:"groups" mapstructure:"groups"`             // 代理组提示
}

// ScrapeConfig 爬取配置
type ScrapeConfig struct {
	// 运动与过滤
	Sports       []string `json:"sports" mapstructure:"sports"`             // 要提取的运动列表
	StartDate    string   `json:"start_date" mapstructure:"start_date"`     // 开始日期 (YYYY-MM-DD, 可选)
	EndDate      string   `json:"end_date" mapstructure:"end_date"`         // 结束日期 (YYYY-MM-DD, 可选)
	Competitions []string `json:"competitions" mapstructure:"competitions"` // 联赛过滤
	Countries    []string `json:"countries" mapstructure:"countries"`       // 国家过滤

	// 提取选项
	IncludePreMatch   bool `json:"include_pre_match" mapstructure:"include_pre_match"`     // 提取赛前数据
	IncludePostMatch  bool `json:"include_post_match" mapstructure:"include_post_match"`   // 提取赛后数据
	IncludeWeather    bool `json:"include_weather" mapstructure:"include_weather"`         // 提取天气数据
	IncludeLineups    bool `json:"include_lineups" mapstructure:"include_lineups"`         // 提取阵容数据
	IncludeStatistics bool `json:"include_statistics" mapstructure:"include_statistics"`   // 提取详细统计

	// 限制与性能
	MaxMatchesPerSport int     `json:"max_matches_per_sport" mapstructure:"max_matches_per_sport"` // 每种运动最大比赛数 (1-1000)
	BaseDelay          float64 `json:"base_delay" mapstructure:"base_delay"`                       // 基础请求延迟(秒) (0.5-10)
	MaxDelay           float64 `json:"max_delay" mapstructure:"max_delay"`                         // 最大自适应延迟(秒)
	MaxRetries         int     `json:"max_retries" mapstructure:"max_retries"`                     // 监控层重试次数
	RetryDelay         float64 `json:"retry_delay" mapstructure:"retry_delay"`                     // 监控层重试基础延迟(秒)

	// 技术设置
	Proxy    *ProxyConfig `json:"proxy,omitempty" mapstructure:"proxy"` // 可选代理
	Headless bool         `json:"headless" mapstructure:"headless"`     // 无头模式
	Debug    bool         `json:"debug" mapstructure:"debug"`           // 调试模式
}

// Validate 验证配置
func (c *ScrapeConfig) Validate() error {
	if len(c.Sports) == 0 {
		return fmt.Errorf("至少需要指定一种运动")
	}
	for _, sport := range c.Sports {
		if !ValidSports[sport] {
			return fmt.Errorf("无效的运动类型: %s", sport)
		}
	}
	if !c.IncludePreMatch && !c.IncludePostMatch {
		return fmt.Errorf("赛前和赛后数据至少需要启用一项")
	}
	if c.MaxMatchesPerSport < 1 || c.MaxMatchesPerSport > 1000 {
		return fmt.Errorf("每种运动最大比赛数必须在1-1000之间")
	}
	if c.BaseDelay < 0.5 || c.BaseDelay > 10.0 {
		return fmt.Errorf("基础延迟必须在0.5-10秒之间")
	}
	if c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("最大延迟不能小于基础延迟")
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("重试次数必须在0-10之间")
	}

	// 验证日期范围
	if c.StartDate != "" && c.EndDate != "" {
		start, err := time.Parse("2006-01-02", c.StartDate)
		if err != nil {
			return fmt.Errorf("开始日期格式无效: %s", c.StartDate)
		}
		end, err := time.Parse("2006-01-02", c.EndDate)
		if err != nil {
			return fmt.Errorf("结束日期格式无效: %s", c.EndDate)
		}
		if start.After(end) {
			return fmt.Errorf("开始日期必须早于结束日期")
		}
		if end.Sub(start) > 365*24*time.Hour {
			return fmt.Errorf("日期范围不能超过365天")
		}
	}

	return nil
}

// ShouldExtractWeather 判断指定运动是否需要提取天气数据
// 仅当启用天气提取且该运动为室外运动时为真
func (c *ScrapeConfig) ShouldExtractWeather(sport string) bool {
	return c.IncludeWeather && OutdoorSports[strings.ToLower(sport)]
}
