package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/sportfeed/betscrawler/internal/models"
)

// 各运动的实况页面URL
var sportURLs = map[string]string{
	"football":   "https://1xbet.com/en/live/football",
	"tennis":     "https://1xbet.com/en/live/tennis",
	"basketball": "https://1xbet.com/en/live/basketball",
	"hockey":     "https://1xbet.com/en/live/ice-hockey",
	"volleyball": "https://1xbet.com/en/live/volleyball",
	"baseball":   "https://1xbet.com/en/live/baseball",
	"handball":   "https://1xbet.com/en/live/handball",
}

// SportURL 获取指定运动的实况页面URL
func SportURL(sport string) (string, bool) {
	url, ok := sportURLs[sport]
	return url, ok
}

// Config 应用程序配置
type Config struct {
	Scrape  models.ScrapeConfig `mapstructure:"scrape"`
	Logging LoggingConfig       `mapstructure:"logging"`
	Output  OutputConfig        `mapstructure:"output"`
	Alerts  AlertsConfig        `mapstructure:"alerts"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"` // 数据输出目录
	Format  string `mapstructure:"format"`   // 导出格式: json / csv / both
}

// AlertsConfig 告警阈值配置
type AlertsConfig struct {
	ErrorRatePercent    float64 `mapstructure:"error_rate_percent"`
	MemoryMB            float64 `mapstructure:"memory_mb"`
	AvgRequestSeconds   float64 `mapstructure:"avg_request_seconds"`
	ConsecutiveFailures int     `mapstructure:"consecutive_failures"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".betscrawler"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	v.SetDefault("scrape.sports", []string{"football"})
	v.SetDefault("scrape.include_pre_match", true)
	v.SetDefault("scrape.include_post_match", false)
	v.SetDefault("scrape.include_weather", false)
	v.SetDefault("scrape.include_lineups", false)
	v.SetDefault("scrape.include_statistics", true)
	v.SetDefault("scrape.max_matches_per_sport", 50)
	v.SetDefault("scrape.base_delay", 2.0)
	v.SetDefault("scrape.max_delay", 30.0)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.retry_delay", 5.0)
	v.SetDefault("scrape.headless", true)
	v.SetDefault("scrape.debug", false)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.format", "json")

	// 告警阈值默认值
	v.SetDefault("alerts.error_rate_percent", 15.0)
	v.SetDefault("alerts.memory_mb", 800.0)
	v.SetDefault("alerts.avg_request_seconds", 8.0)
	v.SetDefault("alerts.consecutive_failures", 5)
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(sports []string, maxMatches int, baseDelay float64, headless, debug bool, outputDir string) {
	if len(sports) > 0 {
		c.Scrape.Sports = sports
	}
	if maxMatches > 0 {
		c.Scrape.MaxMatchesPerSport = maxMatches
	}
	if baseDelay > 0 {
		c.Scrape.BaseDelay = baseDelay
	}
	c.Scrape.Headless = headless
	c.Scrape.Debug = debug
	if outputDir != "" {
		c.Output.BaseDir = outputDir
	}
}
