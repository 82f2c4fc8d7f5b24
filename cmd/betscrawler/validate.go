package main

import (
	"fmt"

	"github.com/sportfeed/betscrawler/internal/core"
)

// 支持的导出格式
var validFormats = map[string]bool{
	"json": true,
	"csv":  true,
	"both": true,
}

// ValidateFlags 验证合并后的配置
func ValidateFlags(config *core.Config) error {
	// 爬取配置自身的验证
	if err := config.Scrape.Validate(); err != nil {
		return err
	}

	// 所有运动必须有对应的页面URL
	for _, sport := range config.Scrape.Sports {
		if _, ok := core.SportURL(sport); !ok {
			return fmt.Errorf("不支持的运动类型: %s", sport)
		}
	}

	// 验证导出格式
	if !validFormats[config.Output.Format] {
		return fmt.Errorf("无效的导出格式: %s (有效值: json, csv, both)", config.Output.Format)
	}

	return nil
}
