package main

import (
	"strings"
	"testing"

	"github.com/sportfeed/betscrawler/internal/core"
	"github.com/sportfeed/betscrawler/internal/models"
)

func validFlagsConfig() *core.Config {
	return &core.Config{
		Scrape: models.ScrapeConfig{
			Sports:             []string{"football"},
			IncludePreMatch:    true,
			MaxMatchesPerSport: 50,
			BaseDelay:          2.0,
			MaxDelay:           30.0,
			MaxRetries:         3,
		},
		Output: core.OutputConfig{BaseDir: "output", Format: "json"},
	}
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.Config)
		wantErr string
	}{
		{"有效配置", func(c *core.Config) {}, ""},
		{"csv格式", func(c *core.Config) { c.Output.Format = "csv" }, ""},
		{"both格式", func(c *core.Config) { c.Output.Format = "both" }, ""},
		{"无效导出格式", func(c *core.Config) { c.Output.Format = "xml" }, "无效的导出格式"},
		{"爬取配置无效", func(c *core.Config) { c.Scrape.Sports = nil }, "至少需要指定一种运动"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validFlagsConfig()
			tt.mutate(config)
			err := ValidateFlags(config)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("期望通过验证, 实际: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("期望错误包含%q, 实际: %v", tt.wantErr, err)
			}
		})
	}
}
