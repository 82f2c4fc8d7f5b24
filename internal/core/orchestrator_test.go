package core

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sportfeed/betscrawler/internal/models"
	"github.com/sportfeed/betscrawler/internal/session"
)

// stubPage 始终成功的页面桩,返回固定的列表页HTML
type stubPage struct {
	html string
}

func (p *stubPage) Navigate(ctx context.Context, url string) (int, error) { return 200, nil }

func (p *stubPage) WaitElement(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *stubPage) WaitIdle(ctx context.Context, timeout time.Duration) error { return nil }

func (p *stubPage) ScrollHeight(ctx context.Context) (float64, error) { return 100, nil }

func (p *stubPage) ScrollToBottom(ctx context.Context) error { return nil }

func (p *stubPage) HTML(ctx context.Context) (string, error) { return p.html, nil }

func (p *stubPage) Close() error { return nil }

type stubContext struct{ page *stubPage }

func (c *stubContext) NewPage() (session.Page, error) { return c.page, nil }
func (c *stubContext) Close() error                   { return nil }

type stubBrowser struct{ brCtx *stubContext }

func (b *stubBrowser) NewContext(opts session.ContextOptions) (session.BrowsingContext, error) {
	return b.brCtx, nil
}
func (b *stubBrowser) Close() error { return nil }

type stubEngine struct{ browser *stubBrowser }

func (e *stubEngine) Launch(opts session.LaunchOptions) (session.Browser, error) {
	return e.browser, nil
}
func (e *stubEngine) Close() error { return nil }

func newStubEngine(html string) *stubEngine {
	return &stubEngine{browser: &stubBrowser{brCtx: &stubContext{page: &stubPage{html: html}}}}
}

const listPageHTML = `<div class="c-events">
	<div class="c-events__item" data-id="111222">
		<div class="c-events__teams">
			<span class="c-events__team">Arsenal</span>
			<span class="c-events__team">Chelsea</span>
		</div>
		<span class="c-events__time">18:30</span>
		<span class="c-events__league">Premier League</span>
		<a href="/en/line/football/111222">详情</a>
	</div>
</div>`

func newTestOrchestratorConfig(t *testing.T, sports []string) *Config {
	t.Helper()
	return &Config{
		Scrape: models.ScrapeConfig{
			Sports:             sports,
			IncludePreMatch:    true,
			MaxMatchesPerSport: 10,
			// 毫秒级延迟, 避免限流器在测试中产生真实等待
			BaseDelay:  0.001,
			MaxDelay:   0.01,
			MaxRetries: 1,
			RetryDelay: 0.001,
			Headless:   true,
		},
		Output: OutputConfig{BaseDir: t.TempDir(), Format: "json"},
		Alerts: AlertsConfig{
			ErrorRatePercent:    15,
			MemoryMB:            800,
			AvgRequestSeconds:   8,
			ConsecutiveFailures: 2,
		},
	}
}

func TestOrchestratorRecordsSportFailures(t *testing.T) {
	// 两项运动都未配置页面URL, 逐项失败并累计连续失败计数
	cfg := newTestOrchestratorConfig(t, []string{"cricket", "darts"})
	o := NewOrchestrator(cfg, newStubEngine(listPageHTML), zerolog.Nop())

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("运行失败: %v", err)
	}
	if report.SportsFailed != 2 || report.SportsCompleted != 0 {
		t.Errorf("失败/完成计数 = %d/%d, 期望 2/0", report.SportsFailed, report.SportsCompleted)
	}
	if got := o.alerts.ConsecutiveFailures(); got != 2 {
		t.Errorf("连续失败计数 = %d, 期望 2", got)
	}
	if got := o.mon.TotalErrors(); got != 2 {
		t.Errorf("错误记录数 = %d, 期望 2", got)
	}
}

func TestOrchestratorSuccessResetsFailureStreak(t *testing.T) {
	// 先失败一项再成功一项, 成功应重置连续失败计数
	cfg := newTestOrchestratorConfig(t, []string{"cricket", "football"})
	o := NewOrchestrator(cfg, newStubEngine(listPageHTML), zerolog.Nop())

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("运行失败: %v", err)
	}
	if report.SportsFailed != 1 || report.SportsCompleted != 1 {
		t.Errorf("失败/完成计数 = %d/%d, 期望 1/1", report.SportsFailed, report.SportsCompleted)
	}
	if report.TotalMatches != 1 {
		t.Errorf("提取比赛数 = %d, 期望 1", report.TotalMatches)
	}
	if got := o.alerts.ConsecutiveFailures(); got != 0 {
		t.Errorf("成功后连续失败计数应清零: %d", got)
	}
}
