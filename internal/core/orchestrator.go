package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sportfeed/betscrawler/internal/extractors"
	"github.com/sportfeed/betscrawler/internal/models"
	"github.com/sportfeed/betscrawler/internal/monitor"
	"github.com/sportfeed/betscrawler/internal/session"
	"github.com/sportfeed/betscrawler/internal/utils"
)

// Orchestrator 提取流程编排器
// 串联浏览器会话、提取器、数据处理器与监控组件,
// 按运动逐个顺序提取,单项运动失败不中断整体运行
type Orchestrator struct {
	cfg *Config
	log zerolog.Logger

	metrics   *monitor.MetricsCollector
	mon       *monitor.Monitor
	limiter   *monitor.RateLimiter
	alerts    *monitor.AlertManager
	health    *monitor.HealthChecker
	sess      *session.BrowserSession
	processor *DataProcessor
	exporter  *Exporter
	reporter  *utils.Reporter

	now func() time.Time
}

// NewOrchestrator 创建提取流程编排器并装配所有组件
func NewOrchestrator(cfg *Config, engine session.Engine, log zerolog.Logger) *Orchestrator {
	metrics := monitor.NewMetricsCollector(log.With().Str("component", "metrics").Logger())
	mon := monitor.NewMonitor(metrics, cfg.Scrape.MaxRetries,
		time.Duration(cfg.Scrape.RetryDelay*float64(time.Second)),
		log.With().Str("component", "monitor").Logger())
	limiter := monitor.NewRateLimiter(
		time.Duration(cfg.Scrape.BaseDelay*float64(time.Second)),
		time.Duration(cfg.Scrape.MaxDelay*float64(time.Second)),
		log.With().Str("component", "ratelimiter").Logger())
	alerts := monitor.NewAlertManager(metrics, mon, monitor.AlertThresholds{
		ErrorRatePercent:    cfg.Alerts.ErrorRatePercent,
		MemoryMB:            cfg.Alerts.MemoryMB,
		RequestTimeSeconds:  cfg.Alerts.AvgRequestSeconds,
		ConsecutiveFailures: cfg.Alerts.ConsecutiveFailures,
	}, log.With().Str("component", "alerts").Logger())
	health := monitor.NewHealthChecker(metrics, mon,
		log.With().Str("component", "health").Logger())
	sess := session.NewBrowserSession(engine, &cfg.Scrape, limiter, mon,
		log.With().Str("component", "session").Logger())

	return &Orchestrator{
		cfg:       cfg,
		log:       log,
		metrics:   metrics,
		mon:       mon,
		limiter:   limiter,
		alerts:    alerts,
		health:    health,
		sess:      sess,
		processor: NewDataProcessor(&cfg.Scrape, log.With().Str("component", "processor").Logger()),
		exporter:  NewExporter(cfg.Output.BaseDir, log.With().Str("component", "exporter").Logger()),
		reporter:  utils.NewReporter(cfg.Output.BaseDir),
		now:       time.Now,
	}
}

// Run 执行完整的提取流程
// 浏览器会话启动失败视为致命错误;此后单项运动的失败只计入报告。
// 无论成功与否都返回包含监控数据的运行报告
func (o *Orchestrator) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:     uuid.New().String(),
		Sports:    o.cfg.Scrape.Sports,
		Status:    models.RunStatusRunning,
		StartTime: o.now().UTC(),
		Config:    o.cfg.Scrape,
	}

	o.log.Info().Str("run_id", report.RunID).Strs("sports", o.cfg.Scrape.Sports).Msg("🚀 开始数据提取")
	o.metrics.RecordMemorySample()

	if err := o.sess.Start(ctx); err != nil {
		o.finish(report, models.RunStatusFailed)
		return report, fmt.Errorf("启动浏览器会话失败: %w", err)
	}
	defer o.sess.Close()

	var (
		prematch  *extractors.PreMatchExtractor
		postmatch *extractors.PostMatchExtractor
	)
	if o.cfg.Scrape.IncludePreMatch {
		prematch = extractors.NewPreMatchExtractor(o.sess, &o.cfg.Scrape,
			o.log.With().Str("component", "prematch").Logger())
	}
	if o.cfg.Scrape.IncludePostMatch {
		postmatch = extractors.NewPostMatchExtractor(o.sess, &o.cfg.Scrape,
			o.log.With().Str("component", "postmatch").Logger())
	}

	bar := utils.NewProgressBar(len(o.cfg.Scrape.Sports), "提取运动数据")
	var allMatches []models.MatchData

	for _, sport := range o.cfg.Scrape.Sports {
		if err := ctx.Err(); err != nil {
			o.log.Warn().Err(err).Msg("运行被取消")
			break
		}

		matches, err := o.extractSport(ctx, sport, prematch, postmatch)
		if err != nil {
			report.SportsFailed++
			o.mon.RecordError(monitor.ClassifyErr(err), err.Error(), monitor.ErrorContext{
				Detail: fmt.Sprintf("运动提取失败: %s", sport),
			})
			o.alerts.RecordFailure()
		} else {
			report.SportsCompleted++
			allMatches = append(allMatches, matches...)
			o.alerts.RecordSuccess()
		}

		// 每轮提取后采样内存并检查告警与健康状态
		o.metrics.RecordMemorySample()
		o.alerts.CheckAlerts()
		o.health.Check()

		_ = bar.Add(1)
	}

	if len(allMatches) > 0 {
		o.export(allMatches)
	} else {
		o.log.Warn().Msg("⚠️ 未提取到任何数据")
	}

	o.finish(report, models.RunStatusCompleted)
	report.TotalMatches = len(allMatches)
	report.ValidationErrors = len(o.processor.ValidationErrors())

	if _, err := o.reporter.WriteRunReport(report); err != nil {
		o.log.Warn().Err(err).Msg("写入运行报告失败")
	}

	o.log.Info().
		Int("matches", report.TotalMatches).
		Int("sports_completed", report.SportsCompleted).
		Int("sports_failed", report.SportsFailed).
		Msg("✅ 数据提取完成")

	return report, nil
}

// extractSport 提取单项运动的数据
func (o *Orchestrator) extractSport(ctx context.Context, sport string, prematch *extractors.PreMatchExtractor, postmatch *extractors.PostMatchExtractor) ([]models.MatchData, error) {
	baseURL, ok := SportURL(sport)
	if !ok {
		return nil, fmt.Errorf("未配置运动的页面URL: %s", sport)
	}

	o.log.Info().Str("sport", sport).Msg("开始提取运动数据")

	var rawMatches []map[string]interface{}

	if prematch != nil {
		raws := prematch.ExtractMatchesList(ctx, sport, baseURL)
		if o.needsDetail() {
			for i, raw := range raws {
				raws[i] = prematch.ExtractDetailedMatchData(ctx, raw)
			}
		}
		o.recordExtractions(raws)
		rawMatches = append(rawMatches, raws...)
	}

	if postmatch != nil {
		raws := postmatch.ExtractFinishedMatches(ctx, sport, baseURL)
		if o.cfg.Scrape.IncludeStatistics {
			for i, raw := range raws {
				raws[i] = postmatch.ExtractDetailedMatchResults(ctx, raw)
			}
		}
		o.recordExtractions(raws)
		rawMatches = append(rawMatches, raws...)
	}

	if len(rawMatches) == 0 {
		return nil, fmt.Errorf("未从页面提取到比赛数据: %s", sport)
	}

	processed := o.processor.ProcessBatch(rawMatches)
	o.log.Info().Str("sport", sport).Int("matches", len(processed)).Msg("运动数据提取完成")
	return processed, nil
}

// needsDetail 是否需要访问比赛详情页
func (o *Orchestrator) needsDetail() bool {
	return o.cfg.Scrape.IncludeLineups || o.cfg.Scrape.IncludeWeather || o.cfg.Scrape.IncludeStatistics
}

// recordExtractions 上报提取计数与数据体积
func (o *Orchestrator) recordExtractions(raws []map[string]interface{}) {
	for _, raw := range raws {
		size := int64(0)
		if data, err := json.Marshal(raw); err == nil {
			size = int64(len(data))
		}
		o.metrics.RecordExtraction(size)
	}
}

// export 按配置的格式导出比赛数据
func (o *Orchestrator) export(matches []models.MatchData) {
	stamp := utils.Timestamp(o.now())

	if o.cfg.Output.Format == "json" || o.cfg.Output.Format == "both" {
		if _, err := o.exporter.ExportJSON(matches, fmt.Sprintf("matches_%s.json", stamp)); err != nil {
			o.log.Error().Err(err).Msg("JSON导出失败")
		}
	}
	if o.cfg.Output.Format == "csv" || o.cfg.Output.Format == "both" {
		if _, err := o.exporter.ExportCSV(matches, fmt.Sprintf("matches_%s.csv", stamp)); err != nil {
			o.log.Error().Err(err).Msg("CSV导出失败")
		}
	}
}

// finish 结束运行,固化指标并填充监控输出
func (o *Orchestrator) finish(report *models.RunReport, status models.RunStatus) {
	o.metrics.Finalize()

	report.Status = status
	report.EndTime = o.now().UTC()
	report.PerformanceSummary = o.metrics.Summarize()
	report.ErrorReport = o.mon.ErrorReport()
	report.HealthSnapshot = monitor.SnapshotMap(o.health.Check())
}

// HealthChecker 暴露健康检查器,用于运行期间的外部探测
func (o *Orchestrator) HealthChecker() *monitor.HealthChecker {
	return o.health
}
