package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sportfeed/betscrawler/internal/core"
	"github.com/sportfeed/betscrawler/internal/session"
	"github.com/sportfeed/betscrawler/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 提取参数
	sports            []string
	maxMatches        int
	baseDelay         float64
	includePreMatch   bool
	includePostMatch  bool
	includeWeather    bool
	includeLineups    bool
	includeStatistics bool
	headless          bool
	debug             bool
	outputDir         string
	outputFormat      string
)

var rootCmd = &cobra.Command{
	Use:   "betscrawler",
	Short: "体育博彩数据提取工具",
	Long: `BetsCrawler - 1xbet体育数据提取工具 (Go版本)

自动化提取体育比赛数据,支持:
  • 赛前数据提取(赔率、阵容、天气)
  • 赛后数据提取(比分、事件、统计)
  • 自适应请求限流与错误分类
  • 运行健康监控与阈值告警
  • JSON/CSV格式导出

使用示例:
  # 提取足球赛前数据
  betscrawler --sports football

  # 提取多项运动的赛前和赛后数据
  betscrawler --sports football,tennis --post-match --statistics

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if debug {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			cancel()
		}()

		// 加载并合并配置
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig.MergeCLIFlags(sports, maxMatches, baseDelay, headless, debug, outputDir)

		// 提取选项的命令行覆盖
		if cmd.Flags().Changed("pre-match") {
			appConfig.Scrape.IncludePreMatch = includePreMatch
		}
		if cmd.Flags().Changed("post-match") {
			appConfig.Scrape.IncludePostMatch = includePostMatch
		}
		if cmd.Flags().Changed("weather") {
			appConfig.Scrape.IncludeWeather = includeWeather
		}
		if cmd.Flags().Changed("lineups") {
			appConfig.Scrape.IncludeLineups = includeLineups
		}
		if cmd.Flags().Changed("statistics") {
			appConfig.Scrape.IncludeStatistics = includeStatistics
		}
		if outputFormat != "" {
			appConfig.Output.Format = outputFormat
		}

		// 验证参数
		if err := ValidateFlags(appConfig); err != nil {
			return err
		}

		// 创建编排器并执行
		orchestrator := core.NewOrchestrator(appConfig, session.NewRodEngine(), utils.Logger)
		report, err := orchestrator.Run(ctx)
		if err != nil {
			return fmt.Errorf("提取失败: %w", err)
		}

		// 显示统计结果
		fmt.Println("\n==================================================")
		fmt.Println("📊 提取统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 比赛总数: %d\n", report.TotalMatches)
		fmt.Printf("✅ 完成运动数: %d\n", report.SportsCompleted)
		fmt.Printf("❌ 失败运动数: %d\n", report.SportsFailed)
		fmt.Printf("❌ 验证失败数: %d\n", report.ValidationErrors)
		fmt.Printf("⏱️  总耗时: %.2f秒\n", report.EndTime.Sub(report.StartTime).Seconds())
		fmt.Println("==================================================")

		utils.Info("✨ 提取任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("BetsCrawler %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 体育数据提取工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 提取参数
	rootCmd.Flags().StringSliceVarP(&sports, "sports", "s", nil, "要提取的运动列表,逗号分隔 (football,tennis,...)")
	rootCmd.Flags().IntVarP(&maxMatches, "max-matches", "n", 0, "每种运动最大比赛数 (1-1000)")
	rootCmd.Flags().Float64Var(&baseDelay, "base-delay", 0, "基础请求延迟(秒) (0.5-10)")
	rootCmd.Flags().BoolVar(&includePreMatch, "pre-match", true, "提取赛前数据")
	rootCmd.Flags().BoolVar(&includePostMatch, "post-match", false, "提取赛后数据")
	rootCmd.Flags().BoolVar(&includeWeather, "weather", false, "提取天气数据(仅户外运动)")
	rootCmd.Flags().BoolVar(&includeLineups, "lineups", false, "提取阵容数据")
	rootCmd.Flags().BoolVar(&includeStatistics, "statistics", false, "提取详细统计数据")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "调试模式")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录")
	rootCmd.Flags().StringVar(&outputFormat, "format", "", "导出格式 (json|csv|both)")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
