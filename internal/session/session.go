package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sportfeed/betscrawler/internal/models"
	"github.com/sportfeed/betscrawler/internal/monitor"
)

// State 会话状态
type State int

const (
	StateUninitialized State = iota // 未初始化
	StateStarting                   // 正在启动
	StateReady                      // 就绪
	StateNavigating                 // 导航中
	StateClosing                    // 正在关闭
	StateClosed                     // 已关闭
)

// String 状态名称
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateNavigating:
		return "navigating"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrSessionStart 会话启动失败
var ErrSessionStart = errors.New("浏览器会话启动失败")

// ErrSessionNotReady 会话未就绪
var ErrSessionNotReady = errors.New("浏览器会话未就绪")

const (
	maxNavigateAttempts = 3                // 导航最大尝试次数
	navigateTimeout     = 30 * time.Second // 单次导航超时
	selectorTimeout     = 10 * time.Second // 等待选择器超时
	idleTimeout         = 15 * time.Second // 等待网络空闲超时
	scrollSettle        = time.Second      // 每次滚动后等待内容加载的时间
)

// BrowserSession 浏览器会话
// 管理浏览器的完整生命周期,导航内置限流、错误分类与重试,
// 所有请求结果均回报给监控组件
type BrowserSession struct {
	mu sync.Mutex

	engine  Engine
	browser Browser
	brCtx   BrowsingContext
	page    Page
	state   State

	cfg     *models.ScrapeConfig
	limiter *monitor.RateLimiter
	mon     *monitor.Monitor

	log zerolog.Logger

	// 测试注入点
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBrowserSession 创建浏览器会话
func NewBrowserSession(engine Engine, cfg *models.ScrapeConfig, limiter *monitor.RateLimiter, mon *monitor.Monitor, log zerolog.Logger) *BrowserSession {
	return &BrowserSession{
		engine:  engine,
		state:   StateUninitialized,
		cfg:     cfg,
		limiter: limiter,
		mon:     mon,
		log:     log,
		sleep:   sleepCtx,
	}
}

// sleepCtx 可被context取消的休眠
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// State 获取当前会话状态
func (s *BrowserSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start 启动浏览器会话
// 依次启动浏览器、创建隔离的浏览上下文(随机User-Agent、1920x1080视口、
// 资源拦截)并在其中打开页面,任一步骤失败时按逆序清理已创建的资源并返回ErrSessionStart
func (s *BrowserSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return fmt.Errorf("%w: 当前状态为%s", ErrSessionStart, s.state)
	}
	s.state = StateStarting

	s.log.Info().Bool("headless", s.cfg.Headless).Msg("🚀 正在启动浏览器会话")

	launchOpts := LaunchOptions{Headless: s.cfg.Headless}
	if s.cfg.Proxy != nil {
		launchOpts.ProxyServer = s.cfg.Proxy.Server
		launchOpts.ProxyUsername = s.cfg.Proxy.Username
		launchOpts.ProxyPassword = s.cfg.Proxy.Password
		s.log.Info().Str("proxy", s.cfg.Proxy.Server).Msg("使用代理服务器")
	}

	browser, err := s.engine.Launch(launchOpts)
	if err != nil {
		s.state = StateUninitialized
		return fmt.Errorf("%w: %v", ErrSessionStart, err)
	}

	ua := randomUserAgent()
	brCtx, err := browser.NewContext(ContextOptions{
		UserAgent:      ua,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "en-US",
		TimezoneID:     "UTC",
		BlockResources: true,
	})
	if err != nil {
		// 上下文创建失败时回收已启动的浏览器
		if closeErr := browser.Close(); closeErr != nil {
			s.log.Warn().Err(closeErr).Msg("清理浏览器失败")
		}
		s.state = StateUninitialized
		return fmt.Errorf("%w: %v", ErrSessionStart, err)
	}

	page, err := brCtx.NewPage()
	if err != nil {
		// 页面创建失败时按逆序回收上下文与浏览器
		if closeErr := brCtx.Close(); closeErr != nil {
			s.log.Warn().Err(closeErr).Msg("清理浏览上下文失败")
		}
		if closeErr := browser.Close(); closeErr != nil {
			s.log.Warn().Err(closeErr).Msg("清理浏览器失败")
		}
		s.state = StateUninitialized
		return fmt.Errorf("%w: %v", ErrSessionStart, err)
	}

	s.browser = browser
	s.brCtx = brCtx
	s.page = page
	s.state = StateReady

	s.log.Info().Str("user_agent", ua).Msg("✅ 浏览器会话已就绪")
	return nil
}

// Navigate 导航到指定URL
// 最多尝试3次,每次尝试前经过限流器等待;waitSelector非空时额外等待该元素出现。
// 每次失败都会分类并上报限流器与指标收集器,重试间隔为线性退避((尝试次数+1)*2秒)。
// 全部尝试耗尽后记录错误并返回false,导航失败不会中断整体流程
func (s *BrowserSession) Navigate(ctx context.Context, url, waitSelector string) bool {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		s.log.Error().Str("state", s.State().String()).Msg("会话未就绪,无法导航")
		return false
	}
	s.state = StateNavigating
	page := s.page
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.state == StateNavigating {
			s.state = StateReady
		}
		s.mu.Unlock()
	}()

	var lastErr error
	for attempt := 0; attempt < maxNavigateAttempts; attempt++ {
		err := s.mon.TrackRequest(ctx, s.limiter, func() error {
			return s.navigateOnce(ctx, page, url, waitSelector)
		})

		if err == nil {
			s.log.Info().Str("url", url).Msg("📥 页面导航成功")
			return true
		}
		if ctx.Err() != nil {
			s.log.Warn().Err(err).Msg("导航被取消")
			return false
		}

		lastErr = err
		kind := monitor.ClassifyErr(err)

		s.log.Warn().
			Str("url", url).
			Str("error_kind", string(kind)).
			Int("attempt", attempt+1).
			Err(err).
			Msg("⚠️ 页面导航失败")

		if attempt < maxNavigateAttempts-1 {
			backoff := time.Duration(attempt+1) * 2 * time.Second
			if sleepErr := s.sleep(ctx, backoff); sleepErr != nil {
				s.log.Warn().Err(sleepErr).Msg("重试等待被取消")
				return false
			}
		}
	}

	s.mon.RecordError(monitor.ClassifyErr(lastErr), lastErr.Error(), monitor.ErrorContext{
		URL:        url,
		RetryCount: maxNavigateAttempts,
	})
	return false
}

// navigateOnce 执行单次导航尝试
func (s *BrowserSession) navigateOnce(ctx context.Context, page Page, url, waitSelector string) error {
	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	status, err := page.Navigate(navCtx, url)
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("页面返回HTTP %d", status)
	}

	if waitSelector != "" {
		if err := page.WaitElement(ctx, waitSelector, selectorTimeout); err != nil {
			return err
		}
	}

	if err := page.WaitIdle(ctx, idleTimeout); err != nil {
		return fmt.Errorf("等待网络空闲超时: %w", err)
	}

	return nil
}

// WaitForElement 等待指定元素出现
func (s *BrowserSession) WaitForElement(ctx context.Context, selector string, timeout time.Duration) bool {
	s.mu.Lock()
	page := s.page
	ready := s.state == StateReady
	s.mu.Unlock()

	if !ready {
		return false
	}
	if err := page.WaitElement(ctx, selector, timeout); err != nil {
		s.log.Debug().Err(err).Str("selector", selector).Msg("等待元素失败")
		return false
	}
	return true
}

// ScrollToLoadContent 滚动页面触发懒加载内容
// 反复滚动到底部直到页面高度不再变化或达到最大滚动次数
func (s *BrowserSession) ScrollToLoadContent(ctx context.Context, maxScrolls int) error {
	s.mu.Lock()
	page := s.page
	ready := s.state == StateReady
	s.mu.Unlock()

	if !ready {
		return ErrSessionNotReady
	}

	lastHeight, err := page.ScrollHeight(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < maxScrolls; i++ {
		if err := page.ScrollToBottom(ctx); err != nil {
			return err
		}
		if err := s.sleep(ctx, scrollSettle); err != nil {
			return err
		}

		height, err := page.ScrollHeight(ctx)
		if err != nil {
			return err
		}
		if height == lastHeight {
			s.log.Debug().Int("scrolls", i+1).Msg("页面高度稳定,停止滚动")
			break
		}
		lastHeight = height
	}

	return nil
}

// PageContent 获取当前页面的完整HTML
func (s *BrowserSession) PageContent(ctx context.Context) (string, error) {
	s.mu.Lock()
	page := s.page
	ready := s.state == StateReady
	s.mu.Unlock()

	if !ready {
		return "", ErrSessionNotReady
	}
	return page.HTML(ctx)
}

// Close 关闭浏览器会话
// 幂等操作,按页面→上下文→浏览器→引擎的逆序释放,单步失败不阻止后续清理
func (s *BrowserSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed || s.state == StateClosing {
		return
	}
	s.state = StateClosing

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			s.log.Warn().Err(err).Msg("关闭页面失败")
		}
		s.page = nil
	}
	if s.brCtx != nil {
		if err := s.brCtx.Close(); err != nil {
			s.log.Warn().Err(err).Msg("关闭浏览上下文失败")
		}
		s.brCtx = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.log.Warn().Err(err).Msg("关闭浏览器失败")
		}
		s.browser = nil
	}
	if err := s.engine.Close(); err != nil {
		s.log.Warn().Err(err).Msg("释放浏览器引擎失败")
	}

	s.state = StateClosed
	s.log.Info().Msg("浏览器会话已关闭")
}
