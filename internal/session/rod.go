package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// rodEngine 基于go-rod的浏览器引擎实现
type rodEngine struct {
	launcher *launcher.Launcher
}

// NewRodEngine 创建go-rod浏览器引擎
func NewRodEngine() Engine {
	return &rodEngine{}
}

// Launch 启动浏览器实例
func (e *rodEngine) Launch(opts LaunchOptions) (Browser, error) {
	l := launcher.New()
	l = l.Headless(opts.Headless)

	// 忽略证书错误,允许访问自签名或过期证书的HTTPS站点
	l = l.Set("ignore-certificate-errors")

	if opts.ProxyServer != "" {
		l = l.Proxy(opts.ProxyServer)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}
	e.launcher = l

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	// 代理需要认证时,由浏览器统一应答认证质询
	if opts.ProxyServer != "" && opts.ProxyUsername != "" {
		go func() {
			_ = browser.HandleAuth(opts.ProxyUsername, opts.ProxyPassword)()
		}()
	}

	return &rodBrowser{browser: browser}, nil
}

// Close 等待浏览器进程退出并清理临时用户数据目录
func (e *rodEngine) Close() error {
	if e.launcher != nil {
		e.launcher.Cleanup()
		e.launcher = nil
	}
	return nil
}

// rodBrowser 浏览器实例包装
type rodBrowser struct {
	browser *rod.Browser
}

// NewContext 创建隔离的浏览上下文(独立的cookie与缓存空间)
func (b *rodBrowser) NewContext(opts ContextOptions) (BrowsingContext, error) {
	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("创建浏览上下文失败: %w", err)
	}
	return &rodContext{browser: incognito, opts: opts}, nil
}

// Close 关闭浏览器
func (b *rodBrowser) Close() error {
	return b.browser.Close()
}

// rodContext 浏览上下文包装
// go-rod以隐身浏览器实例表示独立上下文,上下文选项在页面创建时套用
type rodContext struct {
	browser *rod.Browser
	opts    ContextOptions
}

// NewPage 在上下文内创建页面并应用上下文选项
func (c *rodContext) NewPage() (Page, error) {
	opts := c.opts

	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("创建页面失败: %w", err)
	}

	if opts.UserAgent != "" {
		ua := &proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}
		if opts.Locale != "" {
			ua.AcceptLanguage = opts.Locale
		}
		if err := page.SetUserAgent(ua); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("设置User-Agent失败: %w", err)
		}
	}

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.ViewportWidth,
			Height:            opts.ViewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("设置视口失败: %w", err)
		}
	}

	if opts.TimezoneID != "" {
		err := proto.EmulationSetTimezoneOverride{TimezoneID: opts.TimezoneID}.Call(page)
		if err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("设置时区失败: %w", err)
		}
	}

	rp := &rodPage{page: page}

	// 拦截图片/字体/媒体请求,降低带宽与内存消耗
	if opts.BlockResources {
		router := page.HijackRequests()
		err := router.Add("*", "", func(ctx *rod.Hijack) {
			switch ctx.Request.Type() {
			case proto.NetworkResourceTypeImage,
				proto.NetworkResourceTypeFont,
				proto.NetworkResourceTypeMedia:
				ctx.Response.Fail(proto.NetworkErrorReasonAborted)
				return
			}
			ctx.ContinueRequest(&proto.FetchContinueRequest{})
		})
		if err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("设置资源拦截失败: %w", err)
		}
		go router.Run()
	}

	// 监听主文档响应以捕获HTTP状态码
	go page.EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Type == proto.NetworkResourceTypeDocument {
			rp.docStatus.Store(int64(e.Response.Status))
		}
	})()

	return rp, nil
}

// Close 销毁浏览上下文及其页面
func (c *rodContext) Close() error {
	err := proto.TargetDisposeBrowserContext{
		BrowserContextID: c.browser.BrowserContextID,
	}.Call(c.browser)
	if err != nil {
		return fmt.Errorf("关闭浏览上下文失败: %w", err)
	}
	return nil
}

// rodPage 浏览器页面包装
type rodPage struct {
	page      *rod.Page
	docStatus atomic.Int64 // 最近一次主文档响应的HTTP状态码
}

// Navigate 导航到指定URL并等待页面加载完成
func (p *rodPage) Navigate(ctx context.Context, url string) (int, error) {
	p.docStatus.Store(0)

	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return 0, fmt.Errorf("导航失败: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return int(p.docStatus.Load()), fmt.Errorf("等待页面加载失败: %w", err)
	}

	return int(p.docStatus.Load()), nil
}

// WaitElement 等待指定CSS选择器的元素出现
func (p *rodPage) WaitElement(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := p.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("等待元素超时 [%s]: %w", selector, err)
	}
	return nil
}

// WaitIdle 等待页面进入空闲状态
func (p *rodPage) WaitIdle(ctx context.Context, timeout time.Duration) error {
	return p.page.Context(ctx).WaitIdle(timeout)
}

// ScrollHeight 获取当前页面的滚动高度
func (p *rodPage) ScrollHeight(ctx context.Context) (float64, error) {
	res, err := p.page.Context(ctx).Eval("() => document.body.scrollHeight")
	if err != nil {
		return 0, fmt.Errorf("获取页面高度失败: %w", err)
	}
	return res.Value.Num(), nil
}

// ScrollToBottom 滚动到页面底部
func (p *rodPage) ScrollToBottom(ctx context.Context) error {
	_, err := p.page.Context(ctx).Eval("() => window.scrollTo(0, document.body.scrollHeight)")
	if err != nil {
		return fmt.Errorf("滚动页面失败: %w", err)
	}
	return nil
}

// HTML 获取当前页面的完整HTML
func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// Close 关闭页面
func (p *rodPage) Close() error {
	return p.page.Close()
}
