package session

import (
	"context"
	"time"
)

// LaunchOptions 浏览器启动选项
type LaunchOptions struct {
	Headless      bool   // 无头模式
	ProxyServer   string // 代理服务器地址(空表示不使用代理)
	ProxyUsername string
	ProxyPassword string
}

// ContextOptions 浏览上下文创建选项
// 上下文内创建的页面继承这些设置
type ContextOptions struct {
	UserAgent      string // 浏览器User-Agent
	ViewportWidth  int    // 视口宽度
	ViewportHeight int    // 视口高度
	Locale         string // 语言环境
	TimezoneID     string // 时区
	BlockResources bool   // 是否拦截图片/字体/媒体资源
}

// Engine 浏览器引擎抽象
// 将浏览器的启动与页面操作隔离在接口之后,便于会话层独立测试
type Engine interface {
	// Launch 启动浏览器实例
	Launch(opts LaunchOptions) (Browser, error)
	// Close 释放引擎持有的进程级资源
	Close() error
}

// Browser 浏览器实例
type Browser interface {
	// NewContext 按指定选项创建隔离的浏览上下文
	NewContext(opts ContextOptions) (BrowsingContext, error)
	// Close 关闭浏览器
	Close() error
}

// BrowsingContext 浏览上下文
// 持有独立的cookie与缓存空间,关闭时随之销毁
type BrowsingContext interface {
	// NewPage 在上下文内创建页面
	NewPage() (Page, error)
	// Close 关闭上下文
	Close() error
}

// Page 浏览器页面
type Page interface {
	// Navigate 导航到指定URL并等待页面加载完成,
	// 返回主文档的HTTP状态码(未捕获到响应时返回0)
	Navigate(ctx context.Context, url string) (int, error)
	// WaitElement 等待指定CSS选择器的元素出现
	WaitElement(ctx context.Context, selector string, timeout time.Duration) error
	// WaitIdle 等待网络空闲
	WaitIdle(ctx context.Context, timeout time.Duration) error
	// ScrollHeight 获取当前页面的滚动高度
	ScrollHeight(ctx context.Context) (float64, error)
	// ScrollToBottom 滚动到页面底部
	ScrollToBottom(ctx context.Context) error
	// HTML 获取当前页面的完整HTML
	HTML(ctx context.Context) (string, error)
	// Close 关闭页面
	Close() error
}
