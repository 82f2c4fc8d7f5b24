package extractors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/sportfeed/betscrawler/internal/models"
	"github.com/sportfeed/betscrawler/internal/session"
)

const (
	matchListSelector = ".c-events"
	matchItemSelector = ".c-events__item"
	oddsGroupSelector = ".c-bet-group"

	matchItemTimeout = 15 * time.Second
	maxListScrolls   = 3
)

// siteReader 页面读取能力
// 封装提取器共用的会话操作: 列表页加载与页面内容解析,
// 赛前与赛后提取器各持有独立实例,互不依赖
type siteReader struct {
	session *session.BrowserSession
	cfg     *models.ScrapeConfig
	log     zerolog.Logger

	now func() time.Time
}

func newSiteReader(sess *session.BrowserSession, cfg *models.ScrapeConfig, log zerolog.Logger) *siteReader {
	return &siteReader{
		session: sess,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// listDocument 加载比赛列表页并解析为goquery文档
// 等待列表条目出现后滚动触发懒加载,尽量加载更多比赛
func (r *siteReader) listDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if !r.session.Navigate(ctx, pageURL, matchListSelector) {
		return nil, fmt.Errorf("加载列表页面失败: %s", pageURL)
	}

	r.session.WaitForElement(ctx, matchItemSelector, matchItemTimeout)

	if err := r.session.ScrollToLoadContent(ctx, maxListScrolls); err != nil {
		r.log.Warn().Err(err).Msg("滚动加载内容失败")
	}

	return r.pageDocument(ctx)
}

// pageDocument 获取当前页面内容并解析为goquery文档
func (r *siteReader) pageDocument(ctx context.Context) (*goquery.Document, error) {
	content, err := r.session.PageContent(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}
