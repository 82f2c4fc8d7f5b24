package extractors

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/sportfeed/betscrawler/internal/models"
	"github.com/sportfeed/betscrawler/internal/session"
)

// PreMatchExtractor 赛前数据提取器
// 提取比赛列表、赔率、阵容与天气信息
type PreMatchExtractor struct {
	reader *siteReader
}

// NewPreMatchExtractor 创建赛前数据提取器
func NewPreMatchExtractor(sess *session.BrowserSession, cfg *models.ScrapeConfig, log zerolog.Logger) *PreMatchExtractor {
	return &PreMatchExtractor{reader: newSiteReader(sess, cfg, log)}
}

// ExtractMatchesList 提取指定运动的比赛列表
// 导航失败或页面结构异常时返回空列表,不中断整体流程
func (e *PreMatchExtractor) ExtractMatchesList(ctx context.Context, sport, pageURL string) []map[string]interface{} {
	r := e.reader
	r.log.Info().Str("sport", sport).Str("url", pageURL).Msg("📥 正在提取比赛列表")

	doc, err := r.listDocument(ctx, pageURL)
	if err != nil {
		r.log.Error().Err(err).Str("sport", sport).Msg("加载比赛列表页面失败")
		return nil
	}

	var matches []map[string]interface{}
	doc.Find(matchItemSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(matches) >= r.cfg.MaxMatchesPerSport {
			return false
		}
		if match := e.extractBasicInfo(item, sport); match != nil {
			matches = append(matches, match)
		}
		return true
	})

	r.log.Info().Str("sport", sport).Int("count", len(matches)).Msg("✅ 比赛列表提取完成")
	return matches
}

// ExtractDetailedMatchData 提取单场比赛的详细数据
// 失败时返回原始的基础数据,已获取的信息不丢失
func (e *PreMatchExtractor) ExtractDetailedMatchData(ctx context.Context, basic map[string]interface{}) map[string]interface{} {
	r := e.reader

	matchURL, _ := basic["match_url"].(string)
	if matchURL == "" {
		r.log.Warn().Msg("比赛缺少详情页URL")
		return basic
	}

	matchID, _ := basic["match_id"].(string)
	r.log.Debug().Str("match_id", matchID).Msg("正在提取比赛详细数据")

	if !r.session.Navigate(ctx, matchURL, oddsGroupSelector) {
		r.log.Warn().Str("url", matchURL).Msg("加载比赛详情页失败")
		return basic
	}

	doc, err := r.pageDocument(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("解析比赛详情页失败")
		return basic
	}

	detailed := make(map[string]interface{}, len(basic)+4)
	for k, v := range basic {
		detailed[k] = v
	}

	if r.cfg.IncludePreMatch {
		detailed["odds"] = extractOdds(doc)
	}
	if r.cfg.IncludeLineups {
		detailed["lineups"] = extractLineups(doc)
	}
	sport, _ := basic["sport"].(string)
	if r.cfg.ShouldExtractWeather(sport) {
		detailed["weather"] = extractWeather(doc)
	}
	detailed["statistics"] = extractPreMatchStatistics(doc)

	return detailed
}

// extractBasicInfo 从列表项中提取比赛基础信息
// 缺少比赛ID或队伍信息时视为无效条目
func (e *PreMatchExtractor) extractBasicInfo(item *goquery.Selection, sport string) map[string]interface{} {
	matchID := extractMatchID(item)
	if matchID == "" {
		return nil
	}

	teams := extractTeams(item)
	if teams == nil {
		return nil
	}

	return map[string]interface{}{
		"match_id":     matchID,
		"sport":        sport,
		"teams":        teams,
		"match_time":   extractMatchTime(item, e.reader.now()),
		"match_url":    extractMatchURL(item),
		"competition":  extractCompetition(item),
		"extracted_at": e.reader.now().UTC().Format(time.RFC3339),
		"status":       string(models.StatusPreMatch),
	}
}

// extractOdds 提取赔率数据
func extractOdds(doc *goquery.Document) map[string]interface{} {
	odds := map[string]interface{}{
		"main_odds":     map[string]interface{}{},
		"total_markets": doc.Find("div.c-bet").Length(),
	}

	group := doc.Find("div.c-bet-group").First()
	if group.Length() == 0 {
		return odds
	}

	picks := group.Find("button.c-bet__pick")
	if picks.Length() >= 3 {
		main := map[string]interface{}{}
		if v, ok := parseOddValue(picks.Eq(0).Text()); ok {
			main["home_win"] = v
		}
		if v, ok := parseOddValue(picks.Eq(1).Text()); ok {
			main["draw"] = v
		}
		if v, ok := parseOddValue(picks.Eq(2).Text()); ok {
			main["away_win"] = v
		}
		odds["main_odds"] = map[string]interface{}{"1x2": main}
	}

	return odds
}

// extractLineups 提取首发阵容
func extractLineups(doc *goquery.Document) map[string]interface{} {
	lineups := map[string]interface{}{
		"home_team": map[string]interface{}{"players": []interface{}{}},
		"away_team": map[string]interface{}{"players": []interface{}{}},
		"available": false,
	}

	container := doc.Find("div.lineups").First()
	if container.Length() == 0 {
		return lineups
	}
	lineups["available"] = true

	for side, class := range map[string]string{"home_team": "div.home-players", "away_team": "div.away-players"} {
		var players []interface{}
		container.Find(class + " div.player").Each(func(_ int, p *goquery.Selection) {
			name := firstText(p, "span.player-name")
			if name == "" {
				name = strings.TrimSpace(p.Text())
			}
			if name == "" {
				return
			}
			players = append(players, map[string]interface{}{
				"name":     name,
				"position": firstText(p, "span.position"),
			})
		})
		if players != nil {
			lineups[side] = map[string]interface{}{"players": players}
		}
	}

	return lineups
}

// extractWeather 提取户外运动的天气信息
func extractWeather(doc *goquery.Document) map[string]interface{} {
	weather := map[string]interface{}{"available": false}

	container := doc.Find("div.weather").First()
	if container.Length() == 0 {
		return weather
	}
	weather["available"] = true

	if t := firstText(container, ".temperature"); t != "" {
		weather["temperature"] = t
	}
	if c := firstText(container, ".conditions"); c != "" {
		weather["conditions"] = c
	}
	if h := firstText(container, ".humidity"); h != "" {
		weather["humidity"] = h
	}
	if w := firstText(container, ".wind-speed"); w != "" {
		weather["wind_speed"] = w
	}

	return weather
}

// extractPreMatchStatistics 提取赛前统计(历史交锋、近期战绩)
func extractPreMatchStatistics(doc *goquery.Document) map[string]interface{} {
	stats := map[string]interface{}{
		"head_to_head": []interface{}{},
		"recent_form": map[string]interface{}{
			"home_team": []interface{}{},
			"away_team": []interface{}{},
		},
		"available": false,
	}

	if doc.Find("div.statistics").Length() > 0 {
		stats["available"] = true
	}
	return stats
}
