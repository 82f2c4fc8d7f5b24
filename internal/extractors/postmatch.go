package extractors

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/sportfeed/betscrawler/internal/models"
	"github.com/sportfeed/betscrawler/internal/session"
)

const matchResultSelector = ".match-result"

// PostMatchExtractor 赛后数据提取器
// 提取已结束比赛的比分、事件与详细统计
type PostMatchExtractor struct {
	reader *siteReader
}

// NewPostMatchExtractor 创建赛后数据提取器
func NewPostMatchExtractor(sess *session.BrowserSession, cfg *models.ScrapeConfig, log zerolog.Logger) *PostMatchExtractor {
	return &PostMatchExtractor{reader: newSiteReader(sess, cfg, log)}
}

// FinishedMatchesURL 将实况页URL转换为已结束比赛页URL
func FinishedMatchesURL(liveURL string) string {
	if strings.Contains(liveURL, "/live/") {
		return strings.Replace(liveURL, "/live/", "/results/", 1)
	}
	if strings.Contains(liveURL, "?") {
		return liveURL + "&period=finished"
	}
	return liveURL + "?period=finished"
}

// ExtractFinishedMatches 提取指定运动的已结束比赛列表
func (e *PostMatchExtractor) ExtractFinishedMatches(ctx context.Context, sport, pageURL string) []map[string]interface{} {
	r := e.reader

	finishedURL := FinishedMatchesURL(pageURL)
	r.log.Info().Str("sport", sport).Str("url", finishedURL).Msg("📥 正在提取已结束比赛列表")

	doc, err := r.listDocument(ctx, finishedURL)
	if err != nil {
		r.log.Error().Err(err).Str("sport", sport).Msg("加载已结束比赛页面失败")
		return nil
	}

	var matches []map[string]interface{}
	doc.Find(matchItemSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(matches) >= r.cfg.MaxMatchesPerSport {
			return false
		}
		if match := e.extractFinishedBasicInfo(item, sport); match != nil {
			matches = append(matches, match)
		}
		return true
	})

	r.log.Info().Str("sport", sport).Int("count", len(matches)).Msg("✅ 已结束比赛列表提取完成")
	return matches
}

// ExtractDetailedMatchResults 提取单场已结束比赛的详细结果
// 失败时返回原始的基础数据
func (e *PostMatchExtractor) ExtractDetailedMatchResults(ctx context.Context, basic map[string]interface{}) map[string]interface{} {
	r := e.reader

	matchURL, _ := basic["match_url"].(string)
	if matchURL == "" {
		r.log.Warn().Msg("比赛缺少详情页URL")
		return basic
	}

	matchID, _ := basic["match_id"].(string)
	r.log.Debug().Str("match_id", matchID).Msg("正在提取比赛详细结果")

	if !r.session.Navigate(ctx, matchURL, matchResultSelector) {
		r.log.Warn().Str("url", matchURL).Msg("加载比赛结果页失败")
		return basic
	}

	doc, err := r.pageDocument(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("解析比赛结果页失败")
		return basic
	}

	detailed := make(map[string]interface{}, len(basic)+5)
	for k, v := range basic {
		detailed[k] = v
	}

	detailed["final_score"] = extractFinalScore(doc)
	detailed["events"] = extractMatchEvents(doc)
	if r.cfg.IncludeStatistics {
		detailed["statistics"] = extractDetailedStatistics(doc)
	}
	detailed["player_statistics"] = extractPlayerStatistics(doc)
	detailed["summary"] = extractMatchSummary(doc)

	return detailed
}

// extractFinishedBasicInfo 从列表项中提取已结束比赛的基础信息
func (e *PostMatchExtractor) extractFinishedBasicInfo(item *goquery.Selection, sport string) map[string]interface{} {
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
		"final_score":  extractScoreFromItem(item),
		"match_time":   e.extractFinishedMatchTime(item),
		"match_url":    extractMatchURL(item),
		"competition":  extractCompetition(item),
		"extracted_at": e.reader.now().UTC().Format(time.RFC3339),
		"status":       string(models.StatusFinished),
	}
}

// extractFinishedMatchTime 提取已结束比赛的时间,补充结果页特有的选择器
func (e *PostMatchExtractor) extractFinishedMatchTime(item *goquery.Selection) string {
	if t := extractMatchTime(item, e.reader.now()); t != "" {
		return t
	}
	return firstText(item, ".match-date", ".finished-time", ".result-time")
}

// extractScoreFromItem 从列表项中提取比分
func extractScoreFromItem(item *goquery.Selection) map[string]interface{} {
	text := firstText(item, ".c-events__score", ".match-score", ".score", ".result")
	if text == "" {
		return nil
	}
	return parseScore(text)
}

// extractFinalScore 提取详细的最终比分信息
func extractFinalScore(doc *goquery.Document) map[string]interface{} {
	score := map[string]interface{}{}

	if main := firstText(doc.Selection, "div.match-score"); main != "" {
		score["final_score"] = parseScore(main)
	}
	if ht := firstText(doc.Selection, "span.half-time-score"); ht != "" {
		score["half_time_score"] = parseScore(ht)
	}

	return score
}

// extractMatchEvents 提取比赛事件(进球、红黄牌、换人)
// 缺少分钟信息的事件视为无效
func extractMatchEvents(doc *goquery.Document) []map[string]interface{} {
	events := []map[string]interface{}{}

	container := doc.Find("div.match-events").First()
	if container.Length() == 0 {
		container = doc.Find("div.timeline").First()
	}
	if container.Length() == 0 {
		return events
	}

	container.Find("div.event").Each(func(_ int, ev *goquery.Selection) {
		minute := minuteDigitsRe.FindString(firstText(ev, "span.minute"))
		if minute == "" {
			return
		}
		events = append(events, map[string]interface{}{
			"minute":      minute,
			"type":        firstText(ev, "span.event-type"),
			"player":      firstText(ev, "span.player"),
			"description": strings.TrimSpace(ev.Text()),
		})
	})

	return events
}

// 统计行名称到结构化字段的映射检查顺序
// "shots on target"必须先于"shots"匹配
var statFieldChecks = []struct {
	key      string
	contains string
}{
	{"possession", "possession"},
	{"shots_on_target", "shots on target"},
	{"shots", "shots"},
	{"corners", "corner"},
	{"fouls", "foul"},
	{"yellow_cards", "yellow"},
	{"red_cards", "red"},
	{"offsides", "offside"},
}

// extractDetailedStatistics 提取详细比赛统计
func extractDetailedStatistics(doc *goquery.Document) map[string]interface{} {
	stats := map[string]interface{}{"available": false}
	for _, check := range statFieldChecks {
		stats[check.key] = map[string]interface{}{}
	}

	container := doc.Find("div.match-statistics").First()
	if container.Length() == 0 {
		container = doc.Find("div.statistics").First()
	}
	if container.Length() == 0 {
		return stats
	}
	stats["available"] = true

	container.Find("div.stat-row").Each(func(_ int, row *goquery.Selection) {
		name := strings.ToLower(firstText(row, "span.stat-name"))
		if name == "" {
			return
		}
		for _, check := range statFieldChecks {
			if strings.Contains(name, check.contains) {
				stats[check.key] = map[string]interface{}{
					"home": extractStatValue(row, "home"),
					"away": extractStatValue(row, "away"),
				}
				break
			}
		}
	})

	return stats
}

// extractStatValue 提取单侧队伍的统计数值
func extractStatValue(row *goquery.Selection, team string) interface{} {
	value := row.Find("span." + team + "-stat").First()
	if value.Length() == 0 {
		values := row.Find("span.stat-value")
		if values.Length() >= 2 {
			if team == "home" {
				value = values.Eq(0)
			} else {
				value = values.Eq(1)
			}
		}
	}
	if value.Length() == 0 {
		return nil
	}
	if n, ok := parseStatNumber(strings.TrimSpace(value.Text())); ok {
		return n
	}
	return nil
}

// extractPlayerStatistics 提取球员个人统计
func extractPlayerStatistics(doc *goquery.Document) map[string]interface{} {
	playerStats := map[string]interface{}{
		"home_team": []interface{}{},
		"away_team": []interface{}{},
		"available": false,
	}

	container := doc.Find("div.player-statistics").First()
	if container.Length() == 0 {
		return playerStats
	}
	playerStats["available"] = true

	for side, class := range map[string]string{"home_team": "div.home-players", "away_team": "div.away-players"} {
		var players []interface{}
		container.Find(class + " div.player").Each(func(_ int, p *goquery.Selection) {
			name := firstText(p, "span.player-name")
			if name == "" {
				return
			}
			players = append(players, map[string]interface{}{
				"name":     name,
				"position": firstText(p, "span.position"),
			})
		})
		if players != nil {
			playerStats[side] = players
		}
	}

	return playerStats
}

// extractMatchSummary 提取比赛概要(场地、裁判、观众人数)
func extractMatchSummary(doc *goquery.Document) map[string]interface{} {
	summary := map[string]interface{}{}

	info := doc.Find("div.match-info").First()
	if info.Length() == 0 {
		return summary
	}

	if venue := firstText(info, "span.venue"); venue != "" {
		summary["venue"] = venue
	}
	if referee := firstText(info, "span.referee"); referee != "" {
		summary["referee"] = referee
	}
	if attendance := firstText(info, "span.attendance"); attendance != "" {
		if m := attendanceRe.FindStringSubmatch(attendance); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				summary["attendance"] = n
			}
		}
	}

	return summary
}
