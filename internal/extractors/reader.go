// Package extractors 从渲染后的页面HTML中提取比赛数据
package extractors

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const siteBase = "https://1xbet.com"

var (
	oddValuePattern  = regexp.MustCompile(`[0-9.]+`)
	statNumberRe     = regexp.MustCompile(`(\d+)`)
	percentRe        = regexp.MustCompile(`(\d+)%`)
	attendanceRe     = regexp.MustCompile(`([\d,]+)`)
	minuteDigitsRe   = regexp.MustCompile(`\d+`)
	matchTimeFormats = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2}):(\d{2})`),
		regexp.MustCompile(`(\d{1,2})\.(\d{2})`),
		regexp.MustCompile(`(\d{1,2})h(\d{2})`),
	}
	scoreFormats = []*regexp.Regexp{
		regexp.MustCompile(`(\d+):(\d+)`),
		regexp.MustCompile(`(\d+)-(\d+)`),
		regexp.MustCompile(`(\d+)\s+(\d+)`),
	}
)

// firstText 按选择器顺序查找,返回第一个非空文本
func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(s.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// firstAttr 按属性名顺序查找,返回第一个存在的属性值
func firstAttr(s *goquery.Selection, attrs ...string) (string, bool) {
	for _, attr := range attrs {
		if v, ok := s.Attr(attr); ok {
			return v, true
		}
	}
	return "", false
}

// parseOddValue 从赔率按钮文本中解析赔率数值
func parseOddValue(text string) (float64, bool) {
	cleaned := oddValuePattern.FindString(strings.TrimSpace(text))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseStatNumber 从统计文本中解析整数,百分比值取数字部分
func parseStatNumber(text string) (int, bool) {
	if m := percentRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.Atoi(m[1])
		return v, err == nil
	}
	if m := statNumberRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.Atoi(m[1])
		return v, err == nil
	}
	return 0, false
}

// parseScore 解析比分文本,支持"2:1"、"2-1"、"2 1"三种格式
// 无法解析时仅保留原始文本
func parseScore(text string) map[string]interface{} {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, re := range scoreFormats {
		if m := re.FindStringSubmatch(text); m != nil {
			home, err1 := strconv.Atoi(m[1])
			away, err2 := strconv.Atoi(m[2])
			if err1 == nil && err2 == nil {
				return map[string]interface{}{
					"home_score": home,
					"away_score": away,
					"raw_score":  text,
				}
			}
		}
	}
	return map[string]interface{}{"raw_score": text}
}

// parseMatchTime 将页面上的时间文本解析为ISO格式
// 支持HH:MM、HH.MM、HHhMM格式,日期取当天;无法解析时返回原文本
func parseMatchTime(text string, now time.Time) string {
	for _, re := range matchTimeFormats {
		if m := re.FindStringSubmatch(text); m != nil {
			hours, err1 := strconv.Atoi(m[1])
			minutes, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil || hours > 23 || minutes > 59 {
				continue
			}
			today := now.UTC()
			t := time.Date(today.Year(), today.Month(), today.Day(), hours, minutes, 0, 0, time.UTC)
			return t.Format(time.RFC3339)
		}
	}
	return text
}

// extractMatchID 提取比赛ID
// 依次尝试data属性、class中的id-片段,最后用队伍文本哈希生成兜底ID
func extractMatchID(s *goquery.Selection) string {
	if id, ok := firstAttr(s, "data-id", "data-match-id", "data-event-id"); ok && id != "" {
		return id
	}

	if class, ok := s.Attr("class"); ok {
		for _, cls := range strings.Fields(class) {
			if idx := strings.Index(cls, "id-"); idx >= 0 {
				return cls[idx+len("id-"):]
			}
		}
	}

	teamsText := strings.TrimSpace(s.Find("div.c-events__teams").First().Text())
	if teamsText != "" {
		h := fnv.New32a()
		h.Write([]byte(teamsText))
		return fmt.Sprintf("match_%d", h.Sum32()%1000000)
	}

	return ""
}

// extractTeams 提取主客队信息
// 优先使用队伍元素,退化为按" - "分割队伍文本
func extractTeams(s *goquery.Selection) map[string]interface{} {
	container := s.Find("div.c-events__teams").First()
	if container.Length() == 0 {
		return nil
	}

	teamElems := container.Find("span.c-events__team")
	if teamElems.Length() < 2 {
		teamElems = container.Find("div.team-name")
	}

	if teamElems.Length() >= 2 {
		return map[string]interface{}{
			"home_team": teamEntry(teamElems.Eq(0)),
			"away_team": teamEntry(teamElems.Eq(1)),
		}
	}

	teamsText := strings.TrimSpace(container.Text())
	if parts := strings.Split(teamsText, " - "); len(parts) == 2 {
		return map[string]interface{}{
			"home_team": map[string]interface{}{"name": strings.TrimSpace(parts[0])},
			"away_team": map[string]interface{}{"name": strings.TrimSpace(parts[1])},
		}
	}

	return nil
}

// teamEntry 构造单个队伍的数据
func teamEntry(team *goquery.Selection) map[string]interface{} {
	entry := map[string]interface{}{
		"name": strings.TrimSpace(team.Text()),
	}
	if logo, ok := team.Find("img").First().Attr("src"); ok {
		entry["logo_url"] = logo
	}
	return entry
}

// extractMatchURL 提取比赛详情页URL,相对路径补全站点域名
func extractMatchURL(s *goquery.Selection) string {
	href, ok := s.Find("a[href]").First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/") {
		return siteBase + href
	}
	return href
}

// extractCompetition 提取联赛/赛事名称
func extractCompetition(s *goquery.Selection) string {
	return firstText(s, ".c-events__league", ".competition", ".league-name", ".tournament")
}

// extractMatchTime 提取比赛时间文本并解析
func extractMatchTime(s *goquery.Selection, now time.Time) string {
	text := firstText(s, ".c-events__time", ".match-time", ".event-time", "[data-time]")
	if text == "" {
		return ""
	}
	return parseMatchTime(text, now)
}
