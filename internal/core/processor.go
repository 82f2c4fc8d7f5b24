package core

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sportfeed/betscrawler/internal/models"
)

// DataProcessor 数据处理器
// 将提取器产出的原始数据清洗并验证为结构化的比赛数据,
// 单条数据验证失败只记录错误,不影响批次中的其他数据
type DataProcessor struct {
	mu sync.Mutex

	cfg *models.ScrapeConfig
	log zerolog.Logger

	processed        []models.MatchData
	validationErrors []string

	now func() time.Time
}

// NewDataProcessor 创建数据处理器
func NewDataProcessor(cfg *models.ScrapeConfig, log zerolog.Logger) *DataProcessor {
	return &DataProcessor{
		cfg: cfg,
		log: log,
		now: time.Now,
	}
}

// ProcessRawMatch 处理单条原始比赛数据
// 清洗、转换并验证,失败时记录验证错误并返回nil
func (p *DataProcessor) ProcessRawMatch(raw map[string]interface{}) *models.MatchData {
	match := p.buildMatch(raw)

	if err := match.Validate(); err != nil {
		matchID, _ := raw["match_id"].(string)
		if matchID == "" {
			matchID = "unknown"
		}
		msg := fmt.Sprintf("比赛数据验证失败 [%s]: %v", matchID, err)
		p.log.Error().Str("match_id", matchID).Err(err).Msg("比赛数据验证失败")

		p.mu.Lock()
		p.validationErrors = append(p.validationErrors, msg)
		p.mu.Unlock()
		return nil
	}

	p.mu.Lock()
	p.processed = append(p.processed, *match)
	p.mu.Unlock()

	p.log.Debug().Str("match_id", match.MatchID).Msg("比赛数据处理完成")
	return match
}

// ProcessBatch 批量处理原始比赛数据
func (p *DataProcessor) ProcessBatch(rawMatches []map[string]interface{}) []models.MatchData {
	var processed []models.MatchData
	for _, raw := range rawMatches {
		if match := p.ProcessRawMatch(raw); match != nil {
			processed = append(processed, *match)
		}
	}
	p.log.Info().Int("processed", len(processed)).Int("total", len(rawMatches)).Msg("批量数据处理完成")
	return processed
}

// buildMatch 将原始数据清洗为结构化比赛数据
func (p *DataProcessor) buildMatch(raw map[string]interface{}) *models.MatchData {
	match := &models.MatchData{
		MatchID:          asString(raw["match_id"]),
		Sport:            asString(raw["sport"]),
		Competition:      asString(raw["competition"]),
		MatchTime:        asString(raw["match_time"]),
		MatchURL:         asString(raw["match_url"]),
		ExtractedAt:      p.now().UTC(),
		ExtractionSource: "1xbet.com",
	}

	// 缺失字段回填默认值
	if match.MatchID == "" {
		match.MatchID = fallbackMatchID(raw)
	}
	if match.Sport == "" {
		match.Sport = "unknown"
	}
	if status := asString(raw["status"]); status != "" {
		match.Status = models.MatchStatus(status)
	} else {
		match.Status = models.StatusUpcoming
	}
	if ts := asString(raw["extracted_at"]); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			match.ExtractedAt = t
		}
	}

	match.Teams = cleanTeams(raw["teams"])
	match.Odds = cleanOdds(raw["odds"])
	match.Weather = cleanWeather(raw["weather"])
	match.Lineups = cleanLineups(raw["lineups"])
	match.FinalScore = cleanScore(raw["final_score"])
	match.Events = cleanEvents(raw["events"])
	match.Statistics = cleanStatistics(raw["statistics"])
	match.PlayerStatistics = cleanPlayerStatistics(raw["player_statistics"])

	return match
}

// fallbackMatchID 为缺少ID的数据生成确定性的兜底ID
func fallbackMatchID(raw map[string]interface{}) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%v", raw["teams"])
	fmt.Fprintf(h, "%v", raw["match_time"])
	return fmt.Sprintf("match_%d", h.Sum32()%1000000)
}

// cleanTeams 清洗队伍数据,支持嵌套映射和纯字符串两种形式
func cleanTeams(v interface{}) map[string]models.TeamInfo {
	teamsMap, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	teams := make(map[string]models.TeamInfo)
	for _, key := range []string{"home_team", "away_team"} {
		entry, exists := teamsMap[key]
		if !exists {
			continue
		}
		switch t := entry.(type) {
		case map[string]interface{}:
			name := asString(t["name"])
			if name == "" {
				name = "Unknown"
			}
			teams[key] = models.TeamInfo{
				Name:    name,
				LogoURL: asString(t["logo_url"]),
				Country: asString(t["country"]),
			}
		case string:
			teams[key] = models.TeamInfo{Name: t}
		}
	}
	return teams
}

// cleanOdds 清洗赔率数据
// 兼容提取器的嵌套形式(main_odds.1x2)和扁平形式
func cleanOdds(v interface{}) *models.OddsData {
	oddsMap, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	source := oddsMap
	if main, ok := oddsMap["main_odds"].(map[string]interface{}); ok {
		if x12, ok := main["1x2"].(map[string]interface{}); ok {
			source = x12
		}
	}

	odds := &models.OddsData{ExtractedAt: time.Now().UTC()}
	hasValue := false
	if v, ok := asFloat(source["home_win"]); ok && v > 0 {
		odds.HomeWin = v
		hasValue = true
	}
	if v, ok := asFloat(source["draw"]); ok && v > 0 {
		odds.Draw = v
		hasValue = true
	}
	if v, ok := asFloat(source["away_win"]); ok && v > 0 {
		odds.AwayWin = v
		hasValue = true
	}
	if n, ok := asInt(oddsMap["total_markets"]); ok {
		odds.TotalMarkets = n
		hasValue = hasValue || n > 0
	}

	if !hasValue {
		return nil
	}
	return odds
}

// cleanWeather 清洗天气数据
func cleanWeather(v interface{}) *models.WeatherData {
	weatherMap, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	weather := &models.WeatherData{}
	if available, ok := weatherMap["available"].(bool); ok {
		weather.Available = available
	}
	if t, ok := asFloat(weatherMap["temperature"]); ok {
		weather.Temperature = t
	}
	if h, ok := asFloat(weatherMap["humidity"]); ok {
		weather.Humidity = h
	}
	if w, ok := asFloat(weatherMap["wind_speed"]); ok {
		weather.WindSpeed = w
	}
	weather.Conditions = asString(weatherMap["conditions"])

	return weather
}

// cleanLineups 清洗阵容数据
func cleanLineups(v interface{}) map[string]models.LineupData {
	lineupsMap, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	lineups := make(map[string]models.LineupData)
	available, _ := lineupsMap["available"].(bool)

	for _, key := range []string{"home_team", "away_team"} {
		side, ok := lineupsMap[key].(map[string]interface{})
		if !ok {
			continue
		}
		lineup := models.LineupData{Available: available}
		if players, ok := side["players"].([]interface{}); ok {
			for _, pv := range players {
				pm, ok := pv.(map[string]interface{})
				if !ok {
					continue
				}
				name := asString(pm["name"])
				if name == "" {
					continue
				}
				lineup.StartingEleven = append(lineup.StartingEleven, models.PlayerInfo{
					Name:     name,
					Position: asString(pm["position"]),
				})
			}
		}
		lineups[key] = lineup
	}

	if len(lineups) == 0 {
		return nil
	}
	return lineups
}

// cleanScore 清洗比分数据
// 支持提取器的嵌套形式(final_score.final_score)和扁平形式
func cleanScore(v interface{}) *models.ScoreData {
	scoreMap, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	if nested, ok := scoreMap["final_score"].(map[string]interface{}); ok {
		scoreMap = nested
	}

	score := &models.ScoreData{RawScore: asString(scoreMap["raw_score"])}
	home, hasHome := asInt(scoreMap["home_score"])
	away, hasAway := asInt(scoreMap["away_score"])
	if !hasHome || !hasAway {
		if score.RawScore == "" {
			return nil
		}
		return score
	}

	score.HomeScore = home
	score.AwayScore = away
	return score
}

// cleanEvents 清洗比赛事件,缺少描述的事件被丢弃
func cleanEvents(v interface{}) []models.MatchEvent {
	rawEvents, ok := v.([]map[string]interface{})
	if !ok {
		// 兼容通用切片形式
		if generic, isSlice := v.([]interface{}); isSlice {
			for _, ev := range generic {
				if m, isMap := ev.(map[string]interface{}); isMap {
					rawEvents = append(rawEvents, m)
				}
			}
		}
	}

	var events []models.MatchEvent
	for _, ev := range rawEvents {
		description := asString(ev["description"])
		if description == "" {
			continue
		}
		events = append(events, models.MatchEvent{
			Minute:      asString(ev["minute"]),
			Type:        models.EventType(asString(ev["type"])),
			Player:      asString(ev["player"]),
			Team:        asString(ev["team"]),
			Description: description,
		})
	}
	return events
}

// cleanStatistics 清洗比赛统计数据
func cleanStatistics(v interface{}) *models.MatchStatistics {
	statsMap, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	stats := &models.MatchStatistics{}
	if available, ok := statsMap["available"].(bool); ok {
		stats.Available = available
	}

	stats.Possession = cleanTeamStat(statsMap["possession"])
	stats.Shots = cleanTeamStat(statsMap["shots"])
	stats.ShotsOnTarget = cleanTeamStat(statsMap["shots_on_target"])
	stats.Passes = cleanTeamStat(statsMap["passes"])
	stats.Fouls = cleanTeamStat(statsMap["fouls"])
	stats.Corners = cleanTeamStat(statsMap["corners"])
	stats.Offsides = cleanTeamStat(statsMap["offsides"])
	stats.YellowCards = cleanTeamStat(statsMap["yellow_cards"])
	stats.RedCards = cleanTeamStat(statsMap["red_cards"])

	return stats
}

// cleanTeamStat 清洗单项主客队统计值
func cleanTeamStat(v interface{}) map[string]int {
	statMap, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	cleaned := make(map[string]int)
	for _, team := range []string{"home", "away"} {
		if n, ok := asInt(statMap[team]); ok {
			cleaned[team] = n
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// cleanPlayerStatistics 清洗球员统计数据
func cleanPlayerStatistics(v interface{}) map[string][]models.PlayerStatistics {
	statsMap, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	result := make(map[string][]models.PlayerStatistics)
	for _, key := range []string{"home_team", "away_team"} {
		players, ok := statsMap[key].([]interface{})
		if !ok {
			continue
		}
		for _, pv := range players {
			pm, ok := pv.(map[string]interface{})
			if !ok {
				continue
			}
			name := asString(pm["name"])
			if name == "" {
				continue
			}
			stat := models.PlayerStatistics{
				Name:     name,
				Position: asString(pm["position"]),
			}
			if g, ok := asInt(pm["goals"]); ok {
				stat.Goals = g
			}
			if a, ok := asInt(pm["assists"]); ok {
				stat.Assists = a
			}
			result[key] = append(result[key], stat)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// ProcessedMatches 获取已处理的比赛数据副本
func (p *DataProcessor) ProcessedMatches() []models.MatchData {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.MatchData, len(p.processed))
	copy(out, p.processed)
	return out
}

// ValidationErrors 获取验证错误列表副本
func (p *DataProcessor) ValidationErrors() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.validationErrors))
	copy(out, p.validationErrors)
	return out
}

// Summary 获取处理结果摘要
func (p *DataProcessor) Summary() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]interface{}{
		"success":                len(p.validationErrors) == 0,
		"total_matches":          len(p.processed) + len(p.validationErrors),
		"successful_extractions": len(p.processed),
		"failed_extractions":     len(p.validationErrors),
		"errors":                 append([]string{}, p.validationErrors...),
	}
}

// Reset 重置处理器状态
func (p *DataProcessor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = nil
	p.validationErrors = nil
}

// asString 将任意值转换为字符串,非字符串类型返回空
func asString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asFloat 将任意数值类型转换为float64
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asInt 将任意数值类型转换为int
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}
