package models

import (
	"fmt"
	"strings"
	"time"
)

// MatchStatus 比赛状态
type MatchStatus string

const (
	StatusUpcoming  MatchStatus = "upcoming"  // 未开始
	StatusPreMatch  MatchStatus = "pre_match" // 赛前
	StatusLive      MatchStatus = "live"      // 进行中
	StatusFinished  MatchStatus = "finished"  // 已结束
	StatusPostponed MatchStatus = "postponed" // 延期
	StatusCancelled MatchStatus = "cancelled" // 取消
)

// EventType 比赛事件类型
type EventType string

const (
	EventGoal         EventType = "goal"
	EventYellowCard   EventType = "yellow_card"
	EventRedCard      EventType = "red_card"
	EventSubstitution EventType = "substitution"
	EventPenalty      EventType = "penalty"
	EventOwnGoal      EventType = "own_goal"
	EventCorner       EventType = "corner"
	EventFreeKick     EventType = "free_kick"
)

// TeamInfo 球队信息
type TeamInfo struct {
	Name    string `json:"name"`               // 球队名称
	LogoURL string `json:"logo_url,omitempty"` // 队徽URL
	Country string `json:"country,omitempty"`  // 国家
	Ranking int    `json:"ranking,omitempty"`  // 排名
}

// Validate 验证球队信息
func (t *TeamInfo) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("球队名称不能为空")
	}
	if t.LogoURL != "" && !isHTTPURL(t.LogoURL) {
		return fmt.Errorf("队徽URL必须是http/https链接: %s", t.LogoURL)
	}
	return nil
}

// OddsData 赔率数据
type OddsData struct {
	HomeWin        float64            `json:"home_win,omitempty"`         // 主胜赔率
	Draw           float64            `json:"draw,omitempty"`             // 平局赔率
	AwayWin        float64            `json:"away_win,omitempty"`         // 客胜赔率
	OverUnder      map[string]float64 `json:"over_under,omitempty"`       // 大小球赔率
	BothTeamsScore map[string]float64 `json:"both_teams_score,omitempty"` // 双方进球赔率
	Handicap       map[string]float64 `json:"handicap,omitempty"`         // 让球赔率
	TotalMarkets   int                `json:"total_markets,omitempty"`    // 盘口总数
	ExtractedAt    time.Time          `json:"extracted_at"`               // 提取时间
}

// Validate 验证赔率数据(赔率必须为正数)
func (o *OddsData) Validate() error {
	for name, v := range map[string]float64{"home_win": o.HomeWin, "draw": o.Draw, "away_win": o.AwayWin} {
		if v < 0 {
			return fmt.Errorf("赔率不能为负数: %s=%.2f", name, v)
		}
	}
	return nil
}

// ScoreData 比分数据
type ScoreData struct {
	HomeScore int    `json:"home_score"`          // 主队得分
	AwayScore int    `json:"away_score"`          // 客队得分
	RawScore  string `json:"raw_score,omitempty"` // 原始比分文本
}

// MatchEvent 比赛事件
type MatchEvent struct {
	Minute      string    `json:"minute,omitempty"` // 事件发生时间(分钟)
	Type        EventType `json:"type,omitempty"`   // 事件类型
	Player      string    `json:"player,omitempty"` // 相关球员
	Team        string    `json:"team,omitempty"`   // 相关球队
	Description string    `json:"description"`      // 事件描述
}

// Validate 验证比赛事件
func (e *MatchEvent) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("事件描述不能为空")
	}
	return nil
}

// MatchStatistics 比赛统计
type MatchStatistics struct {
	Possession    map[string]int     `json:"possession,omitempty"`      // 控球率
	Shots         map[string]int     `json:"shots,omitempty"`           // 射门次数
	ShotsOnTarget map[string]int     `json:"shots_on_target,omitempty"` // 射正次数
	Passes        map[string]int     `json:"passes,omitempty"`          // 传球次数
	PassAccuracy  map[string]float64 `json:"pass_accuracy,omitempty"`   // 传球成功率
	Fouls         map[string]int     `json:"fouls,omitempty"`           // 犯规次数
	Corners       map[string]int     `json:"corners,omitempty"`         // 角球次数
	Offsides      map[string]int     `json:"offsides,omitempty"`        // 越位次数
	YellowCards   map[string]int     `json:"yellow_cards,omitempty"`    // 黄牌数
	RedCards      map[string]int     `json:"red_cards,omitempty"`       // 红牌数
	Available     bool               `json:"available"`                 // 统计数据是否可用
}

// WeatherData 天气数据
type WeatherData struct {
	Temperature   float64 `json:"temperature,omitempty"`   // 温度(摄氏度)
	Humidity      float64 `json:"humidity,omitempty"`      // 湿度(%)
	WindSpeed     float64 `json:"wind_speed,omitempty"`    // 风速(km/h)
	Conditions    string  `json:"conditions,omitempty"`    // 天气状况
	Precipitation float64 `json:"precipitation,omitempty"` // 降水量(mm)
	Available     bool    `json:"available"`               // 天气数据是否可用
}

// PlayerInfo 球员信息
type PlayerInfo struct {
	Name        string `json:"name"`                  // 球员姓名
	Position    string `json:"position,omitempty"`    // 场上位置
	Number      int    `json:"number,omitempty"`      // 球衣号码
	Nationality string `json:"nationality,omitempty"` // 国籍
}

// LineupData 阵容数据
type LineupData struct {
	Formation      string       `json:"formation,omitempty"`       // 阵型
	StartingEleven []PlayerInfo `json:"starting_eleven,omitempty"` // 首发球员
	Substitutes    []PlayerInfo `json:"substitutes,omitempty"`     // 替补球员
	Coach          string       `json:"coach,omitempty"`           // 教练
	Available      bool         `json:"available"`                 // 阵容数据是否可用
}

// PlayerStatistics 球员统计
type PlayerStatistics struct {
	Name          string  `json:"name"`                     // 球员姓名
	Position      string  `json:"position,omitempty"`       // 场上位置
	Rating        float64 `json:"rating,omitempty"`         // 评分 (0-10)
	Goals         int     `json:"goals"`                    // 进球数
	Assists       int     `json:"assists"`                  // 助攻数
	YellowCards   int     `json:"yellow_cards"`             // 黄牌数
	RedCards      int     `json:"red_cards"`                // 红牌数
	MinutesPlayed int     `json:"minutes_played,omitempty"` // 出场时间
}

// MatchData 完整比赛数据
type MatchData struct {
	MatchID     string      `json:"match_id"`              // 比赛唯一标识
	Sport       string      `json:"sport"`                 // 运动类型
	Competition string      `json:"competition,omitempty"` // 联赛名称
	Status      MatchStatus `json:"status"`                // 比赛状态

	// 球队信息
	Teams map[string]TeamInfo `json:"teams"` // home_team / away_team

	// 时间信息
	MatchTime string `json:"match_time,omitempty"` // 比赛时间
	MatchURL  string `json:"match_url,omitempty"`  // 比赛详情URL

	// 赛前数据
	Odds    *OddsData             `json:"odds,omitempty"`    // 赔率
	Weather *WeatherData          `json:"weather,omitempty"` // 天气
	Lineups map[string]LineupData `json:"lineups,omitempty"` // 阵容

	// 赛后数据
	FinalScore       *ScoreData                    `json:"final_score,omitempty"`       // 最终比分
	HalfTimeScore    *ScoreData                    `json:"half_time_score,omitempty"`   // 半场比分
	Events           []MatchEvent                  `json:"events,omitempty"`            // 比赛事件
	Statistics       *MatchStatistics              `json:"statistics,omitempty"`        // 比赛统计
	PlayerStatistics map[string][]PlayerStatistics `json:"player_statistics,omitempty"` // 球员统计

	// 元数据
	ExtractedAt      time.Time `json:"extracted_at"`      // 提取时间
	ExtractionSource string    `json:"extraction_source"` // 数据来源
}

// Validate 验证比赛数据
func (m *MatchData) Validate() error {
	if strings.TrimSpace(m.MatchID) == "" {
		return fmt.Errorf("比赛ID不能为空")
	}
	if strings.TrimSpace(m.Sport) == "" {
		return fmt.Errorf("运动类型不能为空")
	}
	if m.Status == "" {
		return fmt.Errorf("比赛状态不能为空")
	}

	// 球队信息必须包含主客队
	if _, ok := m.Teams["home_team"]; !ok {
		return fmt.Errorf("缺少主队信息")
	}
	if _, ok := m.Teams["away_team"]; !ok {
		return fmt.Errorf("缺少客队信息")
	}
	for key, team := range m.Teams {
		if err := team.Validate(); err != nil {
			return fmt.Errorf("球队信息无效 [%s]: %w", key, err)
		}
	}

	if m.MatchURL != "" && !isHTTPURL(m.MatchURL) {
		return fmt.Errorf("比赛URL必须是http/https链接: %s", m.MatchURL)
	}

	if m.Odds != nil {
		if err := m.Odds.Validate(); err != nil {
			return err
		}
	}
	for i := range m.Events {
		if err := m.Events[i].Validate(); err != nil {
			return fmt.Errorf("比赛事件无效 [#%d]: %w", i, err)
		}
	}

	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
