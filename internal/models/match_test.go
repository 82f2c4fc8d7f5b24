package models

import (
	"strings"
	"testing"
	"time"
)

func validTestMatch() MatchData {
	return MatchData{
		MatchID: "12345",
		Sport:   "football",
		Status:  StatusPreMatch,
		Teams: map[string]TeamInfo{
			"home_team": {Name: "Arsenal"},
			"away_team": {Name: "Chelsea"},
		},
		MatchURL:         "https://1xbet.com/en/line/football/12345",
		ExtractedAt:      time.Now().UTC(),
		ExtractionSource: "1xbet.com",
	}
}

func TestMatchDataValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MatchData)
		wantErr string
	}{
		{"有效比赛", func(m *MatchData) {}, ""},
		{"比赛ID为空", func(m *MatchData) { m.MatchID = "  " }, "比赛ID不能为空"},
		{"运动类型为空", func(m *MatchData) { m.Sport = "" }, "运动类型不能为空"},
		{"状态为空", func(m *MatchData) { m.Status = "" }, "比赛状态不能为空"},
		{"缺少主队", func(m *MatchData) { delete(m.Teams, "home_team") }, "缺少主队信息"},
		{"缺少客队", func(m *MatchData) { delete(m.Teams, "away_team") }, "缺少客队信息"},
		{"球队名称为空", func(m *MatchData) {
			m.Teams["home_team"] = TeamInfo{Name: "  "}
		}, "球队名称不能为空"},
		{"队徽URL无效", func(m *MatchData) {
			m.Teams["home_team"] = TeamInfo{Name: "Arsenal", LogoURL: "ftp://bad"}
		}, "队徽URL必须是http/https链接"},
		{"比赛URL无效", func(m *MatchData) { m.MatchURL = "javascript:alert(1)" }, "比赛URL必须是http/https链接"},
		{"比赛URL可为空", func(m *MatchData) { m.MatchURL = "" }, ""},
		{"赔率为负数", func(m *MatchData) {
			m.Odds = &OddsData{HomeWin: -1.5}
		}, "赔率不能为负数"},
		{"赔率为零可接受", func(m *MatchData) {
			m.Odds = &OddsData{HomeWin: 0, Draw: 3.2}
		}, ""},
		{"事件缺少描述", func(m *MatchData) {
			m.Events = []MatchEvent{{Minute: "23", Type: EventGoal}}
		}, "事件描述不能为空"},
		{"有效事件", func(m *MatchData) {
			m.Events = []MatchEvent{{Minute: "23", Type: EventGoal, Description: "Saka进球"}}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := validTestMatch()
			tt.mutate(&match)
			err := match.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("期望通过验证, 实际: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("期望错误包含%q, 实际: %v", tt.wantErr, err)
			}
		})
	}
}
