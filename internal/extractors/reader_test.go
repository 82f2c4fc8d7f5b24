package extractors

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// parseFragment 将HTML片段解析为goquery选择集(取body下第一个元素)
func parseFragment(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("解析HTML片段失败: %v", err)
	}
	return doc.Find("body").Children().First()
}

func TestParseOddValue(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  float64
		valid bool
	}{
		{"普通赔率", "1.85", 1.85, true},
		{"带空白", "  2.10  ", 2.10, true},
		{"带标签文本", "W1 3.25", 3.25, true},
		{"整数赔率", "12", 12, true},
		{"空文本", "", 0, false},
		{"无数字", "N/A", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseOddValue(tt.text)
			if ok != tt.valid {
				t.Fatalf("parseOddValue(%q) ok = %v, 期望 %v", tt.text, ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Errorf("parseOddValue(%q) = %v, 期望 %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseStatNumber(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  int
		valid bool
	}{
		{"百分比取数字部分", "55%", 55, true},
		{"普通整数", "12", 12, true},
		{"带文本的数字", "Shots: 8", 8, true},
		{"无数字", "无数据", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseStatNumber(tt.text)
			if ok != tt.valid {
				t.Fatalf("parseStatNumber(%q) ok = %v, 期望 %v", tt.text, ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Errorf("parseStatNumber(%q) = %d, 期望 %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantHome int
		wantAway int
		parsed   bool
	}{
		{"冒号格式", "2:1", 2, 1, true},
		{"连字符格式", "3-0", 3, 0, true},
		{"空格格式", "1 1", 1, 1, true},
		{"带空白", "  2:1  ", 2, 1, true},
		{"大比分", "10:12", 10, 12, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseScore(tt.text)
			if got == nil {
				t.Fatalf("parseScore(%q) = nil", tt.text)
			}
			if tt.parsed {
				if got["home_score"] != tt.wantHome || got["away_score"] != tt.wantAway {
					t.Errorf("parseScore(%q) = %v, 期望 %d:%d", tt.text, got, tt.wantHome, tt.wantAway)
				}
			}
		})
	}

	t.Run("空文本返回nil", func(t *testing.T) {
		if got := parseScore("   "); got != nil {
			t.Errorf("空比分应返回nil, 实际: %v", got)
		}
	})

	t.Run("无法解析时保留原文", func(t *testing.T) {
		got := parseScore("取消")
		if got == nil || got["raw_score"] != "取消" {
			t.Errorf("无法解析的比分应保留原文, 实际: %v", got)
		}
		if _, ok := got["home_score"]; ok {
			t.Error("无法解析时不应包含home_score")
		}
	})
}

func TestParseMatchTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"冒号格式", "18:30", "2025-06-15T18:30:00Z"},
		{"点号格式", "18.30", "2025-06-15T18:30:00Z"},
		{"h格式", "18h30", "2025-06-15T18:30:00Z"},
		{"单位小时", "9:05", "2025-06-15T09:05:00Z"},
		{"小时越界保留原文", "25:30", "25:30"},
		{"分钟越界保留原文", "18:75", "18:75"},
		{"无法解析保留原文", "Today", "Today"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseMatchTime(tt.text, now); got != tt.want {
				t.Errorf("parseMatchTime(%q) = %q, 期望 %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractMatchID(t *testing.T) {
	t.Run("data属性优先", func(t *testing.T) {
		item := parseFragment(t, `<div class="c-events__item" data-id="12345"></div>`)
		if got := extractMatchID(item); got != "12345" {
			t.Errorf("extractMatchID = %q, 期望 12345", got)
		}
	})

	t.Run("data-match-id次之", func(t *testing.T) {
		item := parseFragment(t, `<div class="c-events__item" data-match-id="67890"></div>`)
		if got := extractMatchID(item); got != "67890" {
			t.Errorf("extractMatchID = %q, 期望 67890", got)
		}
	})

	t.Run("class中的id片段", func(t *testing.T) {
		item := parseFragment(t, `<div class="c-events__item id-98765"></div>`)
		if got := extractMatchID(item); got != "98765" {
			t.Errorf("extractMatchID = %q, 期望 98765", got)
		}
	})

	t.Run("队伍文本哈希兜底", func(t *testing.T) {
		html := `<div class="c-events__item"><div class="c-events__teams">Arsenal - Chelsea</div></div>`
		got := extractMatchID(parseFragment(t, html))
		if !strings.HasPrefix(got, "match_") {
			t.Errorf("兜底ID应以match_开头, 实际: %q", got)
		}
		// 同样的队伍文本生成稳定的ID
		again := extractMatchID(parseFragment(t, html))
		if got != again {
			t.Errorf("兜底ID应稳定: %q != %q", got, again)
		}
	})

	t.Run("无任何信息返回空", func(t *testing.T) {
		item := parseFragment(t, `<div class="c-events__item"></div>`)
		if got := extractMatchID(item); got != "" {
			t.Errorf("extractMatchID = %q, 期望空字符串", got)
		}
	})
}

func TestExtractTeams(t *testing.T) {
	t.Run("标准队伍元素", func(t *testing.T) {
		item := parseFragment(t, `<div class="c-events__item">
			<div class="c-events__teams">
				<span class="c-events__team">Arsenal</span>
				<span class="c-events__team">Chelsea</span>
			</div>
		</div>`)
		teams := extractTeams(item)
		if teams == nil {
			t.Fatal("extractTeams = nil")
		}
		home := teams["home_team"].(map[string]interface{})
		away := teams["away_team"].(map[string]interface{})
		if home["name"] != "Arsenal" || away["name"] != "Chelsea" {
			t.Errorf("队伍名称错误: %v", teams)
		}
	})

	t.Run("队伍logo", func(t *testing.T) {
		item := parseFragment(t, `<div class="c-events__item">
			<div class="c-events__teams">
				<span class="c-events__team">Arsenal<img src="/logo/arsenal.png"></span>
				<span class="c-events__team">Chelsea</span>
			</div>
		</div>`)
		teams := extractTeams(item)
		home := teams["home_team"].(map[string]interface{})
		if home["logo_url"] != "/logo/arsenal.png" {
			t.Errorf("logo_url = %v", home["logo_url"])
		}
	})

	t.Run("team-name退化选择器", func(t *testing.T) {
		item := parseFragment(t, `<div class="c-events__item">
			<div class="c-events__teams">
				<div class="team-name">Lakers</div>
				<div class="team-name">Celtics</div>
			</div>
		</div>`)
		teams := extractTeams(item)
		if teams == nil {
			t.Fatal("extractTeams = nil")
		}
		home := teams["home_team"].(map[string]interface{})
		if home["name"] != "Lakers" {
			t.Errorf("home_team = %v", home)
		}
	})

	t.Run("文本分割兜底", func(t *testing.T) {
		item := parseFragment(t, `<div class="c-events__item">
			<div class="c-events__teams">Real Madrid - Barcelona</div>
		</div>`)
		teams := extractTeams(item)
		if teams == nil {
			t.Fatal("extractTeams = nil")
		}
		home := teams["home_team"].(map[string]interface{})
		away := teams["away_team"].(map[string]interface{})
		if home["name"] != "Real Madrid" || away["name"] != "Barcelona" {
			t.Errorf("队伍分割错误: %v", teams)
		}
	})

	t.Run("无队伍容器返回nil", func(t *testing.T) {
		item := parseFragment(t, `<div class="c-events__item"></div>`)
		if teams := extractTeams(item); teams != nil {
			t.Errorf("无队伍信息应返回nil: %v", teams)
		}
	})
}

func TestExtractMatchURL(t *testing.T) {
	t.Run("相对路径补全域名", func(t *testing.T) {
		item := parseFragment(t, `<div><a href="/en/line/football/12345">详情</a></div>`)
		want := "https://1xbet.com/en/line/football/12345"
		if got := extractMatchURL(item); got != want {
			t.Errorf("extractMatchURL = %q, 期望 %q", got, want)
		}
	})

	t.Run("绝对路径保持不变", func(t *testing.T) {
		item := parseFragment(t, `<div><a href="https://example.com/match/1">详情</a></div>`)
		if got := extractMatchURL(item); got != "https://example.com/match/1" {
			t.Errorf("extractMatchURL = %q", got)
		}
	})

	t.Run("无链接返回空", func(t *testing.T) {
		item := parseFragment(t, `<div></div>`)
		if got := extractMatchURL(item); got != "" {
			t.Errorf("extractMatchURL = %q, 期望空", got)
		}
	})
}

func TestFirstText(t *testing.T) {
	item := parseFragment(t, `<div>
		<span class="empty"></span>
		<span class="second">第二个</span>
	</div>`)
	if got := firstText(item, ".empty", ".second"); got != "第二个" {
		t.Errorf("firstText应跳过空元素, 实际: %q", got)
	}
	if got := firstText(item, ".missing"); got != "" {
		t.Errorf("未命中选择器应返回空, 实际: %q", got)
	}
}
