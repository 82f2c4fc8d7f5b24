package core

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/sportfeed/betscrawler/internal/models"
)

// Exporter 数据导出器
// 支持JSON和CSV两种格式,CSV导出扁平化的核心字段
type Exporter struct {
	baseDir string
	log     zerolog.Logger
}

// NewExporter 创建数据导出器
func NewExporter(baseDir string, log zerolog.Logger) *Exporter {
	return &Exporter{baseDir: baseDir, log: log}
}

// ExportJSON 导出比赛数据为JSON文件
func (e *Exporter) ExportJSON(matches []models.MatchData, filename string) (string, error) {
	if err := os.MkdirAll(e.baseDir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化比赛数据失败: %w", err)
	}

	path := filepath.Join(e.baseDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("写入JSON文件失败: %w", err)
	}

	e.log.Info().Str("path", path).Int("count", len(matches)).Msg("📄 JSON导出完成")
	return path, nil
}

// csv导出的列
var csvHeader = []string{
	"match_id", "sport", "competition", "status",
	"home_team", "away_team", "match_time", "match_url",
	"home_win_odds", "draw_odds", "away_win_odds",
	"home_score", "away_score", "extracted_at",
}

// ExportCSV 导出比赛数据为CSV文件
func (e *Exporter) ExportCSV(matches []models.MatchData, filename string) (string, error) {
	if err := os.MkdirAll(e.baseDir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	path := filepath.Join(e.baseDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建CSV文件失败: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("写入CSV表头失败: %w", err)
	}

	for i := range matches {
		if err := w.Write(csvRow(&matches[i])); err != nil {
			return "", fmt.Errorf("写入CSV记录失败: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("刷新CSV文件失败: %w", err)
	}

	e.log.Info().Str("path", path).Int("count", len(matches)).Msg("📄 CSV导出完成")
	return path, nil
}

// csvRow 将比赛数据扁平化为CSV记录
func csvRow(m *models.MatchData) []string {
	row := []string{
		m.MatchID,
		m.Sport,
		m.Competition,
		string(m.Status),
		m.Teams["home_team"].Name,
		m.Teams["away_team"].Name,
		m.MatchTime,
		m.MatchURL,
	}

	if m.Odds != nil {
		row = append(row,
			formatOdd(m.Odds.HomeWin),
			formatOdd(m.Odds.Draw),
			formatOdd(m.Odds.AwayWin),
		)
	} else {
		row = append(row, "", "", "")
	}

	if m.FinalScore != nil {
		row = append(row,
			strconv.Itoa(m.FinalScore.HomeScore),
			strconv.Itoa(m.FinalScore.AwayScore),
		)
	} else {
		row = append(row, "", "")
	}

	return append(row, m.ExtractedAt.Format(time.RFC3339))
}

// formatOdd 格式化赔率,零值输出为空
func formatOdd(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
