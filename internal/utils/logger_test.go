package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitLogger(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	config := DefaultLogConfig()
	config.LogDir = logDir

	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志系统失败: %v", err)
	}

	// 日志目录被创建
	if _, err := os.Stat(logDir); err != nil {
		t.Errorf("日志目录未创建: %v", err)
	}

	// 写入一条日志后主日志文件存在
	Logger.Info().Msg("测试日志")
	if _, err := os.Stat(filepath.Join(logDir, "betscrawler.log")); err != nil {
		t.Errorf("主日志文件未创建: %v", err)
	}
}

func TestInitLoggerErrorFileOnlyReceivesErrors(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	config := DefaultLogConfig()
	config.LogDir = logDir

	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志系统失败: %v", err)
	}

	Logger.Info().Msg("普通信息消息")
	Logger.Error().Msg("会话导航错误")

	data, err := os.ReadFile(filepath.Join(logDir, "betscrawler_error.log"))
	if err != nil {
		t.Fatalf("读取错误日志文件失败: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "会话导航错误") {
		t.Error("错误级别日志应写入错误日志文件")
	}
	if strings.Contains(content, "普通信息消息") {
		t.Error("信息级别日志不应写入错误日志文件")
	}

	// 主日志文件收到所有级别
	mainData, err := os.ReadFile(filepath.Join(logDir, "betscrawler.log"))
	if err != nil {
		t.Fatalf("读取主日志文件失败: %v", err)
	}
	if !strings.Contains(string(mainData), "普通信息消息") || !strings.Contains(string(mainData), "会话导航错误") {
		t.Error("主日志文件应包含所有级别的日志")
	}
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	config := DefaultLogConfig()
	config.LogDir = filepath.Join(t.TempDir(), "logs")
	config.Level = "不是级别"

	// 无效级别回退到info而不是失败
	if err := InitLogger(config); err != nil {
		t.Fatalf("无效日志级别不应导致初始化失败: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("全局级别 = %s, 期望 info", zerolog.GlobalLevel())
	}
}

func TestFilteredWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &FilteredWriter{Writer: &buf, MinLevel: zerolog.ErrorLevel}

	if _, err := w.WriteLevel(zerolog.InfoLevel, []byte("info消息\n")); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if buf.Len() != 0 {
		t.Error("低于最小级别的日志不应写入")
	}

	if _, err := w.WriteLevel(zerolog.ErrorLevel, []byte("error消息\n")); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if !strings.Contains(buf.String(), "error消息") {
		t.Error("达到最小级别的日志应写入")
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	Logger = zerolog.New(&buf)

	log := ComponentLogger("session")
	log.Info().Msg("组件日志")

	if !strings.Contains(buf.String(), `"component":"session"`) {
		t.Errorf("子日志器应携带组件标识: %s", buf.String())
	}
}
