package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"taste_match/config"
)

// Logger 全局日志记录器，Init 之前使用 slog 默认 logger，避免测试中出现 nil
var Logger = slog.Default()

// ParseLevel 将配置中的级别字符串转换为 slog.Level，未知值按 info 处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openWriter 根据 output 配置决定日志输出目标
func openWriter(output, filePath string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "file", "both":
		if filePath == "" {
			return os.Stdout, nil
		}
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(output, "both") {
			return io.MultiWriter(os.Stdout, file), nil
		}
		return file, nil
	default:
		return os.Stdout, nil
	}
}

// Init 使用配置文件初始化日志系统
func Init(cfg *config.Config) error {
	writer, err := openWriter(cfg.Log.Output, cfg.Log.FilePath)
	if err != nil {
		return err
	}
	InitWithWriter(writer, cfg.Log.Level, cfg.Log.Format)
	return nil
}

// InitWithWriter 直接指定输出目标，CLI 和测试使用
func InitWithWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// With 返回带固定字段的子 logger
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}
