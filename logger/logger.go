// Package logger 提供基于 log/slog 的结构化日志。
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ContextKey 用于从 context 中提取日志字段。
type ContextKey string

const (
	SessionIDKey ContextKey = "session_id"
	HeadingKey   ContextKey = "heading"
)

var defaultLogger *slog.Logger

// Init 初始化全局日志器，输出到 stderr（stdout 留给笔记正文）。
func Init(level string, format string) {
	InitWriter(os.Stderr, level, format)
}

// InitWriter 与 Init 相同，但允许指定输出位置。
func InitWriter(w io.Writer, level string, format string) {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Default 返回默认日志器，未初始化时使用 text/info。
func Default() *slog.Logger {
	if defaultLogger == nil {
		Init("info", "text")
	}
	return defaultLogger
}

// FromContext 从 context 提取 session/heading 信息创建带上下文的 Logger。
func FromContext(ctx context.Context) *slog.Logger {
	l := Default()
	if id := ctx.Value(SessionIDKey); id != nil {
		l = l.With("session_id", id)
	}
	if h := ctx.Value(HeadingKey); h != nil {
		l = l.With("heading", h)
	}
	return l
}

// WithContext 将日志字段注入 context。
func WithContext(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

func Info(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// Error 记录 ERROR 日志，err 非空时附加 error 字段。
func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	FromContext(ctx).Error(msg, args...)
}
