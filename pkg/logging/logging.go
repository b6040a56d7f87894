// Package logging 提供基于 zerolog 的全局结构化日志。
//
// 用法：
//
//	logging.Init(logging.Config{Level: "info", Format: "console"})
//	logging.Logger().Info().Int("epoch", 10).Float64("loss", 0.69).Msg("training")
//
//	// 训练/推荐一次运行携带 run_id
//	ctx = logging.WithRun(ctx)
//	logging.Ctx(ctx).Info().Msg("started")
//
// 日志链必须以 Msg() 或 Send() 结尾，否则不会输出。
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config 日志配置。
type Config struct {
	// Level: trace / debug / info / warn / error / disabled，默认 info
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal disabled"`

	// Format: json / console，默认 console
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Output 默认 os.Stderr
	Output io.Writer `koanf:"-"`
}

// DefaultConfig 返回默认日志配置。
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	initLogger(DefaultConfig())
}

// Init 重新配置全局 logger，可重复调用。
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: "15:04:05",
		}
	}
	log = zerolog.New(output).With().Timestamp().Logger()
}

// ParseLevel 把字符串转换为 zerolog.Level，未知值按 info 处理。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger 返回全局 logger 的副本。
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// With 返回带有 component 字段的子 logger。
func With(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}

type runKey struct{}

// WithRun 为 ctx 生成一个 run_id，并把带 run_id 的 logger 挂到 ctx 上。
// 若 ctx 已带 run_id，则原样返回。
func WithRun(ctx context.Context) context.Context {
	if RunID(ctx) != "" {
		return ctx
	}
	id := uuid.New().String()[:8]
	ctx = context.WithValue(ctx, runKey{}, id)
	l := Logger().With().Str("run_id", id).Logger()
	return l.WithContext(ctx)
}

// RunID 返回 ctx 上的 run_id，没有则为空。
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runKey{}).(string); ok {
		return id
	}
	return ""
}

// Ctx 返回 ctx 上挂载的 logger；未挂载时回落到全局 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return Logger()
}
