package log

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"boutique/internal/domain"
)

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.New(newCore(zapcore.AddSync(os.Stdout), zapcore.InfoLevel)))
}

func newCore(w zapcore.WriteSyncer, level zapcore.LevelEnabler) zapcore.Core {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.MessageKey = "action"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(enc), w, level)
}

// Init replaces the process logger with one writing JSON lines to stdout and,
// when file is set, appending to that file. The returned func flushes and
// closes the file.
func Init(level, file string) (func() error, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	var f *os.File
	if file != "" {
		var err error
		f, err = os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			L().Warn("log.file.open", zap.String("file", file), zap.Error(err))
		} else {
			sinks = append(sinks, zapcore.AddSync(f))
		}
	}
	l := zap.New(newCore(zapcore.NewMultiWriteSyncer(sinks...), lvl))
	current.Store(l)
	return func() error {
		_ = l.Sync()
		if f != nil {
			return f.Close()
		}
		return nil
	}, nil
}

// SetLogger swaps the process logger and returns a func restoring the previous one.
func SetLogger(l *zap.Logger) func() {
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

func L() *zap.Logger { return current.Load() }

func requestFields(c *fiber.Ctx) []zap.Field {
	if c == nil {
		return nil
	}
	fs := []zap.Field{
		zap.String("ip", c.IP()),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		fs = append(fs, zap.String("req_id", rid))
	}
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		fs = append(fs, zap.String("user_id", u.ID))
	}
	return fs
}

func write(level zapcore.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	fs := append(requestFields(c), zap.String("kind", kind))
	if err != nil {
		fs = append(fs, zap.String("err", err.Error()))
	}
	if len(fields) > 0 {
		fs = append(fs, zap.Any("fields", fields))
	}
	if ce := L().Check(level, action); ce != nil {
		ce.Write(fs...)
	}
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "info", c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "audit", c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.WarnLevel, "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zapcore.ErrorLevel, "error", c, action, err, fields)
}

// Access logs one completed request.
func Access(c *fiber.Ctx, latency time.Duration) {
	fs := append(requestFields(c), zap.String("kind", "access"), zap.Int64("latency_ms", latency.Milliseconds()))
	L().Info("http.access", fs...)
}
