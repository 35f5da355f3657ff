package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "chb-api"

// Options 日志输出配置，零值字段使用默认值
type Options struct {
	Level      string
	Dir        string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Stdout release 模式下同时输出到标准输出
	Stdout bool
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Dir) == "" {
		o.Dir = "logs"
	}
	if strings.TrimSpace(o.Filename) == "" {
		o.Filename = "chb-api.log"
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 50
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 10
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 30
	}
	return o
}

// L 全局日志实例，Init 之前为 nil
var L *zap.Logger

var (
	bootstrapOnce sync.Once
	bootstrapLog  *zap.Logger
)

// Init 初始化全局日志
func Init(mode string, options Options) *zap.Logger {
	L = New(mode, options)
	zap.ReplaceGlobals(L)
	return L
}

// New 按运行模式创建日志：debug 输出彩色控制台，其他模式写 JSON 滚动文件
func New(mode string, options Options) *zap.Logger {
	debug := strings.EqualFold(strings.TrimSpace(mode), "debug")
	level := resolveLevel(options.Level, debug)

	if debug {
		enc := encoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return newLogger(zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stdout), level))
	}

	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig())
	file, err := openRotatingFile(options.withDefaults())
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file unavailable, writing to stdout: %v\n", err)
		return newLogger(zapcore.NewCore(jsonEncoder, zapcore.Lock(os.Stdout), level))
	}
	core := zapcore.NewCore(jsonEncoder, file, level)
	if options.Stdout {
		core = zapcore.NewTee(core, zapcore.NewCore(jsonEncoder.Clone(), zapcore.Lock(os.Stdout), level))
	}
	return newLogger(core)
}

func resolveLevel(raw string, debug bool) zap.AtomicLevel {
	if lvl, err := zapcore.ParseLevel(strings.TrimSpace(raw)); err == nil && raw != "" {
		return zap.NewAtomicLevelAt(lvl)
	}
	if debug {
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zap.InfoLevel)
}

// StdLogger 适配标准库 log，供 http.Server.ErrorLog 使用
func StdLogger() *log.Logger {
	return zap.NewStdLog(Z().WithOptions(zap.AddCallerSkip(-1)))
}

// Z 全局日志，未初始化时返回控制台日志
func Z() *zap.Logger {
	if L != nil {
		return L
	}
	bootstrapOnce.Do(func() {
		bootstrapLog = newLogger(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig()),
			zapcore.Lock(os.Stdout),
			zap.NewAtomicLevelAt(zap.InfoLevel),
		))
	})
	return bootstrapLog
}

// S 全局 SugaredLogger
func S() *zap.SugaredLogger {
	return Z().Sugar()
}

// SW 附带字段的 SugaredLogger
func SW(kv ...interface{}) *zap.SugaredLogger {
	return S().With(kv...)
}

func Debugw(message string, kv ...interface{}) { S().Debugw(message, kv...) }

func Infow(message string, kv ...interface{}) { S().Infow(message, kv...) }

func Warnw(message string, kv ...interface{}) { S().Warnw(message, kv...) }

func Errorw(message string, kv ...interface{}) { S().Errorw(message, kv...) }

// Sync 刷新缓冲
func Sync() {
	_ = Z().Sync()
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.MessageKey = "event"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func newLogger(core zapcore.Core) *zap.Logger {
	return zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zap.ErrorLevel),
	).With(zap.String("service", serviceName))
}

func openRotatingFile(options Options) (zapcore.WriteSyncer, error) {
	path, err := prepareLogFile(options.Dir, options.Filename)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    options.MaxSizeMB,
		MaxBackups: options.MaxBackups,
		MaxAge:     options.MaxAgeDays,
		Compress:   options.Compress,
		LocalTime:  true,
	}), nil
}

// prepareLogFile 确认目录可写，相对目录基于工作目录
func prepareLogFile(dir, filename string) (string, error) {
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve workdir: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	return path, f.Close()
}
