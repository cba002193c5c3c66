package threadpool

import (
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Log struct {
	access *zap.Logger
	err    *zap.Logger
	app    *zap.Logger
}

func NewLog(cfg LogConfig) *Log {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	appLevel := zap.InfoLevel
	if cfg.Debug {
		appLevel = zap.DebugLevel
	}

	accessCore := zapcore.NewCore(encoder, cfg.sink(cfg.AccessFile), zap.InfoLevel)
	errorCore := zapcore.NewCore(encoder, cfg.sink(cfg.ErrorFile), zap.ErrorLevel)
	appCore := zapcore.NewCore(encoder, cfg.sink(cfg.AppFile), appLevel)

	return &Log{
		access: zap.New(accessCore, zap.AddCaller()),
		err:    zap.New(errorCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)),
		// worker 的错误同时写入 error 日志
		app: zap.New(zapcore.NewTee(appCore, errorCore), zap.AddCaller()),
	}
}

// NewNopLog 不输出任何内容
func NewNopLog() *Log {
	return NewLogFromCore(zapcore.NewNopCore())
}

// NewLogFromCore 三类日志共用同一个 core，测试中配合 zaptest/observer 使用
func NewLogFromCore(core zapcore.Core) *Log {
	return &Log{
		access: zap.New(core).Named("access"),
		err:    zap.New(core).Named("error"),
		app:    zap.New(core).Named("app"),
	}
}

func (cfg LogConfig) sink(filename string) zapcore.WriteSyncer {
	if filename == "" {
		return zapcore.Lock(stdout{os.Stdout})
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
}

// stdout 终端或管道上 fsync 会失败，忽略之
type stdout struct{ *os.File }

func (stdout) Sync() error { return nil }

func (l *Log) Access(msg string, fields ...zap.Field) {
	l.access.Info(msg, fields...)
}

func (l *Log) Error(err error, msg string, fields ...zap.Field) {
	l.err.Error(msg, append(fields, zap.Error(err))...)
}

func (l *Log) App(msg string, fields ...zap.Field) {
	l.app.Info(msg, fields...)
}

// AppLogger 交给 Pool 使用
func (l *Log) AppLogger() *zap.Logger {
	return l.app
}

func (l *Log) Sync() error {
	return multierr.Combine(l.access.Sync(), l.err.Sync(), l.app.Sync())
}
