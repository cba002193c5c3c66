package threadpool

import "go.uber.org/zap"

// Option 配置 Pool
type Option func(opts *Options)

// Options 池的可选配置
type Options struct {
	// Logger 记录 worker 的调度与异常，默认不输出
	Logger *zap.Logger

	// PanicHandler 在任务 panic 后、worker 退出前被调用
	PanicHandler func(workerID int, recovered any)

	// LockOSThread 为 true 时每个 worker 独占一个系统线程
	LockOSThread bool
}

func loadOptions(options ...Option) *Options {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func WithPanicHandler(handler func(workerID int, recovered any)) Option {
	return func(opts *Options) {
		opts.PanicHandler = handler
	}
}

func WithLockOSThread(lock bool) Option {
	return func(opts *Options) {
		opts.LockOSThread = lock
	}
}
