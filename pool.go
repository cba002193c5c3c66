package threadpool

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Job 无参数、无返回值的一次性任务
type Job func()

// Stats 池的运行计数
type Stats struct {
	Submitted      int64
	Completed      int64
	Panicked       int64
	TerminatesSent int64
}

// InFlight 已提交但尚未结束的任务数（排队中或执行中）
func (s Stats) InFlight() int64 {
	return s.Submitted - s.Completed - s.Panicked
}

// Pool 固定大小的 worker 池。
// 用法：
//
//	p := threadpool.New(4)
//	defer p.Close()
//	p.Submit(func() { ... })
type Pool struct {
	workers []*worker
	queue   *workQueue
	opts    *Options

	mu sync.Mutex // 串行化 Shutdown

	submitted  atomic.Int64
	completed  atomic.Int64
	panicked   atomic.Int64
	terminates atomic.Int64
}

// New 创建并启动 size 个 worker，size <= 0 时 panic
func New(size int, options ...Option) *Pool {
	if size <= 0 {
		panic(ErrInvalidSize)
	}

	p := &Pool{
		workers: make([]*worker, 0, size),
		queue:   newWorkQueue(),
		opts:    loadOptions(options...),
	}
	for id := 0; id < size; id++ {
		p.workers = append(p.workers, newWorker(id, p.queue, p))
	}
	p.opts.Logger.Info("pool started", zap.Int("workers", size))
	return p
}

// Submit 投递任务，由某一个 worker 恰好执行一次。
// 池关闭后调用属于使用错误，会 panic。
func (p *Pool) Submit(job Job) {
	p.SubmitFunc(func(int) { job() })
}

// SubmitFunc 与 Submit 相同，执行时传入 worker id
func (p *Pool) SubmitFunc(fn func(workerID int)) {
	p.submitted.Add(1)
	if err := p.queue.Send(NewJob{Run: fn}); err != nil {
		p.submitted.Add(-1)
		panic(err)
	}
}

// Shutdown 先为每个 worker 发送一个 Terminate，再逐个 join。
// 可重复调用，已 join 的 worker 会被跳过。
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	live := 0
	for _, w := range p.workers {
		if w.done != nil {
			live++
		}
	}
	if live == 0 {
		return
	}

	sent := p.queue.Seal(live)
	p.terminates.Add(int64(sent))
	p.opts.Logger.Info("pool shutting down", zap.Int("terminates", sent))

	for _, w := range p.workers {
		if w.join() {
			p.opts.Logger.Debug("worker joined", zap.Int("worker", w.id))
		}
	}
	p.opts.Logger.Info("pool stopped")
}

// Close 实现 io.Closer
func (p *Pool) Close() error {
	p.Shutdown()
	return nil
}

func (p *Pool) Size() int {
	return len(p.workers)
}

// WorkerIDs 返回各 worker 的 id，按创建顺序
func (p *Pool) WorkerIDs() []int {
	ids := make([]int, len(p.workers))
	for i, w := range p.workers {
		ids[i] = w.id
	}
	return ids
}

// Pending 返回队列中尚未被取走的消息数
func (p *Pool) Pending() int {
	return p.queue.Len()
}

func (p *Pool) Stats() Stats {
	return Stats{
		Submitted:      p.submitted.Load(),
		Completed:      p.completed.Load(),
		Panicked:       p.panicked.Load(),
		TerminatesSent: p.terminates.Load(),
	}
}
