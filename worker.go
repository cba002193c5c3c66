package threadpool

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// worker 绑定一个 id 的常驻 goroutine
type worker struct {
	id int

	// done 在循环返回时关闭；join 之后置 nil，保证只被取走一次
	done chan struct{}
}

func newWorker(id int, queue *workQueue, p *Pool) *worker {
	w := &worker{
		id:   id,
		done: make(chan struct{}),
	}
	go w.run(queue, p)
	return w
}

func (w *worker) run(queue *workQueue, p *Pool) {
	defer close(w.done)
	if p.opts.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	log := p.opts.Logger.With(zap.Int("worker", w.id))
	for {
		msg, err := queue.Receive()
		if err != nil {
			log.Error("worker receive failed", zap.Error(err))
			return
		}

		switch m := msg.(type) {
		case NewJob:
			log.Debug("worker got a job; executing")
			if !w.execute(m, p, log) {
				return
			}
		case Terminate:
			log.Debug("worker was told to terminate")
			return
		}
	}
}

// execute 同步执行任务；任务 panic 时返回 false，worker 随之停止
func (w *worker) execute(job NewJob, p *Pool, log *zap.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			log.Error("job panicked, worker stopping",
				zap.Error(fmt.Errorf("panic: %v", r)),
				zap.Stack("stack"),
			)
			if p.opts.PanicHandler != nil {
				p.opts.PanicHandler(w.id, r)
			}
			ok = false
		}
	}()

	job.Run(w.id)
	p.completed.Add(1)
	return true
}

// join 等待 worker 退出并取走句柄；句柄已被取走时直接返回 false
func (w *worker) join() bool {
	if w.done == nil {
		return false
	}
	<-w.done
	w.done = nil
	return true
}
