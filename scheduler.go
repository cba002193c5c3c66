package threadpool

import (
	"sync"
	"time"
)

type Scheduler struct {
	tasks []*SchedulerTask
	mu    sync.Mutex
	quit  chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	loop      sync.WaitGroup
	running   sync.WaitGroup
}

type SchedulerTask struct {
	Interval time.Duration
	Next     int64
	Handler  func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		tasks: make([]*SchedulerTask, 0),
		quit:  make(chan struct{}),
	}
}

// Start 启动 tick 循环，重复调用无效
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.loop.Add(1)
		go func() {
			defer s.loop.Done()
			ticker := time.NewTicker(time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					s.tick()
				case <-s.quit:
					return
				}
			}
		}()
	})
}

// Stop 停止 tick 并等待正在执行的任务返回，可重复调用
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.loop.Wait()
		s.running.Wait()
	})
}

func (s *Scheduler) tick() {
	now := time.Now().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if now >= t.Next {
			// 别阻塞 tick，用 goroutine 执行任务
			s.running.Add(1)
			go func(task *SchedulerTask) {
				defer s.running.Done()
				defer func() { recover() }()
				task.Handler()
			}(t)

			t.Next = now + int64(t.Interval)
		}
	}
}

func (s *Scheduler) Every(interval time.Duration, handler func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, &SchedulerTask{
		Interval: interval,
		Next:     time.Now().UnixNano() + int64(interval),
		Handler:  handler,
	})
	s.mu.Unlock()
}
