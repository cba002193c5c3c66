package threadpool

import "sync"

// Message 工作队列中的消息：NewJob 或 Terminate
type Message interface {
	isMessage()
}

// NewJob 携带一个待执行的任务
type NewJob struct {
	Run func(workerID int)
}

func (NewJob) isMessage() {}

// Terminate 通知恰好一个 worker 退出循环
type Terminate struct{}

func (Terminate) isMessage() {}

// workQueue 无界 FIFO，单生产者多消费者。
// 每次 Receive 只在出队期间持有锁，不覆盖任务执行。
type workQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Message
	closed bool
}

func newWorkQueue() *workQueue {
	q := &workQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *workQueue) Send(msg Message) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrPoolClosed
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.cond.Signal()
	return nil
}

// Receive 阻塞直到有消息；队列已封闭且取空时返回 ErrQueueClosed
func (q *workQueue) Receive() (Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.closed {
			return nil, ErrQueueClosed
		}
		q.cond.Wait()
	}
	msg := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return msg, nil
}

func (q *workQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Seal 追加 n 个 Terminate 并拒绝之后的 Send。
// 之前入队的任务仍按 FIFO 顺序先于这些 Terminate 被取走。
func (q *workQueue) Seal(n int) int {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	for i := 0; i < n; i++ {
		q.items = append(q.items, Terminate{})
	}
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
	return n
}
