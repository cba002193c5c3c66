package threadpool

import "errors"

var (
	// ErrInvalidSize 池大小必须为正数
	ErrInvalidSize = errors.New("threadpool: pool size must be greater than zero")
	// ErrPoolClosed 向已关闭的池投递任务
	ErrPoolClosed = errors.New("threadpool: pool is closed")
	// ErrQueueClosed 队列已关闭且没有剩余消息
	ErrQueueClosed = errors.New("threadpool: work queue closed")
)
