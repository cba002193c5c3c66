package threadpool

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrServerClosed = errors.New("threadpool: server closed")

const maxAcceptDelay = time.Second

type Server struct {
	config    ServerConfig
	router    *Router
	eventBus  *EventBus
	scheduler *Scheduler
	log       *Log
	pool      *Pool

	mu       sync.Mutex
	ln       net.Listener
	closed   bool
	done     chan struct{}
	accepted sync.WaitGroup

	stopOnce sync.Once
	stopErr  error
}

func NewServerWithConfig(config ServerConfig) (*Server, error) {
	return NewServerWithLog(config, NewLog(config.Log))
}

// NewServerWithLog 使用外部提供的日志
func NewServerWithLog(config ServerConfig, log *Log) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	pool := New(config.PoolSize,
		WithLogger(log.AppLogger()),
		WithLockOSThread(config.LockOSThread),
	)
	return &Server{
		config:    config,
		router:    DefaultRouter(config.SleepDelay),
		eventBus:  NewEventBus(),
		scheduler: NewScheduler(),
		log:       log,
		pool:      pool,
		done:      make(chan struct{}),
	}, nil
}

// SetRouter 替换默认路由，须在 Start 之前调用
func (s *Server) SetRouter(r *Router) {
	s.router = r
}

func (s *Server) On(eventName int, handler func(payload EventPayload) error) {
	s.eventBus.Subscribe(eventName, handler)
}

// Every 注册周期任务，Serve 时开始执行，Stop 时停止
func (s *Server) Every(interval time.Duration, handler func()) {
	s.scheduler.Every(interval, handler)
}

func (s *Server) publish(eventName int, payload EventPayload) {
	if err := s.eventBus.Publish(eventName, payload); err != nil {
		s.log.Error(err, "event handler failed", zap.Int("event", eventName))
	}
}

// Listen 绑定地址，之后可通过 Addr 取得实际端口
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start 绑定并阻塞接收连接，Stop 之后返回 nil
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.ln
	if s.closed || ln == nil {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.accepted.Add(1)
	s.mu.Unlock()
	defer s.accepted.Done()

	s.log.App("server started", zap.String("addr", ln.Addr().String()), zap.Int("workers", s.pool.Size()))
	s.scheduler.Start()
	s.publish(ServerEventStarted, &ServerEventStartedPayload{
		Addr:    ln.Addr().String(),
		Workers: s.pool.Size(),
		Time:    time.Now(),
	})

	// 接收连接；连续失败时按 5ms 起翻倍、最多 1s 退避
	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > maxAcceptDelay {
				tempDelay = maxAcceptDelay
			}
			s.log.Error(err, "accept failed", zap.Duration("retry_in", tempDelay))
			s.publish(ServerEventError, &ServerEventErrorPayload{Err: err})
			select {
			case <-time.After(tempDelay):
			case <-s.done:
				return nil
			}
			continue
		}
		tempDelay = 0

		reqID := ksuid.New().String()
		s.pool.SubmitFunc(func(workerID int) {
			s.handleConn(conn, reqID, workerID)
		})
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handleConn(conn net.Conn, reqID string, workerID int) {
	defer conn.Close()
	start := time.Now()
	remote := conn.RemoteAddr().String()

	if s.config.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(s.config.ReadTimeout))
	}
	buf := make([]byte, s.config.BufSize)
	n, err := conn.Read(buf)
	if err != nil {
		s.fail(reqID, err, "read request failed", zap.String("remote", remote))
		return
	}

	route := s.router.Match(buf[:n])
	if route.Delay > 0 {
		time.Sleep(route.Delay)
	}

	status := route.Status
	contents, err := os.ReadFile(filepath.Join(s.config.Root, route.File))
	if err != nil {
		s.fail(reqID, err, "load response file failed", zap.String("file", route.File))
		status, contents = StatusInternalError, nil
	}

	response := FormatResponse(status, contents)
	if _, err := conn.Write(response); err != nil {
		s.fail(reqID, err, "write response failed", zap.String("remote", remote))
		return
	}

	elapsed := time.Since(start)
	s.log.Access("request served",
		zap.String("request_id", reqID),
		zap.String("remote", remote),
		zap.Int("worker", workerID),
		zap.String("status", status),
		zap.Int("bytes", len(contents)),
		zap.Duration("duration", elapsed),
	)
	s.publish(ServerEventRequestServed, &ServerEventRequestServedPayload{
		RequestID:  reqID,
		RemoteAddr: remote,
		WorkerID:   workerID,
		Status:     status,
		Bytes:      len(contents),
		Duration:   elapsed,
	})
}

func (s *Server) fail(reqID string, err error, msg string, fields ...zap.Field) {
	s.log.Error(err, msg, append(fields, zap.String("request_id", reqID))...)
	s.publish(ServerEventError, &ServerEventErrorPayload{RequestID: reqID, Err: err})
}

// FormatResponse 状态行 + Content-Length + 正文
func FormatResponse(status string, body []byte) []byte {
	header := fmt.Sprintf("%s\r\nContent-Length: %d\r\n\r\n", status, len(body))
	return append([]byte(header), body...)
}

// Stats 返回底层 Pool 的计数
func (s *Server) Stats() Stats {
	return s.pool.Stats()
}

// Pending 返回已接收、尚未被 worker 取走的连接数
func (s *Server) Pending() int {
	return s.pool.Pending()
}

// Stop 关闭监听，等待 accept 循环退出，再关闭 Pool 以处理完已接收的连接。
// 可重复调用。
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.done)
		ln := s.ln
		s.mu.Unlock()

		var err error
		if ln != nil {
			err = ln.Close()
		}
		s.accepted.Wait()
		s.scheduler.Stop()
		s.pool.Shutdown()

		stats := s.pool.Stats()
		s.log.App("server stopped",
			zap.Int64("submitted", stats.Submitted),
			zap.Int64("completed", stats.Completed),
			zap.Int64("panicked", stats.Panicked),
		)
		s.publish(ServerEventStopped, &ServerEventStoppedPayload{Stats: stats, Time: time.Now()})
		s.stopErr = multierr.Append(err, s.log.Sync())
	})
	return s.stopErr
}
