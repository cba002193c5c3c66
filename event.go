package threadpool

import (
	"sync"
	"time"
)

const (
	ServerEventError         = 1
	ServerEventStarted       = 2
	ServerEventRequestServed = 3
	ServerEventStopped       = 4
)

type EventPayload interface {
	isEventPayload()
}

type ServerEventErrorPayload struct {
	RequestID string
	Err       error
}

func (p *ServerEventErrorPayload) isEventPayload() {}

type ServerEventStartedPayload struct {
	Addr    string
	Workers int
	Time    time.Time
}

func (p *ServerEventStartedPayload) isEventPayload() {}

type ServerEventRequestServedPayload struct {
	RequestID  string
	RemoteAddr string
	WorkerID   int
	Status     string
	Bytes      int
	Duration   time.Duration
}

func (p *ServerEventRequestServedPayload) isEventPayload() {}

type ServerEventStoppedPayload struct {
	Stats Stats
	Time  time.Time
}

func (p *ServerEventStoppedPayload) isEventPayload() {}

type EventBus struct {
	subscribers map[int][]func(payload EventPayload) error
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[int][]func(payload EventPayload) error),
	}
}

func (bus *EventBus) Subscribe(eventName int, handler func(payload EventPayload) error) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers[eventName] = append(bus.subscribers[eventName], handler)
}

// Publish 同步调用订阅者，返回第一个出错的 handler 的错误
func (bus *EventBus) Publish(eventName int, payload EventPayload) error {
	bus.mu.RLock()
	handlers := bus.subscribers[eventName]
	bus.mu.RUnlock()

	var first error
	for _, handler := range handlers {
		if err := handler(payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (bus *EventBus) PublishAsync(eventName int, payload EventPayload) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, handler := range bus.subscribers[eventName] {
		go handler(payload)
	}
}
