package progress

import (
	"sync"

	"go.uber.org/zap"
)

// 单个订阅者的事件缓冲深度（一次摄取四个事件，留足几次摄取的余量）
const subscriberBuffer = 16

// Subscription 某一想定进度事件的订阅。
// 事件从 C 读取；退订后 C 被关闭
type Subscription struct {
	ScenarioID string
	C          <-chan Event

	ch chan Event
}

// Emitter 按想定分组的进度事件广播器。
// 无订阅者时发布是空操作；慢订阅者丢事件，从不阻塞管线。
// 订阅关系只增删，摄取进行中并发变更订阅是安全的
type Emitter struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	logger *zap.Logger
}

// NewEmitter 创建进度广播器
func NewEmitter(logger *zap.Logger) *Emitter {
	return &Emitter{
		subs:   make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe 订阅一个想定的进度事件
func (e *Emitter) Subscribe(scenarioID string) *Subscription {
	sub := &Subscription{
		ScenarioID: scenarioID,
		ch:         make(chan Event, subscriberBuffer),
	}
	sub.C = sub.ch

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs[scenarioID] == nil {
		e.subs[scenarioID] = make(map[*Subscription]struct{})
	}
	e.subs[scenarioID][sub] = struct{}{}
	return sub
}

// Unsubscribe 退订并关闭事件通道。重复退订是空操作
func (e *Emitter) Unsubscribe(sub *Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := e.subs[sub.ScenarioID]
	if set == nil {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(e.subs, sub.ScenarioID)
	}
	close(sub.ch)
}

// Emit 向事件想定的所有订阅者广播；订阅者缓冲满时丢弃该事件
func (e *Emitter) Emit(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for sub := range e.subs[event.ScenarioID] {
		select {
		case sub.ch <- event:
		default:
			e.logger.Warn("Progress subscriber is slow, dropping event",
				zap.String("scenario_id", event.ScenarioID),
				zap.String("event_type", event.Type),
			)
		}
	}
}
