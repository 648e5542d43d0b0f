package eventbus

import (
	"context"
	"sync"
	"time"
)

// Envelope описывает универсальный контейнер события.
// Все поля фиксированы для версиирования и трассировки.
type Envelope struct {
	ID        string            // Глобально уникальный идентификатор (UUID).
	Timestamp time.Time         // Время создания события (UTC).
	Source    string            // Имя сервиса-источника.
	EventType string            // Тип события (session_created, lines_cleared…).
	Version   int               // Схема полезной нагрузки.
	Payload   []byte            // Сериализованный JSON.
	Metadata  map[string]string // Произвольные метаданные.
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types []string // Если пусто — все типы.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
}

// EventBus определяет абстракцию шины событий.
// Продакшен-реализация — NATS JetStream; in-memory вариант используется
// в тестах и при запуске без брокера.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]memorySubscriber
	nextID      int
	stats       Stats
	buffer      chan *Envelope
	done        chan struct{}
}

type memorySubscriber struct {
	filter  Filter
	handler Handler
}

// NewMemoryBus создает in-memory шину с указанным размером буфера.
func NewMemoryBus(capacity int) EventBus {
	mb := &memoryBus{
		subscribers: make(map[int]memorySubscriber),
		buffer:      make(chan *Envelope, capacity),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

// Publish кладет событие в буфер; при переполнении событие дропается.
func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	select {
	case mb.buffer <- ev:
		mb.mu.Lock()
		mb.stats.Published++
		mb.mu.Unlock()
		return nil
	default:
		mb.mu.Lock()
		mb.stats.Dropped++
		mb.mu.Unlock()
		return nil
	}
}

// Subscribe регистрирует обработчик с фильтром.
func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	id := mb.nextID
	mb.nextID++
	mb.subscribers[id] = memorySubscriber{filter: f, handler: h}

	return &memorySub{bus: mb, id: id}, nil
}

// Metrics возвращает счетчики шины.
func (mb *memoryBus) Metrics() Stats {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.stats
}

// dispatchLoop раздает события подписчикам синхронно, в порядке публикации.
func (mb *memoryBus) dispatchLoop() {
	for {
		select {
		case ev := <-mb.buffer:
			mb.mu.RLock()
			subs := make([]memorySubscriber, 0, len(mb.subscribers))
			for _, s := range mb.subscribers {
				subs = append(subs, s)
			}
			mb.mu.RUnlock()

			for _, s := range subs {
				if !s.filter.matches(ev) {
					continue
				}
				s.handler(context.Background(), ev)
				mb.mu.Lock()
				mb.stats.Consumed++
				mb.mu.Unlock()
			}
		case <-mb.done:
			return
		}
	}
}

// matches проверяет событие против фильтра.
func (f Filter) matches(ev *Envelope) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == ev.EventType {
			return true
		}
	}
	return false
}

// Close останавливает цикл доставки. Публикации после Close дропаются.
func (mb *memoryBus) Close() error {
	select {
	case <-mb.done:
	default:
		close(mb.done)
	}
	return nil
}

type memorySub struct {
	bus *memoryBus
	id  int
}

func (s *memorySub) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subscribers, s.id)
}
