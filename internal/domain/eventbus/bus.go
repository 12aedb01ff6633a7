package eventbus

import (
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"exam-analyzer-go/internal/utils"
)

// Publisher is the narrow view domain code needs.
type Publisher interface {
	Publish(topic string, args ...interface{})
	PublishAsync(topic string, args ...interface{})
}

// Bus delivers events synchronously through Publish or on a worker pool
// through PublishAsync. Stop drains the queue before returning.
type Bus struct {
	bus     evbus.Bus
	workers int
	queue   chan asyncEvent
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	stopped bool
	logger  *utils.Logger
	onDrop  func(topic string)
}

type asyncEvent struct {
	topic string
	args  []interface{}
}

type Options struct {
	Workers   int
	QueueSize int
	Logger    *utils.Logger
	// OnDrop is called when PublishAsync finds the queue full.
	OnDrop func(topic string)
}

func New(opts Options) *Bus {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	return &Bus{
		bus:     evbus.New(),
		workers: opts.Workers,
		queue:   make(chan asyncEvent, opts.QueueSize),
		logger:  opts.Logger,
		onDrop:  opts.OnDrop,
	}
}

func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.stopped {
		return
	}
	b.started = true
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
}

// Stop refuses new async events and waits for queued ones to be handled.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	started := b.started
	close(b.queue)
	b.mu.Unlock()

	if !started {
		// nobody will drain the queue; deliver inline
		for event := range b.queue {
			b.deliver(event)
		}
		return
	}
	b.wg.Wait()
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for event := range b.queue {
		b.deliver(event)
	}
}

func (b *Bus) deliver(event asyncEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorTag("EVENT", "handler for %s panicked: %v", event.topic, r)
		}
	}()
	b.bus.Publish(event.topic, event.args...)
}

func (b *Bus) Publish(topic string, args ...interface{}) {
	b.deliver(asyncEvent{topic: topic, args: args})
}

// PublishAsync enqueues the event. A full queue or a stopped bus drops it.
func (b *Bus) PublishAsync(topic string, args ...interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		return
	}
	select {
	case b.queue <- asyncEvent{topic: topic, args: args}:
	default:
		b.logger.WarnTag("EVENT", "queue full, dropping %s", topic)
		if b.onDrop != nil {
			b.onDrop(topic)
		}
	}
}

// Subscribe registers fn for topic. fn must accept the published arguments.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	if err := b.bus.Subscribe(topic, fn); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

func (b *Bus) HasCallback(topic string) bool {
	return b.bus.HasCallback(topic)
}
