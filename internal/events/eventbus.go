package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/wavecraft/wavecraft/internal/logging"
)

// EventBus provides asynchronous event processing with non-blocking guarantees.
// Errors and resource-threshold events are kept on separate channels so a
// burst of one never starves delivery of the other.
type EventBus struct {
	errorEventChan    chan ErrorEvent
	resourceEventChan chan ResourceEvent

	bufferSize int
	workers    int

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	initialized atomic.Bool
	running     atomic.Bool
	mu          sync.Mutex

	consumers         []EventConsumer
	resourceConsumers []ResourceEventConsumer

	dedup *ErrorDeduplicator

	stats     EventBusStats
	startTime time.Time
	config    *Config

	logger *slog.Logger
}

// Global event bus instance (lazily initialized) and the fast-path flag
// reported by HasActiveConsumers.
var (
	globalEventBus     *EventBus
	globalMutex        sync.Mutex
	hasActiveConsumers atomic.Bool
)

// DefaultConfig returns the default event bus configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferSize: 10000,
		Workers:    4,
		Enabled:    true,
	}
}

// Config holds event bus configuration.
type Config struct {
	BufferSize    int
	Workers       int
	Enabled       bool
	Debug         bool
	Deduplication *DeduplicationConfig
}

// Initialize creates or returns the global event bus instance.
func Initialize(config *Config) (*EventBus, error) {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	if globalEventBus != nil {
		return globalEventBus, nil
	}

	if config == nil {
		config = DefaultConfig()
	}
	if !config.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := logging.ForService("events")

	eb := &EventBus{
		errorEventChan:    make(chan ErrorEvent, config.BufferSize),
		resourceEventChan: make(chan ResourceEvent, config.BufferSize),
		bufferSize:        config.BufferSize,
		workers:           config.Workers,
		ctx:               ctx,
		cancel:            cancel,
		consumers:         make([]EventConsumer, 0),
		resourceConsumers: make([]ResourceEventConsumer, 0),
		dedup:             NewErrorDeduplicator(config.Deduplication, logger),
		startTime:         time.Now(),
		config:            config,
		logger:            logger,
	}
	eb.initialized.Store(true)

	globalEventBus = eb

	logger.Info("event bus initialized",
		"buffer_size", config.BufferSize,
		"workers", config.Workers,
	)

	return eb, nil
}

// GetEventBus returns the global event bus instance.
func GetEventBus() *EventBus {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	return globalEventBus
}

// IsInitialized returns true if the event bus has been initialized.
func IsInitialized() bool {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	return globalEventBus != nil && globalEventBus.initialized.Load()
}

// HasActiveConsumers is the fast-path check callers use (EventPublisherAdapter
// on behalf of internal/errors, and internal/render) to skip publishing, or
// building, an event when nothing consumes it.
func HasActiveConsumers() bool {
	return hasActiveConsumers.Load()
}

// ResetForTesting shuts down and discards the global event bus. Test-only.
func ResetForTesting() {
	globalMutex.Lock()
	eb := globalEventBus
	globalEventBus = nil
	globalMutex.Unlock()

	if eb != nil {
		_ = eb.Shutdown(time.Second)
	}
	hasActiveConsumers.Store(false)
}

// RegisterConsumer adds a new error-event consumer.
func (eb *EventBus) RegisterConsumer(consumer EventConsumer) error {
	if eb == nil {
		return fmt.Errorf("event bus not initialized")
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, existing := range eb.consumers {
		if existing.Name() == consumer.Name() {
			return fmt.Errorf("consumer %s already registered", consumer.Name())
		}
	}

	eb.consumers = append(eb.consumers, consumer)
	hasActiveConsumers.Store(true)

	eb.logger.Info("registered event consumer",
		"consumer", consumer.Name(),
		"supports_batching", consumer.SupportsBatching(),
	)

	if !eb.running.Load() {
		eb.start()
	}

	return nil
}

// RegisterResourceConsumer adds a new resource-event consumer.
func (eb *EventBus) RegisterResourceConsumer(consumer ResourceEventConsumer) error {
	if eb == nil {
		return fmt.Errorf("event bus not initialized")
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, existing := range eb.resourceConsumers {
		if existing.Name() == consumer.Name() {
			return fmt.Errorf("resource consumer %s already registered", consumer.Name())
		}
	}

	eb.resourceConsumers = append(eb.resourceConsumers, consumer)
	hasActiveConsumers.Store(true)

	if !eb.running.Load() {
		eb.start()
	}

	return nil
}

// TryPublish attempts to publish an error event without blocking. Returns
// true if the event was accepted, false if there were no consumers or the
// buffer was full.
func (eb *EventBus) TryPublish(event ErrorEvent) bool {
	if eb == nil || !eb.initialized.Load() || !eb.running.Load() {
		return false
	}

	eb.mu.Lock()
	hasConsumers := len(eb.consumers) > 0
	eb.mu.Unlock()
	if !hasConsumers {
		return false
	}

	if !eb.dedup.ShouldProcess(event) {
		atomic.AddUint64(&eb.stats.EventsSuppressed, 1)
		return true
	}

	select {
	case eb.errorEventChan <- event:
		atomic.AddUint64(&eb.stats.EventsReceived, 1)
		return true
	default:
		atomic.AddUint64(&eb.stats.EventsDropped, 1)
		if eb.logger != nil {
			eb.logger.Debug("event dropped due to full buffer",
				"component", event.GetComponent(),
				"category", event.GetCategory(),
			)
		}
		return false
	}
}

// TryPublishResource attempts to publish a resource event without blocking.
func (eb *EventBus) TryPublishResource(event ResourceEvent) bool {
	if eb == nil || !eb.initialized.Load() || !eb.running.Load() {
		return false
	}

	eb.mu.Lock()
	hasConsumers := len(eb.resourceConsumers) > 0
	eb.mu.Unlock()
	if !hasConsumers {
		return false
	}

	select {
	case eb.resourceEventChan <- event:
		atomic.AddUint64(&eb.stats.EventsReceived, 1)
		return true
	default:
		atomic.AddUint64(&eb.stats.EventsDropped, 1)
		return false
	}
}

func (eb *EventBus) start() {
	if eb.running.Swap(true) {
		return
	}

	eb.logger.Info("starting event bus workers", "count", eb.workers)

	for i := 0; i < eb.workers; i++ {
		eb.wg.Add(1)
		go eb.worker(i)
	}
}

func (eb *EventBus) worker(id int) {
	defer eb.wg.Done()

	logger := eb.logger.With("worker_id", id)
	logger.Debug("worker started")

	for {
		select {
		case <-eb.ctx.Done():
			logger.Debug("worker stopping due to context cancellation")
			return

		case event, ok := <-eb.errorEventChan:
			if !ok {
				logger.Debug("worker stopping due to channel closure")
				return
			}
			eb.processEvent(event, logger)

		case event, ok := <-eb.resourceEventChan:
			if !ok {
				continue
			}
			eb.processResourceEvent(event, logger)
		}
	}
}

func (eb *EventBus) processEvent(event ErrorEvent, logger *slog.Logger) {
	eb.mu.Lock()
	consumers := make([]EventConsumer, len(eb.consumers))
	copy(consumers, eb.consumers)
	eb.mu.Unlock()

	for _, consumer := range consumers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					atomic.AddUint64(&eb.stats.ConsumerErrors, 1)
					logger.Error("consumer panicked",
						"consumer", consumer.Name(),
						"panic", r,
						"component", event.GetComponent(),
						"category", event.GetCategory(),
					)
				}
			}()

			if err := consumer.ProcessEvent(event); err != nil {
				atomic.AddUint64(&eb.stats.ConsumerErrors, 1)
				logger.Error("consumer error",
					"consumer", consumer.Name(),
					"error", err,
					"component", event.GetComponent(),
					"category", event.GetCategory(),
				)
			} else {
				atomic.AddUint64(&eb.stats.EventsProcessed, 1)
				event.MarkReported()
			}
		}()
	}
}

func (eb *EventBus) processResourceEvent(event ResourceEvent, logger *slog.Logger) {
	eb.mu.Lock()
	consumers := make([]ResourceEventConsumer, len(eb.resourceConsumers))
	copy(consumers, eb.resourceConsumers)
	eb.mu.Unlock()

	for _, consumer := range consumers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					atomic.AddUint64(&eb.stats.ConsumerErrors, 1)
					logger.Error("resource consumer panicked", "consumer", consumer.Name(), "panic", r)
				}
			}()
			if err := consumer.ProcessEvent(event); err != nil {
				atomic.AddUint64(&eb.stats.ConsumerErrors, 1)
				logger.Error("resource consumer error", "consumer", consumer.Name(), "error", err)
			} else {
				atomic.AddUint64(&eb.stats.EventsProcessed, 1)
			}
		}()
	}
}

// Shutdown gracefully shuts down the event bus.
func (eb *EventBus) Shutdown(timeout time.Duration) error {
	if eb == nil || !eb.initialized.Load() {
		return nil
	}

	eb.logger.Info("shutting down event bus", "timeout", timeout)

	eb.running.Store(false)
	eb.cancel()
	eb.dedup.Shutdown()

	done := make(chan struct{})
	go func() {
		eb.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		eb.logger.Info("event bus shutdown complete")
		return nil
	case <-time.After(timeout):
		eb.logger.Warn("event bus shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// GetStats returns current event bus statistics.
func (eb *EventBus) GetStats() EventBusStats {
	if eb == nil {
		return EventBusStats{}
	}

	return EventBusStats{
		EventsReceived:   atomic.LoadUint64(&eb.stats.EventsReceived),
		EventsSuppressed: atomic.LoadUint64(&eb.stats.EventsSuppressed),
		EventsProcessed:  atomic.LoadUint64(&eb.stats.EventsProcessed),
		EventsDropped:    atomic.LoadUint64(&eb.stats.EventsDropped),
		ConsumerErrors:   atomic.LoadUint64(&eb.stats.ConsumerErrors),
	}
}
