package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"georem/internal/detector"
	"georem/internal/domain"
	"georem/internal/location"
	"georem/internal/registry"
	"georem/pkg/e"
)

const periodicTaskID = "georem:periodic-sample"

// Dispatcher delivers a notification for a confirmed transition. Delivery is
// fire-and-forget from the engine's perspective.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.TransitionEvent, rec domain.GeofenceRecord) error
}

// Engine is the location sampling driver and monitoring loop. Samples from
// every path funnel into one channel consumed by one goroutine, so each
// sample is fully processed (evaluate, commit, dispatch) before the next is
// accepted. It implements registry.Watcher: monitoring starts when the first
// active fence appears and stops when the last one goes away.
type Engine struct {
	reg        *registry.Registry
	provider   location.Provider
	sched      *Scheduler
	dispatcher Dispatcher
	logger     *slog.Logger

	samples       chan domain.LocationSample
	periodicEvery time.Duration

	mu      sync.Mutex
	sub     location.Subscription
	running bool
	last    *domain.LocationSample
}

func NewEngine(
	reg *registry.Registry,
	provider location.Provider,
	sched *Scheduler,
	dispatcher Dispatcher,
	logger *slog.Logger,
	queueSize int,
	periodicEvery time.Duration,
) *Engine {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Engine{
		reg:           reg,
		provider:      provider,
		sched:         sched,
		dispatcher:    dispatcher,
		logger:        logger,
		samples:       make(chan domain.LocationSample, queueSize),
		periodicEvery: periodicEvery,
	}
}

// Run consumes the sample channel until the context is canceled.
func (m *Engine) Run(ctx context.Context) {
	m.logger.Info("monitor engine started")
	for {
		select {
		case <-ctx.Done():
			m.stopMonitoring()
			m.logger.Info("monitor engine stopped", slog.String("reason", ctx.Err().Error()))
			return
		case sample := <-m.samples:
			m.process(ctx, sample)
		}
	}
}

// Offer enqueues a sample in arrival order. When the queue is full the sample
// is dropped and treated like an unavailable reading for that cycle.
func (m *Engine) Offer(sample domain.LocationSample) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	select {
	case m.samples <- sample:
	default:
		m.logger.Warn("sample queue full, dropping sample",
			slog.Float64("lat", sample.Lat),
			slog.Float64("lng", sample.Lng),
		)
	}
}

// LastSample returns the most recently processed sample. Used to seed the
// containment state of a newly created fence without firing an event.
func (m *Engine) LastSample() (domain.LocationSample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return domain.LocationSample{}, false
	}
	return *m.last, true
}

func (m *Engine) Monitoring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// MonitoringNeeded implements registry.Watcher: the registry gained its first
// active fence.
func (m *Engine) MonitoringNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}

	sub, err := m.provider.Subscribe(context.Background(), m.Offer)
	if err != nil {
		// Periodic one-shot reads still run; continuous feed is degraded.
		m.logger.Error("location subscription failed", slog.Any("error", err))
	} else {
		m.sub = sub
	}

	m.sched.RegisterPeriodic(periodicTaskID, m.periodicEvery, m.periodicWake)
	m.running = true
	m.logger.Info("monitoring started")
}

// MonitoringIdle implements registry.Watcher: the last active fence is gone.
// Both the subscription and the periodic task are halted synchronously.
func (m *Engine) MonitoringIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopMonitoringLocked()
}

func (m *Engine) stopMonitoring() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopMonitoringLocked()
}

func (m *Engine) stopMonitoringLocked() {
	if !m.running {
		return
	}
	if m.sub != nil {
		if err := m.sub.Unsubscribe(); err != nil {
			m.logger.Warn("unsubscribe failed", slog.Any("error", err))
		}
		m.sub = nil
	}
	m.sched.Unregister(periodicTaskID)
	m.running = false
	m.logger.Info("monitoring stopped")
}

// periodicWake is the background path: wake, take one reading, evaluate, go
// back to sleep. A stale wakeup after cancellation no-ops on the emptiness
// check.
func (m *Engine) periodicWake(ctx context.Context) {
	if m.reg.ActiveCount() == 0 {
		return
	}

	sample, err := m.provider.Current(ctx)
	if err != nil {
		if errors.Is(err, e.ErrSampleUnavailable) {
			m.logger.Debug("no sample available, skipping cycle")
		} else {
			m.logger.Warn("one-shot sample read failed", slog.Any("error", err))
		}
		return
	}
	m.Offer(sample)
}

// process runs one sample end to end: snapshot, evaluate, commit containment
// state, then dispatch. The registry commit happens before and independently
// of dispatch; a missed notification is preferable to corrupted detection
// state.
func (m *Engine) process(ctx context.Context, sample domain.LocationSample) {
	records := m.reg.Snapshot()
	results := detector.Evaluate(sample, records)

	events, err := m.reg.Apply(ctx, results)
	if err != nil {
		m.logger.Warn("monitoring state not durable", slog.Any("error", err))
	}

	m.mu.Lock()
	m.last = &sample
	m.mu.Unlock()

	for _, ev := range events {
		rec, ok := m.reg.Get(ev.GeofenceID)
		if !ok {
			continue
		}
		m.logger.Info("transition confirmed",
			slog.String("fence", ev.GeofenceID.String()),
			slog.String("type", string(ev.Type)),
			slog.Int64("triggered_count", rec.TriggeredCount),
		)
		if err := m.dispatcher.Dispatch(ctx, ev, rec); err != nil {
			m.logger.Error("dispatch failed", slog.String("fence", ev.GeofenceID.String()), slog.Any("error", err))
		}
	}
}
