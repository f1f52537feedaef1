package monitor_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"georem/internal/domain"
	"georem/internal/location"
	"georem/internal/monitor"
	"georem/internal/registry"
)

const (
	centerLat = 37.7749
	centerLng = -122.4194
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

type memStore struct {
	mu      sync.Mutex
	records []domain.GeofenceRecord
}

func (s *memStore) Load(ctx context.Context) ([]domain.GeofenceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records, nil
}

func (s *memStore) Save(ctx context.Context, records []domain.GeofenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	return nil
}

type fakeSub struct {
	provider *fakeProvider
}

func (s *fakeSub) Unsubscribe() error {
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	s.provider.unsubscribed++
	return nil
}

type fakeProvider struct {
	mu           sync.Mutex
	current      domain.LocationSample
	currentSet   bool
	subscribed   int
	unsubscribed int
}

func (p *fakeProvider) Subscribe(ctx context.Context, fn location.Handler) (location.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribed++
	return &fakeSub{provider: p}, nil
}

func (p *fakeProvider) Current(ctx context.Context) (domain.LocationSample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

type captureDispatcher struct {
	events chan dispatched
}

type dispatched struct {
	ev  domain.TransitionEvent
	rec domain.GeofenceRecord
}

func (d *captureDispatcher) Dispatch(ctx context.Context, ev domain.TransitionEvent, rec domain.GeofenceRecord) error {
	d.events <- dispatched{ev: ev, rec: rec}
	return nil
}

type harness struct {
	reg        *registry.Registry
	engine     *monitor.Engine
	provider   *fakeProvider
	dispatcher *captureDispatcher
	cancel     context.CancelFunc
}

func newHarness(t *testing.T, store *memStore) *harness {
	t.Helper()

	logger := newTestLogger()
	reg := registry.New(store, logger, 50, 1000)
	provider := &fakeProvider{}
	dispatcher := &captureDispatcher{events: make(chan dispatched, 16)}
	sched := monitor.NewScheduler(time.Millisecond, logger)

	engine := monitor.NewEngine(reg, provider, sched, dispatcher, logger, 16, time.Hour)
	reg.SetWatcher(engine)

	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)

	t.Cleanup(func() {
		cancel()
		sched.Shutdown()
	})

	return &harness{
		reg:        reg,
		engine:     engine,
		provider:   provider,
		dispatcher: dispatcher,
		cancel:     cancel,
	}
}

func waitDispatch(t *testing.T, ch chan dispatched) dispatched {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for dispatch")
		return dispatched{}
	}
}

func assertNoDispatch(t *testing.T, ch chan dispatched) {
	t.Helper()
	select {
	case d := <-ch:
		t.Fatalf("unexpected dispatch: %s for %s", d.ev.Type, d.ev.GeofenceID)
	case <-time.After(200 * time.Millisecond):
	}
}

func testFence(radiusM float64, wasInside bool) domain.GeofenceRecord {
	return domain.GeofenceRecord{
		ID:        uuid.New(),
		Lat:       centerLat,
		Lng:       centerLng,
		RadiusM:   radiusM,
		IsActive:  true,
		WasInside: wasInside,
		Title:     "hardware store",
	}
}

func at(latOffset float64) domain.LocationSample {
	return domain.LocationSample{Lat: centerLat + latOffset, Lng: centerLng, Timestamp: time.Now().UTC()}
}

func TestEngine_EnterDispatchedOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &memStore{})

	fence := testFence(100, false)
	if err := h.reg.Add(context.Background(), fence); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if !h.engine.Monitoring() {
		t.Fatalf("first active fence must start monitoring")
	}

	h.engine.Offer(at(0))

	d := waitDispatch(t, h.dispatcher.events)
	if d.ev.Type != domain.TransitionEnter {
		t.Fatalf("expected ENTER got %s", d.ev.Type)
	}
	if d.ev.GeofenceID != fence.ID {
		t.Fatalf("fence id mismatch")
	}
	if d.rec.TriggeredCount != 1 {
		t.Fatalf("expected triggeredCount=1 in dispatched record, got %d", d.rec.TriggeredCount)
	}

	// Same position again: containment did not change, nothing fires.
	h.engine.Offer(at(0))
	assertNoDispatch(t, h.dispatcher.events)
}

func TestEngine_FullCrossingFiresEnterThenExit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &memStore{})
	fence := testFence(100, false)
	_ = h.reg.Add(context.Background(), fence)

	h.engine.Offer(at(0.0051)) // outside
	h.engine.Offer(at(0))      // inside -> ENTER
	h.engine.Offer(at(0.0002)) // still inside
	h.engine.Offer(at(0.0051)) // outside -> EXIT

	first := waitDispatch(t, h.dispatcher.events)
	if first.ev.Type != domain.TransitionEnter {
		t.Fatalf("expected ENTER first, got %s", first.ev.Type)
	}
	second := waitDispatch(t, h.dispatcher.events)
	if second.ev.Type != domain.TransitionExit {
		t.Fatalf("expected EXIT second, got %s", second.ev.Type)
	}
	if second.rec.TriggeredCount != 2 {
		t.Fatalf("expected triggeredCount=2 after both crossings, got %d", second.rec.TriggeredCount)
	}

	assertNoDispatch(t, h.dispatcher.events)
}

// A restart while the device sits inside a fence: wasInside survives through
// the store, so walking away afterwards fires EXIT and staying put fires
// nothing.
func TestEngine_RestartDetectsExitFromPersistedState(t *testing.T) {
	t.Parallel()

	insideFence := testFence(100, true)
	neverVisited := testFence(100, false)
	neverVisited.Lat = centerLat + 1 // far away

	store := &memStore{records: []domain.GeofenceRecord{insideFence, neverVisited}}
	h := newHarness(t, store)

	if err := h.reg.Rehydrate(context.Background()); err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}
	if !h.engine.Monitoring() {
		t.Fatalf("rehydrate with active fences must start monitoring")
	}

	// First reading after restart is outside the remembered fence.
	h.engine.Offer(at(0.0051))

	d := waitDispatch(t, h.dispatcher.events)
	if d.ev.Type != domain.TransitionExit {
		t.Fatalf("expected EXIT got %s", d.ev.Type)
	}
	if d.ev.GeofenceID != insideFence.ID {
		t.Fatalf("expected exit from the remembered fence")
	}

	assertNoDispatch(t, h.dispatcher.events)
}

func TestEngine_RemovingLastFenceStopsMonitoring(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &memStore{})
	fence := testFence(100, false)
	_ = h.reg.Add(context.Background(), fence)

	if got := h.provider.subscribed; got != 1 {
		t.Fatalf("expected 1 subscription, got %d", got)
	}

	if err := h.reg.Remove(context.Background(), fence.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if h.engine.Monitoring() {
		t.Fatalf("removing the last fence must stop monitoring")
	}
	if got := h.provider.unsubscribed; got != 1 {
		t.Fatalf("expected unsubscribe, got %d", got)
	}
}

func TestEngine_LastSampleSeedsAfterProcessing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &memStore{})
	_ = h.reg.Add(context.Background(), testFence(100, false))

	if _, ok := h.engine.LastSample(); ok {
		t.Fatalf("no sample processed yet")
	}

	h.engine.Offer(at(0))
	waitDispatch(t, h.dispatcher.events)

	got, ok := h.engine.LastSample()
	if !ok {
		t.Fatalf("expected last sample after processing")
	}
	if got.Lat != centerLat {
		t.Fatalf("last sample lat mismatch: %v", got.Lat)
	}
}

func TestEngine_OfferFillsZeroTimestamp(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &memStore{})
	_ = h.reg.Add(context.Background(), testFence(100, false))

	h.engine.Offer(domain.LocationSample{Lat: centerLat, Lng: centerLng})

	d := waitDispatch(t, h.dispatcher.events)
	if d.ev.OccurredAt.IsZero() {
		t.Fatalf("event timestamp must be filled")
	}
}
