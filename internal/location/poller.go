package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"georem/internal/domain"
	"georem/pkg/e"
)

// Poller is the polling-backed feed: instead of forwarding pushes, it reads
// the wrapped provider's one-shot sample on a fixed interval. Interchangeable
// with the push provider, selected at startup.
type Poller struct {
	source   Provider
	interval time.Duration
	logger   *slog.Logger
}

func NewPoller(source Provider, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{source: source, interval: interval, logger: logger}
}

func (p *Poller) Subscribe(ctx context.Context, fn Handler) (Subscription, error) {
	sub := &pollSubscription{stop: make(chan struct{})}
	sub.wg.Add(1)

	go func() {
		defer sub.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-sub.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				sample, err := p.source.Current(ctx)
				if err != nil {
					if !errors.Is(err, e.ErrSampleUnavailable) {
						p.logger.Warn("poll read failed", slog.Any("error", err))
					}
					continue
				}
				fn(sample)
			}
		}
	}()

	return sub, nil
}

func (p *Poller) Current(ctx context.Context) (domain.LocationSample, error) {
	return p.source.Current(ctx)
}

type pollSubscription struct {
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Unsubscribe halts the polling loop and waits for it to exit.
func (s *pollSubscription) Unsubscribe() error {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
	return nil
}
