package location

import (
	"context"

	"georem/internal/domain"
)

// Handler receives location samples from a provider feed.
type Handler func(domain.LocationSample)

type Subscription interface {
	Unsubscribe() error
}

// Provider supplies device location readings on two cadences: a continuous
// subscription feed and a one-shot read used by the periodic background path.
// The transition detector never knows which implementation is active.
type Provider interface {
	Subscribe(ctx context.Context, fn Handler) (Subscription, error)
	Current(ctx context.Context) (domain.LocationSample, error)
}
