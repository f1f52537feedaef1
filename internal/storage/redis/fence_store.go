package redis

import (
	"context"
	"encoding/json"
	"errors"

	"georem/internal/domain"
	"georem/pkg/e"

	goredis "github.com/redis/go-redis/v9"
)

// fenceKey holds the full geofence record set as one JSON document. The
// version suffix allows a future schema change without a migration step.
const fenceKey = "georem:fences:v1"

// FenceStore is the durable owner of geofence monitoring state. The in-memory
// registry is a cache over this store and rehydrates from it on process start.
type FenceStore struct {
	client *goredis.Client
	key    string
}

func NewFenceStore(r *Redis) *FenceStore {
	return &FenceStore{client: r.Client, key: fenceKey}
}

func (s *FenceStore) Load(ctx context.Context) ([]domain.GeofenceRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, e.Wrap("fence store load", err)
	}

	var records []domain.GeofenceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, e.Wrap("fence store decode", err)
	}
	return records, nil
}

func (s *FenceStore) Save(ctx context.Context, records []domain.GeofenceRecord) error {
	b, err := json.Marshal(records)
	if err != nil {
		return e.Wrap("fence store encode", err)
	}
	// No TTL: this is state, not cache.
	return s.client.Set(ctx, s.key, b, 0).Err()
}
