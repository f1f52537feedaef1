package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"georem/internal/domain"
	"georem/pkg/e"

	goredis "github.com/redis/go-redis/v9"
)

const defaultQueueMaxLen = 1000

// NotifyQueue buffers notification payloads between the dispatcher and the
// webhook sender so a slow sink never blocks the monitoring loop. The list is
// trimmed to maxLen on every push, dropping the oldest entries, so a stopped
// or disabled sender cannot grow it without bound.
type NotifyQueue struct {
	client *goredis.Client
	key    string
	maxLen int64
}

func NewNotifyQueue(client *goredis.Client, key string, maxLen int) *NotifyQueue {
	if maxLen <= 0 {
		maxLen = defaultQueueMaxLen
	}
	return &NotifyQueue{client: client, key: key, maxLen: int64(maxLen)}
}

func (q *NotifyQueue) Enqueue(ctx context.Context, payload domain.NotificationPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, q.key, b)
	pipe.LTrim(ctx, q.key, 0, q.maxLen-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (q *NotifyQueue) BRPop(ctx context.Context, timeout time.Duration) (domain.NotificationPayload, error) {
	var p domain.NotificationPayload

	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return p, e.ErrQueueEmpty
		}
		return p, err
	}
	if len(res) < 2 {
		return p, goredis.Nil
	}
	if err := json.Unmarshal([]byte(res[1]), &p); err != nil {
		return p, err
	}
	return p, nil
}
