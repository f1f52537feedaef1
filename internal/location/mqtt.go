package location

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"georem/internal/config"
	"georem/internal/domain"
	"georem/pkg/e"
)

// MQTTProvider is the push-backed location feed: the device publishes samples
// to a topic and the provider forwards them to the subscriber. The broker
// subscription is taken once at construction and kept for the provider's
// lifetime, so the last-sample cache stays warm even when no engine handler is
// attached; the polling provider relies on that for its one-shot reads.
type MQTTProvider struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger

	mu   sync.RWMutex
	fn   Handler
	last *domain.LocationSample
}

type sampleMessage struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

func NewMQTT(cfg config.MQTTConfig, logger *slog.Logger) (*MQTTProvider, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		// Monitoring cannot start without the feed; requires operator action.
		return nil, fmt.Errorf("mqtt connect: %v: %w", token.Error(), e.ErrPermissionDenied)
	}

	p := &MQTTProvider{client: client, topic: cfg.Topic, logger: logger}

	if token := client.Subscribe(cfg.Topic, 1, p.onMessage); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, e.Wrap("mqtt subscribe", token.Error())
	}

	logger.Info("connected to MQTT broker", slog.String("broker", cfg.Broker), slog.String("topic", cfg.Topic))

	return p, nil
}

func (p *MQTTProvider) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw sampleMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		p.logger.Warn("invalid location message", slog.Any("error", err))
		return
	}
	if raw.Lat < -90 || raw.Lat > 90 || raw.Lng < -180 || raw.Lng > 180 {
		p.logger.Warn("location message out of range",
			slog.Float64("lat", raw.Lat),
			slog.Float64("lng", raw.Lng),
		)
		return
	}

	sample := domain.LocationSample{Lat: raw.Lat, Lng: raw.Lng, Timestamp: time.Unix(raw.Timestamp, 0).UTC()}
	if raw.Timestamp <= 0 {
		sample.Timestamp = time.Now().UTC()
	}

	p.mu.Lock()
	p.last = &sample
	fn := p.fn
	p.mu.Unlock()

	if fn != nil {
		fn(sample)
	}
}

// Subscribe attaches the handler to the already-running broker feed.
func (p *MQTTProvider) Subscribe(ctx context.Context, fn Handler) (Subscription, error) {
	p.mu.Lock()
	p.fn = fn
	p.mu.Unlock()
	return &mqttSubscription{provider: p}, nil
}

// Current returns the most recent sample seen on the feed.
func (p *MQTTProvider) Current(ctx context.Context) (domain.LocationSample, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return domain.LocationSample{}, e.ErrSampleUnavailable
	}
	return *p.last, nil
}

func (p *MQTTProvider) Close() {
	p.client.Unsubscribe(p.topic)
	p.client.Disconnect(250)
}

type mqttSubscription struct {
	provider *MQTTProvider
}

// Unsubscribe detaches the handler only. The broker subscription stays up so
// the one-shot cache keeps tracking the device between monitoring sessions.
func (s *mqttSubscription) Unsubscribe() error {
	s.provider.mu.Lock()
	s.provider.fn = nil
	s.provider.mu.Unlock()
	return nil
}
