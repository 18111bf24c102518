package surface

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Topic suffixes, named after the element ids of the widget page.
const (
	TopicTemperature = "temp"
	TopicStatus      = "status"
	TopicMessage     = "output"
	// TopicSnapshot carries all three texts of one page load as one JSON payload.
	TopicSnapshot = "snapshot"
)

// Publisher sends a payload to a topic, giving up when ctx is done.
// internal/mqtt.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error
}

// Publishing is a Sink that publishes every text as a retained message, so a
// display subscribing later still gets the current value. It belongs to one
// page load: every publish is bounded by that load's ctx.
type Publishing struct {
	ctx    context.Context
	pub    Publisher
	topic  string
	logger *slog.Logger
}

func NewPublishing(ctx context.Context, pub Publisher, topic string, logger *slog.Logger) *Publishing {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publishing{ctx: ctx, pub: pub, topic: topic, logger: logger}
}

// SetText never fails the render; a publish error is only logged.
func (p *Publishing) SetText(value string) {
	if err := p.pub.Publish(p.ctx, p.topic, []byte(value), true); err != nil {
		p.logger.Warn("surface publish failed", "topic", p.topic, "error", err)
	}
}

// PublishingSurfaces maps the three surfaces onto prefix/temp, prefix/status
// and prefix/output.
func PublishingSurfaces(ctx context.Context, pub Publisher, prefix string, logger *slog.Logger) Surfaces {
	return Surfaces{
		Temperature: NewPublishing(ctx, pub, prefix+"/"+TopicTemperature, logger),
		Status:      NewPublishing(ctx, pub, prefix+"/"+TopicStatus, logger),
		Message:     NewPublishing(ctx, pub, prefix+"/"+TopicMessage, logger),
	}
}

// Snapshot is what one page load left on the three surfaces.
type Snapshot struct {
	State       string `json:"state"`
	Temperature string `json:"temperature"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// PublishingMirror mirrors page loads to a broker. The per-surface topics
// are written as the widget runs, so concurrent page loads may interleave
// on them; the snapshot topic always holds the texts of a single load.
type PublishingMirror struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

func NewPublishingMirror(pub Publisher, prefix string, logger *slog.Logger) *PublishingMirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishingMirror{pub: pub, prefix: prefix, logger: logger}
}

func (m *PublishingMirror) Surfaces(ctx context.Context) Surfaces {
	return PublishingSurfaces(ctx, m.pub, m.prefix, m.logger)
}

// Snapshot publishes s retained on prefix/snapshot. Errors are only logged.
func (m *PublishingMirror) Snapshot(ctx context.Context, s Snapshot) {
	topic := m.prefix + "/" + TopicSnapshot
	payload, err := json.Marshal(s)
	if err != nil {
		m.logger.Error("snapshot encode failed", "error", err)
		return
	}
	if err := m.pub.Publish(ctx, topic, payload, true); err != nil {
		m.logger.Warn("snapshot publish failed", "topic", topic, "error", err)
	}
}
