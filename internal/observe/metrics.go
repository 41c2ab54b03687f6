// Package observe provides application-wide observability primitives for
// Voxsat: OpenTelemetry metrics, structured logging helpers, and the SDK
// provider setup.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Voxsat metrics.
const meterName = "github.com/MrWong99/voxsat"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// TurnDuration tracks wall time from wake trigger to pipeline finish.
	TurnDuration metric.Float64Histogram

	// AnnouncementDuration tracks wall time of announcement playback,
	// preannounce chime included.
	AnnouncementDuration metric.Float64Histogram

	// --- Counters ---

	// FramesDecoded counts inbound protocol frames. Use with attribute:
	//   attribute.String("type", ...)
	FramesDecoded metric.Int64Counter

	// FramesEncoded counts outbound protocol frames. Use with attribute:
	//   attribute.String("type", ...)
	FramesEncoded metric.Int64Counter

	// WakeTriggers counts wake word detections by word ID.
	WakeTriggers metric.Int64Counter

	// Turns counts completed assist turns. Use with attribute:
	//   attribute.String("outcome", ...) — "ok", "error", "cancelled"
	Turns metric.Int64Counter

	// --- Error counters ---

	// ProtocolErrors counts framing and handshake violations. Use with
	// attribute: attribute.String("kind", ...)
	ProtocolErrors metric.Int64Counter

	// AudioDropped counts microphone chunks evicted under backpressure.
	AudioDropped metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live hub connections (0 or 1 in
	// practice, since a new connection replaces the old one).
	ActiveSessions metric.Int64UpDownCounter

	// ActiveTimers tracks the number of running hub-managed timers.
	ActiveTimers metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-turn latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("voxsat.turn.duration",
		metric.WithDescription("Wall time from wake trigger to pipeline finish."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnnouncementDuration, err = m.Float64Histogram("voxsat.announcement.duration",
		metric.WithDescription("Wall time of announcement playback."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.FramesDecoded, err = m.Int64Counter("voxsat.frames.decoded",
		metric.WithDescription("Total inbound protocol frames by message type."),
	); err != nil {
		return nil, err
	}
	if met.FramesEncoded, err = m.Int64Counter("voxsat.frames.encoded",
		metric.WithDescription("Total outbound protocol frames by message type."),
	); err != nil {
		return nil, err
	}
	if met.WakeTriggers, err = m.Int64Counter("voxsat.wake.triggers",
		metric.WithDescription("Total wake word detections by word ID."),
	); err != nil {
		return nil, err
	}
	if met.Turns, err = m.Int64Counter("voxsat.turns",
		metric.WithDescription("Total completed assist turns by outcome."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProtocolErrors, err = m.Int64Counter("voxsat.protocol.errors",
		metric.WithDescription("Total framing and handshake violations by kind."),
	); err != nil {
		return nil, err
	}
	if met.AudioDropped, err = m.Int64Counter("voxsat.audio.dropped",
		metric.WithDescription("Total microphone chunks evicted under backpressure."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxsat.active_sessions",
		metric.WithDescription("Number of live hub connections."),
	); err != nil {
		return nil, err
	}
	if met.ActiveTimers, err = m.Int64UpDownCounter("voxsat.active_timers",
		metric.WithDescription("Number of running hub-managed timers."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordFrameDecoded records one inbound frame of the given message type.
func (m *Metrics) RecordFrameDecoded(ctx context.Context, msgType string) {
	m.FramesDecoded.Add(ctx, 1,
		metric.WithAttributes(attribute.String("type", msgType)),
	)
}

// RecordFrameEncoded records one outbound frame of the given message type.
func (m *Metrics) RecordFrameEncoded(ctx context.Context, msgType string) {
	m.FramesEncoded.Add(ctx, 1,
		metric.WithAttributes(attribute.String("type", msgType)),
	)
}

// RecordWakeTrigger records one wake word detection.
func (m *Metrics) RecordWakeTrigger(ctx context.Context, wordID string) {
	m.WakeTriggers.Add(ctx, 1,
		metric.WithAttributes(attribute.String("word_id", wordID)),
	)
}

// RecordTurn records one completed assist turn with its outcome.
func (m *Metrics) RecordTurn(ctx context.Context, outcome string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.Turns.Add(ctx, 1, attrs)
	m.TurnDuration.Record(ctx, seconds, attrs)
}

// RecordProtocolError records one framing or handshake violation.
func (m *Metrics) RecordProtocolError(ctx context.Context, kind string) {
	m.ProtocolErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
