package state

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ruo0o0/music-album/internal/music"
)

var tracer = otel.Tracer("github.com/ruo0o0/music-album/internal/state")

var (
	remoteCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "album",
		Subsystem: "state",
		Name:      "remote_calls_total",
		Help:      "Remote collaborator calls issued by the stores, by operation and result kind.",
	}, []string{"op", "result"})

	remoteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "album",
		Subsystem: "state",
		Name:      "remote_call_duration_seconds",
		Help:      "Round-trip time of remote collaborator calls.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"op"})

	collectionSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "album",
		Subsystem: "state",
		Name:      "collection_entities",
		Help:      "Number of entities held per collection.",
	}, []string{"collection"})
)

// startRemote opens a span for a remote round trip and returns a func that
// records its outcome.
func startRemote(ctx context.Context, op, id string) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("album.op", op),
		attribute.String("album.entity_id", id),
	))
	start := time.Now()
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = string(music.KindOf(err))
			if result == "" {
				result = "error"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		remoteCalls.WithLabelValues(op, result).Inc()
		remoteLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		span.End()
	}
}
