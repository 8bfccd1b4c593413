package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "flowboard-api"

type boardRequestMetrics struct {
	logger          *log.Logger
	span            trace.Span
	start           time.Time
	fetchDuration   time.Duration
	encodeDuration  time.Duration
	columnsReturned int
	cardsReturned   int
	errorStage      string
}

func newBoardRequestMetrics(ctx context.Context, logger *log.Logger) (*boardRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "board.fetch")
	return &boardRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}, spanCtx
}

func (m *boardRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *boardRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *boardRequestMetrics) SetReturned(columns, cards int) {
	if columns > 0 {
		m.columnsReturned = columns
	}
	if cards > 0 {
		m.cardsReturned = cards
	}
}

func (m *boardRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *boardRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":            "/board/:id",
		"status":           status,
		"total_ms":         durationToMillis(time.Since(m.start)),
		"columns_returned": m.columnsReturned,
		"cards_returned":   m.cardsReturned,
	}
	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	if m.span != nil {
		m.span.SetAttributes(
			attribute.Int("http.status", status),
			attribute.Int("board.columns", m.columnsReturned),
			attribute.Int("board.cards", m.cardsReturned),
		)
		if err != nil {
			m.span.RecordError(err)
		}
		m.span.End()
	}

	entry := m.logger.WithFields(fields)
	if status >= 500 {
		entry.Error("board request failed")
		return
	}
	entry.Debug("board request served")
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
