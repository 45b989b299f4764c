package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/util"
)

// OHLCEventHandler reruns the pipeline for a symbol whenever new bars land.
type OHLCEventHandler struct {
	topic    string
	pipeline *Pipeline
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewOHLCEventHandler(topic string, pipeline *Pipeline, metrics domrepo.Metrics, l *applogger.Logger) *OHLCEventHandler {
	return &OHLCEventHandler{topic: topic, pipeline: pipeline, metrics: metrics, l: l}
}

func (h *OHLCEventHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, intervals?, time?}
func (h *OHLCEventHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.OHLCUpdatedEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode ohlc event: %w", err)
	}
	symbol := strings.ToUpper(strings.TrimSpace(ev.Symbol))
	if symbol == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("ohlc event without symbol")
	}
	if known := h.pipeline.Symbols(); len(known) > 0 && !slices.Contains(known, symbol) {
		h.l.Debug("ohlc event for unknown symbol ignored", applogger.String("symbol", symbol))
		return nil
	}

	var ivs []domrepo.Interval
	if len(ev.Intervals) > 0 {
		parsed, err := domrepo.ParseIntervals(ev.Intervals)
		if err != nil {
			h.metrics.RecordError("consumer_invalid")
			return err
		}
		ivs = parsed
	}

	fields := []applogger.Field{applogger.String("symbol", symbol), applogger.Strings("intervals", ev.Intervals)}
	if t, ok := util.ParseTime(ev.Time); ok {
		fields = append(fields, applogger.Duration("lag_ms", time.Since(t)))
	}
	h.l.Info("ohlc update received", fields...)

	run, err := h.pipeline.Run(ctx, TriggerKafka, []string{symbol}, ivs)
	if err != nil {
		return err
	}
	if n := run.Failed(); n > 0 {
		h.l.Warn("ohlc triggered run had failures", applogger.String("run_id", run.RunID), applogger.Int("failed", n))
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*OHLCEventHandler)(nil)
