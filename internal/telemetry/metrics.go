package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	engineRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glyph_engine_requests_total",
		Help: "Recognition requests sent to the OCR engine, by strategy and status",
	}, []string{"strategy", "status"})

	engineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "glyph_engine_request_duration_seconds",
		Help:    "Latency of recognition requests, by strategy",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"strategy"})

	itemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glyph_items_processed_total",
		Help: "Files processed by orchestrators, by mode and status",
	}, []string{"mode", "status"})

	watchEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glyph_watch_events_total",
		Help: "Filesystem events seen by the watch loop, by result",
	}, []string{"result"})
)

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveEngineRequest учитывает один вызов движка.
func ObserveEngineRequest(strategy string, started time.Time, err error) {
	engineRequests.WithLabelValues(strategy, statusLabel(err == nil)).Inc()
	engineDuration.WithLabelValues(strategy).Observe(time.Since(started).Seconds())
}

// CountItem учитывает один обработанный файл.
func CountItem(mode string, ok bool) {
	itemsProcessed.WithLabelValues(mode, statusLabel(ok)).Inc()
}

// CountWatchEvent учитывает событие файловой системы: "eligible", "dropped", "archived".
func CountWatchEvent(result string) {
	watchEvents.WithLabelValues(result).Inc()
}
