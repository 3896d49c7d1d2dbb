// Package telemetry обеспечивает наблюдаемость Glyph.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики (движок, оркестраторы, watch)
//
// CLI пишет логи в stderr в text-формате, glyph-watcher — в JSON и
// экспортирует метрики на /metrics.
package telemetry
