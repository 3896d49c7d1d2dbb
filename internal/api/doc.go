// Package api содержит HTTP API демона glyph-watcher.
//
// Структура:
//   - handler.go       — Handler с DI (watcher, хранилище outcomes, publisher)
//   - routes.go        — регистрация маршрутов
//   - middleware.go    — middleware (request id, logging, recovery)
//   - response.go      — унифицированные JSON-ответы и обработка ошибок
//   - watch_handler.go — обработчики
//
// Endpoints:
//   - GET  /healthz                   — liveness
//   - GET  /api/v1/watch/stats        — счётчики watch-цикла
//   - GET  /api/v1/runs/{id}/outcomes — outcomes из PostgreSQL
//   - POST /api/v1/jobs               — задание распознать файл через RabbitMQ
package api
