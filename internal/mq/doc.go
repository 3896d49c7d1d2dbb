// Package mq связывает Glyph с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с автоматическим переподключением
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация outcomes (orchestrator.Sink) и заданий
//   - consumer.go   — потребление заданий на распознавание
//
// Типы сообщений:
//   - outcome.succeeded / outcome.failed — итог обработки файла
//   - job.recognize                      — задание распознать файл (glyph-watcher)
//
// Exchanges:
//   - glyph.outcomes (topic) — outcomes всех режимов
//   - glyph.jobs     (direct) — задания
//   - glyph.dlq      (direct) — отклонённые задания
package mq
