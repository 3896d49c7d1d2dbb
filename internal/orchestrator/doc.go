// Package orchestrator координирует распознавание многих файлов.
//
// Три режима:
//   - Batch — строго последовательно, один файл за раз
//   - Parallel — фиксированный пул воркеров (Map), порядок результата
//     совпадает с порядком входа
//   - Watcher — бесконечный цикл по событиям файловой системы,
//     один последовательный обработчик
//
// Batch и Parallel возвращают по одному domain.BatchItemOutcome на каждый
// входной файл: ошибка движка становится ошибкой конкретного элемента и не
// прерывает запуск. Outcomes дополнительно уходят в Sink'и (PostgreSQL,
// RabbitMQ); ошибки sink'ов только логируются.
package orchestrator
