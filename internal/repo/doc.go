// Package repo сохраняет outcomes распознавания в PostgreSQL.
//
// OutcomeRepo реализует orchestrator.Sink: каждый обработанный файл
// становится строкой таблицы ocr_outcomes. Результаты регионов хранятся
// в JSONB.
package repo
