// Package cli реализует команды утилиты glyph.
//
// # Обзор
//
// CLI собирает эффективную конфигурацию (слои TOML, профиль, флаги),
// выбирает стратегию вызова движка и передаёт работу оркестраторам.
// Результаты выводятся в stdout, диагностика и прогресс — в stderr.
// Это позволяет использовать pipe: glyph -i scan.png -o text | grep total
//
// # Ключевые компоненты
//
// ## Session
//
// Session создаётся после парсинга флагов и хранит загруженную
// конфигурацию и эффективные Params. Она же создаёт engine.Client
// (subprocess или server, с автозапуском сервера при server.auto_start),
// server.Lifecycle и sinks для --store/--publish.
//
// ## Output
//
// Форматирование вывода:
//   - результаты распознавания — через format.WriteResults (-o json|text|detailed)
//   - отчёты batch/parallel — через format.WriteReport (--report)
//   - служебные таблицы — text/tabwriter или JSON с флагом --json
//
// ## Commands
//
// Корневая команда распознаёт одно изображение (-i) и управляет
// сервером движка (--server, --server-stop, --server-status).
// Подкоманды:
//   - batch, parallel: обработка набора файлов
//   - watch: обработка новых файлов в директории
//   - config: init, show, profiles
//   - inspect: формат и размеры изображений
//   - submit: постановка заданий в очередь для glyph-watcher
//
// Каждая подкоманда создаётся фабрикой (NewBatchCmd и т.д.), принимающей
// sessionFn и outputFn — замыкания для ленивого создания Session
// и Output после парсинга PersistentFlags.
package cli
