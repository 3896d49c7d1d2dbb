package orchestrator

import "errors"

var (
	// ErrBatchAborted — элемент не обработан, потому что предыдущий
	// завершился ошибкой при выключенном continue_on_error.
	ErrBatchAborted = errors.New("batch aborted after earlier failure")

	// ErrFilesystem — ошибка подписки на события или архивации файла.
	ErrFilesystem = errors.New("filesystem error")

	// ErrWatcherStarted — Run уже вызывался для этого Watcher.
	ErrWatcherStarted = errors.New("watcher already started")
)
