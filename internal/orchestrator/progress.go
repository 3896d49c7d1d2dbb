package orchestrator

import (
	"log/slog"

	"github.com/shaiso/Glyph/internal/domain"
)

// Progress — уведомление о ходе обработки.
type Progress struct {
	// Index — номер файла, начиная с 1. В Parallel — число завершённых файлов.
	Index int
	Total int
	File  string
}

// Observer получает уведомления о ходе обработки.
//
// Parallel вызывает методы из разных горутин, но никогда одновременно.
type Observer interface {
	OnProgress(p Progress)
	OnComplete(s domain.Summary)
}

// NopObserver ничего не делает.
type NopObserver struct{}

func (NopObserver) OnProgress(Progress) {}
func (NopObserver) OnComplete(domain.Summary) {}

// LogObserver пишет прогресс в лог.
type LogObserver struct {
	Logger *slog.Logger
}

// OnProgress логирует текущий файл.
func (o LogObserver) OnProgress(p Progress) {
	o.Logger.Info("processing", "index", p.Index, "total", p.Total, "file", p.File)
}

// OnComplete логирует итог.
func (o LogObserver) OnComplete(s domain.Summary) {
	o.Logger.Info("completed",
		"total", s.Total,
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"duration", s.Duration,
	)
}
