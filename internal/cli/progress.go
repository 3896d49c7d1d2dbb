package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/orchestrator"
)

// progressObserver рисует индикатор прогресса в stderr.
type progressObserver struct {
	bar *progressbar.ProgressBar
	out *Output

	// before: Batch сообщает о файле до обработки, Parallel — после.
	before bool
}

func newProgressObserver(out *Output, total int, before bool) *progressObserver {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out.errW),
		progressbar.OptionSetDescription("recognizing"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &progressObserver{bar: bar, out: out, before: before}
}

func (o *progressObserver) OnProgress(p orchestrator.Progress) {
	done := p.Index
	if o.before {
		done = p.Index - 1
	}
	o.bar.Describe(filepath.Base(p.File))
	_ = o.bar.Set(done)
}

func (o *progressObserver) OnComplete(s domain.Summary) {
	_ = o.bar.Finish()
	o.out.Success(summaryLine(s))
}

// summaryObserver выводит только итог (--no-progress).
type summaryObserver struct {
	out *Output
}

func (summaryObserver) OnProgress(orchestrator.Progress) {}

func (o summaryObserver) OnComplete(s domain.Summary) {
	o.out.Success(summaryLine(s))
}

func summaryLine(s domain.Summary) string {
	return fmt.Sprintf("Processed %d file(s): %d succeeded, %d failed in %s",
		s.Total, s.Succeeded, s.Failed, s.Duration.Round(time.Millisecond))
}
