package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Glyph/internal/domain"
)

const testDebounce = 50 * time.Millisecond

// callbackRecorder — ProcessFunc, запоминающий вызовы.
type callbackRecorder struct {
	mu    sync.Mutex
	paths []string
	fail  map[string]bool
	calls chan string
}

func newRecorder() *callbackRecorder {
	return &callbackRecorder{fail: map[string]bool{}, calls: make(chan string, 16)}
}

func (r *callbackRecorder) process(_ context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.calls <- path

	if r.fail[filepath.Base(path)] {
		return errors.New("recognition failed")
	}
	return nil
}

func (r *callbackRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// startWatcher запускает Watcher и ждёт установки подписки.
func startWatcher(t *testing.T, cfg WatchConfig) (*Watcher, <-chan error) {
	t.Helper()

	w, err := NewWatcher(cfg)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(3 * time.Second):
		}
	})

	select {
	case <-w.Ready():
	case err := <-errCh:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not become ready")
	}
	return w, errCh
}

func waitCall(t *testing.T, r *callbackRecorder) string {
	t.Helper()
	select {
	case path := <-r.calls:
		return path
	case <-time.After(3 * time.Second):
		t.Fatal("callback was not invoked")
		return ""
	}
}

func TestWatcher_IgnoresDisallowedExtension(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	w, _ := startWatcher(t, WatchConfig{Root: root, Debounce: testDebounce, Process: rec.process})

	os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644)
	time.Sleep(10 * testDebounce)

	if rec.count() != 0 {
		t.Errorf("callback must not run for .txt, got %d calls", rec.count())
	}
	if w.Stats().Dropped == 0 {
		t.Error("expected dropped events to be counted")
	}
}

func TestWatcher_AllowedExtensionProcessedOnceAndArchived(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(t.TempDir(), "done")
	rec := newRecorder()
	w, _ := startWatcher(t, WatchConfig{
		Root:       root,
		ArchiveDir: archive,
		Debounce:   testDebounce,
		Process:    rec.process,
	})

	src := filepath.Join(root, "Scan.PNG")
	f, err := os.Create(src)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Несколько записей подряд — один вызов.
	f.Write([]byte("part1"))
	f.Write([]byte("part2"))
	f.Close()

	if got := waitCall(t, rec); got != src {
		t.Errorf("expected callback for %s, got %s", src, got)
	}
	time.Sleep(10 * testDebounce)

	if rec.count() != 1 {
		t.Errorf("expected exactly one callback, got %d", rec.count())
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("expected file moved away from watched dir")
	}
	data, err := os.ReadFile(filepath.Join(archive, "Scan.PNG"))
	if err != nil || string(data) != "part1part2" {
		t.Errorf("expected archived file with same name, got %q (%v)", data, err)
	}

	stats := w.Stats()
	if stats.Processed != 1 || stats.Archived != 1 || stats.Failed != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestWatcher_FailureDoesNotStopLoop(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(t.TempDir(), "done")
	rec := newRecorder()
	rec.fail["bad.jpg"] = true
	w, _ := startWatcher(t, WatchConfig{Root: root, ArchiveDir: archive, Debounce: testDebounce, Process: rec.process})

	os.WriteFile(filepath.Join(root, "bad.jpg"), []byte("x"), 0o644)
	waitCall(t, rec)

	os.WriteFile(filepath.Join(root, "good.jpg"), []byte("y"), 0o644)
	waitCall(t, rec)
	time.Sleep(4 * testDebounce)

	if _, err := os.Stat(filepath.Join(root, "bad.jpg")); err != nil {
		t.Error("failed file must stay in place")
	}
	stats := w.Stats()
	if stats.Failed != 1 || stats.Processed != 1 || stats.Archived != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestWatcher_Recursive(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "existing")
	os.Mkdir(existing, 0o755)

	rec := newRecorder()
	startWatcher(t, WatchConfig{Root: root, Recursive: true, Debounce: testDebounce, Process: rec.process})

	path := filepath.Join(existing, "deep.bmp")
	os.WriteFile(path, []byte("x"), 0o644)

	if got := waitCall(t, rec); got != path {
		t.Errorf("expected %s, got %s", path, got)
	}
}

func TestWatcher_RecursiveNewDirectoryWithArchiveUnderRoot(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(root, "archive")
	rec := newRecorder()
	w, _ := startWatcher(t, WatchConfig{
		Root:       root,
		Recursive:  true,
		ArchiveDir: archive,
		Debounce:   testDebounce,
		Process:    rec.process,
	})

	sub := filepath.Join(root, "incoming")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Подписка на новую директорию устанавливается асинхронно.
	time.Sleep(4 * testDebounce)

	src := filepath.Join(sub, "x.jpg")
	os.WriteFile(src, []byte("scan"), 0o644)

	if got := waitCall(t, rec); got != src {
		t.Errorf("expected %s, got %s", src, got)
	}
	time.Sleep(10 * testDebounce)

	if rec.count() != 1 {
		t.Errorf("archived file must not be processed again, got %d calls", rec.count())
	}
	if _, err := os.Stat(filepath.Join(archive, "x.jpg")); err != nil {
		t.Errorf("expected file in archive: %v", err)
	}
	if st := w.Stats(); st.Seen != 1 || st.Archived != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestWatcher_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	startWatcher(t, WatchConfig{Root: root, Extensions: []string{".WEBP"}, Debounce: testDebounce, Process: rec.process})

	os.WriteFile(filepath.Join(root, "a.png"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(root, "b.webp"), []byte("x"), 0o644)

	if got := waitCall(t, rec); filepath.Base(got) != "b.webp" {
		t.Errorf("expected only webp processed, got %s", got)
	}
	time.Sleep(4 * testDebounce)
	if rec.count() != 1 {
		t.Errorf("expected one call, got %d", rec.count())
	}
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	w, err := NewWatcher(WatchConfig{Root: t.TempDir(), Process: newRecorder().process})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	<-w.Ready()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RunTwice(t *testing.T) {
	w, _ := startWatcher(t, WatchConfig{Root: t.TempDir(), Process: newRecorder().process})

	if err := w.Run(context.Background()); !errors.Is(err, ErrWatcherStarted) {
		t.Errorf("expected ErrWatcherStarted, got %v", err)
	}
}

func TestWatcher_SubscriptionFailure(t *testing.T) {
	w, _ := NewWatcher(WatchConfig{Root: filepath.Join(t.TempDir(), "missing"), Process: newRecorder().process})

	err := w.Run(context.Background())
	if !errors.Is(err, ErrFilesystem) {
		t.Errorf("expected ErrFilesystem, got %v", err)
	}
}

func TestNewWatcher_Validation(t *testing.T) {
	if _, err := NewWatcher(WatchConfig{Process: newRecorder().process}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for empty root, got %v", err)
	}
	if _, err := NewWatcher(WatchConfig{Root: "."}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for missing callback, got %v", err)
	}
}

func TestArchive_OverwritesCollision(t *testing.T) {
	src := filepath.Join(t.TempDir(), "page.png")
	os.WriteFile(src, []byte("new"), 0o644)

	dir := filepath.Join(t.TempDir(), "archive", "nested")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "page.png"), []byte("old"), 0o644)

	dest, err := Archive(src, dir)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if data, _ := os.ReadFile(dest); string(data) != "new" {
		t.Errorf("expected collision overwritten, got %q", data)
	}
}

func TestSaveResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	regions := []domain.Region{{BBox: []domain.Point{}, Text: "hi"}}

	dest, err := SaveResults(dir, "/data/invoice.scan.png", regions, domain.DetailText)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(dest) != "invoice.scan.json" {
		t.Errorf("unexpected file name %s", dest)
	}

	var got []domain.Region
	data, _ := os.ReadFile(dest)
	if err := json.Unmarshal(data, &got); err != nil || len(got) != 1 || got[0].Text != "hi" {
		t.Errorf("unexpected saved content %s (%v)", data, err)
	}
}
