package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shaiso/Glyph/internal/engine"
)

// DefaultReadyDelay — пауза после запуска сервера.
const DefaultReadyDelay = 2 * time.Second

// Handle — запущенный сервер.
type Handle struct {
	PID     int    `json:"pid"`
	URL     string `json:"url"`
	LogPath string `json:"log_path"`
}

// Status — состояние сервера по PID-записи.
type Status struct {
	Running bool `json:"running"`
	PID     int  `json:"pid,omitempty"`
}

// Config — конфигурация Lifecycle.
type Config struct {
	Store       PIDStore       // default: FilePIDStore{DefaultPIDPath()}
	Procs       ProcessTable   // default: OSProcessTable
	Locator     engine.Locator // поиск easyocr_server.py
	Interpreter string         // default: python3
	ReadyDelay  time.Duration  // default: DefaultReadyDelay
	LogPath     string         // default: $TMPDIR/glyph_server.log
	Logger      *slog.Logger
}

// Lifecycle запускает, останавливает и проверяет сервер движка.
type Lifecycle struct {
	store       PIDStore
	procs       ProcessTable
	locator     engine.Locator
	interpreter string
	readyDelay  time.Duration
	logPath     string
	logger      *slog.Logger
}

// New создаёт Lifecycle.
func New(cfg Config) *Lifecycle {
	store := cfg.Store
	if store == nil {
		store = FilePIDStore{Path: DefaultPIDPath()}
	}

	procs := cfg.Procs
	if procs == nil {
		procs = OSProcessTable{}
	}

	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = engine.DefaultInterpreter
	}

	readyDelay := cfg.ReadyDelay
	if readyDelay <= 0 {
		readyDelay = DefaultReadyDelay
	}

	logPath := cfg.LogPath
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "glyph_server.log")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Lifecycle{
		store:       store,
		procs:       procs,
		locator:     cfg.Locator,
		interpreter: interpreter,
		readyDelay:  readyDelay,
		logPath:     logPath,
		logger:      logger,
	}
}

// Start запускает сервер на host:port.
//
// Процесс не привязан к ctx и продолжает работать после выхода CLI.
// ctx прерывает только ожидание ReadyDelay: запущенный процесс уже
// записан, поэтому Start всё равно возвращает handle без ошибки.
func (l *Lifecycle) Start(ctx context.Context, host string, port int) (Handle, error) {
	script, err := l.locator.Find(engine.ServerScript)
	if err != nil {
		return Handle{}, err
	}

	logFile, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: open log %s: %v", ErrStart, l.logPath, err)
	}
	defer logFile.Close()

	cmd := exec.Command(l.interpreter, script, "--host", host, "--port", strconv.Itoa(port))
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = detached()

	if err := cmd.Start(); err != nil {
		return Handle{}, fmt.Errorf("%w: %s: %v", engine.ErrUnavailable, l.interpreter, err)
	}

	pid := cmd.Process.Pid

	// Забираем код выхода, если сервер завершится раньше CLI.
	go func() {
		_ = cmd.Wait()
	}()

	if err := l.store.Save(pid); err != nil {
		_ = l.procs.Terminate(pid)
		return Handle{}, err
	}

	handle := Handle{
		PID:     pid,
		URL:     fmt.Sprintf("http://%s:%d", host, port),
		LogPath: l.logPath,
	}

	l.logger.Info("engine server started",
		"pid", pid,
		"url", handle.URL,
		"script", script,
		"log", l.logPath,
	)

	timer := time.NewTimer(l.readyDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		l.logger.Warn("ready wait interrupted, server keeps starting", "pid", pid, "error", ctx.Err())
	}
	return handle, nil
}

// Stop останавливает сервер по записанному PID.
// Возвращает false, если записи нет.
func (l *Lifecycle) Stop() bool {
	pid, ok := l.store.Load()
	if !ok {
		return false
	}

	if err := l.procs.Terminate(pid); err != nil {
		l.logger.Warn("failed to terminate engine server", "pid", pid, "error", err)
	}
	if err := l.store.Remove(); err != nil {
		l.logger.Warn("failed to remove pid record", "pid", pid, "error", err)
	}

	l.logger.Info("engine server stopped", "pid", pid)
	return true
}

// Status сообщает, жив ли процесс с записанным PID.
func (l *Lifecycle) Status() Status {
	pid, ok := l.store.Load()
	if !ok {
		return Status{}
	}
	return Status{Running: l.procs.Alive(pid), PID: pid}
}
