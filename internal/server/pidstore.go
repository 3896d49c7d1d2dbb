package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PIDFileEnv — переменная окружения с путём к PID-файлу.
const PIDFileEnv = "GLYPH_PID_FILE"

// PIDStore хранит PID запущенного сервера между вызовами CLI.
type PIDStore interface {
	// Load возвращает записанный PID; false, если записи нет или она повреждена.
	Load() (int, bool)
	Save(pid int) error
	Remove() error
}

// FilePIDStore хранит PID в текстовом файле.
type FilePIDStore struct {
	Path string
}

// DefaultPIDPath возвращает $GLYPH_PID_FILE или $TMPDIR/glyph_server.pid.
func DefaultPIDPath() string {
	if p := os.Getenv(PIDFileEnv); p != "" {
		return p
	}
	return filepath.Join(os.TempDir(), "glyph_server.pid")
}

// Load читает PID из файла.
func (s FilePIDStore) Load() (int, bool) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Save перезаписывает файл новым PID.
func (s FilePIDStore) Save(pid int) error {
	if err := os.WriteFile(s.Path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrPIDStore, err)
	}
	return nil
}

// Remove удаляет файл. Отсутствие файла ошибкой не считается.
func (s FilePIDStore) Remove() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrPIDStore, err)
	}
	return nil
}
