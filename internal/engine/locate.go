package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

// Имена скриптов движка.
const (
	BridgeScript = "easyocr_bridge.py"
	ServerScript = "easyocr_server.py"
)

// Locator ищет скрипты движка: сначала рядом с исполняемым файлом,
// затем в текущей директории.
type Locator struct {
	// ExeDir возвращает директорию исполняемого файла.
	// По умолчанию — filepath.Dir(os.Executable()).
	ExeDir func() (string, error)

	// WorkDir возвращает текущую директорию. По умолчанию — os.Getwd.
	WorkDir func() (string, error)
}

// Find возвращает абсолютный путь к скрипту name.
func (l Locator) Find(name string) (string, error) {
	exeDir := l.ExeDir
	if exeDir == nil {
		exeDir = executableDir
	}
	workDir := l.WorkDir
	if workDir == nil {
		workDir = os.Getwd
	}

	var searched []string
	for _, dirFn := range []func() (string, error){exeDir, workDir} {
		dir, err := dirFn()
		if err != nil || dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		searched = append(searched, dir)

		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return candidate, nil
		}
		return abs, nil
	}

	return "", fmt.Errorf("%w: %s not found (searched %v)", ErrUnavailable, name, searched)
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
