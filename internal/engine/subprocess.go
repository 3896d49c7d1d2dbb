package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"github.com/shaiso/Glyph/internal/domain"
)

// SubprocessClient вызывает bridge-скрипт на каждое изображение.
//
// Команда: <interpreter> <script> --languages en,ch_sim --image PATH --gpu true --detail 1
// Успех — код выхода 0 и JSON-массив регионов в stdout.
// Ошибка — ненулевой код и сообщение в stderr.
type SubprocessClient struct {
	// Script — явный путь к bridge-скрипту. Если пуст, ищется через Locator на каждый вызов.
	Script string

	Interpreter string
	Locator     Locator
	Logger      *slog.Logger
}

// NewSubprocessClient создаёт SubprocessClient.
func NewSubprocessClient(loc Locator, interpreter string, logger *slog.Logger) *SubprocessClient {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubprocessClient{
		Interpreter: interpreter,
		Locator:     loc,
		Logger:      logger,
	}
}

// Invoke запускает bridge-скрипт и разбирает его вывод.
func (c *SubprocessClient) Invoke(ctx context.Context, req domain.Request) ([]domain.Region, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	script := c.Script
	if script == "" {
		found, err := c.Locator.Find(BridgeScript)
		if err != nil {
			return nil, err
		}
		script = found
	}

	imagePath := req.ImagePath
	if imagePath == "" {
		tmp, err := spill(req.Image)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		imagePath = tmp
	}

	args := []string{
		script,
		"--languages", req.LanguageList(),
		"--image", imagePath,
		"--gpu", strconv.FormatBool(req.GPU),
		"--detail", strconv.Itoa(int(req.Detail)),
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Interpreter, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.Logger.Debug("invoking engine bridge",
		"interpreter", c.Interpreter,
		"script", script,
		"image", req.Source(),
		"languages", req.LanguageList(),
	)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExecutionError{
				Strategy: StrategySubprocess,
				ExitCode: exitErr.ExitCode(),
				Message:  errorMessage(stderr.Bytes()),
			}
		}
		return nil, fmt.Errorf("%w: start %s: %v", ErrUnavailable, c.Interpreter, err)
	}

	return decodeRegions(stdout.Bytes(), req.Detail)
}

// spill сохраняет байты изображения во временный файл.
func spill(image []byte) (string, error) {
	f, err := os.CreateTemp("", "glyph-*.img")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	if _, err := f.Write(image); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp image: %w", err)
	}
	return f.Name(), nil
}
