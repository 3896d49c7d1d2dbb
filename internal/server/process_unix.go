//go:build !windows

package server

import (
	"os/exec"
	"strconv"
	"syscall"
)

// Alive проверяет процесс через `ps -p PID`.
func (OSProcessTable) Alive(pid int) bool {
	return exec.Command("ps", "-p", strconv.Itoa(pid)).Run() == nil
}

// Terminate отправляет SIGTERM.
func (OSProcessTable) Terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// detached запускает процесс в собственной группе,
// чтобы Ctrl+C в терминале CLI не доходил до сервера.
func detached() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
