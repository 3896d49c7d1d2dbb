//go:build windows

package server

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// Alive ищет PID в выводе tasklist.
func (OSProcessTable) Alive(pid int) bool {
	out, err := exec.Command("tasklist", "/FI", "PID eq "+strconv.Itoa(pid), "/NH").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), " "+strconv.Itoa(pid)+" ")
}

// Terminate завершает процесс. Сигналов в Windows нет.
func (OSProcessTable) Terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

func detached() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
