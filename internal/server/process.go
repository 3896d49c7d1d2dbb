package server

// ProcessTable — доступ к таблице процессов ОС.
type ProcessTable interface {
	// Alive сообщает, есть ли процесс с таким PID.
	Alive(pid int) bool

	// Terminate просит процесс завершиться.
	Terminate(pid int) error
}

// OSProcessTable — ProcessTable поверх текущей ОС.
type OSProcessTable struct{}
