package server

import "errors"

var (
	// ErrStart — процесс сервера не удалось запустить.
	ErrStart = errors.New("server start failed")

	// ErrPIDStore — не удалось записать PID.
	ErrPIDStore = errors.New("pid store failed")
)
