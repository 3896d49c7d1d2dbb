// Package server управляет локальным процессом сервера движка (easyocr_server.py).
//
// Lifecycle запускает сервер в отдельной группе процессов, записывает его PID
// через PIDStore и умеет остановить или проверить его по этой записи.
// Готовность после запуска не проверяется: выдерживается фиксированная
// пауза ReadyDelay.
//
// Известное ограничение: повторный Start перезаписывает PID без проверки,
// что прежний процесс ещё жив.
package server
