package config

import "errors"

// Ошибки загрузки конфигурации.
var (
	// ErrConfigIO — файл конфигурации существует, но не читается.
	ErrConfigIO = errors.New("config io error")

	// ErrConfigParse — файл конфигурации не является корректным TOML.
	ErrConfigParse = errors.New("config parse error")
)
