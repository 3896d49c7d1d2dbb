package config

import (
	"fmt"
	"net"
	"strconv"
)

// Layer — один слой конфигурации, как он записан в файле.
// nil означает «секция/поле не задано в этом слое».
type Layer struct {
	Default  *Overrides           `toml:"default"`
	Server   *ServerSection       `toml:"server"`
	Batch    *BatchSection        `toml:"batch"`
	Profiles map[string]Overrides `toml:"profiles"`
}

// Overrides — параметры распознавания: секция [default] и каждый [profiles.<name>].
type Overrides struct {
	Languages []string `toml:"languages"`
	GPU       *bool    `toml:"gpu"`
	Output    *string  `toml:"output"`
	Detail    *int     `toml:"detail"`
}

// ServerSection — секция [server].
type ServerSection struct {
	Enabled   *bool   `toml:"enabled"`
	Port      *int    `toml:"port"`
	Host      *string `toml:"host"`
	AutoStart *bool   `toml:"auto_start"`
}

// BatchSection — секция [batch].
type BatchSection struct {
	OutputDir       *string `toml:"output_dir"`
	ContinueOnError *bool   `toml:"continue_on_error"`
}

// Значения по умолчанию для секций server и batch.
const (
	DefaultServerHost = "127.0.0.1"
	DefaultServerPort = 8000
)

// Config — эффективная конфигурация: результат слияния всех слоёв.
type Config struct {
	Layer

	// Sources — пути файлов, реально участвовавших в слиянии (по возрастанию приоритета).
	Sources []string
}

// ServerSettings — секция [server] с подставленными умолчаниями.
type ServerSettings struct {
	Enabled   bool   `json:"enabled"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	AutoStart bool   `json:"auto_start"`
}

// BatchSettings — секция [batch] с подставленными умолчаниями.
type BatchSettings struct {
	OutputDir       string `json:"output_dir"`
	ContinueOnError bool   `json:"continue_on_error"`
}

// Server возвращает настройки сервера.
func (c *Config) Server() ServerSettings {
	s := ServerSettings{Host: DefaultServerHost, Port: DefaultServerPort}
	if c == nil || c.Layer.Server == nil {
		return s
	}
	sec := c.Layer.Server
	if sec.Enabled != nil {
		s.Enabled = *sec.Enabled
	}
	if sec.Host != nil && *sec.Host != "" {
		s.Host = *sec.Host
	}
	if sec.Port != nil {
		s.Port = *sec.Port
	}
	if sec.AutoStart != nil {
		s.AutoStart = *sec.AutoStart
	}
	return s
}

// Batch возвращает настройки пакетной обработки.
// continue_on_error по умолчанию true.
func (c *Config) Batch() BatchSettings {
	b := BatchSettings{ContinueOnError: true}
	if c == nil || c.Layer.Batch == nil {
		return b
	}
	if c.Layer.Batch.OutputDir != nil {
		b.OutputDir = *c.Layer.Batch.OutputDir
	}
	if c.Layer.Batch.ContinueOnError != nil {
		b.ContinueOnError = *c.Layer.Batch.ContinueOnError
	}
	return b
}

// URL возвращает базовый URL сервера движка: http://host:port.
func (s ServerSettings) URL() string {
	return "http://" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Validate проверяет диапазон порта.
func (s ServerSettings) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", s.Port)
	}
	return nil
}

// ProfileNames возвращает имена профилей (порядок не определён).
func (c *Config) ProfileNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	return names
}
