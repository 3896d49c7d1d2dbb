package config

// DefaultTemplate возвращает канонический текст конфигурации для `glyph config init`.
// Чистая функция: без ввода-вывода и побочных эффектов.
func DefaultTemplate() string {
	return `# Glyph configuration
# Save as ~/.config/glyph/config.toml or ./glyph.toml

[default]
languages = ["en"]
gpu = true
output = "json"
detail = 1

[server]
enabled = false
port = 8000
host = "127.0.0.1"
auto_start = false

[batch]
output_dir = "./results"
continue_on_error = true

# Example profiles
[profiles.chinese]
languages = ["ch_sim", "en"]
gpu = true
detail = 1

[profiles.multilang]
languages = ["en", "ch_sim", "ja", "ko"]
gpu = true
output = "detailed"
detail = 1

[profiles.fast]
languages = ["en"]
gpu = true
detail = 0
`
}
