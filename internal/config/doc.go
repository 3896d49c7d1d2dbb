// Package config загружает и объединяет многоуровневую конфигурацию Glyph.
//
// # Слои
//
// Конфигурация читается из TOML-файлов по возрастанию приоритета:
//
//  1. системный   — /etc/glyph/config.toml
//  2. пользовательский — $XDG_CONFIG_HOME/glyph/config.toml (os.UserConfigDir)
//  3. проектный   — ./glyph.toml
//  4. явный       — --config <path> (обязан существовать)
//
// Отсутствующий файл слоёв 1–3 не ошибка. Нечитаемый файл → ErrConfigIO,
// некорректный TOML → ErrConfigParse. Обе ошибки прерывают запуск.
//
// # Слияние
//
// Merge объединяет слои слева направо на уровне полей:
//   - в секциях default, server, batch каждое заданное поле перезаписывает накопленное;
//   - незаданные поля не трогаются (слой никогда не «очищает» значение);
//   - profiles объединяются по ключу, при совпадении имени профиль заменяется целиком.
//
// Чтобы различать «не задано» и «нулевое значение», все поля слоя — указатели
// (или nil-срез для languages).
//
// # Эффективные параметры
//
//	cfg, err := (&config.Loader{Paths: config.DefaultPaths()}).Load()
//	params, err := cfg.Params("fast")   // встроенные умолчания ← [default] ← [profiles.fast]
//	if err := params.Validate(); err != nil { ... }
package config
