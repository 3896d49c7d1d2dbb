package config

import (
	"fmt"
	"slices"

	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/format"
)

// Params — эффективные параметры распознавания.
type Params struct {
	Languages []string      `json:"languages"`
	GPU       bool          `json:"gpu"`
	Output    string        `json:"output"`
	Detail    domain.Detail `json:"detail"`
}

// BuiltinParams — умолчания, действующие при отсутствии любых слоёв.
func BuiltinParams() Params {
	return Params{
		Languages: []string{"en"},
		GPU:       true,
		Output:    format.JSON,
		Detail:    domain.DetailFull,
	}
}

// Apply накладывает заданные поля o поверх p.
func (p Params) Apply(o *Overrides) Params {
	if o == nil {
		return p
	}
	if o.Languages != nil {
		p.Languages = slices.Clone(o.Languages)
	}
	if o.GPU != nil {
		p.GPU = *o.GPU
	}
	if o.Output != nil {
		p.Output = *o.Output
	}
	if o.Detail != nil {
		p.Detail = domain.Detail(*o.Detail)
	}
	return p
}

// Params возвращает параметры: встроенные умолчания ← [default] ← [profiles.<profile>].
// Пустое имя профиля означает «без профиля».
func (c *Config) Params(profile string) (Params, error) {
	p := BuiltinParams()
	if c == nil {
		if profile != "" {
			return Params{}, domain.NewValidationError("profile", fmt.Sprintf("unknown profile %q", profile))
		}
		return p, nil
	}

	p = p.Apply(c.Default)

	if profile != "" {
		o, ok := c.Profiles[profile]
		if !ok {
			return Params{}, domain.NewValidationError("profile", fmt.Sprintf("unknown profile %q", profile))
		}
		p = p.Apply(&o)
	}

	return p, nil
}

// Validate проверяет detail, формат вывода и список языков.
func (p Params) Validate() error {
	if !p.Detail.Valid() {
		return domain.NewValidationError("detail", fmt.Sprintf("detail level must be 0 or 1, got %d", p.Detail))
	}
	if !format.IsResultFormat(p.Output) {
		return domain.NewValidationError("output", fmt.Sprintf("invalid output format %q, use: json, text, or detailed", p.Output))
	}
	if len(p.Languages) == 0 {
		return domain.NewValidationError("languages", "at least one language required")
	}
	return nil
}

// Request строит запрос распознавания для файла.
func (p Params) Request(path string) domain.Request {
	return domain.Request{
		ImagePath: path,
		Languages: slices.Clone(p.Languages),
		Detail:    p.Detail,
		GPU:       p.GPU,
	}
}
