package config

// Merge объединяет слои по возрастанию приоритета.
//
// Поле более позднего слоя перезаписывает накопленное значение только если
// оно задано. Профили с совпадающим именем заменяются целиком.
// Входные слои не изменяются.
func Merge(layers ...Layer) Layer {
	var result Layer

	for _, layer := range layers {
		if layer.Default != nil {
			result.Default = mergeOverrides(result.Default, layer.Default)
		}

		if layer.Server != nil {
			result.Server = mergeServer(result.Server, layer.Server)
		}

		if layer.Batch != nil {
			result.Batch = mergeBatch(result.Batch, layer.Batch)
		}

		if layer.Profiles != nil {
			if result.Profiles == nil {
				result.Profiles = make(map[string]Overrides, len(layer.Profiles))
			}
			for name, profile := range layer.Profiles {
				result.Profiles[name] = *mergeOverrides(nil, &profile)
			}
		}
	}

	return result
}

func mergeOverrides(base, over *Overrides) *Overrides {
	result := &Overrides{}
	if base != nil {
		*result = *base
	}

	if over.Languages != nil {
		result.Languages = append([]string(nil), over.Languages...)
	}
	if over.GPU != nil {
		result.GPU = ptr(*over.GPU)
	}
	if over.Output != nil {
		result.Output = ptr(*over.Output)
	}
	if over.Detail != nil {
		result.Detail = ptr(*over.Detail)
	}

	return result
}

func mergeServer(base, over *ServerSection) *ServerSection {
	result := &ServerSection{}
	if base != nil {
		*result = *base
	}

	if over.Enabled != nil {
		result.Enabled = ptr(*over.Enabled)
	}
	if over.Port != nil {
		result.Port = ptr(*over.Port)
	}
	if over.Host != nil {
		result.Host = ptr(*over.Host)
	}
	if over.AutoStart != nil {
		result.AutoStart = ptr(*over.AutoStart)
	}

	return result
}

func mergeBatch(base, over *BatchSection) *BatchSection {
	result := &BatchSection{}
	if base != nil {
		*result = *base
	}

	if over.OutputDir != nil {
		result.OutputDir = ptr(*over.OutputDir)
	}
	if over.ContinueOnError != nil {
		result.ContinueOnError = ptr(*over.ContinueOnError)
	}

	return result
}

func ptr[T any](v T) *T {
	return &v
}
