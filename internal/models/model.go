package models

import "strings"

// Model selects the Gemini model used for generation.
type Model string

const (
	ModelPro   Model = "gemini-2.5-pro"
	ModelFlash Model = "gemini-flash-latest"

	DefaultModel = ModelPro
)

// ParseModel maps a stored setting or the short names "pro" and "flash" to a known model.
func ParseModel(s string) (Model, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModelPro), "pro":
		return ModelPro, true
	case string(ModelFlash), "flash":
		return ModelFlash, true
	default:
		return DefaultModel, false
	}
}

// DisplayName is the human label shown next to the topic prompt.
func (m Model) DisplayName() string {
	if m == ModelFlash {
		return "Gemini Flash"
	}
	return "Gemini 2.5 Pro"
}
