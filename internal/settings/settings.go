// Package settings persists the studio view settings between sessions.
package settings

import (
	"math"

	"github.com/useflyyer/studio/internal/preview"
)

const (
	MinRatio     = 0.10
	MaxRatio     = 1.0
	DefaultRatio = 0.5
)

// DefaultVariables is the variables text offered on a fresh session.
const DefaultVariables = "{\n  title: \"Hello World\",\n}"

// ViewSettings is the last-used view state. The JSON encoding is the
// persisted blob: {"ratio": number, "variables": string, "modes": string[]}.
type ViewSettings struct {
	Ratio     float64         `json:"ratio"`
	Variables string          `json:"variables"`
	Modes     preview.ModeSet `json:"modes"`
}

// Default returns the settings used when nothing was stored.
func Default() ViewSettings {
	return ViewSettings{
		Ratio:     DefaultRatio,
		Variables: DefaultVariables,
		Modes:     preview.NewModeSet(preview.ModeBanner),
	}
}

// Normalize clamps the ratio into range. Variables and modes are kept
// verbatim; an empty mode set is a valid choice.
func (s ViewSettings) Normalize() ViewSettings {
	s.Ratio = ClampRatio(s.Ratio)
	return s
}

// ClampRatio limits r to [MinRatio, MaxRatio]; zero and NaN become DefaultRatio.
func ClampRatio(r float64) float64 {
	switch {
	case r == 0 || math.IsNaN(r):
		return DefaultRatio
	case r < MinRatio:
		return MinRatio
	case r > MaxRatio:
		return MaxRatio
	}
	return r
}

// ToggleMode flips mode in the active set.
func (s ViewSettings) ToggleMode(mode preview.Mode) ViewSettings {
	s.Modes = s.Modes.Toggle(mode)
	return s
}
