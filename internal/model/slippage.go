package model

import "fmt"

// SlippagePreset is one of the fixed tolerance choices offered in the editor.
type SlippagePreset float64

// Accepted presets, as decimal fractions.
const (
	Slippage1Percent  SlippagePreset = 0.01
	Slippage3Percent  SlippagePreset = 0.03
	Slippage10Percent SlippagePreset = 0.10
)

// Presets lists the accepted slippage presets in display order.
var Presets = []SlippagePreset{Slippage1Percent, Slippage3Percent, Slippage10Percent}

// SlippageTolerance is the maximum acceptable adverse price movement for a
// swap step, as a decimal fraction in (0, 1). The value is either one of the
// presets or a caller-supplied custom decimal. Enforcement is the run
// engine's responsibility: a swap whose realized price moves beyond the
// tolerance must fail, not clamp.
type SlippageTolerance struct {
	Value float64 `json:"value"`
}

// SelectedPreset reports which preset, if any, exactly matches the current
// value. A custom value matches no preset.
func (t SlippageTolerance) SelectedPreset() (SlippagePreset, bool) {
	for _, p := range Presets {
		if t.Value == float64(p) {
			return p, true
		}
	}
	return 0, false
}

// IsCustom reports whether the value is not one of the presets.
func (t SlippageTolerance) IsCustom() bool {
	_, ok := t.SelectedPreset()
	return !ok
}

// Validate checks that the tolerance is a fraction strictly between 0 and 1.
func (t SlippageTolerance) Validate() error {
	if t.Value <= 0 || t.Value >= 1 {
		return fmt.Errorf("must be a fraction in (0, 1), got %v", t.Value)
	}
	return nil
}
