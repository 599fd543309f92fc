package model

import "testing"

func TestSlippageSelectedPreset(t *testing.T) {
	for _, tc := range []struct {
		value    float64
		preset   SlippagePreset
		selected bool
	}{
		{0.01, Slippage1Percent, true},
		{0.03, Slippage3Percent, true},
		{0.10, Slippage10Percent, true},
		{0.07, 0, false}, // custom value selects no preset
		{0.005, 0, false},
	} {
		p, ok := SlippageTolerance{Value: tc.value}.SelectedPreset()
		if ok != tc.selected {
			t.Errorf("SelectedPreset(%v) ok=%v, want %v", tc.value, ok, tc.selected)
		}
		if ok && p != tc.preset {
			t.Errorf("SelectedPreset(%v) = %v, want %v", tc.value, p, tc.preset)
		}
	}
}

func TestSlippageOnlyOnePresetSelected(t *testing.T) {
	// A preset value must match exactly one preset.
	for _, preset := range Presets {
		tol := SlippageTolerance{Value: float64(preset)}
		var matches int
		for _, p := range Presets {
			if tol.Value == float64(p) {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("value %v matches %d presets", preset, matches)
		}
	}
}

func TestSlippageIsCustom(t *testing.T) {
	if (SlippageTolerance{Value: 0.03}).IsCustom() {
		t.Error("0.03 is a preset, not custom")
	}
	if !(SlippageTolerance{Value: 0.07}).IsCustom() {
		t.Error("0.07 should be custom")
	}
}

func TestSlippageValidate(t *testing.T) {
	for _, tc := range []struct {
		value float64
		ok    bool
	}{
		{0.01, true},
		{0.07, true},
		{0.999, true},
		{0, false},
		{1, false},
		{-0.01, false},
		{1.5, false},
	} {
		err := SlippageTolerance{Value: tc.value}.Validate()
		if (err == nil) != tc.ok {
			t.Errorf("Validate(%v) err=%v, want ok=%v", tc.value, err, tc.ok)
		}
	}
}
