// Package blend sanitizes outbound blendshape maps: clamping to [0,1]
// and capping eye-blink values when a whole-face expression is active.
package blend

// eyeConflictCoefficient is the fraction of Joy/Angry strength the host
// is assumed to already spend on closing the eyes.
const eyeConflictCoefficient = 0.7

// eyeConflictThreshold is the minimum combined Joy/Angry value before the
// cap is applied at all.
const eyeConflictThreshold = 0.05

var blinkNames = []string{
	"Blink", "Blink_L", "Blink_R",
	"BlinkLeft", "BlinkRight",
	"EyeBlinkLeft", "EyeBlinkRight",
	"eyeBlinkLeft", "eyeBlinkRight",
}

// Sanitize returns a new map with every value clamped to [0,1] and the
// eye-conflict rule applied: when max(Joy, Angry) exceeds the threshold,
// every present blink name is capped at max(0, 1 - 0.7*E).
func Sanitize(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for name, v := range in {
		out[name] = clamp01(v)
	}

	e := out["Joy"]
	if a := out["Angry"]; a > e {
		e = a
	}
	if e <= eyeConflictThreshold {
		return out
	}

	cap := 1 - eyeConflictCoefficient*e
	if cap < 0 {
		cap = 0
	}
	for _, name := range blinkNames {
		if v, ok := out[name]; ok && v > cap {
			out[name] = cap
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
