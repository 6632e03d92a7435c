package emotion

import (
	"math"

	"github.com/vmcd/vmcd/internal/clip"
	"github.com/vmcd/vmcd/internal/quat"
)

const generatorFPS = 30

// easeInOutCubic is the smooth ease-in-out used by envelope below; the
// linear fadeEnvelope does not use it.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// frameFn produces one frame's blendshape/bone payload at normalized
// time t in [0,1].
type frameFn func(t float64) (clip.BlendMap, clip.BoneMap)

func makeFrames(durationS float64, fn frameFn) clip.Clip {
	count := int(durationS * generatorFPS)
	if count < 2 {
		count = 2
	}

	frames := make([]clip.Frame, count)
	for i := 0; i < count; i++ {
		tNorm := float64(i) / float64(count-1)
		tMS := int64(tNorm * durationS * 1000)
		blend, bones := fn(tNorm)
		frames[i] = clip.Frame{T: tMS, Blendshapes: blend, Bones: bones}
	}
	return clip.Clip{Mode: clip.ModeRelative, Frames: frames}
}

func envelope(t, rampUpEnd, holdEnd float64) float64 {
	switch {
	case t < rampUpEnd:
		return easeInOutCubic(t / rampUpEnd)
	case t < holdEnd:
		return 1.0
	default:
		return easeInOutCubic(1.0 - (t-holdEnd)/(1.0-holdEnd))
	}
}

func genSmile() clip.Clip {
	return makeFrames(1.5, func(t float64) (clip.BlendMap, clip.BoneMap) {
		v := envelope(t, 0.2, 0.7)
		return clip.BlendMap{"Joy": v}, nil
	})
}

func genSad() clip.Clip {
	return makeFrames(2.0, func(t float64) (clip.BlendMap, clip.BoneMap) {
		v := envelope(t, 0.25, 0.7)
		return clip.BlendMap{"Sorrow": v * 0.8}, nil
	})
}

func genAngry() clip.Clip {
	return makeFrames(1.5, func(t float64) (clip.BlendMap, clip.BoneMap) {
		v := envelope(t, 0.15, 0.7)
		return clip.BlendMap{"Angry": v * 0.9}, nil
	})
}

func genSurprised() clip.Clip {
	return makeFrames(1.2, func(t float64) (clip.BlendMap, clip.BoneMap) {
		v := envelope(t, 0.1, 0.5)
		return clip.BlendMap{"Surprised": v}, nil
	})
}

func fadeEnvelope(t float64) float64 {
	switch {
	case t < 0.1:
		return t / 0.1
	case t > 0.85:
		return (1.0 - t) / 0.15
	default:
		return 1.0
	}
}

func genNod() clip.Clip {
	return makeFrames(1.2, func(t float64) (clip.BlendMap, clip.BoneMap) {
		angle := math.Sin(t*math.Pi*4) * 12 * fadeEnvelope(t)
		rot := quat.FromEulerDeg(angle, 0, 0)
		return clip.BlendMap{}, clip.BoneMap{"Head": {Rot: rot}}
	})
}

func genShakeHead() clip.Clip {
	return makeFrames(1.4, func(t float64) (clip.BlendMap, clip.BoneMap) {
		angle := math.Sin(t*math.Pi*4) * 15 * fadeEnvelope(t)
		rot := quat.FromEulerDeg(0, angle, 0)
		return clip.BlendMap{}, clip.BoneMap{"Head": {Rot: rot}}
	})
}

func genThinking() clip.Clip {
	return makeFrames(2.0, func(t float64) (clip.BlendMap, clip.BoneMap) {
		v := envelope(t, 0.2, 0.75)
		tilt := v * 8
		rot := quat.FromEulerDeg(-5*v, 0, tilt)
		return clip.BlendMap{"LookUp": v * 0.3}, clip.BoneMap{"Head": {Rot: rot}}
	})
}

// StarterPresets is the registry of starter-preset generator functions,
// named exactly as the collaborator REST surface expects.
var StarterPresets = map[string]func() clip.Clip{
	"smile":      genSmile,
	"sad":        genSad,
	"angry":      genAngry,
	"surprised":  genSurprised,
	"nod":        genNod,
	"shake_head": genShakeHead,
	"thinking":   genThinking,
}
