package emotion

import (
	"testing"

	"github.com/vmcd/vmcd/internal/clip"
)

func TestStarterPresetsProduceRelativeClipsWithFrames(t *testing.T) {
	for name, gen := range StarterPresets {
		c := gen()
		if c.Mode != clip.ModeRelative {
			t.Fatalf("%s: Mode = %v, want relative", name, c.Mode)
		}
		if len(c.Frames) < 2 {
			t.Fatalf("%s: generated %d frames, want >= 2", name, len(c.Frames))
		}
		if c.Frames[0].T != 0 {
			t.Fatalf("%s: first frame T = %d, want 0", name, c.Frames[0].T)
		}
	}
}

func TestGenSmileEnvelopeStartsAndEndsNearZero(t *testing.T) {
	c := genSmile()
	first := c.Frames[0].Blendshapes["Joy"]
	last := c.Frames[len(c.Frames)-1].Blendshapes["Joy"]
	if first > 0.05 {
		t.Fatalf("first frame Joy = %v, want near 0", first)
	}
	if last > 0.05 {
		t.Fatalf("last frame Joy = %v, want near 0", last)
	}
}

func TestGenNodProducesHeadRotation(t *testing.T) {
	c := genNod()
	sawNonIdentity := false
	for _, f := range c.Frames {
		if b, ok := f.Bones["Head"]; ok && b.Rot.X != 0 {
			sawNonIdentity = true
		}
	}
	if !sawNonIdentity {
		t.Fatal("genNod should produce at least one non-identity Head rotation")
	}
}
