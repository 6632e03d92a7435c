package clip

import (
	"testing"

	"github.com/vmcd/vmcd/internal/quat"
)

func TestDurationMSEmptyClip(t *testing.T) {
	c := Clip{Mode: ModeRelative}
	if got := c.DurationMS(); got != 0 {
		t.Fatalf("DurationMS() = %d, want 0", got)
	}
}

func TestDurationMSLastFrame(t *testing.T) {
	c := Clip{Frames: []Frame{{T: 0}, {T: 100}, {T: 350}}}
	if got := c.DurationMS(); got != 350 {
		t.Fatalf("DurationMS() = %d, want 350", got)
	}
}

func TestFrameAtOrBeforeBeforeFirst(t *testing.T) {
	c := Clip{Frames: []Frame{{T: 100}, {T: 200}}}
	f, ok := c.FrameAtOrBefore(0)
	if !ok || f.T != 100 {
		t.Fatalf("FrameAtOrBefore(0) = %+v, %v, want t=100", f, ok)
	}
}

func TestFrameAtOrBeforeExact(t *testing.T) {
	c := Clip{Frames: []Frame{{T: 0}, {T: 100}, {T: 200}}}
	f, ok := c.FrameAtOrBefore(100)
	if !ok || f.T != 100 {
		t.Fatalf("FrameAtOrBefore(100) = %+v, %v, want t=100", f, ok)
	}
}

func TestFrameAtOrBeforeBetween(t *testing.T) {
	c := Clip{Frames: []Frame{{T: 0}, {T: 100}, {T: 200}}}
	f, ok := c.FrameAtOrBefore(150)
	if !ok || f.T != 100 {
		t.Fatalf("FrameAtOrBefore(150) = %+v, %v, want t=100", f, ok)
	}
}

func TestFrameAtOrBeforeEmptyClip(t *testing.T) {
	c := Clip{}
	_, ok := c.FrameAtOrBefore(10)
	if ok {
		t.Fatal("FrameAtOrBefore on empty clip should report not found")
	}
}

func TestToRelativeBlendshapeDelta(t *testing.T) {
	c := Clip{
		Mode: ModeAbsolute,
		Frames: []Frame{
			{T: 0, Blendshapes: BlendMap{"Joy": 0.2}},
			{T: 100, Blendshapes: BlendMap{"Joy": 0.7}},
		},
	}
	rel := ToRelative(c)
	if rel.Mode != ModeRelative {
		t.Fatalf("Mode = %v, want ModeRelative", rel.Mode)
	}
	if got := rel.Frames[0].Blendshapes["Joy"]; got != 0 {
		t.Fatalf("frame0 Joy delta = %v, want 0", got)
	}
	if got := rel.Frames[1].Blendshapes["Joy"]; got-0.5 > 1e-9 || got-0.5 < -1e-9 {
		t.Fatalf("frame1 Joy delta = %v, want 0.5", got)
	}
}

func TestToRelativeMissingNameTreatedAsZero(t *testing.T) {
	c := Clip{
		Mode: ModeAbsolute,
		Frames: []Frame{
			{T: 0, Blendshapes: BlendMap{}},
			{T: 100, Blendshapes: BlendMap{"Angry": 0.3}},
		},
	}
	rel := ToRelative(c)
	if got := rel.Frames[1].Blendshapes["Angry"]; got != 0.3 {
		t.Fatalf("Angry delta = %v, want 0.3 (reference treated as 0)", got)
	}
}

func TestToRelativeBoneDeltaIsIdentityAtReference(t *testing.T) {
	rot := quat.FromEulerDeg(10, 20, 30)
	c := Clip{
		Mode: ModeAbsolute,
		Frames: []Frame{
			{T: 0, Bones: BoneMap{"Head": {Rot: rot}}},
			{T: 100, Bones: BoneMap{"Head": {Rot: rot}}},
		},
	}
	rel := ToRelative(c)
	got := rel.Frames[1].Bones["Head"].Rot
	if got.X > 1e-9 || got.X < -1e-9 || got.Y > 1e-9 || got.Y < -1e-9 ||
		got.Z > 1e-9 || got.Z < -1e-9 || got.W-1 > 1e-9 || got.W-1 < -1e-9 {
		t.Fatalf("bone delta at reference frame = %+v, want Identity", got)
	}
}

func TestToRelativeMissingBoneSubstitutesIdentity(t *testing.T) {
	rot := quat.FromEulerDeg(0, 90, 0)
	c := Clip{
		Mode: ModeAbsolute,
		Frames: []Frame{
			{T: 0, Bones: BoneMap{}},
			{T: 100, Bones: BoneMap{"Head": {Rot: rot}}},
		},
	}
	rel := ToRelative(c)
	got := rel.Frames[1].Bones["Head"].Rot
	want := rot // Identity.Inverse().Mul(rot) == rot
	if got.X-want.X > 1e-9 || got.X-want.X < -1e-9 {
		t.Fatalf("bone delta with missing reference = %+v, want %+v", got, want)
	}
}

func TestToRelativeEmptyClip(t *testing.T) {
	rel := ToRelative(Clip{Mode: ModeAbsolute})
	if len(rel.Frames) != 0 {
		t.Fatalf("ToRelative of empty clip produced %d frames", len(rel.Frames))
	}
	if rel.Mode != ModeRelative {
		t.Fatalf("Mode = %v, want ModeRelative", rel.Mode)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := BlendMap{"Joy": 0.5}
	c := b.Clone()
	c["Joy"] = 0.9
	if b["Joy"] != 0.5 {
		t.Fatal("Clone shares backing storage with the original map")
	}
}
