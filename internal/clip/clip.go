// Package clip holds the frame/clip data model shared by the recorder,
// mixer, and preset store, plus the absolute-to-relative transform.
package clip

import "github.com/vmcd/vmcd/internal/quat"

// Mode distinguishes whether a clip's values are host-space absolutes or
// deltas from the clip's first frame.
type Mode string

const (
	ModeAbsolute Mode = "absolute"
	ModeRelative Mode = "relative"
)

// Bone is a named joint's position and rotation. Position is retained
// for wire symmetry but the mixer always emits [0,0,0].
type Bone struct {
	Pos [3]float64 `json:"pos"`
	Rot quat.Quat  `json:"rot"`
}

// BlendMap is a blendshape name to scalar mapping.
type BlendMap map[string]float64

// BoneMap is a bone name to Bone mapping.
type BoneMap map[string]Bone

// Clone returns a deep copy of the map.
func (b BlendMap) Clone() BlendMap {
	out := make(BlendMap, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of the map.
func (b BoneMap) Clone() BoneMap {
	out := make(BoneMap, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Frame is a single sample within a clip: a timestamp, a blendshape map,
// and an optional bone map (nil means "no bone opinion at this moment").
type Frame struct {
	T           int64    `json:"t"`
	Blendshapes BlendMap `json:"blendshapes"`
	Bones       BoneMap  `json:"bones,omitempty"`
}

// Clip is an ordered, mode-tagged sequence of frames.
type Clip struct {
	Mode   Mode    `json:"mode"`
	Frames []Frame `json:"frames"`
}

// DurationMS returns the t of the last frame, or 0 for an empty clip.
func (c Clip) DurationMS() int64 {
	if len(c.Frames) == 0 {
		return 0
	}
	return c.Frames[len(c.Frames)-1].T
}

// FrameAtOrBefore returns the last frame whose t is <= e, or the first
// frame if e precedes every frame. Frames are assumed sorted by t; when
// several share a t, the later one in the slice wins, matching "only the
// last at a given t is sampled".
func (c Clip) FrameAtOrBefore(e int64) (Frame, bool) {
	if len(c.Frames) == 0 {
		return Frame{}, false
	}
	best := 0
	found := false
	for i, f := range c.Frames {
		if f.T <= e {
			best = i
			found = true
		} else {
			break
		}
	}
	if !found {
		return c.Frames[0], true
	}
	return c.Frames[best], true
}

// ToRelative converts an absolute clip to a relative one: frame 0 becomes
// the reference. Blendshape deltas are f - ref per name over the union of
// names; bone rotation deltas are inverse(ref.rot) * f.rot, with a
// missing rotation on either side substituted by identity.
func ToRelative(c Clip) Clip {
	out := Clip{Mode: ModeRelative, Frames: make([]Frame, len(c.Frames))}
	if len(c.Frames) == 0 {
		return out
	}
	ref := c.Frames[0]

	for i, f := range c.Frames {
		r := Frame{T: f.T, Blendshapes: BlendMap{}}

		names := map[string]struct{}{}
		for n := range f.Blendshapes {
			names[n] = struct{}{}
		}
		for n := range ref.Blendshapes {
			names[n] = struct{}{}
		}
		for n := range names {
			r.Blendshapes[n] = f.Blendshapes[n] - ref.Blendshapes[n]
		}

		if len(f.Bones) > 0 || len(ref.Bones) > 0 {
			r.Bones = BoneMap{}
			boneNames := map[string]struct{}{}
			for n := range f.Bones {
				boneNames[n] = struct{}{}
			}
			for n := range ref.Bones {
				boneNames[n] = struct{}{}
			}
			for n := range boneNames {
				refRot := quat.Identity
				if b, ok := ref.Bones[n]; ok {
					refRot = b.Rot
				}
				curRot := quat.Identity
				if b, ok := f.Bones[n]; ok {
					curRot = b.Rot
				}
				r.Bones[n] = Bone{
					Pos: [3]float64{0, 0, 0},
					Rot: refRot.Inverse().Mul(curRot).Normalize(),
				}
			}
		}

		out.Frames[i] = r
	}
	return out
}
