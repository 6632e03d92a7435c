// Package mixer implements the two-layer animation mixer: a looping
// absolute idle clip composed with any number of concurrently layered
// relative action clips, rendered at a fixed rate and emitted through a
// Sender.
package mixer

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/vmcd/vmcd/internal/clip"
	"github.com/vmcd/vmcd/internal/logging"
	"github.com/vmcd/vmcd/internal/quat"
)

var log = logging.L("mixer")

const (
	renderRate       = 30.0
	renderPeriod     = time.Second / renderRate
	crossfadeCeiling = 500 * time.Millisecond
	crossfadeFrac    = 0.3
)

// Sender is the subset of vmc.Sender the mixer needs, kept as an
// interface so the render loop can be tested without a real socket.
type Sender interface {
	SendFrame(f clip.Frame, includeBones bool)
}

type activeAction struct {
	frames    clip.Clip
	loop      bool
	startTime time.Time
}

// Mixer owns the idle clip, the ordered active-action list, and the
// dirty-name sets, plus the render goroutine that runs whenever either
// layer is active.
type Mixer struct {
	sender Sender

	mu          sync.Mutex
	idleClip    clip.Clip
	idleName    string
	idleActive  bool
	idleEpoch   time.Time
	actions     []*activeAction
	dirtyBlend  map[string]struct{}
	dirtyBone   map[string]struct{}
	running     bool
	wake        chan struct{}
	loopExited  chan struct{}
	onTick      func(TickInfo)
}

// TickInfo is a snapshot of mixer state published after each render
// tick, consumed by an optional observer (the debug stream).
type TickInfo struct {
	IdleActive    bool
	IdleName      string
	ActiveActions int
	DirtyBlend    []string
}

// New builds a Mixer that emits through sender.
func New(sender Sender) *Mixer {
	return &Mixer{
		sender:     sender,
		dirtyBlend: map[string]struct{}{},
		dirtyBone:  map[string]struct{}{},
	}
}

// SetTickObserver installs a callback invoked after each render tick
// with a snapshot of mixer state. Must be set before the render loop
// starts; intended for wiring a debug-stream hub.
func (m *Mixer) SetTickObserver(fn func(TickInfo)) {
	m.mu.Lock()
	m.onTick = fn
	m.mu.Unlock()
}

// SetIdle replaces the idle clip and ensures the render loop is running.
// The clip must be absolute.
func (m *Mixer) SetIdle(frames clip.Clip, name string) error {
	if frames.Mode != clip.ModeAbsolute {
		return fmt.Errorf("idle clip must be absolute, got %q", frames.Mode)
	}

	m.mu.Lock()
	m.idleClip = frames
	m.idleName = name
	m.idleActive = true
	m.idleEpoch = time.Now()
	m.mu.Unlock()

	m.ensureRunning()
	return nil
}

// StopIdle marks the idle layer inactive; the render loop exits on its
// next tick if no actions remain.
func (m *Mixer) StopIdle() {
	m.mu.Lock()
	m.idleActive = false
	m.mu.Unlock()
	m.wakeLocked()
}

// PlayAction appends a new active action with start_time = now. The
// clip must be relative.
func (m *Mixer) PlayAction(frames clip.Clip, loop bool) error {
	if frames.Mode != clip.ModeRelative {
		return fmt.Errorf("action clip must be relative, got %q", frames.Mode)
	}

	m.mu.Lock()
	m.actions = append(m.actions, &activeAction{
		frames:    frames,
		loop:      loop,
		startTime: time.Now(),
	})
	for _, f := range frames.Frames {
		for name := range f.Blendshapes {
			m.dirtyBlend[name] = struct{}{}
		}
		for name := range f.Bones {
			m.dirtyBone[name] = struct{}{}
		}
	}
	m.mu.Unlock()

	m.ensureRunning()
	return nil
}

// StopAction clears the active list; idle survives.
func (m *Mixer) StopAction() {
	m.mu.Lock()
	m.actions = nil
	m.mu.Unlock()
}

// Stop clears everything, joins the render loop within 2s, and sends a
// neutral reset (performed by the loop's own exit path).
func (m *Mixer) Stop() {
	m.mu.Lock()
	m.idleActive = false
	m.actions = nil
	loopExited := m.loopExited
	m.mu.Unlock()

	m.wakeLocked()

	if loopExited == nil {
		return
	}
	select {
	case <-loopExited:
	case <-time.After(2 * time.Second):
		log.Warn("render loop stop timed out, stale frame may remain on host")
	}
}

// IsPlaying reports whether any action is currently active.
func (m *Mixer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actions) > 0
}

// IsIdleActive reports whether the idle layer is active.
func (m *Mixer) IsIdleActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idleActive
}

// IdleName returns the name of the current idle clip.
func (m *Mixer) IdleName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idleName
}

func (m *Mixer) wakeLocked() {
	m.mu.Lock()
	w := m.wake
	m.mu.Unlock()
	if w != nil {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

func (m *Mixer) ensureRunning() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.wake = make(chan struct{}, 1)
	m.loopExited = make(chan struct{})
	wake := m.wake
	loopExited := m.loopExited
	m.mu.Unlock()

	go m.renderLoop(wake, loopExited)
}

func (m *Mixer) renderLoop(wake chan struct{}, loopExited chan struct{}) {
	defer close(loopExited)
	ticker := time.NewTicker(renderPeriod)
	defer ticker.Stop()

	for {
		t0 := time.Now()

		merged, includeBones, shouldExit := m.tick(t0)
		if merged != nil {
			m.sender.SendFrame(*merged, includeBones)
		}

		if shouldExit {
			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
			m.sendReset()
			return
		}

		elapsed := time.Since(t0)
		sleep := renderPeriod - elapsed
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-time.After(sleep):
		case <-wake:
		}
	}
}

// tick computes one render-loop iteration under the lock and returns the
// merged frame to send (nil if none), whether bones should be overlaid
// with rest pose, and whether the loop should exit after this tick.
func (m *Mixer) tick(now time.Time) (*clip.Frame, bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.idleActive && len(m.actions) == 0 {
		return nil, false, true
	}

	idleFrame, haveIdle := m.idleFrameLocked(now)

	actionFrames := m.actionFramesLocked(now)

	merged := mergeLayers(idleFrame, haveIdle, actionFrames)

	m.dirtyCleanupLocked(&merged)

	if !m.idleActive && len(m.actions) == 0 {
		m.dirtyBlend = map[string]struct{}{}
		m.dirtyBone = map[string]struct{}{}
	}

	if m.onTick != nil {
		names := make([]string, 0, len(m.dirtyBlend))
		for n := range m.dirtyBlend {
			names = append(names, n)
		}
		m.onTick(TickInfo{
			IdleActive:    m.idleActive,
			IdleName:      m.idleName,
			ActiveActions: len(m.actions),
			DirtyBlend:    names,
		})
	}

	// Resolved open question: always overlay rest-pose bones rather than
	// conditioning on whether the merged frame happens to carry bones.
	return &merged, true, false
}

func (m *Mixer) idleFrameLocked(now time.Time) (clip.Frame, bool) {
	if !m.idleActive || len(m.idleClip.Frames) == 0 {
		return clip.Frame{}, false
	}

	d := m.idleClip.DurationMS()
	if d <= 0 {
		return m.idleClip.Frames[0], true
	}

	eMS := now.Sub(m.idleEpoch).Milliseconds() % d
	if eMS < 0 {
		eMS += d
	}

	f, _ := m.idleClip.FrameAtOrBefore(eMS)

	cf := crossfadeCeiling
	if frac := time.Duration(float64(d) * crossfadeFrac * float64(time.Millisecond)); frac < cf {
		cf = frac
	}
	cfMS := cf.Milliseconds()

	if cfMS > 0 && eMS > d-cfMS {
		b := float64(eMS-(d-cfMS)) / float64(cfMS)
		first := m.idleClip.Frames[0]
		f = blendFrames(f, first, b)
	}

	return f, true
}

func blendFrames(from, to clip.Frame, b float64) clip.Frame {
	out := clip.Frame{T: from.T, Blendshapes: clip.BlendMap{}}

	names := map[string]struct{}{}
	for n := range from.Blendshapes {
		names[n] = struct{}{}
	}
	for n := range to.Blendshapes {
		names[n] = struct{}{}
	}
	for n := range names {
		out.Blendshapes[n] = lerp(from.Blendshapes[n], to.Blendshapes[n], b)
	}

	if len(from.Bones) > 0 || len(to.Bones) > 0 {
		out.Bones = clip.BoneMap{}
		boneNames := map[string]struct{}{}
		for n := range from.Bones {
			boneNames[n] = struct{}{}
		}
		for n := range to.Bones {
			boneNames[n] = struct{}{}
		}
		for n := range boneNames {
			a := quat.Identity
			if v, ok := from.Bones[n]; ok {
				a = v.Rot
			}
			c := quat.Identity
			if v, ok := to.Bones[n]; ok {
				c = v.Rot
			}
			out.Bones[n] = clip.Bone{Rot: quat.Nlerp(a, c, b)}
		}
	}

	return out
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func (m *Mixer) actionFramesLocked(now time.Time) []clip.Frame {
	var frames []clip.Frame
	kept := m.actions[:0]

	for _, a := range m.actions {
		d := a.frames.DurationMS()
		eMS := now.Sub(a.startTime).Milliseconds()

		if eMS >= d {
			if a.loop {
				a.startTime = now
				eMS = 0
			} else {
				continue // expired, drop
			}
		}

		if f, ok := a.frames.FrameAtOrBefore(eMS); ok {
			frames = append(frames, f)
		}
		kept = append(kept, a)
	}
	m.actions = kept
	return frames
}

// mergeLayers folds each action frame over the idle base via the
// idle+delta merge rule: blendshapes clamp(base+delta, 0, 1); bone
// rotations normalize(base * delta). If idle is absent, the first action
// is folded onto an empty base, so its values are clamped and normalized
// through the same fold as every later action.
func mergeLayers(idle clip.Frame, haveIdle bool, actions []clip.Frame) clip.Frame {
	var base clip.Frame

	if haveIdle {
		base = cloneFrame(idle)
	} else {
		base = clip.Frame{Blendshapes: clip.BlendMap{}}
	}

	for _, delta := range actions {
		base = foldAction(base, delta)
	}
	return base
}

func cloneFrame(f clip.Frame) clip.Frame {
	out := clip.Frame{T: f.T, Blendshapes: f.Blendshapes.Clone()}
	if f.Bones != nil {
		out.Bones = f.Bones.Clone()
	}
	return out
}

func foldAction(base, delta clip.Frame) clip.Frame {
	out := clip.Frame{T: base.T, Blendshapes: clip.BlendMap{}}

	names := map[string]struct{}{}
	for n := range base.Blendshapes {
		names[n] = struct{}{}
	}
	for n := range delta.Blendshapes {
		names[n] = struct{}{}
	}
	for n := range names {
		out.Blendshapes[n] = clamp01(base.Blendshapes[n] + delta.Blendshapes[n])
	}

	if len(base.Bones) > 0 || len(delta.Bones) > 0 {
		out.Bones = clip.BoneMap{}
		boneNames := map[string]struct{}{}
		for n := range base.Bones {
			boneNames[n] = struct{}{}
		}
		for n := range delta.Bones {
			boneNames[n] = struct{}{}
		}
		for n := range boneNames {
			baseRot := quat.Identity
			if v, ok := base.Bones[n]; ok {
				baseRot = v.Rot
			}
			deltaRot := quat.Identity
			if v, ok := delta.Bones[n]; ok {
				deltaRot = v.Rot
			}
			out.Bones[n] = clip.Bone{Rot: baseRot.Mul(deltaRot).Normalize()}
		}
	}

	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func (m *Mixer) dirtyCleanupLocked(f *clip.Frame) {
	for name := range m.dirtyBlend {
		if _, ok := f.Blendshapes[name]; !ok {
			f.Blendshapes[name] = 0
		}
	}
	if len(m.dirtyBone) > 0 && f.Bones == nil {
		f.Bones = clip.BoneMap{}
	}
	for name := range m.dirtyBone {
		if name == "Hips" {
			continue
		}
		if _, ok := f.Bones[name]; !ok {
			f.Bones[name] = clip.Bone{Rot: quat.Identity}
		}
	}
}

// sendReset collects the union of the dirty blendshape set and every
// blendshape name referenced by the idle clip and any residual action
// frames, emits a frame zeroing all of them with no bones, and clears
// the dirty sets.
func (m *Mixer) sendReset() {
	m.mu.Lock()
	names := map[string]struct{}{}
	for n := range m.dirtyBlend {
		names[n] = struct{}{}
	}
	for _, f := range m.idleClip.Frames {
		for n := range f.Blendshapes {
			names[n] = struct{}{}
		}
	}
	for _, a := range m.actions {
		for _, f := range a.frames.Frames {
			for n := range f.Blendshapes {
				names[n] = struct{}{}
			}
		}
	}
	m.dirtyBlend = map[string]struct{}{}
	m.dirtyBone = map[string]struct{}{}
	m.mu.Unlock()

	reset := clip.Frame{Blendshapes: clip.BlendMap{}}
	for n := range names {
		reset.Blendshapes[n] = 0
	}
	m.sender.SendFrame(reset, false)
}
