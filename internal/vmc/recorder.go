package vmc

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vmcd/vmcd/internal/clip"
	"github.com/vmcd/vmcd/internal/logging"
	"github.com/vmcd/vmcd/internal/quat"
)

var recLog = logging.L("vmc.recorder")

// recordRate is the maximum accepted Apply-commit rate.
const recordRate = 30.0

// Recorder is a UDP server that assembles incoming VMC messages into a
// shared current-state snapshot and, while recording, into a
// timestamped frame list.
type Recorder struct {
	listenAddr *net.UDPAddr

	mu                sync.Mutex
	conn              *net.UDPConn
	currentBlendshapes clip.BlendMap
	currentBones       clip.BoneMap
	sawBones           bool

	recording      bool
	startTime      time.Time
	lastSampleTime time.Time
	frames         []clip.Frame

	done chan struct{}
}

// NewRecorder builds a Recorder that will listen on host:port once
// Start is called.
func NewRecorder(host string, port int) *Recorder {
	return &Recorder{
		listenAddr:         &net.UDPAddr{IP: net.ParseIP(host), Port: port},
		currentBlendshapes: clip.BlendMap{},
		currentBones:       clip.BoneMap{},
	}
}

// Start begins listening in a background goroutine. Idempotent: calling
// it again while already listening is a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return nil
	}

	conn, err := net.ListenUDP("udp", r.listenAddr)
	if err != nil {
		return fmt.Errorf("listen vmc recorder: %w", err)
	}
	r.conn = conn
	r.done = make(chan struct{})

	go r.serve(conn, r.done)
	recLog.Info("recorder listening", "addr", r.listenAddr.String())
	return nil
}

// Stop closes the listening socket and waits for the serve goroutine to
// exit.
func (r *Recorder) Stop() {
	r.mu.Lock()
	conn := r.conn
	done := r.done
	r.conn = nil
	r.mu.Unlock()

	if conn == nil {
		return
	}
	conn.Close()
	if done != nil {
		<-done
	}
}

func (r *Recorder) serve(conn *net.UDPConn, done chan struct{}) {
	defer close(done)
	buf := make([]byte, 65535)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return // socket closed
		}
		addr, args, err := decodeMessage(buf[:n])
		if err != nil {
			recLog.Debug("dropped malformed message", "error", err)
			continue
		}
		r.handle(addr, args)
	}
}

func (r *Recorder) handle(addr string, args []any) {
	switch addr {
	case blendValAddr:
		if len(args) != 2 {
			return
		}
		name, ok1 := argString(args[0])
		val, ok2 := argFloat(args[1])
		if !ok1 || !ok2 {
			return
		}
		r.mu.Lock()
		r.currentBlendshapes[name] = val
		r.mu.Unlock()

	case bonePosAddr:
		if len(args) != 8 {
			return
		}
		name, ok := argString(args[0])
		if !ok {
			return
		}
		var nums [7]float64
		for i := 0; i < 7; i++ {
			v, ok := argFloat(args[i+1])
			if !ok {
				return
			}
			nums[i] = v
		}
		r.mu.Lock()
		r.currentBones[name] = clip.Bone{
			Pos: [3]float64{nums[0], nums[1], nums[2]},
			Rot: quat.New(nums[3], nums[4], nums[5], nums[6]),
		}
		r.sawBones = true
		r.mu.Unlock()

	case blendApplyAddr:
		r.commit()
	}
}

func (r *Recorder) commit() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return
	}

	now := time.Now()
	if !r.lastSampleTime.IsZero() && now.Sub(r.lastSampleTime) < time.Second/recordRate {
		return
	}

	elapsed := now.Sub(r.startTime)
	tMS := int64((elapsed + 500*time.Microsecond) / time.Millisecond)
	if tMS < 0 {
		tMS = 0
	}

	f := clip.Frame{
		T:           tMS,
		Blendshapes: r.currentBlendshapes.Clone(),
	}
	if r.sawBones {
		f.Bones = r.currentBones.Clone()
	}

	r.frames = append(r.frames, f)
	r.lastSampleTime = now
}

// StartRecording resets the frame list, current maps, and timing, then
// flips the recording flag on.
func (r *Recorder) StartRecording() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = true
	r.startTime = time.Now()
	r.lastSampleTime = time.Time{}
	r.frames = nil
	r.currentBlendshapes = clip.BlendMap{}
	r.currentBones = clip.BoneMap{}
	r.sawBones = false
}

// StopRecording flips the recording flag off and returns the
// accumulated frames (possibly empty).
func (r *Recorder) StopRecording() []clip.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	frames := r.frames
	r.frames = nil
	return frames
}

// IsRecording reports whether a recording is in progress.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// CurrentState returns a deep copy of the latest blendshape/bone maps,
// regardless of recording state.
func (r *Recorder) CurrentState() (clip.BlendMap, clip.BoneMap) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentBlendshapes.Clone(), r.currentBones.Clone()
}
