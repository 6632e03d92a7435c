package vmc

import (
	"fmt"
	"net"
	"sync"

	"github.com/vmcd/vmcd/internal/blend"
	"github.com/vmcd/vmcd/internal/clip"
	"github.com/vmcd/vmcd/internal/logging"
	"github.com/vmcd/vmcd/internal/restpose"
)

var sendLog = logging.L("vmc.sender")

const (
	blendValAddr   = "/VMC/Ext/Blend/Val"
	blendApplyAddr = "/VMC/Ext/Blend/Apply"
	bonePosAddr    = "/VMC/Ext/Bone/Pos"
)

// Sender owns a UDP client addressed to the host. The socket is created
// lazily on first send; no send blocks on acknowledgement, since UDP
// loss is tolerated by design.
type Sender struct {
	addr *net.UDPAddr

	mu   sync.Mutex
	conn *net.UDPConn

	rest *restpose.Store
}

// NewSender builds a Sender targeting host:port, overlaying rest-pose
// bones from rest on every send_frame call.
func NewSender(host string, port int, rest *restpose.Store) *Sender {
	return &Sender{
		addr: &net.UDPAddr{IP: net.ParseIP(host), Port: port},
		rest: rest,
	}
}

func (s *Sender) ensureConn() (*net.UDPConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := net.DialUDP("udp", nil, s.addr)
	if err != nil {
		return nil, fmt.Errorf("dial vmc sender: %w", err)
	}
	s.conn = conn
	return conn, nil
}

func (s *Sender) write(data []byte) {
	conn, err := s.ensureConn()
	if err != nil {
		sendLog.Warn("sender dial failed", "error", err)
		return
	}
	if _, err := conn.Write(data); err != nil {
		sendLog.Debug("sender write failed", "error", err)
	}
}

// SendBlendshape emits a single /VMC/Ext/Blend/Val message.
func (s *Sender) SendBlendshape(name string, value float64) {
	s.write(encodeMessage(blendValAddr, name, float32(value)))
}

// SendBlendshapeApply emits the zero-argument Apply barrier.
func (s *Sender) SendBlendshapeApply() {
	s.write(encodeMessage(blendApplyAddr))
}

// SendBlendshapes sanitizes the map, emits one Val per entry, then the
// Apply barrier that the host observes as the atomicity point.
func (s *Sender) SendBlendshapes(values clip.BlendMap) {
	clean := blend.Sanitize(values)
	for name, v := range clean {
		s.SendBlendshape(name, v)
	}
	s.SendBlendshapeApply()
}

// SendBone emits a /VMC/Ext/Bone/Pos message for a single bone.
func (s *Sender) SendBone(name string, pos [3]float64, rot [4]float64) {
	s.write(encodeMessage(bonePosAddr, name,
		float32(pos[0]), float32(pos[1]), float32(pos[2]),
		float32(rot[0]), float32(rot[1]), float32(rot[2]), float32(rot[3]),
	))
}

// SendFrame is the render loop's unit of output: sanitize and emit the
// frame's blendshapes behind an Apply barrier, then overlay the frame's
// bones (when includeBones) onto a copy of the live rest pose and emit
// every resulting bone except Hips with position forced to zero.
func (s *Sender) SendFrame(f clip.Frame, includeBones bool) {
	s.SendBlendshapes(f.Blendshapes)

	overlay := s.rest.Get()
	if includeBones {
		for name, b := range f.Bones {
			overlay[name] = b
		}
	}

	for name, b := range overlay {
		if name == "Hips" {
			continue
		}
		s.SendBone(name, [3]float64{0, 0, 0}, b.Rot.Array())
	}
}

// Close releases the underlying socket, if one was opened.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
