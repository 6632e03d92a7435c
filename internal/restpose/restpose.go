// Package restpose owns the process-wide rest-pose bone map: the
// "arms-down" baseline overlaid under every emitted frame.
package restpose

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmcd/vmcd/internal/clip"
	"github.com/vmcd/vmcd/internal/logging"
	"github.com/vmcd/vmcd/internal/quat"
)

var log = logging.L("restpose")

// hipsBone is never forwarded to the host: forwarding it would teleport
// the avatar's root.
const hipsBone = "Hips"

// Store is the persistent, lazily-loaded rest pose.
type Store struct {
	mu       sync.RWMutex
	bones    clip.BoneMap
	loaded   bool
	filePath string
}

// New creates a store backed by filePath. The file is not read until the
// first call that needs the pose.
func New(filePath string) *Store {
	return &Store{filePath: filePath}
}

func defaultPose() clip.BoneMap {
	return clip.BoneMap{
		"LeftUpperArm":  {Rot: quat.FromEulerDeg(0, 0, 70)},
		"RightUpperArm": {Rot: quat.FromEulerDeg(0, 0, -70)},
		"LeftLowerArm":  {Rot: quat.FromEulerDeg(0, 0, 5)},
		"RightLowerArm": {Rot: quat.FromEulerDeg(0, 0, -5)},
	}
}

func (s *Store) ensureLoadedLocked() {
	if s.loaded {
		return
	}
	s.loaded = true

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		s.bones = defaultPose()
		return
	}

	var wire map[string]struct {
		Pos [3]float64 `json:"pos"`
		Rot [4]float64 `json:"rot"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		log.Warn("rest pose file parse failed, using default", "error", err)
		s.bones = defaultPose()
		return
	}

	bones := make(clip.BoneMap, len(wire))
	for name, b := range wire {
		bones[name] = clip.Bone{
			Pos: b.Pos,
			Rot: quat.New(b.Rot[0], b.Rot[1], b.Rot[2], b.Rot[3]),
		}
	}
	s.bones = bones
}

// Get returns a deep copy of the live rest pose, loading it first if
// this is the first access.
func (s *Store) Get() clip.BoneMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	return s.bones.Clone()
}

// Set replaces the live rest pose (stripping any Hips key) and writes it
// atomically to disk.
func (s *Store) Set(bones clip.BoneMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clean := bones.Clone()
	delete(clean, hipsBone)

	if err := s.writeLocked(clean); err != nil {
		return err
	}
	s.bones = clean
	s.loaded = true
	return nil
}

// Reset reverts to the built-in default and deletes the file.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bones = defaultPose()
	s.loaded = true

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove rest pose file: %w", err)
	}
	return nil
}

func (s *Store) writeLocked(bones clip.BoneMap) error {
	type wireBone struct {
		Pos [3]float64 `json:"pos"`
		Rot [4]float64 `json:"rot"`
	}
	wire := make(map[string]wireBone, len(bones))
	for name, b := range bones {
		wire[name] = wireBone{Pos: b.Pos, Rot: b.Rot.Array()}
	}

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rest pose: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create rest pose directory: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write rest pose temp file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("rename rest pose file: %w", err)
	}
	return nil
}
