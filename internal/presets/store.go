// Package presets implements the flat JSON preset directory: save/load/
// list/delete by name, plus an optional S3-compatible remote mirror.
package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmcd/vmcd/internal/clip"
	"github.com/vmcd/vmcd/internal/logging"
)

var log = logging.L("presets")

// Summary is a lightweight listing entry.
type Summary struct {
	Name        string   `json:"name"`
	Mode        clip.Mode `json:"mode"`
	DurationMS  int64    `json:"duration_ms"`
	FrameCount  int      `json:"frame_count"`
}

type document struct {
	Name       string     `json:"name"`
	Mode       clip.Mode  `json:"mode"`
	DurationMS int64      `json:"duration_ms"`
	FrameCount int        `json:"frame_count"`
	Frames     []clip.Frame `json:"frames"`
}

// Store is a directory of "<name>.json" preset documents.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created lazily on
// first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the preset directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes (overwriting) a preset document.
func (s *Store) Save(name string, c clip.Clip) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create preset directory: %w", err)
	}

	doc := document{
		Name:       name,
		Mode:       c.Mode,
		DurationMS: c.DurationMS(),
		FrameCount: len(c.Frames),
		Frames:     c.Frames,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal preset %q: %w", name, err)
	}

	if err := os.WriteFile(s.pathFor(name), data, 0600); err != nil {
		return fmt.Errorf("write preset %q: %w", name, err)
	}
	return nil
}

// ErrNotFound is returned by Load when the preset file does not exist.
// Delete does not return it; it reports "nothing to remove" as false.
var ErrNotFound = fmt.Errorf("preset not found")

// Load reads a preset by name.
func (s *Store) Load(name string) (clip.Clip, error) {
	data, err := os.ReadFile(s.pathFor(name))
	if err != nil {
		if os.IsNotExist(err) {
			return clip.Clip{}, ErrNotFound
		}
		return clip.Clip{}, fmt.Errorf("read preset %q: %w", name, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return clip.Clip{}, fmt.Errorf("parse preset %q: %w", name, err)
	}
	return clip.Clip{Mode: doc.Mode, Frames: doc.Frames}, nil
}

// List returns summaries of every preset that parses; entries that fail
// to parse are silently skipped.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read preset directory: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		c, err := s.Load(name)
		if err != nil {
			log.Debug("skipping unparseable preset", "name", name, "error", err)
			continue
		}
		out = append(out, Summary{
			Name:       name,
			Mode:       c.Mode,
			DurationMS: c.DurationMS(),
			FrameCount: len(c.Frames),
		})
	}
	return out, nil
}

// Delete removes a preset file, reporting whether one existed.
func (s *Store) Delete(name string) (bool, error) {
	err := os.Remove(s.pathFor(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete preset %q: %w", name, err)
	}
	return true, nil
}
