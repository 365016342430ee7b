// Package replay drives the game headless from scripted hand positions,
// so a round can be reproduced tick for tick from a seed and a script.
package replay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/motionparty/internal/config"
	"github.com/okian/motionparty/internal/domain/choreo"
	"github.com/okian/motionparty/internal/domain/geom"
	"github.com/okian/motionparty/internal/domain/pose"
)

const filePermission = 0o600

// Script is the on-disk replay document. Hand positions are normalized to
// the screen, 0..1, like dance anchors.
type Script struct {
	Mode string `yaml:"mode" json:"mode"`
	// Name is the theme or sequence. Empty uses the configured one.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Seed int64  `yaml:"seed,omitempty" json:"seed,omitempty"`
	// TickHz overrides the configured tick rate.
	TickHz int `yaml:"tick_hz,omitempty" json:"tickHz,omitempty"`
	// MaxSeconds bounds the replay. Zero derives a limit from the mode.
	MaxSeconds float64    `yaml:"max_seconds,omitempty" json:"maxSeconds,omitempty"`
	Keyframes  []Keyframe `yaml:"keyframes" json:"keyframes"`
}

// Keyframe holds the players visible from At seconds after the round starts.
type Keyframe struct {
	At      float64 `yaml:"at" json:"at"`
	Players []Hands `yaml:"players" json:"players"`
}

// Hands is one player. A missing hand is untracked.
type Hands struct {
	Left  *choreo.Anchor `yaml:"left,omitempty" json:"left,omitempty"`
	Right *choreo.Anchor `yaml:"right,omitempty" json:"right,omitempty"`
}

// Parse decodes and validates a script.
func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

// LoadFile reads and parses the script at path.
func LoadFile(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Save writes s to path as YAML.
func (s Script) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

// Validate reports the first unusable field wrapped in ErrInvalidScript.
func (s Script) Validate() error {
	if s.Mode != config.ModePopper && s.Mode != config.ModeDance {
		return fmt.Errorf("%w: mode must be %q or %q, got %q", ErrInvalidScript, config.ModePopper, config.ModeDance, s.Mode)
	}
	if s.TickHz < 0 || s.MaxSeconds < 0 {
		return fmt.Errorf("%w: tick_hz and max_seconds must not be negative", ErrInvalidScript)
	}
	for i, k := range s.Keyframes {
		if k.At < 0 {
			return fmt.Errorf("%w: keyframe %d starts before the round", ErrInvalidScript, i)
		}
		for _, p := range k.Players {
			for _, a := range []*choreo.Anchor{p.Left, p.Right} {
				if a != nil && (a.X < 0 || a.X > 1 || a.Y < 0 || a.Y > 1) {
					return fmt.Errorf("%w: keyframe %d has a hand outside the screen", ErrInvalidScript, i)
				}
			}
		}
	}
	return nil
}

// PoseKeyframes scales the script to a w x h screen.
func (s Script) PoseKeyframes(w, h float64) []pose.Keyframe {
	out := make([]pose.Keyframe, 0, len(s.Keyframes))
	for _, k := range s.Keyframes {
		pk := pose.Keyframe{At: k.At}
		for _, p := range k.Players {
			pk.Players = append(pk.Players, pose.Player{
				LeftHand:  joint(p.Left, w, h),
				RightHand: joint(p.Right, w, h),
			})
		}
		out = append(out, pk)
	}
	return out
}

func joint(a *choreo.Anchor, w, h float64) geom.Joint {
	if a == nil {
		return geom.Joint{}
	}
	return geom.Joint{Point: a.Pixel(w, h), Tracked: true}
}
