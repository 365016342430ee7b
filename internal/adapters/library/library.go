// Package library loads dance sequences and popper themes from YAML. The
// built-in set is embedded; a directory of extra files overlays it, and a
// file that reuses a name replaces the built-in entry.
package library

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/motionparty/internal/domain/choreo"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Defaults applied to moves and sequences that leave them out.
const (
	DefaultMoveDuration = 2.0
	DefaultTempo        = 120
	DefaultDifficulty   = 1
)

// File is the on-disk document shape. Either list may be absent.
type File struct {
	Sequences []choreo.Sequence `yaml:"sequences"`
	Themes    []Theme           `yaml:"themes"`
}

// Rand is the source used for random sequence selection.
type Rand interface {
	Float64() float64
}

// Library is an immutable set of sequences and themes.
type Library struct {
	sequences []choreo.Sequence
	themes    []Theme
}

// Parse decodes and validates one document.
func Parse(name string, data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%w: %s: %w", ErrParse, name, err)
	}
	for i := range f.Sequences {
		applySequenceDefaults(&f.Sequences[i])
		if err := f.Sequences[i].Validate(); err != nil {
			return File{}, fmt.Errorf("%w: %s: %w", ErrParse, name, err)
		}
	}
	for _, t := range f.Themes {
		if err := t.Validate(); err != nil {
			return File{}, fmt.Errorf("%w: %s: %w", ErrParse, name, err)
		}
	}
	return f, nil
}

func applySequenceDefaults(s *choreo.Sequence) {
	if s.Tempo == 0 {
		s.Tempo = DefaultTempo
	}
	if s.Difficulty == 0 {
		s.Difficulty = DefaultDifficulty
	}
	for i := range s.Moves {
		if s.Moves[i].Duration == 0 {
			s.Moves[i].Duration = DefaultMoveDuration
		}
	}
}

// Default returns the embedded library.
func Default() (*Library, error) {
	lib := &Library{}
	entries, err := defaultsFS.ReadDir("defaults")
	if err != nil {
		return nil, fmt.Errorf("%w: embedded defaults: %w", ErrParse, err)
	}
	for _, e := range entries {
		data, err := defaultsFS.ReadFile("defaults/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, e.Name(), err)
		}
		f, err := Parse(e.Name(), data)
		if err != nil {
			return nil, err
		}
		lib.merge(f)
	}
	return lib, nil
}

// Load returns the embedded library overlaid with every .yaml/.yml file in
// dir, in file name order. An empty dir yields the defaults.
func Load(dir string) (*Library, error) {
	lib, err := Default()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return lib, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isLibraryFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, name, err)
		}
		f, err := Parse(name, data)
		if err != nil {
			return nil, err
		}
		lib.merge(f)
	}
	return lib, nil
}

func (l *Library) merge(f File) {
	for _, s := range f.Sequences {
		if i := l.sequenceIndex(s.Name); i >= 0 {
			l.sequences[i] = s
			continue
		}
		l.sequences = append(l.sequences, s)
	}
	for _, t := range f.Themes {
		if i := l.themeIndex(t.Name); i >= 0 {
			l.themes[i] = t
			continue
		}
		l.themes = append(l.themes, t)
	}
}

func (l *Library) sequenceIndex(name string) int {
	for i, s := range l.sequences {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

func (l *Library) themeIndex(name string) int {
	for i, t := range l.themes {
		if strings.EqualFold(t.Name, name) {
			return i
		}
	}
	return -1
}

// Sequence looks a dance up by name, ignoring case.
func (l *Library) Sequence(name string) (choreo.Sequence, error) {
	i := l.sequenceIndex(name)
	if i < 0 {
		return choreo.Sequence{}, fmt.Errorf("%w: %q", ErrUnknownSequence, name)
	}
	return l.sequences[i], nil
}

// Theme looks a popper theme up by name, ignoring case.
func (l *Library) Theme(name string) (Theme, error) {
	i := l.themeIndex(name)
	if i < 0 {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return l.themes[i], nil
}

// Random picks a sequence uniformly using rng.
func (l *Library) Random(rng Rand) (choreo.Sequence, error) {
	if len(l.sequences) == 0 {
		return choreo.Sequence{}, fmt.Errorf("%w: library is empty", ErrUnknownSequence)
	}
	i := int(rng.Float64() * float64(len(l.sequences)))
	if i >= len(l.sequences) {
		i = len(l.sequences) - 1
	}
	return l.sequences[i], nil
}

// SequenceNames lists dances in load order.
func (l *Library) SequenceNames() []string {
	out := make([]string, len(l.sequences))
	for i, s := range l.sequences {
		out[i] = s.Name
	}
	return out
}

// ThemeNames lists themes in load order.
func (l *Library) ThemeNames() []string {
	out := make([]string, len(l.themes))
	for i, t := range l.themes {
		out[i] = t.Name
	}
	return out
}

func isLibraryFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
