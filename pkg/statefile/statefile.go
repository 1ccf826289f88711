// Package statefile saves and restores simulation state as YAML.
package statefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/scenario"
	"github.com/opd-ai/go-elastic/pkg/validation"
)

// Header identifies a save file. It is written first and checked on load.
const Header = "go-elastic"

// ErrBadFile is returned when a file is not a simulation save file.
var ErrBadFile = errors.New("not a simulation save file")

// State is the saved form of a simulation. Only the tick delay and the
// bodies are kept; counters start again from zero on load.
type State struct {
	App         string              `yaml:"app"`
	TickDelayMS int                 `yaml:"tickDelayMs"`
	Bodies      []scenario.BodySpec `yaml:"bodies"`
}

// Capture records the current state of sim.
func Capture(sim *engine.Simulation) *State {
	snap := sim.Snapshot()

	st := &State{
		App:         Header,
		TickDelayMS: int(snap.TickDelay / time.Millisecond),
		Bodies:      make([]scenario.BodySpec, len(snap.Bodies)),
	}
	for i, b := range snap.Bodies {
		st.Bodies[i] = scenario.BodySpec{
			X:      b.Position.X,
			Y:      b.Position.Y,
			VX:     b.Velocity.X,
			VY:     b.Velocity.Y,
			Radius: b.Radius,
			Mass:   b.Mass,
			Color:  scenario.FormatColor(b.Color),
		}
	}
	return st
}

// Validate checks the header, the tick delay and the bodies.
func (st *State) Validate(maxBodies int) error {
	if st.App != Header {
		return ErrBadFile
	}
	if err := validation.ValidateTickDelay(st.TickDelayMS); err != nil {
		return err
	}
	if err := validation.ValidateBodyCount(len(st.Bodies), maxBodies); err != nil {
		return err
	}
	return scenario.ValidateBodies(st.Bodies)
}

// Apply pauses sim and replaces its tick delay and bodies. The loaded bodies
// become the new start set for Reset.
func (st *State) Apply(sim *engine.Simulation) error {
	bodies, err := scenario.BuildBodies(st.Bodies)
	if err != nil {
		return err
	}

	sim.Pause()
	if err := sim.SetTickDelay(time.Duration(st.TickDelayMS) * time.Millisecond); err != nil {
		return err
	}
	return sim.SetBodies(bodies)
}

// Encode writes the state as YAML.
func (st *State) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return enc.Close()
}

// Decode reads and validates a state. Anything that does not start with the
// save file header yields ErrBadFile.
func Decode(r io.Reader, maxBodies int) (*State, error) {
	data, err := io.ReadAll(io.LimitReader(r, validation.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if err := validation.ValidateFileSize(int64(len(data))); err != nil {
		return nil, err
	}

	var st State
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}
	if err := st.Validate(maxBodies); err != nil {
		return nil, err
	}
	return &st, nil
}

// Save writes the state of sim to path. The file is replaced atomically.
func Save(path string, sim *engine.Simulation) error {
	return Capture(sim).WriteFile(path)
}

// WriteFile writes the state to path through a temporary file in the same
// directory.
func (st *State) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".elastic-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := st.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Load reads a state file.
func Load(path string, maxBodies int) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}
	defer f.Close()
	return Decode(f, maxBodies)
}
