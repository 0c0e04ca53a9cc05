// Package config holds the tunable parameters of a consolidation run.
// Every threshold that governs a pass lives here; nothing is hardcoded in
// the passes themselves.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid reports a parameter set that cannot drive a run.
var ErrInvalid = errors.New("config: invalid parameter")

// Config is the full parameter set of a run. The zero value is not usable;
// start from Default.
type Config struct {
	// FlowShareThreshold is the minimum share of an origin's outbound
	// trips a destination unit must attract before a border move toward
	// it is considered functionally justified.
	FlowShareThreshold float64 `yaml:"flow_share_threshold"`

	// MovementCap bounds how many times one municipality may be moved
	// within a single border-validation run.
	MovementCap int `yaml:"movement_cap"`

	// HistoryWindow is how many recent unit assignments are kept per
	// municipality for oscillation detection.
	HistoryWindow int `yaml:"history_window"`

	// MaxIterations bounds the border-validation convergence loop.
	MaxIterations int `yaml:"max_iterations"`

	// TravelTimeLimitHours is the impedance ceiling for a seat (or any
	// destination) to count as reachable.
	TravelTimeLimitHours float64 `yaml:"travel_time_limit_hours"`

	// AdjacencyBufferMeters and AdjacencyBufferDegrees size the spatial
	// adjacency tolerance for metric and geographic inputs.
	AdjacencyBufferMeters  float64 `yaml:"adjacency_buffer_meters"`
	AdjacencyBufferDegrees float64 `yaml:"adjacency_buffer_degrees"`

	// ChainDepthLimit truncates transitive relocation chains.
	ChainDepthLimit int `yaml:"chain_depth_limit"`
}

// Default returns the parameter set production runs use.
func Default() Config {
	return Config{
		FlowShareThreshold:     0.03,
		MovementCap:            5,
		HistoryWindow:          4,
		MaxIterations:          10,
		TravelTimeLimitHours:   2.0,
		AdjacencyBufferMeters:  100,
		AdjacencyBufferDegrees: 0.01,
		ChainDepthLimit:        50,
	}
}

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	switch {
	case c.FlowShareThreshold < 0 || c.FlowShareThreshold > 1:
		return fmt.Errorf("%w: flow_share_threshold %v outside [0,1]", ErrInvalid, c.FlowShareThreshold)
	case c.MovementCap < 1:
		return fmt.Errorf("%w: movement_cap %d < 1", ErrInvalid, c.MovementCap)
	case c.HistoryWindow < 2:
		return fmt.Errorf("%w: history_window %d < 2", ErrInvalid, c.HistoryWindow)
	case c.MaxIterations < 1:
		return fmt.Errorf("%w: max_iterations %d < 1", ErrInvalid, c.MaxIterations)
	case c.TravelTimeLimitHours <= 0:
		return fmt.Errorf("%w: travel_time_limit_hours %v <= 0", ErrInvalid, c.TravelTimeLimitHours)
	case c.AdjacencyBufferMeters <= 0 || c.AdjacencyBufferDegrees <= 0:
		return fmt.Errorf("%w: adjacency buffers must be positive", ErrInvalid)
	case c.ChainDepthLimit < 1:
		return fmt.Errorf("%w: chain_depth_limit %d < 1", ErrInvalid, c.ChainDepthLimit)
	}
	return nil
}

// Load reads YAML over the defaults, so partial files only override what
// they name.
func Load(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return c, nil // empty file means all defaults
		}
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile reads a YAML parameter file from disk.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
