package tables

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tsawler/officekit/model"
)

// Detector is the interface for table detection algorithms.
type Detector interface {
	// Detect finds tables among the words of a single page.
	Detect(words []model.Word) ([]*model.Table, error)

	// Name returns the detector name.
	Name() string

	// Configure sets detector parameters.
	Configure(config Config) error
}

// Config holds detector configuration.
type Config struct {
	// Minimum rows for a valid table
	MinRows int

	// Minimum columns for a valid table
	MinCols int

	// Minimum confidence threshold (0-1)
	MinConfidence float64

	// Fraction of the smaller word height two words must share vertically
	// to sit on the same line
	LineOverlap float64

	// Column extents closer than this merge into one column (points)
	AlignmentTolerance float64

	// Minimum horizontal whitespace separating two cells (points)
	MinColumnGap float64

	// Maximum vertical whitespace between two rows of one table (points)
	MaxLineGap float64
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		MinRows:            2,
		MinCols:            2,
		MinConfidence:      0.5,
		LineOverlap:        0.5,
		AlignmentTolerance: 3.0,
		MinColumnGap:       8.0,
		MaxLineGap:         18.0,
	}
}

// Factory creates a detector with default configuration.
type Factory func() Detector

// DetectorRegistry holds registered detector factories. Get returns a fresh
// detector each time, so configuring one never affects another caller.
type DetectorRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new detector registry.
func NewRegistry() *DetectorRegistry {
	return &DetectorRegistry{factories: make(map[string]Factory)}
}

// Register registers a detector factory under name.
func (r *DetectorRegistry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get creates the detector registered under name, or returns nil.
func (r *DetectorRegistry) Get(name string) Detector {
	r.mu.RLock()
	factory := r.factories[name]
	r.mu.RUnlock()
	if factory == nil {
		return nil
	}
	return factory()
}

// List returns all registered detector names, sorted.
func (r *DetectorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var globalRegistry = NewRegistry()

// RegisterDetector registers a detector factory globally.
func RegisterDetector(name string, factory Factory) {
	globalRegistry.Register(name, factory)
}

// GetDetector creates a globally registered detector by name.
func GetDetector(name string) Detector {
	return globalRegistry.Get(name)
}

// ListDetectors returns all globally registered detector names.
func ListDetectors() []string {
	return globalRegistry.List()
}

// NewDetector creates the detector registered under name and applies
// config to it. An empty name selects the geometric detector.
func NewDetector(name string, config Config) (Detector, error) {
	if name == "" {
		name = "geometric"
	}
	d := GetDetector(name)
	if d == nil {
		return nil, fmt.Errorf("tables: unknown detector %q (available: %s)", name, strings.Join(ListDetectors(), ", "))
	}
	if err := d.Configure(config); err != nil {
		return nil, err
	}
	return d, nil
}

func init() {
	RegisterDetector("geometric", func() Detector { return NewGeometricDetector() })
}
