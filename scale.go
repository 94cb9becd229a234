package cellgfx

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNoScaleFits is returned when no scale option fits the display.
var ErrNoScaleFits = errors.New("cellgfx: no scale option fits the display")

// ScaleManager holds the ordered scale options, the option the user asked
// for and the option actually applied. The two differ when the desired
// option does not fit the current display.
type ScaleManager struct {
	options []float64
	desired int
	current int
}

// NewScaleManager validates options and selects desired as both the desired
// and current option.
func NewScaleManager(options []float64, desired int) (*ScaleManager, error) {
	if len(options) == 0 {
		return nil, errors.New("scale options: empty")
	}
	for i, o := range options {
		if o <= 0 {
			return nil, fmt.Errorf("scale option %d: invalid scale %v", i, o)
		}
	}
	if desired < 0 || desired >= len(options) {
		return nil, fmt.Errorf("scale option %d: out of range [0,%d)", desired, len(options))
	}
	return &ScaleManager{
		options: slices.Clone(options),
		desired: desired,
		current: desired,
	}, nil
}

// Options returns a copy of the scale options.
func (m *ScaleManager) Options() []float64 {
	return slices.Clone(m.options)
}

// Desired returns the index last asked for.
func (m *ScaleManager) Desired() int {
	return m.desired
}

// Current returns the index of the applied option.
func (m *ScaleManager) Current() int {
	return m.current
}

// Scale returns the applied scale factor.
func (m *ScaleManager) Scale() float64 {
	return m.options[m.current]
}

// Smallest returns the index of the smallest option.
func (m *ScaleManager) Smallest() int {
	best := 0
	for i, o := range m.options {
		if o < m.options[best] {
			best = i
		}
	}
	return best
}

// Closest returns the index of the largest option not larger than
// options[desired] whose draw resolution, as computed by need, fits within
// resWidth × resHeight. Ties go to the lowest index.
func (m *ScaleManager) Closest(desired int, need func(scale float64) (width, height int), resWidth, resHeight int) (int, bool) {
	if desired < 0 || desired >= len(m.options) {
		return 0, false
	}
	limit := m.options[desired]

	best := -1
	for i, o := range m.options {
		if o > limit {
			continue
		}
		w, h := need(o)
		if w > resWidth || h > resHeight {
			continue
		}
		if best < 0 || o > m.options[best] {
			best = i
		}
	}
	return best, best >= 0
}

func (m *ScaleManager) setDesired(index int) error {
	if index < 0 || index >= len(m.options) {
		return fmt.Errorf("scale option %d: out of range [0,%d)", index, len(m.options))
	}
	m.desired = index
	return nil
}

func (m *ScaleManager) setCurrent(index int) {
	m.current = index
}
