package domain

import "fmt"

type PolicyMode string

const (
	// PolicyMixed applies the window policy to long-running phases and the
	// percentage policy to everything else.
	PolicyMixed PolicyMode = "mixed"
	// PolicyUniform applies one percentage threshold to every phase.
	PolicyUniform PolicyMode = "uniform"
)

const (
	DefaultMixedThreshold   = 1.2
	DefaultUniformThreshold = 1.05
	DefaultWindowMinutes    = 10.0
	DefaultWindowPhase      = "train"
)

// Policy decides whether a phase degraded relative to its baseline. Both
// arguments are minutes.
type Policy interface {
	Name() string
	Degraded(prev, cur float64) bool
	Limit(prev float64) float64
}

// WindowPolicy fails when the phase grew by more than Minutes.
type WindowPolicy struct {
	Minutes float64
}

func (p WindowPolicy) Name() string { return "window" }

func (p WindowPolicy) Degraded(prev, cur float64) bool {
	return cur-prev > p.Minutes
}

func (p WindowPolicy) Limit(prev float64) float64 {
	return prev + p.Minutes
}

// PercentagePolicy fails when the phase exceeds prev * Factor.
type PercentagePolicy struct {
	Factor float64
}

func (p PercentagePolicy) Name() string { return "percentage" }

func (p PercentagePolicy) Degraded(prev, cur float64) bool {
	return cur > prev*p.Factor
}

func (p PercentagePolicy) Limit(prev float64) float64 {
	return prev * p.Factor
}

// PolicySettings holds policy knobs as read from the config file or flags.
// Nil and empty fields are unset.
type PolicySettings struct {
	Mode                 PolicyMode
	PerformanceThreshold *float64
	WindowThreshold      *float64
	WindowPhases         []string
}

// Merge returns s with every field that is set in override replaced.
func (s PolicySettings) Merge(override PolicySettings) PolicySettings {
	if override.Mode != "" {
		s.Mode = override.Mode
	}
	if override.PerformanceThreshold != nil {
		s.PerformanceThreshold = override.PerformanceThreshold
	}
	if override.WindowThreshold != nil {
		s.WindowThreshold = override.WindowThreshold
	}
	if len(override.WindowPhases) > 0 {
		s.WindowPhases = override.WindowPhases
	}
	return s
}

// Selector picks the policy that applies to a phase.
type Selector struct {
	mode         PolicyMode
	window       WindowPolicy
	percentage   PercentagePolicy
	windowPhases map[string]struct{}
}

func NewSelector(s PolicySettings) (*Selector, error) {
	mode := s.Mode
	if mode == "" {
		mode = PolicyMixed
	}

	sel := &Selector{mode: mode, windowPhases: make(map[string]struct{})}

	switch mode {
	case PolicyMixed:
		sel.percentage.Factor = DefaultMixedThreshold
	case PolicyUniform:
		sel.percentage.Factor = DefaultUniformThreshold
	default:
		return nil, fmt.Errorf("unknown policy %q (expected mixed or uniform)", mode)
	}
	if s.PerformanceThreshold != nil {
		sel.percentage.Factor = *s.PerformanceThreshold
	}
	if sel.percentage.Factor <= 0 {
		return nil, fmt.Errorf("performance threshold must be > 0 (got %v)", sel.percentage.Factor)
	}

	if mode == PolicyUniform {
		return sel, nil
	}

	sel.window.Minutes = DefaultWindowMinutes
	if s.WindowThreshold != nil {
		sel.window.Minutes = *s.WindowThreshold
	}
	if sel.window.Minutes < 0 {
		return nil, fmt.Errorf("window threshold must be >= 0 (got %v)", sel.window.Minutes)
	}

	phases := s.WindowPhases
	if len(phases) == 0 {
		phases = []string{DefaultWindowPhase}
	}
	for _, p := range phases {
		sel.windowPhases[p] = struct{}{}
	}
	return sel, nil
}

func (s *Selector) Mode() PolicyMode { return s.mode }

func (s *Selector) For(phase string) Policy {
	if _, ok := s.windowPhases[phase]; ok {
		return s.window
	}
	return s.percentage
}

// Describe renders the policy for a phase, e.g. "window +10.00 min".
func (s *Selector) Describe(phase string) string {
	switch p := s.For(phase).(type) {
	case WindowPolicy:
		return fmt.Sprintf("window +%.2f min", p.Minutes)
	case PercentagePolicy:
		return fmt.Sprintf("percentage x%.2f", p.Factor)
	default:
		return p.Name()
	}
}
