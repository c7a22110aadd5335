package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func TestNewSelector_Defaults(t *testing.T) {
	sel, err := NewSelector(PolicySettings{})
	require.NoError(t, err)

	assert.Equal(t, PolicyMixed, sel.Mode())
	assert.Equal(t, WindowPolicy{Minutes: DefaultWindowMinutes}, sel.For("train"))
	assert.Equal(t, PercentagePolicy{Factor: DefaultMixedThreshold}, sel.For("match"))
	assert.Equal(t, "window +10.00 min", sel.Describe("train"))
	assert.Equal(t, "percentage x1.20", sel.Describe("match"))
}

func TestNewSelector_Uniform(t *testing.T) {
	sel, err := NewSelector(PolicySettings{Mode: PolicyUniform, WindowPhases: []string{"train"}})
	require.NoError(t, err)

	assert.Equal(t, PercentagePolicy{Factor: DefaultUniformThreshold}, sel.For("train"))
	assert.Equal(t, PercentagePolicy{Factor: DefaultUniformThreshold}, sel.For("match"))
}

func TestNewSelector_ConfiguredThresholds(t *testing.T) {
	sel, err := NewSelector(PolicySettings{
		PerformanceThreshold: float(1.5),
		WindowThreshold:      float(0),
		WindowPhases:         []string{"train", "generateDocs"},
	})
	require.NoError(t, err)

	assert.Equal(t, WindowPolicy{Minutes: 0}, sel.For("generateDocs"))
	assert.Equal(t, PercentagePolicy{Factor: 1.5}, sel.For("match"))
	assert.True(t, sel.For("train").Degraded(10, 10.01))
}

func TestNewSelector_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		settings PolicySettings
	}{
		{name: "unknown mode", settings: PolicySettings{Mode: "median"}},
		{name: "zero factor", settings: PolicySettings{PerformanceThreshold: float(0)}},
		{name: "negative window", settings: PolicySettings{WindowThreshold: float(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSelector(tt.settings)
			assert.Error(t, err)
		})
	}
}

func TestPolicySettings_Merge(t *testing.T) {
	base := PolicySettings{
		Mode:                 PolicyMixed,
		PerformanceThreshold: float(1.2),
		WindowPhases:         []string{"train"},
	}

	merged := base.Merge(PolicySettings{WindowThreshold: float(5), WindowPhases: []string{"link"}})
	assert.Equal(t, PolicyMixed, merged.Mode)
	assert.Equal(t, 1.2, *merged.PerformanceThreshold)
	assert.Equal(t, 5.0, *merged.WindowThreshold)
	assert.Equal(t, []string{"link"}, merged.WindowPhases)

	assert.Equal(t, base, base.Merge(PolicySettings{}))
}

func TestPercentagePolicy(t *testing.T) {
	p := PercentagePolicy{Factor: 1.2}
	assert.False(t, p.Degraded(4.0, 3.33))
	assert.False(t, p.Degraded(4.0, 4.8))
	assert.True(t, p.Degraded(4.0, 4.81))
}
