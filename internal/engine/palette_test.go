package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
)

func TestClassifyStress(t *testing.T) {
	tests := []struct {
		ratio float64
		want  StressLevel
		color string
	}{
		{0, StressSafe, ColorSafe},
		{0.79, StressSafe, ColorSafe},
		{0.80, StressWarning, ColorWarning},
		{0.999, StressWarning, ColorWarning},
		{1.0, StressFailure, ColorFailure},
		{3.2, StressFailure, ColorFailure},
	}
	for _, tt := range tests {
		got := ClassifyStress(tt.ratio)
		assert.Equal(t, tt.want, got, "ratio %v", tt.ratio)
		assert.Equal(t, tt.color, got.Color(), "ratio %v", tt.ratio)
	}
}

func TestClassifyForce(t *testing.T) {
	tests := []struct {
		axial float64
		want  ForceSense
		color string
	}{
		{5, ForceTension, ColorTension},
		{-5, ForceCompression, ColorCompression},
		{0.005, ForceZero, ColorNeutral},
		{-0.01, ForceZero, ColorNeutral},
		{0, ForceZero, ColorNeutral},
	}
	for _, tt := range tests {
		got := ClassifyForce(tt.axial)
		assert.Equal(t, tt.want, got, "axial %v", tt.axial)
		assert.Equal(t, tt.color, got.Color(), "axial %v", tt.axial)
	}
}

func TestMemberColorPrecedence(t *testing.T) {
	res := analysis.MemberResult{AxialForce: -50, StressRatio: 0.85}

	assert.Equal(t, ColorWarning, MemberColor(res, DisplayFlags{ShowStress: true, ShowForces: true}))
	assert.Equal(t, ColorCompression, MemberColor(res, DisplayFlags{ShowForces: true}))
	assert.Equal(t, ColorNeutral, MemberColor(res, DisplayFlags{}))
}

func TestMemberStrokeWidth(t *testing.T) {
	forces := DisplayFlags{ShowForces: true}

	assert.Equal(t, MemberWidth, MemberStrokeWidth(analysis.MemberResult{AxialForce: 500}, 1000, DisplayFlags{}))
	assert.Equal(t, MaxForceWidth, MemberStrokeWidth(analysis.MemberResult{AxialForce: -1000}, 1000, forces))
	assert.Equal(t, MinForceWidth, MemberStrokeWidth(analysis.MemberResult{}, 1000, forces))
	assert.InDelta(t, 5.0, MemberStrokeWidth(analysis.MemberResult{AxialForce: 500}, 1000, forces), 1e-12)

	// Peaks below 1 are treated as 1.
	assert.InDelta(t, MinForceWidth+0.5*(MaxForceWidth-MinForceWidth),
		MemberStrokeWidth(analysis.MemberResult{AxialForce: 0.5}, 0.5, forces), 1e-12)
}
