package engine

import (
	"math"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
)

// Colors used by the render pipeline. Executors receive them as CSS hex strings.
const (
	ColorMember      = "#334155"
	ColorSelected    = "#2563eb"
	ColorPending     = "#f59e0b"
	ColorNode        = "#0f172a"
	ColorSupport     = "#475569"
	ColorSupportFill = "#cbd5e1"
	ColorLabel       = "#1e293b"
	ColorGrid        = "#e5e7eb"
	ColorNeutral     = "#9ca3af"
	ColorLoad        = "#7c3aed"
	ColorReaction    = "#0891b2"
	ColorLegendBG    = "#ffffff"
	ColorLegendEdge  = "#d1d5db"

	ColorSafe        = "#16a34a"
	ColorWarning     = "#f59e0b"
	ColorFailure     = "#dc2626"
	ColorTension     = "#2563eb"
	ColorCompression = "#dc2626"
)

const (
	// WarningRatio and FailureRatio split stress ratios into three buckets.
	WarningRatio = 0.8
	FailureRatio = 1.0
	// ZeroForceTolerance is the |axial force| at or below which a member is
	// treated as carrying no force.
	ZeroForceTolerance = 0.01
	// MinStressLabelRatio hides stress labels on effectively unloaded members.
	MinStressLabelRatio = 0.01

	MemberWidth         = 3.0
	SelectedMemberWidth = 5.0
	MinForceWidth       = 2.0
	MaxForceWidth       = 8.0
)

type StressLevel int

const (
	StressSafe StressLevel = iota
	StressWarning
	StressFailure
)

// ClassifyStress buckets a stress ratio: >= 1.0 failure, [0.8, 1.0) warning,
// below 0.8 safe.
func ClassifyStress(ratio float64) StressLevel {
	switch {
	case ratio >= FailureRatio:
		return StressFailure
	case ratio >= WarningRatio:
		return StressWarning
	default:
		return StressSafe
	}
}

func (l StressLevel) Color() string {
	switch l {
	case StressFailure:
		return ColorFailure
	case StressWarning:
		return ColorWarning
	default:
		return ColorSafe
	}
}

type ForceSense int

const (
	ForceZero ForceSense = iota
	ForceTension
	ForceCompression
)

// ClassifyForce reads the sign of an axial force, treating magnitudes at or
// below ZeroForceTolerance as zero-force.
func ClassifyForce(axial float64) ForceSense {
	switch {
	case math.Abs(axial) <= ZeroForceTolerance:
		return ForceZero
	case axial > 0:
		return ForceTension
	default:
		return ForceCompression
	}
}

func (s ForceSense) Color() string {
	switch s {
	case ForceTension:
		return ColorTension
	case ForceCompression:
		return ColorCompression
	default:
		return ColorNeutral
	}
}

// MemberColor applies the result-mode precedence: stress coloring, then force
// sign, then neutral gray.
func MemberColor(res analysis.MemberResult, flags DisplayFlags) string {
	if flags.ShowStress {
		return ClassifyStress(res.StressRatio).Color()
	}
	if flags.ShowForces {
		return ClassifyForce(res.AxialForce).Color()
	}
	return ColorNeutral
}

// MemberStrokeWidth scales with |axial| / max(peak, 1) when forces are shown,
// clamped to [MinForceWidth, MaxForceWidth].
func MemberStrokeWidth(res analysis.MemberResult, peak float64, flags DisplayFlags) float64 {
	if !flags.ShowForces {
		return MemberWidth
	}
	t := math.Abs(res.AxialForce) / math.Max(peak, 1)
	w := MinForceWidth + t*(MaxForceWidth-MinForceWidth)
	return math.Max(MinForceWidth, math.Min(MaxForceWidth, w))
}
