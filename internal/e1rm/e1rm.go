// Package e1rm estimates one-rep maxes from submaximal sets.
package e1rm

import "math"

// Formula selects the estimation model.
type Formula string

const (
	Epley    Formula = "epley"
	Brzycki  Formula = "brzycki"
	Wathan   Formula = "wathan"
	Lombardi Formula = "lombardi"
)

// brzyckiMaxReps caps effective reps before the Brzycki denominator goes unstable.
const brzyckiMaxReps = 36

// EffectiveReps adjusts raw reps for proximity to failure. RPE takes
// precedence over RIR when both are present.
func EffectiveReps(reps int, rpe, rir *float64) float64 {
	switch {
	case rpe != nil:
		return float64(reps) + (10 - *rpe)
	case rir != nil:
		return float64(reps) + *rir
	default:
		return float64(reps)
	}
}

// Estimate returns the estimated one-rep max in the same unit as weight.
// A single rep is returned verbatim: no formula extrapolates below one rep.
func Estimate(weight float64, reps int, rpe, rir *float64, formula Formula) float64 {
	if reps <= 1 {
		return weight
	}

	r := EffectiveReps(reps, rpe, rir)
	if r <= 1 {
		return weight
	}

	switch formula {
	case Brzycki:
		if r > brzyckiMaxReps {
			r = brzyckiMaxReps
		}
		return weight * (36 / (37 - r))
	case Wathan:
		return (100 * weight) / (48.8 + 53.8*math.Exp(-0.075*r))
	case Lombardi:
		return weight * math.Pow(r, 0.1)
	case Epley:
		fallthrough
	default:
		return weight * (1 + r/30)
	}
}
