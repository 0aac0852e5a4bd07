package scoring

import (
	"fmt"
	"math"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// weightTolerance is how far the weight sum may drift from 1.
const weightTolerance = 1e-3

// Weights combine skill fit and repository health into a match score.
type Weights struct {
	Skill    float64 `json:"skill" koanf:"skill"`
	Activity float64 `json:"activity" koanf:"activity"`
	Demand   float64 `json:"demand" koanf:"demand"`
}

// Named weight presets.
var (
	DefaultWeights     = Weights{Skill: 0.5, Activity: 0.3, Demand: 0.2}
	BeginnerWeights    = Weights{Skill: 0.4, Activity: 0.4, Demand: 0.2}
	ExpertWeights      = Weights{Skill: 0.55, Activity: 0.2, Demand: 0.25}
	IssueSolverWeights = Weights{Skill: 0.45, Activity: 0.25, Demand: 0.3}
)

var presets = map[string]Weights{
	"default":      DefaultWeights,
	"beginner":     BeginnerWeights,
	"expert":       ExpertWeights,
	"issue_solver": IssueSolverWeights,
}

// Preset looks up a named weight preset.
func Preset(name string) (Weights, error) {
	w, ok := presets[name]
	if !ok {
		return Weights{}, fmt.Errorf("%w: unknown preset %q", model.ErrInvalidWeights, name)
	}
	return w, nil
}

// Validate checks that every weight is within [0,1] and that they sum to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Skill, w.Activity, w.Demand} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: weight %v out of range", model.ErrInvalidWeights, v)
		}
	}
	if sum := w.Skill + w.Activity + w.Demand; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f", model.ErrInvalidWeights, sum)
	}
	return nil
}
