package classifier

import (
	"github.com/rotisserie/eris"

	"github.com/safetyscope/safetyscope-cli/internal/feature"
	"github.com/safetyscope/safetyscope-cli/internal/model"
)

// DefaultCrimeThreshold is the stage-1 decision boundary: a crime
// probability strictly below it short-circuits the pipeline with SAFE.
const DefaultCrimeThreshold = 0.5

// FallbackCrimeProbability is assumed when the stage-1 artifact is
// unavailable and the pipeline always proceeds to stage 2.
const FallbackCrimeProbability = 0.6

// GateOutcome holds stage-1 probabilities, crime-side first.
type GateOutcome struct {
	CrimeProbability float64
	SafeProbability  float64
}

// SafetyGate wraps the stage-1 binary classifier. The crime class index
// comes from the artifact metadata, not an assumption about class order.
type SafetyGate struct {
	model      Stage1Model
	threshold  float64
	crimeIndex int
}

// NewSafetyGate builds a gate around a stage-1 model. A threshold <= 0
// falls back to DefaultCrimeThreshold.
func NewSafetyGate(m Stage1Model, threshold float64, crimeIndex int) *SafetyGate {
	if threshold <= 0 {
		threshold = DefaultCrimeThreshold
	}
	return &SafetyGate{model: m, threshold: threshold, crimeIndex: crimeIndex}
}

// Classify runs the stage-1 model over an encoded record.
func (g *SafetyGate) Classify(f feature.Stage1) (GateOutcome, error) {
	proba, err := g.model.PredictStage1(f)
	if err != nil {
		return GateOutcome{}, eris.Wrap(err, "classifier: stage-1 predict")
	}
	if g.crimeIndex < 0 || g.crimeIndex >= len(proba) {
		return GateOutcome{}, eris.Errorf("classifier: crime class index %d outside %d stage-1 classes", g.crimeIndex, len(proba))
	}
	crime := proba[g.crimeIndex]
	return GateOutcome{CrimeProbability: crime, SafeProbability: 1 - crime}, nil
}

// Safe reports whether the outcome terminates the pipeline at stage 1.
// The comparison is strict: a probability exactly at the threshold routes
// to stage 2.
func (g *SafetyGate) Safe(o GateOutcome) bool {
	return o.CrimeProbability < g.threshold
}

// Threshold returns the gate's decision boundary.
func (g *SafetyGate) Threshold() float64 { return g.threshold }

// RiskFromCrimeProbability bands a stage-1 crime probability (fraction)
// into the overall risk level used when both stages run.
func RiskFromCrimeProbability(p float64) model.RiskLevel {
	switch {
	case p >= 0.7:
		return model.RiskHigh
	case p >= 0.5:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
