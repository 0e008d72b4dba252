// Package pipeline sequences the two-stage prediction: administrative
// lookup, stage-1 safety gate, and — unless the gate terminates with SAFE —
// stage-2 crime-type classification.
package pipeline

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/safetyscope/safetyscope-cli/internal/classifier"
	"github.com/safetyscope/safetyscope-cli/internal/feature"
	"github.com/safetyscope/safetyscope-cli/internal/model"
)

// Resolver maps a point to its precinct and borough.
type Resolver interface {
	Resolve(lat, lon float64) model.AdministrativeMatch
}

// Orchestrator runs predictions against an immutable model registry. All
// per-request state is freshly constructed inside Predict, so a single
// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	registry *classifier.Registry
	resolver Resolver
}

// New builds an Orchestrator. The resolver may be nil when callers always
// supply precinct and borough themselves.
func New(registry *classifier.Registry, resolver Resolver) *Orchestrator {
	return &Orchestrator{registry: registry, resolver: resolver}
}

// Predict runs the full pipeline for one request. When the request carries
// no precinct and a resolver is configured, the administrative lookup runs
// first and fills in precinct and borough.
func (o *Orchestrator) Predict(req model.Request) (*model.PredictionResult, error) {
	if req.Precinct == "" && o.resolver != nil {
		m := o.resolver.Resolve(req.Latitude, req.Longitude)
		req.Precinct = m.Precinct
		if req.Borough == "" {
			req.Borough = m.Borough
		}
	}

	var crimeProb float64
	gateRan := false

	if o.registry.GateAvailable() {
		gate := o.registry.Gate
		f1 := feature.EncodeStage1(req.Date, req.Hour, req.Borough, req.Age, req.Gender)
		out, err := gate.Classify(f1)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: stage 1")
		}
		zap.L().Debug("stage 1 classified",
			zap.Float64("crime_probability", out.CrimeProbability),
			zap.Float64("threshold", gate.Threshold()),
		)

		if gate.Safe(out) {
			return safeResult(out), nil
		}
		crimeProb = out.CrimeProbability
		gateRan = true
	} else {
		// Fallback mode: assume moderate risk and always classify the type.
		crimeProb = classifier.FallbackCrimeProbability
	}

	vec, err := feature.EncodeStage2(req.Date, req.Hour, req.Latitude, req.Longitude,
		req.Place, req.Age, req.Race, req.Gender, req.Precinct, req.Borough)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: stage 2 encoding")
	}

	stage2, err := o.registry.CrimeType.Classify(vec)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: stage 2")
	}

	result := &model.PredictionResult{
		Status:        model.StatusCrimeRisk,
		Confidence:    stage2.Confidence,
		CrimeType:     stage2.Category,
		CrimeList:     stage2.Offenses,
		Probabilities: stage2.Probabilities,
	}

	if gateRan {
		// Overall risk comes from the stage-1 probability banding; stage 2
		// contributes only the type breakdown.
		result.RiskLevel = classifier.RiskFromCrimeProbability(crimeProb)
		pct := classifier.Round2(crimeProb * 100)
		result.CrimeProbability = &pct
		result.Message = fmt.Sprintf("Crime risk detected: %.1f%%. Most likely: %s", crimeProb*100, stage2.Category)
	} else {
		result.RiskLevel = stage2.RiskLevel
		result.Message = fmt.Sprintf("Crime type predicted: %s", stage2.Category)
	}

	return result, nil
}

func safeResult(out classifier.GateOutcome) *model.PredictionResult {
	pct := classifier.Round2(out.CrimeProbability * 100)
	return &model.PredictionResult{
		Status:           model.StatusSafe,
		RiskLevel:        model.RiskLow,
		CrimeProbability: &pct,
		Confidence:       classifier.Round2((1 - out.CrimeProbability) * 100),
		CrimeList:        []string{},
		Probabilities:    classifier.ZeroProbabilities(),
		Message:          fmt.Sprintf("This area appears safe. Crime risk: %.1f%%", out.CrimeProbability*100),
	}
}
