package classifier

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Registry holds the loaded model stages. It is constructed once at process
// startup and passed by reference wherever predictions run; there is no
// global model state. Gate is nil when the stage-1 artifact could not be
// loaded, which puts the pipeline in fallback mode rather than failing.
type Registry struct {
	Gate      *SafetyGate
	CrimeType *CrimeTypeModel
}

// NewRegistry loads both artifacts. The stage-2 artifact is required; a
// missing or unreadable stage-1 artifact degrades to fallback mode with a
// warning.
func NewRegistry(stage1Path, stage2Path string, crimeThreshold float64) (*Registry, error) {
	stage2, err := LoadArtifact(stage2Path)
	if err != nil {
		return nil, eris.Wrap(err, "classifier: load stage-2 artifact")
	}
	if stage2.Objective != ObjectiveMulticlass {
		return nil, eris.Errorf("classifier: stage-2 artifact objective is %q, want %q", stage2.Objective, ObjectiveMulticlass)
	}

	reg := &Registry{CrimeType: NewCrimeTypeModel(stage2)}

	stage1, err := LoadArtifact(stage1Path)
	if err != nil {
		zap.L().Warn("stage-1 safety artifact unavailable, running in fallback mode (stage 2 only)",
			zap.String("path", stage1Path),
			zap.Error(err),
		)
		return reg, nil
	}
	if stage1.Objective != ObjectiveBinary {
		zap.L().Warn("stage-1 artifact is not a binary classifier, running in fallback mode",
			zap.String("path", stage1Path),
			zap.String("objective", stage1.Objective),
		)
		return reg, nil
	}

	reg.Gate = NewSafetyGate(stage1, crimeThreshold, stage1.CrimeClassIndex)
	zap.L().Info("stage-1 safety artifact loaded",
		zap.String("path", stage1Path),
		zap.Int("crime_class_index", stage1.CrimeClassIndex),
		zap.Float64("threshold", reg.Gate.Threshold()),
	)

	return reg, nil
}

// GateAvailable reports whether stage 1 participates in predictions.
func (r *Registry) GateAvailable() bool { return r.Gate != nil }
