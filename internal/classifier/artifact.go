// Package classifier loads the pre-trained model artifacts and wraps them
// behind the two stage interfaces the pipeline consumes. Artifacts are
// gradient-boosted tree ensembles exported to a versioned JSON dump; they
// are loaded once at startup and are immutable, so concurrent reads need no
// locking.
package classifier

import (
	"encoding/json"
	"math"
	"os"

	"github.com/rotisserie/eris"

	"github.com/safetyscope/safetyscope-cli/internal/feature"
)

// ArtifactVersion is the only dump format this loader accepts.
const ArtifactVersion = 1

// Objectives supported by the ensemble.
const (
	ObjectiveBinary     = "binary"
	ObjectiveMulticlass = "multiclass"
)

// Stage1Model yields class probabilities for a stage-1 feature record.
type Stage1Model interface {
	PredictStage1(f feature.Stage1) ([]float64, error)
}

// Stage2Model yields class probabilities for a stage-2 feature vector.
type Stage2Model interface {
	PredictStage2(vec []float64) ([]float64, error)
}

// Node is one decision or leaf node. Leaf nodes have Left == -1 and carry
// the raw score contribution in Value.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a single ensemble member contributing to one class score.
type Tree struct {
	Class int    `json:"class"`
	Nodes []Node `json:"nodes"`
}

// Artifact is a loaded model dump. CrimeClassIndex is stage-1 metadata: the
// shipped safety model's class labels are inverted relative to intuition
// (class 0 is crime), so the orientation travels with the artifact instead
// of being assumed in code.
type Artifact struct {
	Version         int                 `json:"version"`
	Objective       string              `json:"objective"`
	NumClasses      int                 `json:"num_classes"`
	FeatureNames    []string            `json:"feature_names"`
	Categorical     map[string][]string `json:"categorical,omitempty"`
	CrimeClassIndex int                 `json:"crime_class_index"`
	Trees           []Tree              `json:"trees"`

	catOrdinals map[string]map[string]float64
}

// LoadArtifact reads and validates a model dump.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classifier: read artifact %s", path)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrapf(err, "classifier: parse artifact %s", path)
	}

	if a.Version != ArtifactVersion {
		return nil, eris.Errorf("classifier: artifact %s has version %d, want %d", path, a.Version, ArtifactVersion)
	}
	if a.Objective != ObjectiveBinary && a.Objective != ObjectiveMulticlass {
		return nil, eris.Errorf("classifier: artifact %s has unknown objective %q", path, a.Objective)
	}
	if a.NumClasses < 2 {
		return nil, eris.Errorf("classifier: artifact %s declares %d classes", path, a.NumClasses)
	}
	if len(a.FeatureNames) == 0 {
		return nil, eris.Errorf("classifier: artifact %s has no feature names", path)
	}
	for ti, tree := range a.Trees {
		if tree.Class < 0 || tree.Class >= a.NumClasses {
			return nil, eris.Errorf("classifier: artifact %s tree %d targets class %d", path, ti, tree.Class)
		}
		for ni, n := range tree.Nodes {
			if n.Left == -1 {
				continue
			}
			if n.Left < 0 || n.Left >= len(tree.Nodes) || n.Right < 0 || n.Right >= len(tree.Nodes) {
				return nil, eris.Errorf("classifier: artifact %s tree %d node %d has bad children", path, ti, ni)
			}
			if n.Feature < 0 || n.Feature >= len(a.FeatureNames) {
				return nil, eris.Errorf("classifier: artifact %s tree %d node %d references feature %d", path, ti, ni, n.Feature)
			}
		}
	}

	a.catOrdinals = make(map[string]map[string]float64, len(a.Categorical))
	for name, values := range a.Categorical {
		m := make(map[string]float64, len(values))
		for i, v := range values {
			m[v] = float64(i)
		}
		a.catOrdinals[name] = m
	}

	return &a, nil
}

// Row converts a named-field record into the artifact's feature order.
// Categorical strings map through the artifact's value tables; unseen
// categories encode as -1.
func (a *Artifact) Row(fields map[string]any) ([]float64, error) {
	row := make([]float64, len(a.FeatureNames))
	for i, name := range a.FeatureNames {
		v, ok := fields[name]
		if !ok {
			return nil, eris.Errorf("classifier: record is missing feature %q", name)
		}
		switch val := v.(type) {
		case float64:
			row[i] = val
		case int:
			row[i] = float64(val)
		case bool:
			if val {
				row[i] = 1
			}
		case string:
			ordinals, ok := a.catOrdinals[name]
			if !ok {
				return nil, eris.Errorf("classifier: feature %q is not categorical in the artifact", name)
			}
			ord, ok := ordinals[val]
			if !ok {
				ord = -1
			}
			row[i] = ord
		default:
			return nil, eris.Errorf("classifier: unsupported value type %T for feature %q", v, name)
		}
	}
	return row, nil
}

// PredictProba scores a feature vector and returns per-class probabilities.
func (a *Artifact) PredictProba(vec []float64) ([]float64, error) {
	if len(vec) != len(a.FeatureNames) {
		return nil, eris.Errorf("classifier: vector has %d features, artifact expects %d", len(vec), len(a.FeatureNames))
	}

	raw := make([]float64, a.NumClasses)
	for _, tree := range a.Trees {
		raw[tree.Class] += traverse(tree.Nodes, vec)
	}

	if a.Objective == ObjectiveBinary {
		// Binary ensembles carry one tree chain; the raw score is the
		// logit of class 1.
		p := sigmoid(raw[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(raw), nil
}

// PredictStage1 implements Stage1Model.
func (a *Artifact) PredictStage1(f feature.Stage1) ([]float64, error) {
	row, err := a.Row(f.Fields())
	if err != nil {
		return nil, err
	}
	return a.PredictProba(row)
}

// PredictStage2 implements Stage2Model.
func (a *Artifact) PredictStage2(vec []float64) ([]float64, error) {
	return a.PredictProba(vec)
}

func traverse(nodes []Node, vec []float64) float64 {
	if len(nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := nodes[i]
		if n.Left == -1 {
			return n.Value
		}
		if vec[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(raw []float64) []float64 {
	maxRaw := raw[0]
	for _, v := range raw[1:] {
		if v > maxRaw {
			maxRaw = v
		}
	}
	var sum float64
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = math.Exp(v - maxRaw)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
