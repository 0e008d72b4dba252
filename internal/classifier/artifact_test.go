package classifier

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeArtifact marshals an artifact to a temp file and returns the path.
func writeArtifact(t *testing.T, a Artifact) string {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func leaf(v float64) Node {
	return Node{Left: -1, Right: -1, Value: v}
}

func binaryArtifact(trees ...Tree) Artifact {
	return Artifact{
		Version:      ArtifactVersion,
		Objective:    ObjectiveBinary,
		NumClasses:   2,
		FeatureNames: []string{"x", "cat"},
		Categorical:  map[string][]string{"cat": {"A", "B", "C"}},
		Trees:        trees,
	}
}

func TestLoadArtifactValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Artifact)
	}{
		{"bad version", func(a *Artifact) { a.Version = 99 }},
		{"bad objective", func(a *Artifact) { a.Objective = "regression" }},
		{"too few classes", func(a *Artifact) { a.NumClasses = 1 }},
		{"no features", func(a *Artifact) { a.FeatureNames = nil }},
		{"tree targets bad class", func(a *Artifact) { a.Trees = []Tree{{Class: 5, Nodes: []Node{leaf(0)}}} }},
		{"node child out of range", func(a *Artifact) {
			a.Trees = []Tree{{Class: 0, Nodes: []Node{{Feature: 0, Threshold: 1, Left: 7, Right: 8}}}}
		}},
		{"node feature out of range", func(a *Artifact) {
			a.Trees = []Tree{{Class: 0, Nodes: []Node{{Feature: 9, Threshold: 1, Left: 1, Right: 2}, leaf(0), leaf(1)}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := binaryArtifact(Tree{Class: 0, Nodes: []Node{leaf(0)}})
			tt.mutate(&a)
			_, err := LoadArtifact(writeArtifact(t, a))
			assert.Error(t, err)
		})
	}
}

func TestLoadArtifactMissingFile(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestRowEncoding(t *testing.T) {
	a, err := LoadArtifact(writeArtifact(t, binaryArtifact(Tree{Class: 0, Nodes: []Node{leaf(0)}})))
	require.NoError(t, err)

	row, err := a.Row(map[string]any{"x": 3.5, "cat": "B"})
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5, 1}, row)

	// Unseen categories encode as -1.
	row, err = a.Row(map[string]any{"x": 1, "cat": "Z"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1}, row)

	// Bools become indicator values.
	a.FeatureNames = []string{"x", "flag"}
	row, err = a.Row(map[string]any{"x": 0, "flag": true})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, row)
}

func TestRowMissingFeature(t *testing.T) {
	a, err := LoadArtifact(writeArtifact(t, binaryArtifact(Tree{Class: 0, Nodes: []Node{leaf(0)}})))
	require.NoError(t, err)

	_, err = a.Row(map[string]any{"x": 1.0})
	assert.Error(t, err)
}

func TestPredictProbaBinary(t *testing.T) {
	// Decision on x at 5: left leaf 2.0, right leaf -2.0.
	tree := Tree{Class: 0, Nodes: []Node{
		{Feature: 0, Threshold: 5, Left: 1, Right: 2},
		leaf(2), leaf(-2),
	}}
	a, err := LoadArtifact(writeArtifact(t, binaryArtifact(tree)))
	require.NoError(t, err)

	proba, err := a.PredictProba([]float64{3, 0})
	require.NoError(t, err)
	p1 := 1 / (1 + math.Exp(-2))
	assert.InDelta(t, p1, proba[1], 1e-12)
	assert.InDelta(t, 1-p1, proba[0], 1e-12)

	proba, err = a.PredictProba([]float64{9, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(2)), proba[1], 1e-12)
}

func TestPredictProbaMulticlass(t *testing.T) {
	a := Artifact{
		Version:      ArtifactVersion,
		Objective:    ObjectiveMulticlass,
		NumClasses:   4,
		FeatureNames: []string{"x"},
		Trees: []Tree{
			{Class: 0, Nodes: []Node{leaf(1)}},
			{Class: 1, Nodes: []Node{leaf(0)}},
			{Class: 2, Nodes: []Node{leaf(0)}},
			{Class: 3, Nodes: []Node{leaf(0)}},
		},
	}
	loaded, err := LoadArtifact(writeArtifact(t, a))
	require.NoError(t, err)

	proba, err := loaded.PredictProba([]float64{0})
	require.NoError(t, err)
	require.Len(t, proba, 4)

	e := math.Exp(1)
	want0 := e / (e + 3)
	assert.InDelta(t, want0, proba[0], 1e-12)
	assert.InDelta(t, 1/(e+3), proba[1], 1e-12)

	var sum float64
	for _, p := range proba {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestPredictProbaVectorLength(t *testing.T) {
	a, err := LoadArtifact(writeArtifact(t, binaryArtifact(Tree{Class: 0, Nodes: []Node{leaf(0)}})))
	require.NoError(t, err)

	_, err = a.PredictProba([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestPredictProbaDeterministic(t *testing.T) {
	tree := Tree{Class: 0, Nodes: []Node{
		{Feature: 0, Threshold: 5, Left: 1, Right: 2},
		leaf(0.7), leaf(-1.3),
	}}
	a, err := LoadArtifact(writeArtifact(t, binaryArtifact(tree)))
	require.NoError(t, err)

	first, err := a.PredictProba([]float64{4.2, 1})
	require.NoError(t, err)
	second, err := a.PredictProba([]float64{4.2, 1})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
