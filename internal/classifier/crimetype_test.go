package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetyscope/safetyscope-cli/internal/model"
)

// stubStage2 returns a fixed probability vector.
type stubStage2 struct {
	proba []float64
}

func (s stubStage2) PredictStage2([]float64) ([]float64, error) {
	return s.proba, nil
}

func TestCrimeTypeClassify(t *testing.T) {
	c := NewCrimeTypeModel(stubStage2{proba: []float64{0.05, 0.10, 0.75, 0.10}})

	out, err := c.Classify(make([]float64, 36))
	require.NoError(t, err)

	assert.Equal(t, "PROPERTY", out.Category)
	assert.Equal(t, Categories[2].Offenses, out.Offenses)
	assert.Equal(t, 75.0, out.Confidence)
	assert.Equal(t, model.RiskHigh, out.RiskLevel)
	assert.Equal(t, map[string]float64{
		"DRUGS/ALCOHOL": 5.0,
		"PERSONAL":      10.0,
		"PROPERTY":      75.0,
		"SEXUAL":        10.0,
	}, out.Probabilities)
}

func TestCrimeTypeRiskBands(t *testing.T) {
	tests := []struct {
		maxP float64
		want model.RiskLevel
	}{
		{0.39, model.RiskLow},
		{0.40, model.RiskMedium},
		{0.64, model.RiskMedium},
		{0.65, model.RiskHigh},
		{0.90, model.RiskHigh},
	}
	for _, tt := range tests {
		rest := (1 - tt.maxP) / 3
		c := NewCrimeTypeModel(stubStage2{proba: []float64{tt.maxP, rest, rest, rest}})
		out, err := c.Classify(make([]float64, 36))
		require.NoError(t, err)
		assert.Equal(t, tt.want, out.RiskLevel, "max probability %v", tt.maxP)
	}
}

func TestCrimeTypeUnknownClass(t *testing.T) {
	// A five-class artifact predicting class 4 has no category mapping.
	c := NewCrimeTypeModel(stubStage2{proba: []float64{0.1, 0.1, 0.1, 0.1, 0.6}})

	out, err := c.Classify(make([]float64, 36))
	require.NoError(t, err)

	assert.Equal(t, "UNKNOWN", out.Category)
	assert.Empty(t, out.Offenses)
	assert.Equal(t, 60.0, out.Confidence)
	// The fixed four categories still appear in the table.
	assert.Len(t, out.Probabilities, 4)
}

func TestCrimeTypeConfidenceRounding(t *testing.T) {
	c := NewCrimeTypeModel(stubStage2{proba: []float64{0.123456, 0.666644, 0.1, 0.1099}})

	out, err := c.Classify(make([]float64, 36))
	require.NoError(t, err)

	assert.Equal(t, 66.66, out.Confidence)
	assert.Equal(t, 12.35, out.Probabilities["DRUGS/ALCOHOL"])
	assert.Equal(t, 10.99, out.Probabilities["SEXUAL"])
}

func TestCrimeTypeEmptyProba(t *testing.T) {
	c := NewCrimeTypeModel(stubStage2{proba: nil})
	_, err := c.Classify(make([]float64, 36))
	assert.Error(t, err)
}

func TestZeroProbabilities(t *testing.T) {
	zp := ZeroProbabilities()
	assert.Equal(t, map[string]float64{
		"DRUGS/ALCOHOL": 0, "PERSONAL": 0, "PROPERTY": 0, "SEXUAL": 0,
	}, zp)
}

func TestCategoriesOrdering(t *testing.T) {
	require.Len(t, Categories, 4)
	for i, c := range Categories {
		assert.Equal(t, i, c.ID)
		assert.NotEmpty(t, c.Offenses)
	}
	assert.Equal(t, "DRUGS/ALCOHOL", Categories[0].Name)
	assert.Equal(t, "PERSONAL", Categories[1].Name)
	assert.Equal(t, "PROPERTY", Categories[2].Name)
	assert.Equal(t, "SEXUAL", Categories[3].Name)
}
