package classifier

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/safetyscope/safetyscope-cli/internal/model"
)

// Category couples a stage-2 class index with its display name and the
// ordered list of specific offenses it covers.
type Category struct {
	ID       int
	Name     string
	Offenses []string
}

// Categories is the fixed stage-2 class mapping, indexed by class id.
var Categories = []Category{
	{ID: 0, Name: "DRUGS/ALCOHOL", Offenses: []string{
		"DANGEROUS DRUGS", "INTOXICATED & IMPAIRED DRIVING",
		"ALCOHOLIC BEVERAGE CONTROL LAW", "INTOXICATED/IMPAIRED DRIVING",
		"UNDER THE INFLUENCE OF DRUGS", "LOITERING FOR DRUG PURPOSES",
	}},
	{ID: 1, Name: "PERSONAL", Offenses: []string{
		"ASSAULT 3 & RELATED OFFENSES", "FELONY ASSAULT",
		"OFFENSES AGAINST THE PERSON", "HOMICIDE-NEGLIGENT,UNCLASSIFIE",
		"HOMICIDE-NEGLIGENT-VEHICLE", "KIDNAPPING & RELATED OFFENSES",
		"ENDAN WELFARE INCOMP", "OFFENSES RELATED TO CHILDREN",
		"CHILD ABANDONMENT/NON SUPPORT", "KIDNAPPING", "DANGEROUS WEAPONS",
		"UNLAWFUL POSS. WEAP. ON SCHOOL",
	}},
	{ID: 2, Name: "PROPERTY", Offenses: []string{
		"BURGLARY", "PETIT LARCENY", "GRAND LARCENY", "ROBBERY", "THEFT-FRAUD",
		"GRAND LARCENY OF MOTOR VEHICLE", "FORGERY", "JOSTLING", "ARSON",
		"PETIT LARCENY OF MOTOR VEHICLE", "OTHER OFFENSES RELATED TO THEF",
		"BURGLAR'S TOOLS", "FRAUDS", "POSSESSION OF STOLEN PROPERTY",
		"CRIMINAL MISCHIEF & RELATED OF", "OFFENSES INVOLVING FRAUD",
		"FRAUDULENT ACCOSTING", "THEFT OF SERVICES",
	}},
	{ID: 3, Name: "SEXUAL", Offenses: []string{
		"SEX CRIMES", "HARRASSMENT 2", "RAPE", "PROSTITUTION & RELATED OFFENSES",
		"FELONY SEX CRIMES", "LOITERING/DEVIATE SEX",
	}},
}

// Stage2Outcome is the crime-type classification for one feature vector.
type Stage2Outcome struct {
	Category      string
	Offenses      []string
	Confidence    float64 // probability mass on the predicted class, percent
	RiskLevel     model.RiskLevel
	Probabilities map[string]float64 // percent per fixed category
}

// CrimeTypeModel wraps the stage-2 four-class classifier.
type CrimeTypeModel struct {
	model Stage2Model
}

// NewCrimeTypeModel builds the stage-2 wrapper.
func NewCrimeTypeModel(m Stage2Model) *CrimeTypeModel {
	return &CrimeTypeModel{model: m}
}

// Classify predicts the crime category for an encoded stage-2 vector.
func (c *CrimeTypeModel) Classify(vec []float64) (*Stage2Outcome, error) {
	proba, err := c.model.PredictStage2(vec)
	if err != nil {
		return nil, eris.Wrap(err, "classifier: stage-2 predict")
	}
	if len(proba) == 0 {
		return nil, eris.New("classifier: stage-2 returned no probabilities")
	}

	pred := 0
	maxP := proba[0]
	for i, p := range proba {
		if p > maxP {
			pred = i
			maxP = p
		}
	}

	out := &Stage2Outcome{
		Confidence:    Round2(proba[pred] * 100),
		RiskLevel:     RiskFromMaxProbability(maxP * 100),
		Probabilities: probabilityTable(proba),
	}

	if pred >= 0 && pred < len(Categories) {
		out.Category = Categories[pred].Name
		out.Offenses = Categories[pred].Offenses
	} else {
		out.Category = "UNKNOWN"
		out.Offenses = []string{}
	}

	return out, nil
}

// RiskFromMaxProbability bands a stage-2 max class probability (percent)
// into the risk level used in fallback mode.
func RiskFromMaxProbability(percent float64) model.RiskLevel {
	switch {
	case percent < 40:
		return model.RiskLow
	case percent < 65:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// ZeroProbabilities returns the fixed category table with all-zero values,
// used for SAFE results that never reach stage 2.
func ZeroProbabilities() map[string]float64 {
	out := make(map[string]float64, len(Categories))
	for _, c := range Categories {
		out[c.Name] = 0
	}
	return out
}

func probabilityTable(proba []float64) map[string]float64 {
	out := make(map[string]float64, len(Categories))
	for _, c := range Categories {
		if c.ID < len(proba) {
			out[c.Name] = Round2(proba[c.ID] * 100)
		} else {
			out[c.Name] = 0
		}
	}
	return out
}

// Round2 rounds to two decimal places, matching the reported percentages.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
