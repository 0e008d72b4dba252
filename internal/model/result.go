package model

import "time"

// Status is the top-level verdict of a prediction.
type Status string

const (
	StatusSafe      Status = "SAFE"
	StatusCrimeRisk Status = "CRIME RISK"
)

// RiskLevel is the LOW/MEDIUM/HIGH banding derived from model probabilities.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// PredictionResult is the unified outcome of the two-stage pipeline.
//
// CrimeProbability is the stage-1 crime probability as a percentage; it is
// nil in fallback mode (stage-1 artifact unavailable). CrimeType and
// CrimeList are populated only when Status is CRIME RISK. Probabilities
// always holds the four fixed crime categories.
type PredictionResult struct {
	Status           Status             `json:"status"`
	RiskLevel        RiskLevel          `json:"risk_level"`
	CrimeProbability *float64           `json:"crime_probability,omitempty"`
	Confidence       float64            `json:"confidence"`
	CrimeType        string             `json:"crime_type,omitempty"`
	CrimeList        []string           `json:"crime_list"`
	Probabilities    map[string]float64 `json:"probabilities"`
	Message          string             `json:"message"`
}

// PredictionRun is a stored prediction with its inputs, for the audit log.
type PredictionRun struct {
	ID        string            `json:"id"`
	Request   Request           `json:"request"`
	Result    *PredictionResult `json:"result,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
