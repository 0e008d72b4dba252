// Package feature turns raw visit inputs into the fixed-schema records the
// two classifier stages were trained on. Both encoders are pure functions;
// the stage-2 column order is a versioned contract with the trained model
// and must never drift.
package feature

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/safetyscope/safetyscope-cli/internal/model"
)

// ErrInvalidInput marks encoding failures caused by bad caller input, such
// as a non-numeric precinct identifier. Callers surface these as validation
// errors rather than defaulting.
var ErrInvalidInput = eris.New("feature: invalid input")

// Stage1 is the record consumed by the stage-1 safety classifier. Field
// names in Fields() match the training schema.
type Stage1 struct {
	Borough         string
	Hour            int
	Weekday         int // 0=Monday .. 6=Sunday
	Month           int
	IsWeekend       bool
	IsNight         bool
	VictimSex       string // M, F or U
	VictimAgeGroup  string
	SuspectSex      string // always U at prediction time
	SuspectAgeGroup string // always UNKNOWN at prediction time
}

// Fields returns the record keyed by the training feature names.
func (f Stage1) Fields() map[string]any {
	return map[string]any{
		"BORO_NM":        f.Borough,
		"hour":           f.Hour,
		"weekday":        f.Weekday,
		"month":          f.Month,
		"is_weekend":     f.IsWeekend,
		"is_night":       f.IsNight,
		"VIC_SEX":        f.VictimSex,
		"VIC_AGE_GROUP":  f.VictimAgeGroup,
		"SUSP_SEX":       f.SuspectSex,
		"SUSP_AGE_GROUP": f.SuspectAgeGroup,
	}
}

// EncodeStage1 builds the stage-1 record. Gender is normalized
// case-insensitively to M/F (else U); hour >= 24 clamps to 0; night means
// hour in [20,23] or [0,6].
func EncodeStage1(date time.Time, hour int, borough string, age int, gender string) Stage1 {
	hour = clampHour(hour)
	weekday := mondayWeekday(date)
	return Stage1{
		Borough:         strings.ToUpper(borough),
		Hour:            hour,
		Weekday:         weekday,
		Month:           int(date.Month()),
		IsWeekend:       weekday >= 5,
		IsNight:         hour >= 20 || hour <= 6,
		VictimSex:       normalizeGender(gender),
		VictimAgeGroup:  stage1AgeGroup(age),
		SuspectSex:      "U",
		SuspectAgeGroup: "UNKNOWN",
	}
}

// Stage2Columns is the exact column order the stage-2 model was trained on.
// 36 columns; the two never-set sex codes (D, E) and the UNKNOWN age bucket
// are still emitted as zeros to preserve vector length.
var Stage2Columns = []string{
	"year", "month", "day", "hour", "Latitude", "Longitude", "COMPLETED", "ADDR_PCT_CD",
	"IN_PARK", "IN_PUBLIC_HOUSING", "IN_STATION",
	"BORO_NM_BRONX", "BORO_NM_BROOKLYN", "BORO_NM_MANHATTAN", "BORO_NM_QUEENS",
	"BORO_NM_STATEN ISLAND", "BORO_NM_UNKNOWN",
	"VIC_AGE_GROUP_18-24", "VIC_AGE_GROUP_25-44", "VIC_AGE_GROUP_45-64",
	"VIC_AGE_GROUP_65+", "VIC_AGE_GROUP_-18", "VIC_AGE_GROUP_UNKNOWN",
	"VIC_RACE_AMERICAN INDIAN/ALASKAN NATIVE", "VIC_RACE_ASIAN / PACIFIC ISLANDER",
	"VIC_RACE_BLACK", "VIC_RACE_BLACK HISPANIC", "VIC_RACE_OTHER",
	"VIC_RACE_UNKNOWN", "VIC_RACE_WHITE", "VIC_RACE_WHITE HISPANIC",
	"VIC_SEX_D", "VIC_SEX_E", "VIC_SEX_F", "VIC_SEX_M", "VIC_SEX_U",
}

// EncodeStage2 builds the stage-2 feature vector. Gender here is an exact
// case-sensitive match on "Female"/"Male" (the training pipeline's quirk;
// stage 1 normalizes, stage 2 does not). An unparseable precinct fails with
// ErrInvalidInput.
func EncodeStage2(date time.Time, hour int, lat, lon float64, place string, age int, race, gender, precinct, borough string) ([]float64, error) {
	pct, err := strconv.ParseFloat(strings.TrimSpace(precinct), 64)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidInput, "parse precinct %q", precinct)
	}

	hour = clampHour(hour)
	boro := strings.ToUpper(borough)

	vec := make([]float64, 0, len(Stage2Columns))
	vec = append(vec,
		float64(date.Year()), float64(int(date.Month())), float64(date.Day()), float64(hour),
		lat, lon,
		1, // COMPLETED: prediction queries always describe a completed incident
		pct,
		b2f(place == model.PlacePark), b2f(place == model.PlacePublicHousing), b2f(place == model.PlaceStation),
	)

	// Borough one-hot with an unknown bucket for anything outside the five.
	known := false
	for _, name := range model.Boroughs {
		hit := boro == name
		known = known || hit
		vec = append(vec, b2f(hit))
	}
	vec = append(vec, b2f(!known))

	// Age one-hot: half-open buckets distinct from the stage-1 bands. The
	// UNKNOWN column is never set at prediction time.
	vec = append(vec,
		b2f(age >= 18 && age < 25),
		b2f(age >= 25 && age < 45),
		b2f(age >= 45 && age < 65),
		b2f(age >= 65),
		b2f(age < 18),
		0,
	)

	// Race one-hot; unrecognized values leave every column zero.
	for _, name := range model.Races {
		vec = append(vec, b2f(race == name))
	}

	// Sex one-hot: D and E are reserved columns from the training data and
	// stay zero, as does U.
	vec = append(vec, 0, 0, b2f(gender == "Female"), b2f(gender == "Male"), 0)

	return vec, nil
}

func clampHour(hour int) int {
	if hour >= 24 {
		return 0
	}
	return hour
}

// mondayWeekday converts Go's Sunday-based weekday to the 0=Monday..6=Sunday
// numbering the stage-1 model expects.
func mondayWeekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

func normalizeGender(gender string) string {
	switch strings.ToLower(gender) {
	case "male", "m":
		return "M"
	case "female", "f":
		return "F"
	default:
		return "U"
	}
}

func stage1AgeGroup(age int) string {
	switch {
	case age < 18:
		return "<18"
	case age < 25:
		return "18-24"
	case age < 45:
		return "25-44"
	case age < 65:
		return "45-64"
	default:
		return "65+"
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
