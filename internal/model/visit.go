package model

import "time"

// Place labels recognized by the stage-2 encoder. Anything else is treated
// as "other" (no indicator bit set).
const (
	PlacePark          = "In park"
	PlacePublicHousing = "In public housing"
	PlaceStation       = "In station"
)

// Boroughs recognized by both encoders, as they appear in the boundary
// dataset and the model training data.
var Boroughs = []string{"BRONX", "BROOKLYN", "MANHATTAN", "QUEENS", "STATEN ISLAND"}

// Races recognized by the stage-2 encoder. Unrecognized values encode as
// all-zero one-hots.
var Races = []string{
	"AMERICAN INDIAN/ALASKAN NATIVE",
	"ASIAN / PACIFIC ISLANDER",
	"BLACK",
	"BLACK HISPANIC",
	"OTHER",
	"UNKNOWN",
	"WHITE",
	"WHITE HISPANIC",
}

// VisitContext describes when and where a visit takes place.
type VisitContext struct {
	Date  time.Time `json:"date"`
	Hour  int       `json:"hour"`
	Place string    `json:"place"`
}

// PersonProfile describes the person the prediction is for.
type PersonProfile struct {
	Age    int    `json:"age"`
	Race   string `json:"race"`
	Gender string `json:"gender"`
}

// NewRequest assembles a Request from its three input groups. Precinct and
// Borough start empty; the administrative lookup fills them in.
func NewRequest(p GeoPoint, visit VisitContext, person PersonProfile) Request {
	return Request{
		Date:      visit.Date,
		Hour:      visit.Hour,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Place:     visit.Place,
		Age:       person.Age,
		Race:      person.Race,
		Gender:    person.Gender,
	}
}

// Request carries the full input set for one prediction. Precinct and
// Borough come from the administrative lookup; the rest from the caller.
type Request struct {
	Date      time.Time `json:"date"`
	Hour      int       `json:"hour"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Place     string    `json:"place"`
	Age       int       `json:"age"`
	Race      string    `json:"race"`
	Gender    string    `json:"gender"`
	Precinct  string    `json:"precinct"`
	Borough   string    `json:"borough"`
}
