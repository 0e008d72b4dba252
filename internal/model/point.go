package model

// GeoPoint is a query location in geographic (WGS84) coordinates.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AdministrativeMatch is the result of resolving a point against the precinct
// and borough boundary datasets. Empty fields mean no containing polygon was
// found; that is a valid terminal state, not an error.
type AdministrativeMatch struct {
	Precinct string `json:"precinct,omitempty"`
	Borough  string `json:"borough,omitempty"`
}

// HasPrecinct reports whether a precinct polygon contained the point.
func (m AdministrativeMatch) HasPrecinct() bool { return m.Precinct != "" }

// HasBorough reports whether a borough polygon contained the point.
func (m AdministrativeMatch) HasBorough() bool { return m.Borough != "" }
