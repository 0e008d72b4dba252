package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/safetyscope/safetyscope-cli/internal/model"
)

// Resolver answers precinct/borough lookups. Both datasets are loaded once
// at construction and never mutated, so lookups are safe for concurrent use.
type Resolver struct {
	precincts []region
	boroughs  []region
}

// NewResolver loads the precinct and borough boundary shapefiles.
// precinctField and boroughField name the identifying attribute in each
// dataset ("precinct" and "BoroName" for the published NYC exports).
func NewResolver(precinctPath, precinctField, boroughPath, boroughField string) (*Resolver, error) {
	precincts, err := loadRegions(precinctPath, precinctField)
	if err != nil {
		return nil, eris.Wrap(err, "geo: load precinct boundaries")
	}
	boroughs, err := loadRegions(boroughPath, boroughField)
	if err != nil {
		return nil, eris.Wrap(err, "geo: load borough boundaries")
	}

	zap.L().Info("boundary datasets loaded",
		zap.Int("precincts", len(precincts)),
		zap.Int("boroughs", len(boroughs)),
	)

	return &Resolver{precincts: precincts, boroughs: boroughs}, nil
}

// Resolve maps a WGS84 point to its precinct and borough. A point outside
// either dataset's coverage leaves the corresponding field empty; that is a
// valid result, never an error.
//
// The two iterations deliberately differ: the precinct scan keeps the LAST
// containing polygon (full iteration, matching the deployed lookup's
// behavior on overlapping precinct geometries), while the borough scan
// stops at the FIRST containing polygon. Do not unify them.
func (r *Resolver) Resolve(lat, lon float64) model.AdministrativeMatch {
	var match model.AdministrativeMatch

	for _, p := range r.precincts {
		if containsPoint(p.geom, lon, lat) {
			match.Precinct = p.id
		}
	}

	px, py := toStatePlane(lon, lat)
	for _, b := range r.boroughs {
		if containsPoint(b.geom, px, py) {
			match.Borough = b.id
			break
		}
	}

	return match
}

// containsPoint tests point-in-multipolygon with even-odd ring counting:
// the point is inside a polygon when it falls in an odd number of that
// polygon's rings, so holes are handled without caring about winding.
func containsPoint(mp *geom.MultiPolygon, x, y float64) bool {
	coord := geom.Coord{x, y}
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		crossings := 0
		for j := 0; j < poly.NumLinearRings(); j++ {
			if xy.IsPointInRing(geom.XY, coord, poly.LinearRing(j).FlatCoords()) {
				crossings++
			}
		}
		if crossings%2 == 1 {
			return true
		}
	}
	return false
}
