// Package geo resolves a geographic point to its NYC police precinct and
// borough by point-in-polygon tests against two boundary shapefiles. The
// two datasets do not share a coordinate system: precinct boundaries are
// geographic (WGS84), borough boundaries are EPSG:2263 state plane feet.
package geo

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// region is one boundary polygon with its identifying attribute.
type region struct {
	id   string
	geom *geom.MultiPolygon
}

// loadRegions reads a polygon shapefile and keeps each record's geometry
// together with the named attribute, preserving the dataset's record order.
func loadRegions(path, attr string) ([]region, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	attrIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, attr) {
			attrIdx = i
			break
		}
	}
	if attrIdx < 0 {
		return nil, eris.Errorf("geo: shapefile %s has no %q attribute", path, attr)
	}

	var regions []region
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}
		id := strings.TrimSpace(strings.TrimRight(reader.Attribute(attrIdx), "\x00"))
		regions = append(regions, region{id: id, geom: mp})
	}
	if skipped > 0 {
		zap.L().Debug("geo: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	if len(regions) == 0 {
		return nil, eris.Errorf("geo: shapefile %s contains no polygons", path)
	}

	return regions, nil
}

// polygonToMultiPolygon converts a shapefile polygon's ring parts into a
// geom.MultiPolygon, one single-ring polygon per part. Ring winding is left
// as stored; containment uses even-odd counting so holes fall out naturally.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geo: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
