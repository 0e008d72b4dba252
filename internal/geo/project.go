package geo

import "math"

// EPSG:2263 (NAD83 / New York Long Island, US survey feet): the borough
// boundary dataset's coordinate system. Lambert conformal conic with two
// standard parallels on the GRS80 ellipsoid.
const (
	grs80A       = 6378137.0
	grs80InvFlat = 298.257222101

	liParallel1    = 40.0 + 40.0/60.0 // 40°40'N
	liParallel2    = 41.0 + 2.0/60.0  // 41°02'N
	liLatOrigin    = 40.0 + 10.0/60.0 // 40°10'N
	liLonOrigin    = -74.0
	liFalseEastFt  = 984250.0
	liFalseNorthFt = 0.0

	// US survey foot.
	metersPerFootUS = 1200.0 / 3937.0
)

// Projection constants derived once from the parameters above.
var liProj = newLambertConformal()

type lambertConformal struct {
	e    float64
	n    float64
	f    float64
	rho0 float64
}

func newLambertConformal() lambertConformal {
	flat := 1 / grs80InvFlat
	e := math.Sqrt(2*flat - flat*flat)

	phi1 := liParallel1 * math.Pi / 180
	phi2 := liParallel2 * math.Pi / 180
	phi0 := liLatOrigin * math.Pi / 180

	m1 := lccM(phi1, e)
	m2 := lccM(phi2, e)
	t0 := lccT(phi0, e)
	t1 := lccT(phi1, e)
	t2 := lccT(phi2, e)

	n := (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	f := m1 / (n * math.Pow(t1, n))

	return lambertConformal{
		e:    e,
		n:    n,
		f:    f,
		rho0: grs80A * f * math.Pow(t0, n),
	}
}

func lccM(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-e*e*s*s)
}

func lccT(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*s)/(1+e*s), e/2)
}

// toStatePlane projects a WGS84 longitude/latitude (degrees) onto the
// EPSG:2263 plane, returning easting/northing in US survey feet. NAD83 and
// WGS84 differ by under two meters in this region, well inside the polygon
// tolerance of a borough lookup.
func toStatePlane(lon, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	lambda0 := liLonOrigin * math.Pi / 180

	rho := grs80A * liProj.f * math.Pow(lccT(phi, liProj.e), liProj.n)
	theta := liProj.n * (lambda - lambda0)

	xM := rho * math.Sin(theta)
	yM := liProj.rho0 - rho*math.Cos(theta)

	return xM/metersPerFootUS + liFalseEastFt, yM/metersPerFootUS + liFalseNorthFt
}
