// Package geodesy holds the WGS84 coordinate conversions used to express
// station positions and local displacements.
package geodesy

import "math"

// WGS84 ellipsoid.
const (
	semiMajorAxis  = 6378137.0
	eccentricitySq = 6.69437999014e-3
)

// ECEF is an Earth-Centered, Earth-Fixed Cartesian position in metres.
type ECEF struct {
	X, Y, Z float64
}

// Geodetic is an ellipsoidal position: degrees longitude/latitude and metres
// of ellipsoidal height.
type Geodetic struct {
	Lon, Lat, Height float64
}

// ToGeodetic converts an ECEF position to geodetic coordinates by fixed-point
// iteration on the latitude.
func ToGeodetic(p ECEF) Geodetic {
	lon := math.Atan2(p.Y, p.X)
	rho := math.Hypot(p.X, p.Y)
	lat := math.Atan2(p.Z, rho*(1-eccentricitySq))

	var h float64
	for i := 0; i < 3; i++ {
		n := primeVertical(lat)
		h = rho/math.Cos(lat) - n
		lat = math.Atan2(p.Z, rho*(1-eccentricitySq*n/(n+h)))
	}
	n := primeVertical(lat)
	h = rho/math.Cos(lat) - n

	return Geodetic{
		Lon:    lon * 180 / math.Pi,
		Lat:    lat * 180 / math.Pi,
		Height: h,
	}
}

// NEUOffset expresses the displacement from origin to p in the local
// topocentric frame at origin: North, East, Up in metres.
func NEUOffset(origin, p ECEF) (n, e, u float64) {
	g := ToGeodetic(origin)
	lat := g.Lat * math.Pi / 180
	lon := g.Lon * math.Pi / 180

	dx := p.X - origin.X
	dy := p.Y - origin.Y
	dz := p.Z - origin.Z

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	n = -sinLat*cosLon*dx - sinLat*sinLon*dy + cosLat*dz
	e = -sinLon*dx + cosLon*dy
	u = cosLat*cosLon*dx + cosLat*sinLon*dy + sinLat*dz
	return n, e, u
}

func primeVertical(lat float64) float64 {
	s := math.Sin(lat)
	return semiMajorAxis / math.Sqrt(1-eccentricitySq*s*s)
}
