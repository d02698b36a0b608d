package geodesy

import (
	"math"
	"testing"
)

func TestToGeodeticEquatorPrimeMeridian(t *testing.T) {
	g := ToGeodetic(ECEF{X: 6378137.0, Y: 0, Z: 0})

	if math.Abs(g.Lat) > 1e-9 {
		t.Fatalf("latitude = %v, want 0", g.Lat)
	}
	if math.Abs(g.Lon) > 1e-9 {
		t.Fatalf("longitude = %v, want 0", g.Lon)
	}
	if math.Abs(g.Height) > 1e-3 {
		t.Fatalf("height = %v, want ~0", g.Height)
	}
}

func TestToGeodeticEquator90East(t *testing.T) {
	g := ToGeodetic(ECEF{X: 0, Y: 6378137.0, Z: 0})

	if math.Abs(g.Lon-90) > 1e-9 {
		t.Fatalf("longitude = %v, want 90", g.Lon)
	}
	if math.Abs(g.Lat) > 1e-9 {
		t.Fatalf("latitude = %v, want 0", g.Lat)
	}
}

func TestToGeodeticHeightAboveEllipsoid(t *testing.T) {
	g := ToGeodetic(ECEF{X: 6378137.0 + 100, Y: 0, Z: 0})

	if math.Abs(g.Height-100) > 1e-3 {
		t.Fatalf("height = %v, want 100", g.Height)
	}
}

func TestNEUOffsetAxesAtEquator(t *testing.T) {
	origin := ECEF{X: 6378137.0, Y: 0, Z: 0}

	// +Z is due north at the equator on the prime meridian.
	n, e, u := NEUOffset(origin, ECEF{X: origin.X, Y: 0, Z: 5})
	if math.Abs(n-5) > 1e-9 || math.Abs(e) > 1e-9 || math.Abs(u) > 1e-9 {
		t.Fatalf("north move: n=%v e=%v u=%v", n, e, u)
	}

	// +Y is due east.
	n, e, u = NEUOffset(origin, ECEF{X: origin.X, Y: 3, Z: 0})
	if math.Abs(e-3) > 1e-9 || math.Abs(n) > 1e-9 || math.Abs(u) > 1e-9 {
		t.Fatalf("east move: n=%v e=%v u=%v", n, e, u)
	}

	// +X is straight up.
	n, e, u = NEUOffset(origin, ECEF{X: origin.X + 2, Y: 0, Z: 0})
	if math.Abs(u-2) > 1e-9 || math.Abs(n) > 1e-9 || math.Abs(e) > 1e-9 {
		t.Fatalf("up move: n=%v e=%v u=%v", n, e, u)
	}
}

func TestNEUOffsetZeroDisplacement(t *testing.T) {
	origin := ECEF{X: 4433469.9438, Y: -2268735.1466, Z: 3971622.2809}
	n, e, u := NEUOffset(origin, origin)
	if n != 0 || e != 0 || u != 0 {
		t.Fatalf("identical positions: n=%v e=%v u=%v", n, e, u)
	}
}
