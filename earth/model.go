package earth

import (
	"math"
	"time"

	"github.com/echoflaresat/geochron/vectors"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
)

const Radius = 6371.0 // Earth radius in km (spherical approximation)

// SunDirectionECEF returns the unit vector from the Earth's centre toward the
// sun in Earth-fixed coordinates, from the Meeus apparent solar position.
// The UT/TT difference is ignored; it moves the sun by well under 0.001°.
func SunDirectionECEF(t time.Time) vectors.Vec3 {
	t = t.UTC()
	jd := julian.TimeToJD(t)

	// Step 1: Apparent RA/Dec of the Sun (in radians)
	ra, dec := solar.ApparentEquatorial(jd)

	// Step 2: Unit vector in ECI (Earth-centered inertial)
	x := math.Cos(dec.Rad()) * math.Cos(ra.Rad())
	y := math.Cos(dec.Rad()) * math.Sin(ra.Rad())
	z := math.Sin(dec.Rad())

	// Step 3: Rotate ECI → ECEF using apparent Greenwich sidereal time
	gst := sidereal.Apparent(jd).Rad()
	cosGST := math.Cos(gst)
	sinGST := math.Sin(gst)

	xe := x*cosGST + y*sinGST
	ye := -x*sinGST + y*cosGST
	ze := z

	return vectors.Vec3{X: xe, Y: ye, Z: ze}
}

// ReferenceSubsolarPoint is the subsolar point derived from SunDirectionECEF.
// It is slower than the NOAA series and serves as its accuracy reference.
func ReferenceSubsolarPoint(t time.Time) GeoPoint {
	return PointFromVector(SunDirectionECEF(t))
}
