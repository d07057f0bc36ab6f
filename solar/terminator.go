package solar

import (
	"cmp"
	"slices"
	"time"

	"github.com/echoflaresat/geochron/earth"
	"github.com/echoflaresat/geochron/vectors"
)

// DefaultResolution is the number of terminator segments used when the
// caller passes a non-positive resolution.
const DefaultResolution = 360

// Terminator samples the day/night boundary at t: resolution+1 points on the
// great circle 90° from the subsolar point, sorted by longitude. Non-finite
// samples are dropped.
func Terminator(t time.Time, resolution int) []earth.GeoPoint {
	return TerminatorAround(SubsolarPoint(t), resolution)
}

// TerminatorAround samples the great circle 90° from subsolar.
func TerminatorAround(subsolar earth.GeoPoint, resolution int) []earth.GeoPoint {
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	rot := terminatorRotation(subsolar)

	points := make([]earth.GeoPoint, 0, resolution+1)
	for i := 0; i <= resolution; i++ {
		angle := float64(i) / float64(resolution) * 360

		// Circle at colatitude 90° in the frame whose pole is the sun.
		p := vectors.Vec3{X: cosDeg(angle), Y: sinDeg(angle), Z: 0}

		gp := earth.PointFromVector(rot.Apply(p))
		if !gp.IsFinite() {
			continue
		}
		points = append(points, gp)
	}

	slices.SortStableFunc(points, func(a, b earth.GeoPoint) int {
		return cmp.Compare(a.Lon, b.Lon)
	})
	return points
}

// terminatorRotation carries the frame's +Z pole onto the subsolar unit
// vector: tilt the pole down to the subsolar latitude about Y, then swing it
// to the subsolar longitude about Z.
func terminatorRotation(subsolar earth.GeoPoint) vectors.Mat3 {
	rz := vectors.RotationZ(radians(subsolar.Lon))
	ry := vectors.RotationY(radians(90 - subsolar.Lat))
	return rz.Mul(ry)
}
