package vectors

import "math"

// Vec3 is a simple 3D vector with float64 components.
type Vec3 struct {
	X, Y, Z float64
}

// FromLatLon returns the unit vector for a geographic latitude/longitude in
// degrees. X points at (0°, 0°), Z at the north pole.
func FromLatLon(latDeg, lonDeg float64) Vec3 {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	return Vec3{
		X: math.Cos(lat) * math.Cos(lon),
		Y: math.Cos(lat) * math.Sin(lon),
		Z: math.Sin(lat),
	}
}

// LatLon converts v back to latitude/longitude in degrees. v is assumed to be
// of unit length; Z is clamped into [-1, 1] before the arcsine so drift past
// the unit sphere cannot produce NaN. Longitude is in [-180, 180].
func (v Vec3) LatLon() (latDeg, lonDeg float64) {
	z := math.Max(-1, math.Min(1, v.Z))
	latDeg = math.Asin(z) * 180.0 / math.Pi
	lonDeg = math.Atan2(v.Y, v.X) * 180.0 / math.Pi
	return latDeg, lonDeg
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product v · o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean length ||v||.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector v / ||v||.
// If ||v|| == 0, it returns the zero vector (0,0,0).
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	inv := 1.0 / n
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// AngleTo returns the angle between v and o in degrees.
func (v Vec3) AngleTo(o Vec3) float64 {
	n := v.Norm() * o.Norm()
	if n == 0 {
		return 0
	}
	c := math.Max(-1, math.Min(1, v.Dot(o)/n))
	return math.Acos(c) * 180.0 / math.Pi
}

// IsFinite reports whether every component is neither NaN nor infinite.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
