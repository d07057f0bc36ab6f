package earth

import (
	"math"

	"github.com/echoflaresat/geochron/vectors"
)

// GeoPoint is a geographic position in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Vector returns the unit vector pointing at p.
func (p GeoPoint) Vector() vectors.Vec3 {
	return vectors.FromLatLon(p.Lat, p.Lon)
}

// IsFinite reports whether both coordinates are finite.
func (p GeoPoint) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0)
}

// Valid reports whether p lies within [-90, 90] × [-180, 180].
func (p GeoPoint) Valid() bool {
	return p.IsFinite() && p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// AngularDistance returns the great-circle angle between p and o in degrees.
func (p GeoPoint) AngularDistance(o GeoPoint) float64 {
	return p.Vector().AngleTo(o.Vector())
}

// PointFromVector converts a unit vector into a GeoPoint with a normalised
// longitude.
func PointFromVector(v vectors.Vec3) GeoPoint {
	lat, lon := v.LatLon()
	return GeoPoint{Lat: math.Max(-90, math.Min(90, lat)), Lon: NormalizeLongitude(lon)}
}

// NormalizeLongitude wraps lon into (-180, 180]. NaN and ±Inf yield NaN.
func NormalizeLongitude(lon float64) float64 {
	l := math.Mod(lon+180, 360)
	if l <= 0 {
		l += 360
	}
	return l - 180
}

// Normalize360 wraps deg into [0, 360). NaN and ±Inf yield NaN.
func Normalize360(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// -tiny + 360 rounds to 360
	if d >= 360 {
		d = 0
	}
	return d
}
