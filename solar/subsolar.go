package solar

import (
	"time"

	"github.com/echoflaresat/geochron/earth"
)

// SubsolarPoint returns the point where the sun is at zenith at t. Its
// latitude is exactly the solar declination.
func SubsolarPoint(t time.Time) earth.GeoPoint {
	return Compute(t).Subsolar(t)
}

// Subsolar places the sun for the instant g was computed from. The subsolar
// meridian is the one whose true solar time is noon:
// UTC minutes + EoT + 4·lon = 720.
func (g Geometry) Subsolar(t time.Time) earth.GeoPoint {
	u := t.UTC()
	solarTime := float64(u.Hour()*60+u.Minute()) + float64(u.Second())/60
	lon := (720 - solarTime - g.EquationOfTime) / 4

	return earth.GeoPoint{
		Lat: g.Declination,
		Lon: earth.NormalizeLongitude(lon),
	}
}
