// Package solar computes the sun's position, the daylight state of any
// location and the day/night terminator for an instant, using the NOAA
// low-precision solar position series.
//
// Every function is pure and recomputes its result from the instant; nothing
// is cached, so callers can invoke them concurrently and on every clock tick.
package solar

import (
	"math"
	"time"

	"github.com/echoflaresat/geochron/earth"
)

const (
	unixEpochJD  = 2440587.5 // Julian day of 1970-01-01T00:00:00Z
	j2000JD      = 2451545.0
	daysPerCent  = 36525.0
	msPerDay     = 86400000.0
	degPerRadian = 180.0 / math.Pi
)

// Geometry holds the intermediate solar quantities for one instant. Angles are
// in degrees, EquationOfTime in minutes and Eccentricity is unitless.
type Geometry struct {
	JulianDay          float64 `json:"julianDay"`
	JulianCentury      float64 `json:"julianCentury"`
	MeanLongitude      float64 `json:"geometricMeanLongitude"`
	MeanAnomaly        float64 `json:"geometricMeanAnomaly"`
	Eccentricity       float64 `json:"orbitEccentricity"`
	EquationOfCenter   float64 `json:"equationOfCenter"`
	TrueLongitude      float64 `json:"trueLongitude"`
	ApparentLongitude  float64 `json:"apparentLongitude"`
	ObliquityCorrected float64 `json:"obliqueCorrected"`
	Declination        float64 `json:"declination"`
	EquationOfTime     float64 `json:"equationOfTime"`
}

// Compute derives the solar geometry for t.
func Compute(t time.Time) Geometry {
	jd := JulianDay(t)
	jc := JulianCentury(jd)

	l0 := MeanLongitude(jc)
	m := MeanAnomaly(jc)
	e := Eccentricity(jc)
	c := EquationOfCenter(jc, m)
	trueLon := TrueLongitude(l0, c)
	appLon := ApparentLongitude(trueLon, jc)
	obliq := ObliquityCorrected(jc)

	return Geometry{
		JulianDay:          jd,
		JulianCentury:      jc,
		MeanLongitude:      l0,
		MeanAnomaly:        m,
		Eccentricity:       e,
		EquationOfCenter:   c,
		TrueLongitude:      trueLon,
		ApparentLongitude:  appLon,
		ObliquityCorrected: obliq,
		Declination:        Declination(appLon, obliq),
		EquationOfTime:     EquationOfTime(jc, l0, m, e),
	}
}

// JulianDay converts t to a Julian day from its millisecond epoch value.
func JulianDay(t time.Time) float64 {
	return unixEpochJD + float64(t.UnixMilli())/msPerDay
}

// JulianCentury returns jd as Julian centuries since J2000.0.
func JulianCentury(jd float64) float64 {
	return (jd - j2000JD) / daysPerCent
}

// MeanLongitude is the sun's geometric mean longitude in [0, 360).
func MeanLongitude(jc float64) float64 {
	return earth.Normalize360(280.46646 + jc*(36000.76983+jc*0.0003032))
}

// MeanAnomaly is the sun's geometric mean anomaly. It is not normalised.
func MeanAnomaly(jc float64) float64 {
	return 357.52911 + jc*(35999.05029-0.0001537*jc)
}

// Eccentricity of the Earth's orbit.
func Eccentricity(jc float64) float64 {
	return 0.016708634 - jc*(0.000042037+0.0000001267*jc)
}

// EquationOfCenter for mean anomaly m.
func EquationOfCenter(jc, m float64) float64 {
	mrad := radians(m)
	return math.Sin(mrad)*(1.914602-jc*(0.004817+0.000014*jc)) +
		math.Sin(2*mrad)*(0.019993-0.000101*jc) +
		math.Sin(3*mrad)*0.000289
}

// TrueLongitude of the sun.
func TrueLongitude(meanLon, center float64) float64 {
	return meanLon + center
}

// ApparentLongitude corrects the true longitude for nutation and aberration.
func ApparentLongitude(trueLon, jc float64) float64 {
	return trueLon - 0.00569 - 0.00478*math.Sin(radians(125.04-1934.136*jc))
}

// ObliquityCorrected is the obliquity of the ecliptic used by Declination and
// EquationOfTime.
func ObliquityCorrected(jc float64) float64 {
	return 23.439291 - jc*(0.013004167+jc*(0.0000001639+jc*0.0000005036))
}

// Declination of the sun for an apparent longitude and obliquity.
func Declination(appLon, obliquity float64) float64 {
	return degrees(math.Asin(math.Sin(radians(obliquity)) * math.Sin(radians(appLon))))
}

// EquationOfTime is apparent minus mean solar time, in minutes.
func EquationOfTime(jc, meanLon, meanAnomaly, ecc float64) float64 {
	l0 := radians(meanLon)
	m := radians(meanAnomaly)
	e := ecc

	y := math.Tan(radians(ObliquityCorrected(jc)) / 2)
	y *= y

	return 4 * degrees(
		y*math.Sin(2*l0)-
			2*e*math.Sin(m)+
			4*e*y*math.Sin(m)*math.Cos(2*l0)-
			0.5*y*y*math.Sin(4*l0)-
			1.25*e*e*math.Sin(2*m),
	)
}

func radians(deg float64) float64 { return deg / degPerRadian }

func degrees(rad float64) float64 { return rad * degPerRadian }

func cosDeg(deg float64) float64 { return math.Cos(radians(deg)) }

func sinDeg(deg float64) float64 { return math.Sin(radians(deg)) }
