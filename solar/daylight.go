package solar

import (
	"math"
	"time"
)

// Solar depressions below the horizon, in degrees.
const (
	// StandardDepression defines sunrise/sunset: refraction plus the solar
	// disk's radius.
	StandardDepression = 0.833
	Civil              = 6.0
	Nautical           = 12.0
	Astronomical       = 18.0
)

const minutesPerDay = 1440.0

// Polar classifies a day whose hour-angle argument left [-1, 1].
type Polar int

const (
	PolarNone  Polar = iota
	PolarDay         // sun never sets
	PolarNight       // sun never rises
)

func (p Polar) String() string {
	switch p {
	case PolarDay:
		return "polar-day"
	case PolarNight:
		return "polar-night"
	default:
		return "none"
	}
}

func (p Polar) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// DayWindow is the sunlit span of a day at one location, in minutes since
// UTC midnight. Sunrise may be negative and Sunset may exceed 1440 away from
// Greenwich.
type DayWindow struct {
	HourAngle float64 `json:"hourAngle"`
	SolarNoon float64 `json:"solarNoon"`
	Sunrise   float64 `json:"sunrise"`
	Sunset    float64 `json:"sunset"`
	Polar     Polar   `json:"polar"`
}

// HourAngleSunrise returns the sunrise hour angle in degrees for a latitude,
// solar declination and depression. The acos argument is clamped, so polar
// day yields 180 and polar night yields 0.
func HourAngleSunrise(lat, dec, depression float64) float64 {
	ha, _ := hourAngle(lat, dec, depression)
	return ha
}

func hourAngle(lat, dec, depression float64) (float64, Polar) {
	latRad := radians(lat)
	decRad := radians(dec)
	arg := math.Cos(radians(90+depression))/(math.Cos(latRad)*math.Cos(decRad)) -
		math.Tan(latRad)*math.Tan(decRad)

	polar := PolarNone
	switch {
	case arg >= 1:
		arg, polar = 1, PolarNight
	case arg <= -1:
		arg, polar = -1, PolarDay
	}
	return degrees(math.Acos(arg)), polar
}

// SolarNoon returns solar noon in minutes since UTC midnight.
func SolarNoon(lon, equationOfTime float64) float64 {
	return 720 - 4*lon - equationOfTime
}

// SunriseTime is solar noon minus the hour angle expressed in minutes.
func SunriseTime(solarNoon, hourAngle float64) float64 {
	return solarNoon - hourAngle*4
}

// SunsetTime is solar noon plus the hour angle expressed in minutes.
func SunsetTime(solarNoon, hourAngle float64) float64 {
	return solarNoon + hourAngle*4
}

// Window computes the day window at lat/lon for the solar geometry g.
func (g Geometry) Window(lat, lon, depression float64) DayWindow {
	ha, polar := hourAngle(lat, g.Declination, depression)
	noon := SolarNoon(lon, g.EquationOfTime)
	return DayWindow{
		HourAngle: ha,
		SolarNoon: noon,
		Sunrise:   SunriseTime(noon, ha),
		Sunset:    SunsetTime(noon, ha),
		Polar:     polar,
	}
}

// Contains reports whether minutes since UTC midnight fall inside the window.
// The comparison wraps around the day so that windows spilling past either
// midnight are honoured.
func (w DayWindow) Contains(minutes float64) bool {
	switch w.Polar {
	case PolarDay:
		return true
	case PolarNight:
		return false
	}
	for _, m := range [...]float64{minutes - minutesPerDay, minutes, minutes + minutesPerDay} {
		if w.Sunrise <= m && m <= w.Sunset {
			return true
		}
	}
	return false
}

// Length returns the daylight duration in minutes.
func (w DayWindow) Length() float64 {
	return w.Sunset - w.Sunrise
}

// MinutesOfDay returns the UTC clock reading of t as whole minutes since
// midnight.
func MinutesOfDay(t time.Time) float64 {
	u := t.UTC()
	return float64(u.Hour()*60 + u.Minute())
}

// DayWindowAt computes the sunrise/sunset window at lat/lon for the day of t,
// using the standard depression.
func DayWindowAt(lat, lon float64, t time.Time) DayWindow {
	return Compute(t).Window(lat, lon, StandardDepression)
}

// IsDaylight reports whether the sun is above the standard sunrise/sunset
// horizon at lat/lon at instant t.
func IsDaylight(lat, lon float64, t time.Time) bool {
	return IsDaylightAt(lat, lon, t, StandardDepression)
}

// IsDaylightAt is IsDaylight with a custom solar depression, e.g. Civil for
// civil twilight.
func IsDaylightAt(lat, lon float64, t time.Time, depression float64) bool {
	return Compute(t).Window(lat, lon, depression).Contains(MinutesOfDay(t))
}
