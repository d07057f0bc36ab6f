package earth

import (
	"math"
	"testing"
	"time"
)

func TestNormalizeLongitude(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{181, -179},
		{-181, 179},
		{360, 0},
		{540, 180},
		{-540, 180},
		{725.5, 5.5},
		{-0.25, -0.25},
		{1e6, -80},
	}

	for _, c := range cases {
		got := NormalizeLongitude(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("NormalizeLongitude(%v) = %v, want %v", c.in, got, c.want)
		}
		if got <= -180 || got > 180 {
			t.Errorf("NormalizeLongitude(%v) = %v outside (-180, 180]", c.in, got)
		}
	}

	if !math.IsNaN(NormalizeLongitude(math.NaN())) {
		t.Error("NaN input must stay NaN")
	}
	if !math.IsNaN(NormalizeLongitude(math.Inf(1))) {
		t.Error("Inf input must yield NaN")
	}
}

func TestNormalize360(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{359.5, 359.5},
		{-1, 359},
		{720.25, 0.25},
		{-1e-20, 0},
		{8565.35, 285.35},
	}

	for _, c := range cases {
		got := Normalize360(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Normalize360(%v) = %v, want %v", c.in, got, c.want)
		}
		if got < 0 || got >= 360 {
			t.Errorf("Normalize360(%v) = %v outside [0, 360)", c.in, got)
		}
	}
}

func TestGeoPointValid(t *testing.T) {
	if !(GeoPoint{Lat: 90, Lon: -180}).Valid() {
		t.Error("pole on the antimeridian must be valid")
	}
	if (GeoPoint{Lat: 90.5, Lon: 0}).Valid() {
		t.Error("latitude beyond the pole must be invalid")
	}
	if (GeoPoint{Lat: 0, Lon: math.NaN()}).Valid() {
		t.Error("NaN longitude must be invalid")
	}
}

func TestAngularDistance(t *testing.T) {
	a := GeoPoint{Lat: 0, Lon: 0}
	if d := a.AngularDistance(GeoPoint{Lat: 90, Lon: 0}); math.Abs(d-90) > 1e-9 {
		t.Errorf("equator to pole = %v, want 90", d)
	}
	if d := a.AngularDistance(GeoPoint{Lat: 0, Lon: 180}); math.Abs(d-180) > 1e-9 {
		t.Errorf("antipode = %v, want 180", d)
	}
}

func TestSunDirectionIsUnit(t *testing.T) {
	ts := time.Date(2024, 8, 8, 9, 23, 0, 0, time.UTC)
	v := SunDirectionECEF(ts)
	if math.Abs(v.Norm()-1) > 1e-9 {
		t.Fatalf("|sun| = %v, want 1", v.Norm())
	}
}

func TestReferenceSubsolarPoint(t *testing.T) {
	cases := []struct {
		name   string
		ts     time.Time
		lat    float64
		lon    float64
		latTol float64
		lonTol float64
	}{
		// June solstice, noon UTC: sun over the Tropic of Cancer near Greenwich.
		// The equation of time is about -1.7 min, so the sun sits slightly east.
		{"june solstice", time.Date(2023, 6, 21, 12, 0, 0, 0, time.UTC), 23.44, 0.43, 0.05, 0.5},
		// December solstice, 18:00 UTC: sun over the Tropic of Capricorn, near 90°W.
		{"december solstice", time.Date(2023, 12, 22, 18, 0, 0, 0, time.UTC), -23.44, -90.4, 0.05, 0.5},
		// March equinox instant: sun on the equator over the Pacific.
		{"march equinox", time.Date(2023, 3, 20, 21, 24, 0, 0, time.UTC), 0, -139.1, 0.05, 1.0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := ReferenceSubsolarPoint(c.ts)
			if math.Abs(p.Lat-c.lat) > c.latTol {
				t.Errorf("lat = %.3f, want %.3f ± %.2f", p.Lat, c.lat, c.latTol)
			}
			if math.Abs(NormalizeLongitude(p.Lon-c.lon)) > c.lonTol {
				t.Errorf("lon = %.3f, want %.3f ± %.2f", p.Lon, c.lon, c.lonTol)
			}
		})
	}
}
