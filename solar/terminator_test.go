package solar

import (
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/echoflaresat/geochron/earth"
)

func TestTerminatorPointCount(t *testing.T) {
	ts := mustParse(t, "2024-08-08T09:23:00Z")
	for _, res := range []int{1, 4, 90, 360, 720} {
		pts := Terminator(ts, res)
		if len(pts) != res+1 {
			t.Errorf("resolution %d: %d points, want %d", res, len(pts), res+1)
		}
	}
}

func TestTerminatorDefaultResolution(t *testing.T) {
	ts := mustParse(t, "2024-08-08T09:23:00Z")
	for _, res := range []int{0, -5} {
		if n := len(Terminator(ts, res)); n != DefaultResolution+1 {
			t.Errorf("resolution %d: %d points, want %d", res, n, DefaultResolution+1)
		}
	}
}

func TestTerminatorSortedAndFinite(t *testing.T) {
	start := mustParse(t, "2023-01-01T00:00:00Z")
	for h := 0; h < 24*365; h += 73 {
		ts := start.Add(time.Duration(h) * time.Hour)
		pts := Terminator(ts, 360)
		for i, p := range pts {
			if !p.Valid() {
				t.Fatalf("%s: point %d %+v is not a valid position", ts, i, p)
			}
			if i > 0 && pts[i-1].Lon > p.Lon {
				t.Fatalf("%s: longitudes not sorted at %d: %v > %v", ts, i, pts[i-1].Lon, p.Lon)
			}
		}
	}
}

func TestTerminatorIsNinetyDegreesFromSun(t *testing.T) {
	for _, s := range []string{
		"2023-01-01T00:00:00Z",
		"2023-03-20T21:24:00Z",
		"2023-06-21T12:00:00Z",
		"2024-08-08T09:23:00Z",
	} {
		ts := mustParse(t, s)
		sun := SubsolarPoint(ts)
		for _, p := range Terminator(ts, 720) {
			if d := sun.AngularDistance(p); math.Abs(d-90) > 1e-9 {
				t.Fatalf("%s: %+v is %.12f° from the subsolar point", s, p, d)
			}
		}
	}
}

func TestTerminatorReachesExtremeLatitude(t *testing.T) {
	// The great circle's highest point sits 90° - |dec| from the pole.
	ts := mustParse(t, "2023-06-21T12:00:00Z")
	dec := Compute(ts).Declination

	maxLat := -90.0
	for _, p := range Terminator(ts, 3600) {
		maxLat = math.Max(maxLat, p.Lat)
	}
	if want := 90 - dec; math.Abs(maxLat-want) > 0.01 {
		t.Fatalf("max terminator latitude = %.4f, want %.4f", maxLat, want)
	}
}

func TestTerminatorFollowsTheSun(t *testing.T) {
	ts := mustParse(t, "2024-08-08T09:00:00Z")
	a := Terminator(ts, 360)
	b := Terminator(ts.Add(6*time.Hour), 360)
	if reflect.DeepEqual(a, b) {
		t.Fatal("terminator did not move over six hours")
	}
}

func TestTerminatorIsIdempotent(t *testing.T) {
	ts := mustParse(t, "2024-08-08T09:23:00Z")
	if !reflect.DeepEqual(Terminator(ts, 500), Terminator(ts, 500)) {
		t.Fatal("repeated calls returned different curves")
	}
}

func TestTerminatorConcurrentCallers(t *testing.T) {
	ts := mustParse(t, "2024-08-08T09:23:00Z")
	want := Terminator(ts, 360)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !reflect.DeepEqual(Terminator(ts, 360), want) {
				errs <- "concurrent terminator differs"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}

func TestTerminatorAroundPole(t *testing.T) {
	// Sun over the north pole: the terminator is the equator.
	pts := TerminatorAround(earth.GeoPoint{Lat: 90, Lon: 0}, 8)
	if len(pts) != 9 {
		t.Fatalf("got %d points, want 9", len(pts))
	}
	for _, p := range pts {
		if math.Abs(p.Lat) > 1e-9 {
			t.Fatalf("point %+v is off the equator", p)
		}
	}
}
