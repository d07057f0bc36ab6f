package render

import (
	"errors"
	"math"
	"time"

	"github.com/echoflaresat/geochron/earth"
	"github.com/echoflaresat/geochron/solar"
)

// ErrEmptyTerminator is returned when there are no samples to build from.
var ErrEmptyTerminator = errors.New("empty terminator")

// DarkPole returns the latitude of the pole on the night side: the south
// pole while the sun is north of the equator, the north pole otherwise.
func DarkPole(subsolar earth.GeoPoint) float64 {
	if subsolar.Lat >= 0 {
		return -90
	}
	return 90
}

// TerminatorLatitude returns the latitude of the terminator at lon. It is
// undefined when the sun is on the equator, where the terminator runs along
// two meridians.
func TerminatorLatitude(lon float64, subsolar earth.GeoPoint) (float64, bool) {
	latRad := subsolar.Lat * math.Pi / 180
	if math.Abs(math.Sin(latRad)) < 1e-12 {
		return 0, false
	}
	dl := (lon - subsolar.Lon) * math.Pi / 180
	return math.Atan(-math.Cos(dl)/math.Tan(latRad)) * 180 / math.Pi, true
}

// NightPolygon closes a longitude-sorted terminator into a ring covering the
// night side. The ring runs along the ±180° map edges to the dark pole, so it
// never crosses itself. Coordinates are [lon, lat] pairs and the ring is
// closed.
func NightPolygon(points []earth.GeoPoint, subsolar earth.GeoPoint) ([][2]float64, error) {
	if len(points) == 0 {
		return nil, ErrEmptyTerminator
	}
	pole := DarkPole(subsolar)

	westLat, eastLat := points[0].Lat, points[len(points)-1].Lat
	if lat, ok := TerminatorLatitude(-180, subsolar); ok {
		westLat, eastLat = lat, lat
	}

	ring := make([][2]float64, 0, len(points)+5)
	ring = append(ring, [2]float64{-180, pole}, [2]float64{-180, westLat})
	for _, p := range points {
		ring = append(ring, [2]float64{p.Lon, p.Lat})
	}
	ring = append(ring,
		[2]float64{180, eastLat},
		[2]float64{180, pole},
		[2]float64{-180, pole},
	)
	return ring, nil
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// NightGeoJSON builds the overlay for t: the night polygon, the terminator
// line and the subsolar point.
func NightGeoJSON(t time.Time, resolution int) (FeatureCollection, error) {
	sun := solar.SubsolarPoint(t)
	points := solar.TerminatorAround(sun, resolution)

	ring, err := NightPolygon(points, sun)
	if err != nil {
		return FeatureCollection{}, err
	}

	line := make([][2]float64, len(points))
	for i, p := range points {
		line[i] = [2]float64{p.Lon, p.Lat}
	}

	stamp := t.UTC().Format(time.RFC3339)
	return FeatureCollection{
		Type: "FeatureCollection",
		Features: []Feature{
			{
				Type:       "Feature",
				Geometry:   Geometry{Type: "Polygon", Coordinates: [][][2]float64{ring}},
				Properties: map[string]any{"kind": "night", "time": stamp},
			},
			{
				Type:       "Feature",
				Geometry:   Geometry{Type: "LineString", Coordinates: line},
				Properties: map[string]any{"kind": "terminator", "time": stamp},
			},
			{
				Type:       "Feature",
				Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{sun.Lon, sun.Lat}},
				Properties: map[string]any{"kind": "subsolar", "time": stamp},
			},
		},
	}, nil
}
