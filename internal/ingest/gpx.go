package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tkrajina/gpxgo/gpx"

	"runlog/internal/store"
)

// ParseGPX decodes GPX tracks, falling back to routes when no track has points.
// Heart rate, cadence and speed are read from Garmin TrackPointExtension nodes.
// Points without a timestamp are dropped.
func ParseGPX(r io.Reader) (*Parsed, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading gpx: %w", err)
	}
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding gpx: %w", err)
	}

	var points []store.Trackpoint
	add := func(p *gpx.GPXPoint) {
		if p.Timestamp.IsZero() {
			return
		}
		lat, lon := p.Point.Latitude, p.Point.Longitude
		tp := store.Trackpoint{
			Time: p.Timestamp.UTC(),
			Lat:  &lat,
			Lon:  &lon,
		}
		for _, node := range p.Extensions.Nodes {
			applyExtension(&tp, node)
		}
		points = append(points, tp)
	}

	sport := ""
	for _, track := range g.Tracks {
		if sport == "" {
			sport = track.Type
		}
		for _, segment := range track.Segments {
			for i := range segment.Points {
				add(&segment.Points[i])
			}
		}
	}
	if len(points) == 0 {
		for _, route := range g.Routes {
			for i := range route.Points {
				add(&route.Points[i])
			}
		}
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("gpx: %w: no timed points", ErrNoActivity)
	}

	w := store.Workout{
		Sport:     normalizeSport(sport),
		Notes:     strings.TrimSpace(g.Description),
		DistanceM: g.Length2D(),
	}
	fillSummary(&w, points)
	return &Parsed{Workout: w, Points: points}, nil
}

// applyExtension walks a TrackPointExtension subtree and copies hr, cad and speed
func applyExtension(tp *store.Trackpoint, node gpx.ExtensionNode) {
	value := strings.TrimSpace(node.Data)
	switch strings.ToLower(node.XMLName.Local) {
	case "hr":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			tp.HeartRate = &v
		}
	case "cad", "cadence":
		if v, err := strconv.Atoi(value); err == nil && v >= 0 {
			tp.Cadence = &v
		}
	case "speed":
		if v, err := strconv.ParseFloat(value, 64); err == nil && v >= 0 {
			tp.Speed = &v
		}
	}
	for _, child := range node.Nodes {
		applyExtension(tp, child)
	}
}

// normalizeSport maps GPX track types such as "running" or "9" to a sport name
func normalizeSport(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "running", "run", "9":
		return "Running"
	case "cycling", "biking", "ride", "1":
		return "Biking"
	case "walking", "walk", "hiking":
		return "Walking"
	}
	return s
}
