package service

import (
	"math"
	"sort"

	"marque/internal/domain/model"
)

// bodies holds the reference positions used to bucket event coordinates.
// TODO: replace with surveyed coordinates once the mapping crew publishes them.
var bodies = map[string]model.Coord{
	"Crusader":  {X: 0, Y: 0, Z: 0},
	"Daymar":    {X: 10000, Y: 5000, Z: 0},
	"Yela":      {X: -8000, Y: -3000, Z: 2000},
	"Cellin":    {X: 4000, Y: -7000, Z: -1000},
	"MicroTech": {X: 20000, Y: 10000, Z: 0},
	"Bennu":     {X: -15000, Y: 12000, Z: 3000},
}

// Hotspot is one aggregated bucket of confirmed event activity.
type Hotspot struct {
	Body        string       `json:"body"`
	Count       int          `json:"count"`
	SampleCoord *model.Coord `json:"sample_coord"`
}

// nearestBody returns the closest reference body to c and the distance to it.
func nearestBody(c model.Coord) (string, float64) {
	best := ""
	bestDist := math.Inf(1)
	for name, b := range bodies {
		d := math.Sqrt((c.X-b.X)*(c.X-b.X) + (c.Y-b.Y)*(c.Y-b.Y) + (c.Z-b.Z)*(c.Z-b.Z))
		if d < bestDist {
			best = name
			bestDist = d
		}
	}
	return best, bestDist
}

// bucketCoords groups coordinates by nearest body. Each bucket keeps the
// coordinate closest to its body as a representative sample.
func bucketCoords(coords []model.Coord) []Hotspot {
	counts := map[string]int{}
	samples := map[string]model.Coord{}
	sampleDists := map[string]float64{}

	for _, c := range coords {
		body, dist := nearestBody(c)
		counts[body]++
		if prev, ok := sampleDists[body]; !ok || dist < prev {
			samples[body] = c
			sampleDists[body] = dist
		}
	}

	hotspots := make([]Hotspot, 0, len(counts))
	for body, count := range counts {
		sample := samples[body]
		hotspots = append(hotspots, Hotspot{
			Body:        body,
			Count:       count,
			SampleCoord: &sample,
		})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Count != hotspots[j].Count {
			return hotspots[i].Count > hotspots[j].Count
		}
		return hotspots[i].Body < hotspots[j].Body
	})
	return hotspots
}
