package proximity

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/geocheck/internal/geo"
)

// DistancePrecision is the number of decimal places kept on distances.
const DistancePrecision = 1

// DefaultK is the neighbour count the CLI uses when --k is not given.
const DefaultK = 8

// Neighbor is one entry of an area's neighbour list.
type Neighbor struct {
	Key        string  `json:"key"`
	DistanceKm float64 `json:"distanceKm"`
}

// Entry is the neighbour list for one area.
type Entry struct {
	AreaKey   string     `json:"areaKey"`
	Geohash   string     `json:"geohash"`
	Neighbors []Neighbor `json:"neighbors"`
}

// Options configures Build.
type Options struct {
	// K is the maximum number of neighbours per area. It must be positive.
	K int

	// Workers bounds concurrency. Zero selects GOMAXPROCS.
	Workers int
}

// Build computes the k nearest neighbours of every area with coordinates.
//
// Neighbours are sorted by distance ascending, distances rounded to
// DistancePrecision decimals, ties broken by key ascending. Entries are
// returned sorted by area key.
func Build(ctx context.Context, areas map[string]geo.Area, opts Options) ([]Entry, error) {
	k := opts.K
	if k <= 0 {
		return nil, fmt.Errorf("proximity: k must be positive, got %d", k)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	located := locatedAreas(areas)
	entries := make([]Entry, len(located))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range located {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			entries[i] = nearest(located, i, k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// locatedAreas returns the areas with coordinates, sorted by key.
func locatedAreas(areas map[string]geo.Area) []geo.Area {
	out := make([]geo.Area, 0, len(areas))
	for _, a := range areas {
		if a.HasCoords() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// nearest computes the entry for located[src].
func nearest(located []geo.Area, src, k int) Entry {
	origin := located[src]
	cands := make([]Neighbor, 0, len(located)-1)
	for j, other := range located {
		if j == src {
			continue
		}
		d := geo.Haversine(*origin.Point, *other.Point)
		cands = append(cands, Neighbor{Key: other.Key, DistanceKm: geo.RoundTo(d, DistancePrecision)})
	}

	// located is key-sorted, so a stable sort on distance alone keeps ties
	// in key order.
	sort.SliceStable(cands, func(a, b int) bool {
		return cands[a].DistanceKm < cands[b].DistanceKm
	})
	if len(cands) > k {
		cands = cands[:k]
	}

	return Entry{
		AreaKey:   origin.Key,
		Geohash:   geohash.Encode(origin.Point.Lat, origin.Point.Lng),
		Neighbors: cands,
	}
}
