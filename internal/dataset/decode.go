package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/geocheck/internal/geo"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// areaRecord is the on-disk shape of an area.
type areaRecord struct {
	Key        string   `json:"key" validate:"required"`
	Lat        *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng        *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	ClusterKey string   `json:"clusterKey"`
}

// clusterRecord is the on-disk shape of a cluster. Children are decoded
// lazily so that one bad child does not discard its siblings.
type clusterRecord struct {
	Key            string            `json:"key" validate:"required"`
	MemberAreaKeys []string          `json:"memberAreaKeys"`
	Children       []json.RawMessage `json:"children"`
}

// decodeAreas parses the area list. Duplicate canonical keys are fatal.
func decodeAreas(data []byte, b *builder) ([]geo.Area, error) {
	raws, err := decodeArray(SourceAreas, data)
	if err != nil {
		return nil, err
	}

	areas := make([]geo.Area, 0, len(raws))
	seen := make(map[string]int, len(raws))
	for i, raw := range raws {
		var rec areaRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			b.warn(SourceAreas, i, "", WarnMalformedRecord, "cannot decode area: %v", err)
			continue
		}
		rec.Key = geo.CanonicalKey(rec.Key)
		rec.ClusterKey = geo.CanonicalKey(rec.ClusterKey)

		point, ok := b.checkArea(i, &rec)
		if !ok {
			continue
		}
		if first, dup := seen[rec.Key]; dup {
			return nil, &LoadError{
				Code:    ErrCodeDuplicateArea,
				Source:  SourceAreas,
				Message: fmt.Sprintf("duplicate area key %q at records %d and %d", rec.Key, first, i),
			}
		}
		seen[rec.Key] = i
		areas = append(areas, geo.Area{Key: rec.Key, Point: point, ClusterKey: rec.ClusterKey})
	}
	return areas, nil
}

// checkArea validates a canonicalized area record. It returns the area's
// point (nil if coordinates are absent or were dropped) and false if the
// record must be skipped entirely.
func (b *builder) checkArea(i int, rec *areaRecord) (*geo.Point, bool) {
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			b.warn(SourceAreas, i, rec.Key, WarnMalformedRecord, "invalid area: %v", err)
			return nil, false
		}
		for _, fe := range verrs {
			switch fe.Field() {
			case "Key":
				b.warn(SourceAreas, i, "", WarnMissingKey, "area has no key")
				return nil, false
			case "Lat", "Lng":
				b.warn(SourceAreas, i, rec.Key, WarnCoordsOutOfRange,
					"%s outside %s=%s (lat=%s, lng=%s); coordinates dropped",
					strings.ToLower(fe.Field()), fe.Tag(), fe.Param(), fmtCoord(rec.Lat), fmtCoord(rec.Lng))
				return nil, true
			}
		}
	}

	if (rec.Lat == nil) != (rec.Lng == nil) {
		b.warn(SourceAreas, i, rec.Key, WarnPartialCoords, "only one of lat/lng present; coordinates dropped")
		return nil, true
	}
	return geo.NewPoint(rec.Lat, rec.Lng), true
}

// decodeClusters parses the cluster forest.
func decodeClusters(data []byte, b *builder) ([]*geo.Cluster, error) {
	raws, err := decodeArray(SourceClusters, data)
	if err != nil {
		return nil, err
	}

	roots := make([]*geo.Cluster, 0, len(raws))
	for i, raw := range raws {
		if c := b.decodeCluster(i, raw); c != nil {
			roots = append(roots, c)
		}
	}
	return roots, nil
}

// decodeCluster decodes one cluster and its subtree. A cluster that fails
// to decode or has no key is skipped together with its children.
func (b *builder) decodeCluster(index int, raw json.RawMessage) *geo.Cluster {
	var rec clusterRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		b.warn(SourceClusters, index, "", WarnMalformedRecord, "cannot decode cluster: %v", err)
		return nil
	}
	rec.Key = geo.CanonicalKey(rec.Key)
	if err := validate.Struct(&rec); err != nil {
		b.warn(SourceClusters, index, "", WarnMissingKey, "cluster has no key; subtree skipped")
		return nil
	}

	c := &geo.Cluster{Key: rec.Key}
	seen := make(map[string]bool, len(rec.MemberAreaKeys))
	for _, m := range geo.CanonicalKeys(rec.MemberAreaKeys) {
		if seen[m] {
			b.warn(SourceClusters, index, rec.Key, WarnDuplicateMember, "member %q listed more than once", m)
			continue
		}
		seen[m] = true
		c.MemberAreaKeys = append(c.MemberAreaKeys, m)
	}
	for j, childRaw := range rec.Children {
		if child := b.decodeCluster(j, childRaw); child != nil {
			c.Children = append(c.Children, child)
		}
	}
	return c
}

// decodeAdjacency parses and normalizes the adjacency map: canonical keys,
// no self-references, no duplicate neighbours, neighbour lists sorted.
func decodeAdjacency(data []byte, b *builder) (geo.Adjacency, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeMalformed, Source: SourceAdjacency, Message: "expected a JSON object of key → [keys]", Err: err}
	}
	if raw == nil {
		return nil, &LoadError{Code: ErrCodeMalformed, Source: SourceAdjacency, Message: "expected a JSON object, got null"}
	}

	rawKeys := make([]string, 0, len(raw))
	for k := range raw {
		rawKeys = append(rawKeys, k)
	}
	sort.Strings(rawKeys)

	adj := make(geo.Adjacency, len(raw))
	origin := make(map[string]string, len(raw))
	for _, rk := range rawKeys {
		key := geo.CanonicalKey(rk)
		if key == "" {
			b.warn(SourceAdjacency, -1, "", WarnMissingKey, "adjacency entry with empty key skipped")
			continue
		}
		var neighbours []string
		if err := json.Unmarshal(raw[rk], &neighbours); err != nil {
			b.warn(SourceAdjacency, -1, key, WarnMalformedRecord, "neighbour list is not an array of strings: %v", err)
			continue
		}
		if prev, ok := origin[key]; ok {
			b.warn(SourceAdjacency, -1, key, WarnKeyCollision, "keys %q and %q both canonicalize to %q; lists merged", prev, rk, key)
		} else {
			origin[key] = rk
			adj[key] = []string{}
		}

		for _, n := range geo.CanonicalKeys(neighbours) {
			switch {
			case n == key:
				b.warn(SourceAdjacency, -1, key, WarnSelfReference, "self-reference removed")
			case adj.Has(key, n):
				b.warn(SourceAdjacency, -1, key, WarnDuplicateNeighbor, "neighbour %q listed more than once", n)
			default:
				adj[key] = append(adj[key], n)
			}
		}
	}

	for k := range adj {
		sort.Strings(adj[k])
	}
	return adj, nil
}

// decodeArray splits a top-level JSON array into raw records.
func decodeArray(source string, data []byte) ([]json.RawMessage, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &LoadError{Code: ErrCodeMalformed, Source: source, Message: "expected a JSON array of records", Err: err}
	}
	if raws == nil {
		return nil, &LoadError{Code: ErrCodeMalformed, Source: source, Message: "expected a JSON array, got null"}
	}
	return raws, nil
}

func fmtCoord(v *float64) string {
	if v == nil {
		return "none"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
