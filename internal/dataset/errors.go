package dataset

import "fmt"

// Error code constants for fatal load errors.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeReadFailed     = "E004" // Source could not be read
	ErrCodeNotFound       = "E005" // Source path not found
	ErrCodeMalformed      = "E008" // Source is not valid JSON of the expected shape
	ErrCodeDuplicateArea  = "E009" // Two area records share a canonical key
	ErrCodeDuplicateGroup = "E010" // Two clusters share a canonical key
	ErrCodeMissingSource  = "E011" // A required source path was not provided
)

// Warning codes for skipped or repaired records.
const (
	WarnMissingKey        = "W001" // Record has no usable key; skipped
	WarnPartialCoords     = "W002" // Only one of lat/lng present; coordinates dropped
	WarnCoordsOutOfRange  = "W003" // Coordinates outside WGS 84 range; dropped
	WarnMalformedRecord   = "W004" // Record does not decode; skipped
	WarnDuplicateMember   = "W005" // Cluster lists the same member twice
	WarnClusterMismatch   = "W006" // Area's clusterKey disagrees with membership
	WarnSelfReference     = "W007" // Area lists itself as a neighbour
	WarnDuplicateNeighbor = "W008" // Neighbour listed twice
	WarnKeyCollision      = "W009" // Distinct raw adjacency keys canonicalize to one key
	WarnUnknownCluster    = "W010" // Area references a cluster that does not exist
	WarnMultipleClusters  = "W011" // Area is a member of more than one cluster
)

// Source names used in errors and warnings.
const (
	SourceAreas     = "areas"
	SourceClusters  = "clusters"
	SourceAdjacency = "adjacency"
)

// LoadError is a fatal error that aborts loading before any analysis runs.
type LoadError struct {
	Code    string
	Source  string // SourceAreas, SourceClusters or SourceAdjacency
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Source, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Warning describes a record that was skipped or partially repaired.
type Warning struct {
	Source  string `json:"source"`
	Index   int    `json:"index"` // position in an array source; -1 for the adjacency map
	Key     string `json:"key,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Key != "" {
		return fmt.Sprintf("%s %s[%d] %q: %s", w.Code, w.Source, w.Index, w.Key, w.Message)
	}
	return fmt.Sprintf("%s %s[%d]: %s", w.Code, w.Source, w.Index, w.Message)
}
