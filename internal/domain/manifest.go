package domain

// Instruction is one turn-by-turn step within a leg.
type Instruction struct {
	Text            string  `json:"text"`
	Name            string  `json:"name,omitempty"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// LegDirections is what a directions source returns for one origin→destination pair.
type LegDirections struct {
	DistanceMeters  float64
	DurationSeconds float64
	Instructions    []Instruction
	// Encoded polyline, as returned by the directions source.
	Geometry string
}

// ManifestLeg is one entry of the driver manifest.
type ManifestLeg struct {
	Seq             int
	FromStop        int
	ToStop          int
	DistanceMeters  float64
	DurationSeconds float64
	Instructions    []Instruction
	Geometry        string
	// Unavailable marks a leg whose directions lookup failed; distance and
	// duration then fall back to matrix values (or Unreachable).
	Unavailable bool
	Error       string
}

// Manifest is the ordered list of legs for the final route.
type Manifest struct {
	Legs    []ManifestLeg
	Partial bool
}

// Status carries the soft warnings attached to an otherwise valid result.
type Status struct {
	Degenerate      bool
	Capped          bool
	PartialManifest bool
	Warnings        []string
}
