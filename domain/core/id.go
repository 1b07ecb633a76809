package core

import (
	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID identifies one analysis run
type RunID ID

// String returns the string representation
func (id RunID) String() string { return ID(id).String() }

// Artifact represents any output of an analysis run
type Artifact struct {
	ID        ID           `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Path      string       `json:"path,omitempty"`
	Payload   interface{}  `json:"payload,omitempty"`
	CreatedAt Timestamp    `json:"created_at"`
}

// ArtifactKind defines types of artifacts
type ArtifactKind string

const (
	// ArtifactDescriptives is the output of the descriptive statistics stage.
	ArtifactDescriptives ArtifactKind = "descriptives"
	// ArtifactModelSuite captures a fitted family of regression models.
	ArtifactModelSuite ArtifactKind = "model_suite"
	// ArtifactFigure is a rendered chart on disk.
	ArtifactFigure ArtifactKind = "figure"
	// ArtifactReport is a rendered Markdown or HTML report on disk.
	ArtifactReport ArtifactKind = "report"
	// ArtifactRunManifest captures audit metadata for a run (counts, paths, runtime).
	ArtifactRunManifest ArtifactKind = "run_manifest"
)
