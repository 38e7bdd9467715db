package pipeline

import (
	"contour-counter/internal/debug/timing"
	"contour-counter/internal/opencv/safe"
	"contour-counter/internal/processing/contours"
)

// Artifact names in production order.
const (
	ArtifactImage     = "image"
	ArtifactGray      = "gray"
	ArtifactEdged     = "edged"
	ArtifactThresh    = "thresh"
	ArtifactAnnotated = "contours-annotated"
	ArtifactEroded    = "eroded"
	ArtifactDilated   = "dilated"
	ArtifactMasked    = "masked-output"
)

// ArtifactNames lists every artifact a successful run produces.
func ArtifactNames() []string {
	return []string{
		ArtifactImage,
		ArtifactGray,
		ArtifactEdged,
		ArtifactThresh,
		ArtifactAnnotated,
		ArtifactEroded,
		ArtifactDilated,
		ArtifactMasked,
	}
}

type Artifact struct {
	Name string
	Mat  *safe.Mat
}

// Result owns every Mat produced by a run until Close.
type Result struct {
	RunID      string
	SourcePath string
	Contours   contours.Collection
	Label      string
	Timings    []timing.Entry

	artifacts []Artifact
}

// Artifacts returns the artifacts in production order.
func (r *Result) Artifacts() []Artifact {
	out := make([]Artifact, len(r.artifacts))
	copy(out, r.artifacts)
	return out
}

// Artifact returns the named buffer, or false if the run did not produce it.
func (r *Result) Artifact(name string) (*safe.Mat, bool) {
	for _, a := range r.artifacts {
		if a.Name == name {
			return a.Mat, true
		}
	}
	return nil, false
}

func (r *Result) Close() {
	for _, a := range r.artifacts {
		a.Mat.Close()
	}
	r.artifacts = nil
}
