package pipeline

import (
	"context"
	"fmt"

	"contour-counter/internal/logger"
	"contour-counter/internal/opencv/safe"
	"contour-counter/internal/processing/annotate"
	"contour-counter/internal/processing/chain"
	"contour-counter/internal/processing/contours"
	"contour-counter/internal/processing/filters"
	"contour-counter/internal/processing/mask"
	"contour-counter/internal/processing/threshold"
)

// runState collects the buffers of one run as the chain advances.
type runState struct {
	path      string
	params    Params
	tracker   safe.MemoryTracker
	logger    logger.Logger
	loader    *imageLoader
	artifacts []Artifact
	contours  contours.Collection
}

func (s *runState) add(name string, m *safe.Mat) {
	s.artifacts = append(s.artifacts, Artifact{Name: name, Mat: m})
	s.logger.Debug("Pipeline", "artifact produced", map[string]interface{}{
		"artifact": name,
		"rows":     m.Rows(),
		"cols":     m.Cols(),
		"channels": m.Channels(),
	})
}

func (s *runState) get(name string) (*safe.Mat, error) {
	for _, a := range s.artifacts {
		if a.Name == name {
			return a.Mat, nil
		}
	}
	return nil, fmt.Errorf("artifact %s not produced yet", name)
}

func (s *runState) release() {
	for _, a := range s.artifacts {
		a.Mat.Close()
	}
	s.artifacts = nil
}

// produce runs fn on the named input and stores its output as an artifact.
func produce(name, input string, fn func(in *safe.Mat, s *runState) (*safe.Mat, error)) chain.Step[*runState] {
	return chain.NewStep(name, func(_ context.Context, s *runState) error {
		in, err := s.get(input)
		if err != nil {
			return err
		}
		out, err := fn(in, s)
		if err != nil {
			return err
		}
		s.add(name, out)
		return nil
	})
}

func buildSteps() []chain.Step[*runState] {
	return []chain.Step[*runState]{
		chain.NewStep(ArtifactImage, func(_ context.Context, s *runState) error {
			img, err := s.loader.Load(s.path, ArtifactImage)
			if err != nil {
				return err
			}
			s.add(ArtifactImage, img)
			return nil
		}),
		produce(ArtifactGray, ArtifactImage, func(in *safe.Mat, s *runState) (*safe.Mat, error) {
			return filters.ConvertToGrayscale(in, s.tracker, ArtifactGray)
		}),
		produce(ArtifactEdged, ArtifactGray, func(in *safe.Mat, s *runState) (*safe.Mat, error) {
			return filters.DetectEdges(in, s.params.CannyLow, s.params.CannyHigh, s.tracker, ArtifactEdged)
		}),
		produce(ArtifactThresh, ArtifactGray, func(in *safe.Mat, s *runState) (*safe.Mat, error) {
			return threshold.BinaryInverse(in, s.params.ThresholdCutoff, s.params.ThresholdMax, s.tracker, ArtifactThresh)
		}),
		chain.NewStep(ArtifactAnnotated, func(_ context.Context, s *runState) error {
			thresh, err := s.get(ArtifactThresh)
			if err != nil {
				return err
			}
			img, err := s.get(ArtifactImage)
			if err != nil {
				return err
			}

			found, err := contours.Extract(thresh)
			if err != nil {
				return err
			}
			s.contours = found

			annotated, err := annotate.Draw(img, found, s.params.Style, s.tracker, ArtifactAnnotated)
			if err != nil {
				return err
			}
			s.add(ArtifactAnnotated, annotated)
			return nil
		}),
		produce(ArtifactEroded, ArtifactThresh, func(in *safe.Mat, s *runState) (*safe.Mat, error) {
			return filters.Erode(in, s.params.Morph, s.tracker, ArtifactEroded)
		}),
		produce(ArtifactDilated, ArtifactThresh, func(in *safe.Mat, s *runState) (*safe.Mat, error) {
			return filters.Dilate(in, s.params.Morph, s.tracker, ArtifactDilated)
		}),
		chain.NewStep(ArtifactMasked, func(_ context.Context, s *runState) error {
			img, err := s.get(ArtifactImage)
			if err != nil {
				return err
			}
			thresh, err := s.get(ArtifactThresh)
			if err != nil {
				return err
			}
			masked, err := mask.Apply(img, thresh, s.tracker, ArtifactMasked)
			if err != nil {
				return err
			}
			s.add(ArtifactMasked, masked)
			return nil
		}),
	}
}
