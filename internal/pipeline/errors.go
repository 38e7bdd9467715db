package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFile   = errors.New("file is empty")
	ErrUndecodable = errors.New("not a decodable image")
)

// LoadError reports an input image that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
