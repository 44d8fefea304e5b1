package partition

import (
	"errors"
	"fmt"

	"github.com/hupe1980/tetgeo/mesh"
)

// ErrSeedNotFound is returned when an axis ray does not yield a usable seed face.
var ErrSeedNotFound = errors.New("seed not found")

// SeedError describes the direction whose seed could not be chosen.
//
// It matches ErrSeedNotFound under errors.Is.
type SeedError struct {
	Direction Direction
	// Face is the face already claimed by another direction, if any.
	Face   mesh.FaceID
	Reason string
}

func (e *SeedError) Error() string {
	if e.Face != 0 {
		return fmt.Sprintf("%s: %s: %s (face %d)", ErrSeedNotFound, e.Direction, e.Reason, e.Face)
	}
	return fmt.Sprintf("%s: %s: %s", ErrSeedNotFound, e.Direction, e.Reason)
}

func (e *SeedError) Unwrap() error { return ErrSeedNotFound }
