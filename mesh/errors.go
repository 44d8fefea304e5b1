package mesh

import (
	"errors"
	"fmt"

	"github.com/hupe1980/tetgeo/internal/arena"
)

var (
	// ErrAllocationFailed is returned when an entity pool cannot grow.
	ErrAllocationFailed = arena.ErrAllocationFailed
	// ErrTopologyInconsistency is returned when adjacency or orientation checks fail.
	ErrTopologyInconsistency = errors.New("topology inconsistency")
	// ErrDegenerateGeometry is returned for colinear triangles.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrInvalidInput is returned when the point/cell arrays are malformed.
	ErrInvalidInput = errors.New("invalid mesh input")
)

// Phase names the reconstruction step that detected a failure.
type Phase string

const (
	PhaseInput     Phase = "input"
	PhaseEntities  Phase = "entities"
	PhaseNeighbors Phase = "neighbors"
	PhaseFaces     Phase = "faces"
	PhaseBoundary  Phase = "boundary"
	PhaseValidate  Phase = "validate"
	// PhaseSkin is used by skin traversals outside reconstruction, such as
	// surface partitioning.
	PhaseSkin Phase = "skin"
)

// TopologyError describes a broken adjacency or orientation invariant.
//
// It matches ErrTopologyInconsistency under errors.Is.
type TopologyError struct {
	Phase  Phase
	Tet    TetID
	Other  TetID
	Face   FaceID
	Reason string
}

func (e *TopologyError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ErrTopologyInconsistency, e.Phase, e.Reason)
	if e.Tet != 0 {
		msg += fmt.Sprintf(" (tet %d", e.Tet)
		if e.Other != 0 {
			msg += fmt.Sprintf(", tet %d", e.Other)
		}
		if e.Face != 0 {
			msg += fmt.Sprintf(", face %d", e.Face)
		}
		msg += ")"
	} else if e.Face != 0 {
		msg += fmt.Sprintf(" (face %d)", e.Face)
	}
	return msg
}

func (e *TopologyError) Unwrap() error { return ErrTopologyInconsistency }

// DegenerateError reports an input cell whose corners are colinear or repeated.
//
// It matches ErrDegenerateGeometry under errors.Is.
type DegenerateError struct {
	Cell   int
	Reason string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("%s: cell %d: %s", ErrDegenerateGeometry, e.Cell, e.Reason)
}

func (e *DegenerateError) Unwrap() error { return ErrDegenerateGeometry }
