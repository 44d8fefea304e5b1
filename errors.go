package tetgeo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/tetgeo/ledger"
	"github.com/hupe1980/tetgeo/mesh"
	"github.com/hupe1980/tetgeo/meshio"
	"github.com/hupe1980/tetgeo/partition"
)

var (
	// ErrAllocationFailed is returned when an entity pool cannot grow.
	ErrAllocationFailed = mesh.ErrAllocationFailed
	// ErrTopologyInconsistency is returned when adjacency, orientation or skin
	// checks fail.
	ErrTopologyInconsistency = mesh.ErrTopologyInconsistency
	// ErrDegenerateGeometry is returned for colinear or welded cells.
	ErrDegenerateGeometry = mesh.ErrDegenerateGeometry
	// ErrInvalidInput is returned for malformed point or cell arrays.
	ErrInvalidInput = mesh.ErrInvalidInput
	// ErrSeedNotFound is returned when a partition direction has no seed face.
	ErrSeedNotFound = partition.ErrSeedNotFound
	// ErrInvalidFormat is returned when an input is not a mesh container.
	ErrInvalidFormat = meshio.ErrInvalidFormat
	// ErrInvalidData is returned when a decoded container is inconsistent.
	ErrInvalidData = meshio.ErrInvalidData
	// ErrClaimed is returned when another run is processing the input.
	ErrClaimed = ledger.ErrClaimed

	// ErrUnsupportedCells is returned for inputs that mix triangles and
	// tetrahedra or have neither.
	ErrUnsupportedCells = errors.New("unsupported cell types")
)

// Stage names a pipeline step.
type Stage string

const (
	StageRead      Stage = "read"
	StageDecode    Stage = "decode"
	StageBuild     Stage = "build"
	StagePartition Stage = "partition"
	StageExport    Stage = "export"
	StageLedger    Stage = "ledger"
)

// StageError reports the stage and input a failure occurred in.
//
// The underlying error can be accessed via errors.Unwrap.
type StageError struct {
	Stage Stage
	Input string
	cause error
}

func (e *StageError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Input, e.cause)
}

func (e *StageError) Unwrap() error { return e.cause }

func stageError(stage Stage, input string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Input: input, cause: err}
}
