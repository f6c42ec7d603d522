package pipeline

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Run failures. Any of them aborts the run; nothing partial is returned.
var (
	// ErrUnreadable marks an input file that could not be decoded or parsed.
	ErrUnreadable = eris.New("pipeline: input file unreadable")
	// ErrMissingColumn marks a required column that is absent or not numeric.
	ErrMissingColumn = eris.New("pipeline: expected column missing or non-numeric")
	// ErrEmptyJoin marks a run where no population key matched a facility key.
	ErrEmptyJoin = eris.New("pipeline: no region keys matched")
	// ErrBoundaryFetch marks a failed boundary download. Callers should ask
	// for a boundary file upload instead.
	ErrBoundaryFetch = eris.New("pipeline: boundary fetch failed, upload a boundary file instead")
	// ErrInvalidParams marks score weights or settings that fail validation.
	ErrInvalidParams = eris.New("pipeline: invalid score parameters")
)

// EmptyJoinError carries a sample of both sides' keys so the user can see
// why nothing matched.
type EmptyJoinError struct {
	PopulationSample []string `json:"population_sample"`
	FacilitySample   []string `json:"facility_sample"`
}

func (e *EmptyJoinError) Error() string {
	return fmt.Sprintf("%s (population keys: %s; facility keys: %s)",
		ErrEmptyJoin.Error(),
		strings.Join(e.PopulationSample, ", "),
		strings.Join(e.FacilitySample, ", "),
	)
}

func (e *EmptyJoinError) Unwrap() error { return ErrEmptyJoin }
