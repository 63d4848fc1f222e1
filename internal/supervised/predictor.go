package supervised

import (
	"context"
	"fmt"

	"modelfusion/internal/model"
)

// MissingStrategy selects how tree-based members handle an input row that
// lacks a field needed at decision time.
type MissingStrategy int

const (
	// LastPrediction stops at the last observed node prediction.
	LastPrediction MissingStrategy = iota
	// Proportional splits the row across the missing branches.
	Proportional
)

func (s MissingStrategy) String() string {
	switch s {
	case LastPrediction:
		return "last_prediction"
	case Proportional:
		return "proportional"
	default:
		return fmt.Sprintf("missing_strategy(%d)", int(s))
	}
}

// Predictor is the capability every fusion member exposes: compact
// probability and confidence vectors over the member's own class vocabulary.
//
// Classification members return one value per entry of ClassNames, in that
// order. Regression members return a single-element probability vector with
// the predicted value, and a two-element confidence vector holding the
// predicted value and its confidence. A member that cannot produce an output
// for the given input returns an error; the fusion engine treats any member
// error as an abstention.
type Predictor interface {
	ResourceID() string
	ClassNames() []string
	Probabilities(ctx context.Context, input model.InputData, strategy MissingStrategy) ([]float64, error)
	Confidences(ctx context.Context, input model.InputData, strategy MissingStrategy) ([]float64, error)
}

// Loader materializes the predictor behind a member identifier. Loading may
// perform I/O (remote fetch or cache read).
type Loader interface {
	Load(ctx context.Context, id string) (Predictor, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, id string) (Predictor, error)

func (f LoaderFunc) Load(ctx context.Context, id string) (Predictor, error) {
	return f(ctx, id)
}

// ResourceGetter fetches the raw JSON descriptor of a remote resource.
type ResourceGetter interface {
	GetResource(ctx context.Context, id string) (map[string]any, error)
}

// SharedRefGetter is implemented by getters that can tag downloads with a
// shared-provenance chain when fetching children of a shared resource.
type SharedRefGetter interface {
	ResourceGetter
	SharedRef() string
	WithSharedRef(ref string) ResourceGetter
}
