package fusion

import "errors"

var (
	// ErrMalformedSpec marks a fusion descriptor that cannot be used: a
	// member record without an "id", an empty member list, or a
	// categorical objective without categories.
	ErrMalformedSpec = errors.New("malformed fusion specification")

	// ErrUnsupportedMember marks a member whose resource type is outside
	// the locally supported supervised set.
	ErrUnsupportedMember = errors.New("member is not an allowed supervised model type")

	// ErrInvalidOperatingPoint marks an operating point that is malformed
	// or applied to a regression fusion.
	ErrInvalidOperatingPoint = errors.New("invalid operating point")

	// ErrMissingNumerics rejects an input row with missing numeric fields
	// when the fusion was built with missing_numerics disabled.
	ErrMissingNumerics = errors.New("input contains missing numeric values")

	// ErrNoVotes is returned when every member abstained from a
	// classification probability vote.
	ErrNoVotes = errors.New("no members produced a prediction")

	// ErrNoConfidences is returned when no member supports confidences for
	// the given input (for example a fusion of linear regressions).
	ErrNoConfidences = errors.New("no members produced a confidence")
)
