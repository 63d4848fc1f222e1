package fusion

import (
	"fmt"

	"modelfusion/internal/fields"
	"modelfusion/internal/resource"
)

// parseMembers resolves the raw "models" declaration into parallel id and
// weight sequences. Entries are either bare identifiers or {id, weight}
// records. Partial weight specification is not supported: when any record
// lacks "weight", every weight defaults to 1.
func parseMembers(raw []any) ([]string, []float64, error) {
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("%w: empty models list", ErrMalformedSpec)
	}

	ids := make([]string, 0, len(raw))
	weights := make([]float64, 0, len(raw))
	weighted := true
	for _, entry := range raw {
		switch member := entry.(type) {
		case string:
			ids = append(ids, member)
			weighted = false
		case map[string]any:
			id, ok := member["id"].(string)
			if !ok || id == "" {
				return nil, nil, fmt.Errorf("%w: member record without id", ErrMalformedSpec)
			}
			ids = append(ids, id)
			if !weighted {
				continue
			}
			rawWeight, ok := member["weight"]
			if !ok {
				weighted = false
				continue
			}
			weight, err := fields.ToFloat(rawWeight)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: member %s: %v", ErrMalformedSpec, id, err)
			}
			weights = append(weights, weight)
		default:
			return nil, nil, fmt.Errorf("%w: member entry of type %T", ErrMalformedSpec, entry)
		}
	}

	if !weighted || len(weights) != len(ids) {
		weights = weights[:0]
		for range ids {
			weights = append(weights, 1)
		}
	}
	return ids, weights, nil
}

// validateMemberKinds fails on the first member whose resource type is not
// a locally supported supervised kind.
func validateMemberKinds(ids []string) error {
	for _, id := range ids {
		if kind := resource.Kind(id); !resource.IsSupervised(kind) {
			return fmt.Errorf("%w: %s (%s)", ErrUnsupportedMember, id, kind)
		}
	}
	return nil
}

// weightIndex precomputes the identifier-to-weight mapping used on every
// vote. For duplicate identifiers the last declared weight wins.
func weightIndex(ids []string, weights []float64) map[string]float64 {
	index := make(map[string]float64, len(ids))
	for i, id := range ids {
		index[id] = weights[i]
	}
	return index
}

// splitModels partitions the member list into contiguous batches of at most
// maxModels entries, bounding how many models are materialized at once.
// A non-positive maxModels yields a single batch with every member.
func splitModels(ids []string, maxModels int) [][]string {
	if maxModels <= 0 || len(ids) <= maxModels {
		return [][]string{ids}
	}
	splits := make([][]string, 0, (len(ids)+maxModels-1)/maxModels)
	for start := 0; start < len(ids); start += maxModels {
		end := start + maxModels
		if end > len(ids) {
			end = len(ids)
		}
		splits = append(splits, ids[start:end])
	}
	return splits
}
