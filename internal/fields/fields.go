package fields

import (
	"errors"
	"fmt"
	"sort"

	"modelfusion/internal/model"
)

const OptypeNumeric = "numeric"

var ErrNoFields = errors.New("resource carries no field information")

// Parse converts the raw "fields" section of a resource descriptor into
// typed field records keyed by field ID.
func Parse(raw map[string]any) (map[string]model.Field, error) {
	if len(raw) == 0 {
		return nil, ErrNoFields
	}
	out := make(map[string]model.Field, len(raw))
	for id, value := range raw {
		desc, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %s: malformed descriptor", id)
		}
		field := model.Field{}
		if name, ok := desc["name"].(string); ok {
			field.Name = name
		}
		if optype, ok := desc["optype"].(string); ok {
			field.Optype = optype
		}
		if summary, ok := desc["summary"].(map[string]any); ok {
			field.Summary = parseSummary(summary)
		}
		out[id] = field
	}
	return out, nil
}

func parseSummary(raw map[string]any) model.Summary {
	return model.Summary{
		Bins:       parseDistribution(raw["bins"]),
		Counts:     parseDistribution(raw["counts"]),
		Categories: parseDistribution(raw["categories"]),
	}
}

func parseDistribution(raw any) []model.DistributionEntry {
	pairs, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]model.DistributionEntry, 0, len(pairs))
	for _, pair := range pairs {
		entry, ok := pair.([]any)
		if !ok || len(entry) != 2 {
			continue
		}
		count, _ := ToFloat(entry[1])
		out = append(out, model.DistributionEntry{Value: entry[0], Count: count})
	}
	return out
}

// Set resolves raw input rows against the field metadata of one resource.
// The objective field is never accepted as input.
type Set struct {
	byID        map[string]model.Field
	nameToID    map[string]string
	objectiveID string
}

func NewSet(byID map[string]model.Field, objectiveID string) *Set {
	nameToID := make(map[string]string, len(byID))
	for id, field := range byID {
		if field.Name != "" {
			nameToID[field.Name] = id
		}
	}
	return &Set{byID: byID, nameToID: nameToID, objectiveID: objectiveID}
}

// Filter keeps only the entries that reference a known non-objective field,
// rekeyed by field ID. Nil values are dropped. The second return value lists
// the input keys that matched nothing, sorted for determinism.
func (s *Set) Filter(input model.InputData) (model.InputData, []string) {
	filtered := make(model.InputData, len(input))
	var unused []string
	for key, value := range input {
		id, ok := s.resolve(key)
		if !ok {
			unused = append(unused, key)
			continue
		}
		if value == nil {
			continue
		}
		filtered[id] = value
	}
	sort.Strings(unused)
	return filtered, unused
}

func (s *Set) resolve(key string) (string, bool) {
	if key != s.objectiveID {
		if _, ok := s.byID[key]; ok {
			return key, true
		}
	}
	if id, ok := s.nameToID[key]; ok && id != s.objectiveID {
		return id, true
	}
	return "", false
}

// CheckNoMissingNumerics fails when any numeric non-objective field has no
// value in the input.
func (s *Set) CheckNoMissingNumerics(input model.InputData) error {
	for id, field := range s.byID {
		if id == s.objectiveID || field.Optype != OptypeNumeric {
			continue
		}
		if _, ok := input[id]; !ok {
			return fmt.Errorf("input is missing a value for numeric field %s (%s)", id, field.Name)
		}
	}
	return nil
}

// Field returns the descriptor for a field ID.
func (s *Set) Field(id string) (model.Field, bool) {
	field, ok := s.byID[id]
	return field, ok
}
