package fields

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"modelfusion/internal/model"
)

// Cast coerces every input value, in place, to the type its field declares:
// numeric fields to float64, everything else to string.
func Cast(input model.InputData, byID map[string]model.Field) error {
	for id, value := range input {
		field, ok := byID[id]
		if !ok {
			continue
		}
		if field.Optype == OptypeNumeric {
			number, err := ToFloat(value)
			if err != nil {
				return fmt.Errorf("field %s (%s): %w", id, field.Name, err)
			}
			input[id] = number
			continue
		}
		if _, ok := value.(string); !ok {
			input[id] = fmt.Sprint(value)
		}
	}
	return nil
}

// ToFloat converts the JSON-decoded numeric shapes into float64.
func ToFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		number, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to a number", v)
		}
		return number, nil
	default:
		return 0, fmt.Errorf("cannot cast %T to a number", value)
	}
}
