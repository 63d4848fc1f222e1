package model

// InputData is one row of raw input, keyed by field name or field ID.
type InputData map[string]any

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Field describes one field of a resource, keyed elsewhere by field ID.
type Field struct {
	Name    string  `json:"name"`
	Optype  string  `json:"optype"`
	Summary Summary `json:"summary"`
}

// Summary holds the field histogram. At most one of the three slices is
// populated for a given field.
type Summary struct {
	Bins       []DistributionEntry `json:"bins,omitempty"`
	Counts     []DistributionEntry `json:"counts,omitempty"`
	Categories []DistributionEntry `json:"categories,omitempty"`
}

type DistributionEntry struct {
	Value any     `json:"value"`
	Count float64 `json:"count"`
}

type FieldImportance struct {
	FieldID    string  `json:"field_id"`
	Importance float64 `json:"importance"`
}

// OperatingPoint biases a classification decision toward or away from one
// designated positive class. Kind is always "probability".
type OperatingPoint struct {
	PositiveClass string  `json:"positive_class"`
	Threshold     float64 `json:"threshold"`
	Kind          string  `json:"kind"`
}

// OperationSettings carries per-fusion prediction defaults.
type OperationSettings struct {
	OperatingPoint *OperatingPoint `json:"operating_point,omitempty"`
}

type CategoryProbability struct {
	Category    string  `json:"category"`
	Probability float64 `json:"probability"`
}

type CategoryConfidence struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the assembled result of a predict call. Prediction holds the
// category name for classifications and the numeric value for regressions.
type Prediction struct {
	Prediction   any      `json:"prediction"`
	Probability  *float64 `json:"probability,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
	UnusedFields []string `json:"unused_fields,omitempty"`
}

// FusionSnapshot is the compact persisted state of a constructed fusion.
// Restoring one bypasses remote resolution and construction-time validation.
type FusionSnapshot struct {
	VersionedRecord
	ResourceID          string              `json:"resource_id"`
	Name                string              `json:"name"`
	Description         string              `json:"description"`
	ModelIDs            []string            `json:"model_ids"`
	Weights             []float64           `json:"weights"`
	ModelsSplits        [][]string          `json:"models_splits"`
	MaxModels           int                 `json:"max_models"`
	ObjectiveID         string              `json:"objective_id"`
	ClassNames          []string            `json:"class_names,omitempty"`
	ObjectiveCategories []string            `json:"objective_categories,omitempty"`
	Regression          bool                `json:"regression"`
	MissingNumerics     bool                `json:"missing_numerics"`
	Distribution        []DistributionEntry `json:"distribution,omitempty"`
	Importance          []FieldImportance   `json:"importance,omitempty"`
	Fields              map[string]Field    `json:"fields"`
	InputFields         []string            `json:"input_fields,omitempty"`
}
