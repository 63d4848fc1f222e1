package fusion

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"modelfusion/internal/fields"
	"modelfusion/internal/model"
	"modelfusion/internal/resource"
	"modelfusion/internal/storage"
	"modelfusion/internal/supervised"
)

// Config wires a Fusion to its collaborators. Getter fetches remote
// descriptors, Store caches them (and snapshots), Loader materializes member
// predictors. A nil Loader falls back to the registry-backed ResourceLoader.
type Config struct {
	MaxModels         int
	Getter            supervised.ResourceGetter
	Loader            supervised.Loader
	Store             storage.Store
	OperationSettings *model.OperationSettings
}

// Fusion is a local composite predictor combining the outputs of several
// previously trained supervised models. It is immutable after construction
// and safe for concurrent predictions.
type Fusion struct {
	resourceID          string
	name                string
	description         string
	modelIDs            []string
	weights             []float64
	weightByID          map[string]float64
	modelsSplits        [][]string
	maxModels           int
	objectiveID         string
	classNames          []string
	objectiveCategories []string
	regression          bool
	missingNumerics     bool
	distribution        []model.DistributionEntry
	importance          []model.FieldImportance
	fields              map[string]model.Field
	inputFields         []string
	fieldSet            *fields.Set

	settings *model.OperationSettings
	getter   supervised.ResourceGetter
	loader   supervised.Loader
	store    storage.Store
}

// New builds a Fusion from a resource identifier, resolving the descriptor
// through the cache store first and the remote getter second.
func New(ctx context.Context, id string, cfg Config) (*Fusion, error) {
	resolver := &supervised.ResourceLoader{Getter: cfg.Getter, Store: cfg.Store}
	raw, err := resolver.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve fusion %s: %w", id, err)
	}
	return NewFromResource(ctx, raw, cfg)
}

// NewFromResource builds a Fusion from an already-downloaded descriptor,
// either the bare object or the full wrapper carrying an "object" key.
func NewFromResource(ctx context.Context, raw map[string]any, cfg Config) (*Fusion, error) {
	f := &Fusion{
		maxModels:       cfg.MaxModels,
		missingNumerics: true,
		settings:        cfg.OperationSettings,
		getter:          cfg.Getter,
		loader:          cfg.Loader,
		store:           cfg.Store,
	}

	if id, ok := raw["resource"].(string); ok {
		f.resourceID = id
	}
	object := raw
	if inner, ok := raw["object"].(map[string]any); ok {
		object = inner
	}

	f.name, _ = object["name"].(string)
	f.description, _ = object["description"].(string)

	models, ok := object["models"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing models list", ErrMalformedSpec)
	}
	ids, weights, err := parseMembers(models)
	if err != nil {
		return nil, err
	}
	if err := validateMemberKinds(ids); err != nil {
		return nil, err
	}
	f.modelIDs = ids
	f.weights = weights
	f.weightByID = weightIndex(ids, weights)
	f.modelsSplits = splitModels(ids, cfg.MaxModels)

	if missing, ok := object["missing_numerics"].(bool); ok {
		f.missingNumerics = missing
	}
	f.importance = parseImportance(object["importance"])
	f.inputFields = toStringSlice(object["input_fields"])

	rawFields, _ := object["fusion"].(map[string]any)
	fieldMap, _ := rawFields["fields"].(map[string]any)
	parsed, err := fields.Parse(fieldMap)
	if err != nil {
		return nil, fmt.Errorf("fusion %s: %w", f.resourceID, err)
	}
	f.fields = parsed
	f.objectiveID, _ = object["objective_field"].(string)
	if _, ok := parsed[f.objectiveID]; !ok {
		return nil, fmt.Errorf("fusion %s: objective field %q is not among the fields", f.resourceID, f.objectiveID)
	}
	f.fieldSet = fields.NewSet(parsed, f.objectiveID)

	if err := f.resolveObjective(); err != nil {
		return nil, err
	}

	if f.loader == nil {
		f.loader = &supervised.ResourceLoader{Getter: f.getter, Store: f.store, Settings: f.settings}
	}

	// With a cache store active, every member is proactively downloaded
	// once, recursing through nested fusions.
	if f.store != nil {
		if f.resourceID != "" {
			if err := f.store.SaveResource(ctx, f.resourceID, raw); err != nil {
				return nil, err
			}
		}
		if err := f.cacheMembers(ctx); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// resolveObjective derives the distribution, class vocabulary and
// regression flag from the objective field's summary.
func (f *Fusion) resolveObjective() error {
	objective, ok := f.fields[f.objectiveID]
	if !ok {
		return fmt.Errorf("fusion %s: objective field %q missing", f.resourceID, f.objectiveID)
	}
	summary := objective.Summary
	switch {
	case len(summary.Bins) > 0:
		f.distribution = summary.Bins
	case len(summary.Counts) > 0:
		f.distribution = summary.Counts
	case len(summary.Categories) > 0:
		f.distribution = summary.Categories
		f.objectiveCategories = make([]string, 0, len(summary.Categories))
		for _, entry := range summary.Categories {
			category, ok := entry.Value.(string)
			if !ok {
				category = fmt.Sprint(entry.Value)
			}
			f.objectiveCategories = append(f.objectiveCategories, category)
		}
		f.classNames = append([]string(nil), f.objectiveCategories...)
		sort.Strings(f.classNames)
	}
	f.regression = objective.Optype == fields.OptypeNumeric
	if !f.regression && len(f.classNames) == 0 {
		return fmt.Errorf("%w: categorical objective %q carries no categories", ErrMalformedSpec, f.objectiveID)
	}
	return nil
}

// cacheMembers downloads every member descriptor into the store, tagging a
// shared provenance chain when the fusion itself is shared.
func (f *Fusion) cacheMembers(ctx context.Context) error {
	getter := f.childGetter()
	resolver := &supervised.ResourceLoader{Getter: getter, Store: f.store}
	for _, id := range f.modelIDs {
		if resource.Kind(id) == resource.KindFusion {
			childCfg := Config{
				MaxModels:         f.maxModels,
				Getter:            getter,
				Store:             f.store,
				OperationSettings: f.settings,
			}
			if _, err := New(ctx, id, childCfg); err != nil {
				return err
			}
			continue
		}
		if _, err := resolver.Fetch(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// childGetter derives the getter used for member downloads. A shared fusion
// starts the provenance chain; a getter that already carries one gets this
// fusion appended.
func (f *Fusion) childGetter() supervised.ResourceGetter {
	shared, ok := f.getter.(supervised.SharedRefGetter)
	if !ok {
		return f.getter
	}
	switch {
	case resource.IsShared(f.resourceID):
		return shared.WithSharedRef(resource.SharedRef(f.resourceID))
	case shared.SharedRef() != "":
		return shared.WithSharedRef(shared.SharedRef() + "," + f.resourceID)
	default:
		return f.getter
	}
}

// member materializes the predictor behind one member identifier. Nested
// fusions are built recursively; everything else goes through the loader.
func (f *Fusion) member(ctx context.Context, id string) (supervised.Predictor, error) {
	if resource.Kind(id) == resource.KindFusion {
		return New(ctx, id, Config{
			MaxModels:         f.maxModels,
			Getter:            f.getter,
			Loader:            f.loader,
			Store:             f.store,
			OperationSettings: f.settings,
		})
	}
	return f.loader.Load(ctx, id)
}

func (f *Fusion) ResourceID() string  { return f.resourceID }
func (f *Fusion) Name() string        { return f.name }
func (f *Fusion) Description() string { return f.description }
func (f *Fusion) Regression() bool    { return f.regression }
func (f *Fusion) ObjectiveID() string { return f.objectiveID }

// ListModels returns the member identifiers in declaration order.
func (f *Fusion) ListModels() []string {
	return append([]string(nil), f.modelIDs...)
}

// ClassNames returns the canonical sorted class vocabulary; empty for
// regression fusions.
func (f *Fusion) ClassNames() []string {
	return append([]string(nil), f.classNames...)
}

// Distribution returns the objective field histogram.
func (f *Fusion) Distribution() []model.DistributionEntry {
	return append([]model.DistributionEntry(nil), f.distribution...)
}

// Importance returns the per-field importances reported by the platform.
func (f *Fusion) Importance() []model.FieldImportance {
	return append([]model.FieldImportance(nil), f.importance...)
}

func parseImportance(raw any) []model.FieldImportance {
	pairs, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]model.FieldImportance, 0, len(pairs))
	for _, pair := range pairs {
		entry, ok := pair.([]any)
		if !ok || len(entry) != 2 {
			continue
		}
		fieldID, ok := entry[0].(string)
		if !ok {
			continue
		}
		importance, err := fields.ToFloat(entry[1])
		if err != nil {
			continue
		}
		out = append(out, model.FieldImportance{FieldID: fieldID, Importance: importance})
	}
	return out
}

func toStringSlice(raw any) []string {
	values, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
