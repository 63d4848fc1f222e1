package fusion

import (
	"context"
	"fmt"
	"io"

	"modelfusion/internal/fields"
	"modelfusion/internal/model"
	"modelfusion/internal/storage"
	"modelfusion/internal/supervised"
)

// Snapshot captures the constructed state of the fusion so it can be
// restored later without remote access.
func (f *Fusion) Snapshot() model.FusionSnapshot {
	return model.FusionSnapshot{
		ResourceID:          f.resourceID,
		Name:                f.name,
		Description:         f.description,
		ModelIDs:            append([]string(nil), f.modelIDs...),
		Weights:             append([]float64(nil), f.weights...),
		ModelsSplits:        copySplits(f.modelsSplits),
		MaxModels:           f.maxModels,
		ObjectiveID:         f.objectiveID,
		ClassNames:          append([]string(nil), f.classNames...),
		ObjectiveCategories: append([]string(nil), f.objectiveCategories...),
		Regression:          f.regression,
		MissingNumerics:     f.missingNumerics,
		Distribution:        append([]model.DistributionEntry(nil), f.distribution...),
		Importance:          append([]model.FieldImportance(nil), f.importance...),
		Fields:              f.fields,
		InputFields:         append([]string(nil), f.inputFields...),
	}
}

// Dump writes the versioned snapshot to w.
func (f *Fusion) Dump(w io.Writer) error {
	data, err := storage.EncodeSnapshot(f.Snapshot())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// DumpToStore persists the snapshot under the fusion's resource ID.
func (f *Fusion) DumpToStore(ctx context.Context, store storage.Store) error {
	snapshot := f.Snapshot()
	snapshot.SchemaVersion = storage.CurrentSchemaVersion
	snapshot.CodecVersion = storage.CurrentCodecVersion
	return store.SaveSnapshot(ctx, snapshot)
}

// Restore rebuilds a usable fusion from a snapshot, bypassing remote
// resolution and construction-time validation. Member descriptors still
// resolve through cfg when a prediction needs them.
func Restore(snapshot model.FusionSnapshot, cfg Config) *Fusion {
	f := &Fusion{
		resourceID:          snapshot.ResourceID,
		name:                snapshot.Name,
		description:         snapshot.Description,
		modelIDs:            snapshot.ModelIDs,
		weights:             snapshot.Weights,
		weightByID:          weightIndex(snapshot.ModelIDs, snapshot.Weights),
		modelsSplits:        snapshot.ModelsSplits,
		maxModels:           snapshot.MaxModels,
		objectiveID:         snapshot.ObjectiveID,
		classNames:          snapshot.ClassNames,
		objectiveCategories: snapshot.ObjectiveCategories,
		regression:          snapshot.Regression,
		missingNumerics:     snapshot.MissingNumerics,
		distribution:        snapshot.Distribution,
		importance:          snapshot.Importance,
		fields:              snapshot.Fields,
		inputFields:         snapshot.InputFields,
		settings:            cfg.OperationSettings,
		getter:              cfg.Getter,
		loader:              cfg.Loader,
		store:               cfg.Store,
	}
	if cfg.MaxModels > 0 {
		f.maxModels = cfg.MaxModels
	}
	if len(f.modelsSplits) == 0 {
		f.modelsSplits = splitModels(f.modelIDs, f.maxModels)
	}
	f.fieldSet = fields.NewSet(f.fields, f.objectiveID)
	if f.loader == nil {
		f.loader = &supervised.ResourceLoader{Getter: f.getter, Store: f.store, Settings: f.settings}
	}
	return f
}

// Load reads a snapshot previously written by Dump.
func Load(r io.Reader, cfg Config) (*Fusion, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	snapshot, err := storage.DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	return Restore(snapshot, cfg), nil
}

// LoadFromStore restores the snapshot persisted under id.
func LoadFromStore(ctx context.Context, store storage.Store, id string, cfg Config) (*Fusion, error) {
	snapshot, ok, err := store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no snapshot stored for %s", id)
	}
	return Restore(snapshot, cfg), nil
}

func copySplits(splits [][]string) [][]string {
	out := make([][]string, len(splits))
	for i, split := range splits {
		out[i] = append([]string(nil), split...)
	}
	return out
}
