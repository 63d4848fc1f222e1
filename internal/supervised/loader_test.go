package supervised

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"modelfusion/internal/model"
	"modelfusion/internal/storage"
)

type countingGetter struct {
	resources map[string]map[string]any
	calls     map[string]int
}

func (g *countingGetter) GetResource(_ context.Context, id string) (map[string]any, error) {
	g.calls[id]++
	raw, ok := g.resources[id]
	if !ok {
		return nil, fmt.Errorf("no resource %s", id)
	}
	return raw, nil
}

func TestFetchStoreFirst(t *testing.T) {
	ctx := context.Background()
	id := "model/bbb000000000000000000001"
	getter := &countingGetter{
		resources: map[string]map[string]any{id: {"resource": id}},
		calls:     map[string]int{},
	}
	loader := &ResourceLoader{Getter: getter, Store: storage.NewMemoryStore()}

	for i := 0; i < 3; i++ {
		raw, err := loader.Fetch(ctx, id)
		if err != nil {
			t.Fatalf("Fetch #%d: %v", i+1, err)
		}
		if raw["resource"] != id {
			t.Errorf("raw = %v", raw)
		}
	}
	if getter.calls[id] != 1 {
		t.Errorf("remote fetched %d times, want 1", getter.calls[id])
	}
}

func TestFetchWithoutSources(t *testing.T) {
	loader := &ResourceLoader{}
	if _, err := loader.Fetch(context.Background(), "model/x1"); !errors.Is(err, ErrNoSource) {
		t.Fatalf("err = %v, want ErrNoSource", err)
	}
}

func TestLoadDispatchesRegistry(t *testing.T) {
	resetRegistryForTests()
	t.Cleanup(resetRegistryForTests)

	id := "model/bbb000000000000000000001"
	if err := Register("model", func(resource map[string]any, _ *model.OperationSettings) (Predictor, error) {
		rid, _ := resource["resource"].(string)
		return &nullPredictor{id: rid}, nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	getter := &countingGetter{
		resources: map[string]map[string]any{id: {"resource": id}},
		calls:     map[string]int{},
	}
	loader := &ResourceLoader{Getter: getter}

	predictor, err := loader.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if predictor.ResourceID() != id {
		t.Errorf("resource ID = %q", predictor.ResourceID())
	}
}
