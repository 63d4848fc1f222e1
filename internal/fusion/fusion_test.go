package fusion

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"modelfusion/internal/model"
	"modelfusion/internal/storage"
	"modelfusion/internal/supervised"
)

// testDescriptor builds a minimal classification fusion descriptor. The
// objective categories are deliberately unsorted (B before A) so tests can
// tell the raw declaration order from the canonical sorted vocabulary.
func testDescriptor(models []any) map[string]any {
	return map[string]any{
		"resource": "fusion/aaa000000000000000000001",
		"object": map[string]any{
			"name":            "iris fusion",
			"description":     "test fixture",
			"models":          models,
			"objective_field": "000003",
			"importance": []any{
				[]any{"000001", 0.7},
				[]any{"000002", 0.3},
			},
			"input_fields": []any{"000001", "000002"},
			"fusion": map[string]any{
				"fields": map[string]any{
					"000001": map[string]any{"name": "petal length", "optype": "numeric"},
					"000002": map[string]any{"name": "petal width", "optype": "numeric"},
					"000003": map[string]any{
						"name":   "species",
						"optype": "categorical",
						"summary": map[string]any{
							"categories": []any{
								[]any{"B", 40.0},
								[]any{"A", 30.0},
								[]any{"C", 30.0},
							},
						},
					},
				},
			},
		},
	}
}

func regressionDescriptor(models []any) map[string]any {
	raw := testDescriptor(models)
	object := raw["object"].(map[string]any)
	fieldMap := object["fusion"].(map[string]any)["fields"].(map[string]any)
	fieldMap["000003"] = map[string]any{
		"name":   "weight",
		"optype": "numeric",
		"summary": map[string]any{
			"bins": []any{[]any{1.5, 10.0}, []any{2.5, 20.0}},
		},
	}
	return raw
}

type stubPredictor struct {
	id      string
	classes []string
	probs   []float64
	confs   []float64
	err     error
	calls   int
}

func (s *stubPredictor) ResourceID() string   { return s.id }
func (s *stubPredictor) ClassNames() []string { return s.classes }

func (s *stubPredictor) Probabilities(context.Context, model.InputData, supervised.MissingStrategy) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]float64(nil), s.probs...), nil
}

func (s *stubPredictor) Confidences(context.Context, model.InputData, supervised.MissingStrategy) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.confs == nil {
		return nil, fmt.Errorf("%s has no confidence measure", s.id)
	}
	return append([]float64(nil), s.confs...), nil
}

type stubLoader struct {
	members map[string]supervised.Predictor
}

func (l *stubLoader) Load(_ context.Context, id string) (supervised.Predictor, error) {
	member, ok := l.members[id]
	if !ok {
		return nil, fmt.Errorf("no member %s", id)
	}
	return member, nil
}

type fakeGetter struct {
	resources map[string]map[string]any
	calls     map[string]int
	seenRefs  map[string]string
	ref       string
}

func newFakeGetter(resources map[string]map[string]any) *fakeGetter {
	return &fakeGetter{
		resources: resources,
		calls:     make(map[string]int),
		seenRefs:  make(map[string]string),
	}
}

func (g *fakeGetter) GetResource(_ context.Context, id string) (map[string]any, error) {
	g.calls[id]++
	g.seenRefs[id] = g.ref
	raw, ok := g.resources[id]
	if !ok {
		return nil, fmt.Errorf("no resource %s", id)
	}
	return raw, nil
}

func (g *fakeGetter) SharedRef() string { return g.ref }

func (g *fakeGetter) WithSharedRef(ref string) supervised.ResourceGetter {
	clone := *g
	clone.ref = ref
	return &clone
}

func mustFusion(t *testing.T, raw map[string]any, cfg Config) *Fusion {
	t.Helper()
	f, err := NewFromResource(context.Background(), raw, cfg)
	if err != nil {
		t.Fatalf("NewFromResource: %v", err)
	}
	return f
}

func TestNewFromResource(t *testing.T) {
	raw := testDescriptor([]any{
		"model/bbb000000000000000000001",
		"deepnet/bbb000000000000000000002",
	})
	f := mustFusion(t, raw, Config{Loader: &stubLoader{}})

	if f.ResourceID() != "fusion/aaa000000000000000000001" {
		t.Errorf("resource ID = %q", f.ResourceID())
	}
	if f.Name() != "iris fusion" {
		t.Errorf("name = %q", f.Name())
	}
	if f.Regression() {
		t.Error("classification fusion flagged as regression")
	}
	if got, want := f.ClassNames(), []string{"A", "B", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("class names = %v, want sorted %v", got, want)
	}
	if got, want := f.objectiveCategories, []string{"B", "A", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("objective categories = %v, want declaration order %v", got, want)
	}
	if got, want := f.weights, []float64{1, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("default weights = %v, want %v", got, want)
	}
	if len(f.Importance()) != 2 || f.Importance()[0].FieldID != "000001" {
		t.Errorf("importance = %v", f.Importance())
	}
	if len(f.Distribution()) != 3 {
		t.Errorf("distribution = %v", f.Distribution())
	}
}

func TestNewFromResourceWeighted(t *testing.T) {
	raw := testDescriptor([]any{
		map[string]any{"id": "model/bbb000000000000000000001", "weight": 2.0},
		map[string]any{"id": "deepnet/bbb000000000000000000002", "weight": 5.0},
	})
	f := mustFusion(t, raw, Config{Loader: &stubLoader{}})

	if got, want := f.weights, []float64{2, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("weights = %v, want %v", got, want)
	}
	if f.weightByID["deepnet/bbb000000000000000000002"] != 5 {
		t.Errorf("weight index = %v", f.weightByID)
	}
}

func TestNewFromResourceRejectsUnsupportedMember(t *testing.T) {
	raw := testDescriptor([]any{"cluster/bbb000000000000000000001"})
	_, err := NewFromResource(context.Background(), raw, Config{Loader: &stubLoader{}})
	if err == nil {
		t.Fatal("expected an unsupported member error")
	}
}

func TestNewFromResourceRejectsCategoricalWithoutCategories(t *testing.T) {
	raw := testDescriptor([]any{"model/bbb000000000000000000001"})
	object := raw["object"].(map[string]any)
	fieldMap := object["fusion"].(map[string]any)["fields"].(map[string]any)
	fieldMap["000003"] = map[string]any{
		"name":   "species",
		"optype": "categorical",
		"summary": map[string]any{
			"counts": []any{[]any{"A", 30.0}, []any{"B", 40.0}},
		},
	}

	_, err := NewFromResource(context.Background(), raw, Config{Loader: &stubLoader{}})
	if !errors.Is(err, ErrMalformedSpec) {
		t.Fatalf("err = %v, want ErrMalformedSpec for a classification objective without categories", err)
	}
}

func TestNewFromResourceRegression(t *testing.T) {
	raw := regressionDescriptor([]any{"linearregression/bbb000000000000000000001"})
	f := mustFusion(t, raw, Config{Loader: &stubLoader{}})

	if !f.Regression() {
		t.Fatal("numeric objective must flag a regression fusion")
	}
	if len(f.ClassNames()) != 0 {
		t.Errorf("regression fusion carries class names: %v", f.ClassNames())
	}
}

func TestModelSplits(t *testing.T) {
	models := []any{
		"model/bbb000000000000000000001",
		"model/bbb000000000000000000002",
		"model/bbb000000000000000000003",
		"model/bbb000000000000000000004",
		"model/bbb000000000000000000005",
	}
	f := mustFusion(t, testDescriptor(models), Config{Loader: &stubLoader{}, MaxModels: 2})

	sizes := make([]int, len(f.modelsSplits))
	for i, split := range f.modelsSplits {
		sizes[i] = len(split)
	}
	if want := []int{2, 2, 1}; !reflect.DeepEqual(sizes, want) {
		t.Errorf("split sizes = %v, want %v", sizes, want)
	}
}

func TestMemberCaching(t *testing.T) {
	ctx := context.Background()
	memberID := "model/bbb000000000000000000001"
	getter := newFakeGetter(map[string]map[string]any{
		memberID: {"resource": memberID},
	})
	store := storage.NewMemoryStore()

	raw := testDescriptor([]any{memberID})
	mustFusion(t, raw, Config{Getter: getter, Store: store, Loader: &stubLoader{}})

	if getter.calls[memberID] != 1 {
		t.Fatalf("member fetched %d times, want 1", getter.calls[memberID])
	}
	if _, ok, err := store.GetResource(ctx, memberID); err != nil || !ok {
		t.Fatalf("member not cached: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := store.GetResource(ctx, "fusion/aaa000000000000000000001"); !ok {
		t.Fatal("fusion descriptor not cached")
	}
}

func TestNestedFusionCaching(t *testing.T) {
	ctx := context.Background()
	innerID := "fusion/ccc000000000000000000001"
	leafID := "model/bbb000000000000000000001"

	inner := testDescriptor([]any{leafID})
	inner["resource"] = innerID

	getter := newFakeGetter(map[string]map[string]any{
		innerID: inner,
		leafID:  {"resource": leafID},
	})
	store := storage.NewMemoryStore()

	outer := testDescriptor([]any{innerID})
	mustFusion(t, outer, Config{Getter: getter, Store: store, Loader: &stubLoader{}})

	if _, ok, _ := store.GetResource(ctx, innerID); !ok {
		t.Fatal("nested fusion not cached")
	}
	if _, ok, _ := store.GetResource(ctx, leafID); !ok {
		t.Fatal("leaf member of the nested fusion not cached")
	}
}

func TestSharedFusionTagsMemberDownloads(t *testing.T) {
	memberID := "model/bbb000000000000000000001"
	getter := newFakeGetter(map[string]map[string]any{
		memberID: {"resource": memberID},
	})
	store := storage.NewMemoryStore()

	raw := testDescriptor([]any{memberID})
	raw["resource"] = "shared/fusion/aaa000000000000000000001"
	mustFusion(t, raw, Config{Getter: getter, Store: store, Loader: &stubLoader{}})

	if got, want := getter.seenRefs[memberID], "fusion/aaa000000000000000000001"; got != want {
		t.Errorf("member fetched with shared ref %q, want %q", got, want)
	}
}
