package supervised

import (
	"context"
	"errors"
	"fmt"

	"modelfusion/internal/model"
	"modelfusion/internal/resource"
	"modelfusion/internal/storage"
)

var ErrNoSource = errors.New("no resource source configured")

// ResourceLoader resolves member identifiers through the cache store first
// and the remote API second, then dispatches the kind registry. Fetched
// descriptors are written back to the store when one is configured.
type ResourceLoader struct {
	Getter   ResourceGetter
	Store    storage.Store
	Settings *model.OperationSettings
}

func (l *ResourceLoader) Load(ctx context.Context, id string) (Predictor, error) {
	raw, err := l.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return New(resource.Kind(id), raw, l.Settings)
}

// Fetch returns the raw descriptor for id, store first, API second.
func (l *ResourceLoader) Fetch(ctx context.Context, id string) (map[string]any, error) {
	if l.Store != nil {
		raw, ok, err := l.Store.GetResource(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			return raw, nil
		}
	}
	if l.Getter == nil {
		return nil, fmt.Errorf("%w: cannot resolve %s", ErrNoSource, id)
	}
	raw, err := l.Getter.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Store != nil {
		if err := l.Store.SaveResource(ctx, id, raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}
