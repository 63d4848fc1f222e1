package storage

import (
	"context"

	"modelfusion/internal/model"
)

// Store defines the cache-side persistence operations: raw resource
// descriptors downloaded from the API and compact fusion snapshots.
type Store interface {
	Init(ctx context.Context) error
	SaveResource(ctx context.Context, id string, payload map[string]any) error
	GetResource(ctx context.Context, id string) (map[string]any, bool, error)
	DeleteResource(ctx context.Context, id string) error
	SaveSnapshot(ctx context.Context, snapshot model.FusionSnapshot) error
	GetSnapshot(ctx context.Context, id string) (model.FusionSnapshot, bool, error)
}
