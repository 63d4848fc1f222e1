package rest

import (
	"context"
	"errors"
)

// FusionHandler manages fusion resources: server-side compositions of
// previously trained supervised models.
type FusionHandler struct {
	*ResourceHandler
}

func NewFusionHandler(conn *Connection) *FusionHandler {
	return &FusionHandler{ResourceHandler: NewResourceHandler(conn, "fusion")}
}

// CreateFromModels builds a fusion over the given member models. Members are
// either bare identifiers or {"id": ..., "weight": ...} records; args carries
// the optional creation parameters.
func (h *FusionHandler) CreateFromModels(ctx context.Context, members []any, args map[string]any) (map[string]any, error) {
	if len(members) == 0 {
		return nil, errors.New("fusion creation requires at least one model")
	}
	body := map[string]any{"models": members}
	for key, value := range args {
		body[key] = value
	}
	return h.CreateFrom(ctx, body)
}
