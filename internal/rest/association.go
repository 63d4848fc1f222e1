package rest

import (
	"context"
	"net/url"
)

// AssociationHandler manages association discovery resources.
type AssociationHandler struct {
	*ResourceHandler
}

func NewAssociationHandler(conn *Connection) *AssociationHandler {
	return &AssociationHandler{ResourceHandler: NewResourceHandler(conn, "association")}
}

// CreateFromDataset builds an association from a dataset.
func (h *AssociationHandler) CreateFromDataset(ctx context.Context, datasetID string, args map[string]any) (map[string]any, error) {
	return h.Create(ctx, "dataset", datasetID, args)
}

// Rules fetches only the discovered rules of an association.
func (h *AssociationHandler) Rules(ctx context.Context, id string) (map[string]any, error) {
	query := url.Values{}
	query.Set("exclude", "items")
	return h.Get(ctx, id, query)
}
