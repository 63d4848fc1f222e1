package rest

import "context"

// PCAHandler manages principal component analysis resources.
type PCAHandler struct {
	*ResourceHandler
}

func NewPCAHandler(conn *Connection) *PCAHandler {
	return &PCAHandler{ResourceHandler: NewResourceHandler(conn, "pca")}
}

// CreateFromDataset builds a PCA from a dataset.
func (h *PCAHandler) CreateFromDataset(ctx context.Context, datasetID string, args map[string]any) (map[string]any, error) {
	return h.Create(ctx, "dataset", datasetID, args)
}
