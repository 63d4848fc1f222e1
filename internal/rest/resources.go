package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ResourceHandler exposes the lifecycle operations shared by every resource
// type: create, get, list, update, delete and clone. Type-specific handlers
// wrap it with their creation entry points.
type ResourceHandler struct {
	conn *Connection
	kind string
}

func NewResourceHandler(conn *Connection, kind string) *ResourceHandler {
	return &ResourceHandler{conn: conn, kind: kind}
}

func (h *ResourceHandler) Kind() string { return h.kind }

// Create posts a new resource build request. The origin argument names the
// resource the build starts from ("dataset" for most kinds) and args carries
// the optional creation parameters.
func (h *ResourceHandler) Create(ctx context.Context, origin string, originID string, args map[string]any) (map[string]any, error) {
	if originID == "" {
		return nil, fmt.Errorf("%s creation requires a source %s", h.kind, origin)
	}
	body := map[string]any{origin: originID}
	for key, value := range args {
		body[key] = value
	}
	return h.conn.do(ctx, http.MethodPost, h.kind, nil, body)
}

// CreateFrom posts a creation request with a caller-assembled body, for
// resource kinds built from several origins at once.
func (h *ResourceHandler) CreateFrom(ctx context.Context, body map[string]any) (map[string]any, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%s creation requires a request body", h.kind)
	}
	return h.conn.do(ctx, http.MethodPost, h.kind, nil, body)
}

// Get downloads the resource descriptor. Extra query parameters select
// partial or filtered views of the resource.
func (h *ResourceHandler) Get(ctx context.Context, id string, query url.Values) (map[string]any, error) {
	if err := h.checkID(id); err != nil {
		return nil, err
	}
	return h.conn.do(ctx, http.MethodGet, id, query, nil)
}

// List queries the resource collection. The filters map to the API's query
// string selectors (for example "size__gt" or "tags__in").
func (h *ResourceHandler) List(ctx context.Context, filters url.Values) ([]any, error) {
	payload, err := h.conn.do(ctx, http.MethodGet, h.kind, filters, nil)
	if err != nil {
		return nil, err
	}
	objects, _ := payload["objects"].([]any)
	return objects, nil
}

// Update patches the mutable fields of a resource.
func (h *ResourceHandler) Update(ctx context.Context, id string, changes map[string]any) (map[string]any, error) {
	if err := h.checkID(id); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, errors.New("update requires at least one change")
	}
	return h.conn.do(ctx, http.MethodPut, id, nil, changes)
}

// Delete removes the resource.
func (h *ResourceHandler) Delete(ctx context.Context, id string) error {
	if err := h.checkID(id); err != nil {
		return err
	}
	_, err := h.conn.do(ctx, http.MethodDelete, id, nil, nil)
	return err
}

// Clone creates a private copy of a (possibly shared) resource.
func (h *ResourceHandler) Clone(ctx context.Context, id string, args map[string]any) (map[string]any, error) {
	if err := h.checkID(id); err != nil {
		return nil, err
	}
	body := map[string]any{"origin": id}
	for key, value := range args {
		body[key] = value
	}
	return h.conn.do(ctx, http.MethodPost, h.kind, nil, body)
}

func (h *ResourceHandler) checkID(id string) error {
	if id == "" {
		return fmt.Errorf("%s id is required", h.kind)
	}
	return nil
}
