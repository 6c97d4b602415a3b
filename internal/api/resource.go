package api

import (
	"context"
	"net/http"
)

// Resource is a plain CRUD collection on the server: GET and POST on the
// collection, PUT and DELETE on /{id}.
type Resource[T any] struct {
	c      *Client
	path   string
	name   string
	plural string
}

// List fetches the whole collection.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.c.call(ctx, "load "+r.plural, http.MethodGet, nil, &out, r.path); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource[T]) Create(ctx context.Context, v *T) (*T, error) {
	var out T
	if err := r.c.call(ctx, "create "+r.name, http.MethodPost, v, &out, r.path); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Update(ctx context.Context, id string, v *T) (*T, error) {
	var out T
	if err := r.c.call(ctx, "update "+r.name, http.MethodPut, v, &out, r.path, id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.c.call(ctx, "delete "+r.name, http.MethodDelete, nil, nil, r.path, id)
}

// UserResource is a Resource whose GET /{id} lists one user's records.
type UserResource[T any] struct {
	Resource[T]
}

func newUserResource[T any](c *Client, path, name, plural string) *UserResource[T] {
	return &UserResource[T]{Resource: Resource[T]{c: c, path: path, name: name, plural: plural}}
}

// ByUser lists the records owned by userID.
func (r *UserResource[T]) ByUser(ctx context.Context, userID string) ([]T, error) {
	var out []T
	if err := r.c.call(ctx, "load "+r.plural, http.MethodGet, nil, &out, r.path, userID); err != nil {
		return nil, err
	}
	return out, nil
}
