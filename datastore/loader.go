package datastore

import (
	"context"
	"net/url"
)

// JSONGetter is the part of api.Client the loaders need.
type JSONGetter interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// GetJSON returns a LoadFunc that issues one GET per fetch. The request is
// authenticated however the getter is configured, so stores that differ
// only by auth mechanism share this loader.
func GetJSON[P, T any](client JSONGetter, path func(P) string, query func(P) url.Values) LoadFunc[P, T] {
	return func(ctx context.Context, params P) (T, error) {
		var out T
		var q url.Values
		if query != nil {
			q = query(params)
		}
		if err := client.GetJSON(ctx, path(params), q, &out); err != nil {
			return *new(T), err
		}
		return out, nil
	}
}
