// Package storage moves workbooks and output documents between the pipeline
// and either the local disk or Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Router sends gs:// URIs to Cloud Storage and everything else to the local
// disk. The Cloud Storage client is created on first use.
type Router struct {
	local Store

	mu     sync.Mutex
	gcs    Store
	closer func() error
	newGCS func(ctx context.Context) (Store, func() error, error)
}

// NewRouter returns a Router backed by a LocalStore and a lazily created
// GCSStore.
func NewRouter() *Router {
	return &Router{
		local: NewLocalStore(),
		newGCS: func(ctx context.Context) (Store, func() error, error) {
			s, err := NewGCSStore(ctx)
			if err != nil {
				return nil, nil, err
			}
			return s, s.Close, nil
		},
	}
}

// NewRouterWith returns a Router over the given stores.
func NewRouterWith(local, gcs Store) *Router {
	return &Router{local: local, gcs: gcs}
}

// Fetch reads uri from the matching store.
func (r *Router) Fetch(ctx context.Context, uri string) ([]byte, error) {
	s, err := r.storeFor(ctx, uri)
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, uri)
}

// Put writes uri through the matching store.
func (r *Router) Put(ctx context.Context, uri string, data []byte) error {
	s, err := r.storeFor(ctx, uri)
	if err != nil {
		return err
	}
	return s.Put(ctx, uri, data)
}

// Close releases the Cloud Storage client if one was created.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closer == nil {
		return nil
	}
	err := r.closer()
	r.closer = nil
	r.gcs = nil
	return err
}

func (r *Router) storeFor(ctx context.Context, uri string) (Store, error) {
	if !IsGCSURI(uri) {
		return r.local, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gcs != nil {
		return r.gcs, nil
	}
	if r.newGCS == nil {
		return nil, errors.New("storage: no Cloud Storage backend configured")
	}
	s, closer, err := r.newGCS(ctx)
	if err != nil {
		return nil, err
	}
	r.gcs, r.closer = s, closer
	return s, nil
}
