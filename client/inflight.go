package client

import (
	"context"
	"errors"
	"sync"
)

// errSuperseded is the cancellation cause recorded when a newer request
// with the same identity replaces an outstanding one.
var errSuperseded = errors.New("superseded by newer request")

// inflightRegistry tracks outstanding requests by identity key so that at
// most one request per identity is in flight at a time. Issuing a new
// request with the same identity cancels the prior one before the new one
// is sent; entries are removed when their request settles.
type inflightRegistry struct {
	mu      sync.Mutex
	entries map[string]*inflightEntry
}

type inflightEntry struct {
	cancel context.CancelCauseFunc
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{
		entries: make(map[string]*inflightEntry),
	}
}

// identityKey computes the registry key for a logical call. Query
// parameters are deliberately excluded: a list call with new filters
// supersedes one with old filters.
func identityKey(method, path string) string {
	return method + " " + path
}

// register cancels any outstanding request with the same key and records
// a new entry. The returned context is cancelled if the entry is later
// superseded; the returned release func removes the entry once the
// request settles.
func (r *inflightRegistry) register(parent context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	entry := &inflightEntry{cancel: cancel}

	r.mu.Lock()
	if prior, ok := r.entries[key]; ok {
		prior.cancel(errSuperseded)
	}
	r.entries[key] = entry
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		if r.entries[key] == entry {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		cancel(nil)
	}
	return ctx, release
}

// cancel aborts the outstanding request with the given key, if any.
func (r *inflightRegistry) cancel(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[key]; ok {
		entry.cancel(errSuperseded)
		delete(r.entries, key)
	}
}

// cancelAll aborts every outstanding request.
func (r *inflightRegistry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, entry := range r.entries {
		entry.cancel(errSuperseded)
		delete(r.entries, key)
	}
}
