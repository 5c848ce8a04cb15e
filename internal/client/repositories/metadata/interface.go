// Package metadata is the persistent key-value store of the client. The
// upload ledger and the gallery sync bookkeeping both live here.
package metadata

import (
	"context"
)

// Repository is a durable byte-valued key-value store.
//
// Get returns (nil, nil) for a missing key. Delete of a missing key is not
// an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns every pair whose key starts with prefix ("" for all).
	List(ctx context.Context, prefix string) (map[string][]byte, error)
}
