// Package store provides durable keyed storage for workflow records.
//
// All records are JSON blobs namespaced by kind prefix plus id
// (request:<id>, session:<id>, code:<id>, review:<id>, ranking:<id>) and
// expire after a uniform TTL. The orchestrator is written against the Store
// interface and never knows which backend is in use.
package store

import (
	"context"
	"errors"
	"time"
)

// Key prefixes, one per record kind.
const (
	PrefixRequest  = "request:"
	PrefixSession  = "session:"
	PrefixArtifact = "code:"
	PrefixReview   = "review:"
	PrefixRanking  = "ranking:"
)

// DefaultTTL is applied uniformly to all records.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("store: key not found")

// Store is the durable key-value contract consumed by the orchestrator and
// the HTTP boundary. Set overwrites unconditionally; there is no
// compare-and-swap in this contract.
type Store interface {
	// Set writes value under key with the given TTL. A zero ttl means
	// DefaultTTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// ScanByPrefix returns all live keys with the given prefix. Order is
	// unspecified.
	ScanByPrefix(ctx context.Context, prefix string) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}
