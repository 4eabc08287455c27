// Package cache provides the caching layer for settled layout variants.
//
// Computing a variant (score, normalize, settle) is deterministic for a
// given dataset, preset, normalization mode, and solver tuning, so the
// resulting documents cache well. Keys are derived by hashing exactly those
// inputs: any change to the dataset or the tuning produces a different key.
//
// Backends: FileCache for CLI usage, RedisCache for the server, NullCache to
// disable caching entirely.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface all backends implement.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys from the inputs that determine a layout.
type Keyer interface {
	// DatasetKey identifies raw dataset content.
	DatasetKey(datasetHash string) string

	// VariantKey identifies one settled variant document: dataset content
	// plus everything that influences the settle.
	VariantKey(datasetHash string, opts VariantKeyOpts) string

	// SnapshotKey identifies a per-tick snapshot of a running layout.
	SnapshotKey(datasetHash string, generation uint64) string
}

// VariantKeyOpts captures the layout-determining parameters beyond the
// dataset itself.
type VariantKeyOpts struct {
	Preset        string `json:"preset"`
	Normalization string `json:"normalization"`
	Seed          uint64 `json:"seed"`
	// SolverHash fingerprints the solver tuning so a config change never
	// serves a stale layout.
	SolverHash string `json:"solver_hash"`
}

// DefaultKeyer is the standard key derivation.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

func (k *DefaultKeyer) DatasetKey(datasetHash string) string {
	return hashKey("dataset", datasetHash)
}

func (k *DefaultKeyer) VariantKey(datasetHash string, opts VariantKeyOpts) string {
	return hashKey("variant", datasetHash, opts)
}

func (k *DefaultKeyer) SnapshotKey(datasetHash string, generation uint64) string {
	return hashKey("snapshot", datasetHash, generation)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
