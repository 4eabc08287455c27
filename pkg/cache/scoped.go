package cache

// ScopedKeyer wraps a Keyer with a prefix so separate deployments or
// datasets sharing one backend (a common Redis, say) get isolated
// namespaces.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DatasetKey generates a prefixed dataset key.
func (k *ScopedKeyer) DatasetKey(datasetHash string) string {
	return k.prefix + k.inner.DatasetKey(datasetHash)
}

// VariantKey generates a prefixed variant key.
func (k *ScopedKeyer) VariantKey(datasetHash string, opts VariantKeyOpts) string {
	return k.prefix + k.inner.VariantKey(datasetHash, opts)
}

// SnapshotKey generates a prefixed snapshot key.
func (k *ScopedKeyer) SnapshotKey(datasetHash string, generation uint64) string {
	return k.prefix + k.inner.SnapshotKey(datasetHash, generation)
}
