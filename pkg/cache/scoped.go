package cache

import "github.com/matzehuels/mtlxport/pkg/source"

// ScopedKeyer prefixes every key of an inner [Keyer]. It separates
// projects sharing one Redis instance.
//
//	keyer := cache.NewScopedKeyer(nil, "shots:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DocumentKey returns the prefixed document key.
func (k *ScopedKeyer) DocumentKey(m source.Material, opts DocumentKeyOpts) (string, error) {
	key, err := k.inner.DocumentKey(m, opts)
	if err != nil {
		return "", err
	}
	return k.prefix + key, nil
}

// ArtifactKey returns the prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(documentKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(documentKey, opts)
}
