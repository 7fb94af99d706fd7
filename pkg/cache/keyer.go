package cache

import (
	"bytes"

	"github.com/matzehuels/mtlxport/pkg/source"
)

// Keyer derives cache keys.
type Keyer interface {
	// DocumentKey returns the key of the document translated from m.
	DocumentKey(m source.Material, opts DocumentKeyOpts) (string, error)

	// ArtifactKey returns the key of an artifact rendered from a document.
	ArtifactKey(documentKey string, opts ArtifactKeyOpts) string
}

// DocumentKeyOpts are the translation options that affect a document.
type DocumentKeyOpts struct {
	Strict bool `json:"strict"`
	// Catalogs and Schemas are content hashes of extra definition files
	// in load order. Later files override earlier ones, so order matters.
	Catalogs []string `json:"catalogs,omitempty"`
	Schemas  []string `json:"schemas,omitempty"`
	// Severities is the validator configuration, rendered as a string.
	Severities string `json:"severities,omitempty"`
	// Version invalidates entries written by other releases.
	Version string `json:"version,omitempty"`
}

// ArtifactKeyOpts are the rendering options that affect an artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer derives keys from SHA-256 content hashes.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DocumentKey hashes the canonical source encoding of m with opts.
func (DefaultKeyer) DocumentKey(m source.Material, opts DocumentKeyOpts) (string, error) {
	var buf bytes.Buffer
	if err := source.WriteJSON(&buf, m); err != nil {
		return "", err
	}
	return hashKey("doc", Hash(buf.Bytes()), opts), nil
}

// ArtifactKey hashes documentKey with opts.
func (DefaultKeyer) ArtifactKey(documentKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", documentKey, opts)
}
