package pipeline

import (
	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/source"
)

// Select picks the materials of f to translate. An empty material selects
// all of them. A non-empty root names the node to translate from and
// requires a single selected material.
func Select(f *source.File, material, root string) ([]source.Material, error) {
	if f == nil || len(f.Materials) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "no materials in source file")
	}

	materials := f.Materials
	if material != "" {
		m, ok := f.Material(material)
		if !ok {
			return nil, errs.New(errs.ErrCodeNotFound, "material %q not found", material)
		}
		materials = []source.Material{m}
	}

	if root == "" {
		return materials, nil
	}
	if len(materials) != 1 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "--root needs a single material; pick one with --material")
	}
	m := materials[0]
	id, err := source.FindRoot(m.Graph, root)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNotFound, err, "material %s", m.Name)
	}
	m.Root = id
	return []source.Material{m}, nil
}
