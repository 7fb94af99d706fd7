package mapper

import (
	"github.com/matzehuels/mtlxport/pkg/source"
)

// Default returns a registry with every built-in mapper: the embedded
// schema tables plus the hand-written mappers. Each call returns a new
// registry that callers may extend.
func Default() (*Registry, error) {
	r := NewRegistry()
	schemas, err := BuiltinSchemas()
	if err != nil {
		return nil, err
	}
	for _, s := range schemas {
		r.Register(s.Category, NewSchemaMapper(s))
	}

	r.Register(source.PrincipledSurface, PrincipledMapper{})
	r.Register(source.ImageTexture, ImageMapper{})
	r.Register(source.NoiseTexture, NoiseMapper{})
	r.Register(source.VoronoiTexture, VoronoiMapper{})
	r.Register(source.MusgraveTexture, MusgraveMapper{})
	r.Register(source.WaveTexture, WaveMapper{})
	r.Register(source.GradientTexture, GradientMapper{})
	r.Register(source.Mapping, MappingMapper{})
	r.Register(source.Math, NewMathMapper())
	r.Register(source.VectorMath, NewVectorMathMapper())
	r.Register(source.RGB, NewRGBMapper())
	r.Register(source.Value, NewValueMapper())
	return r, nil
}
