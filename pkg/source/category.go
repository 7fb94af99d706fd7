package source

// Category identifies what a source node computes.
type Category string

// Categories with built-in translations. Other categories may still be
// handled by user-supplied mapper schemas or definition recipes.
const (
	MaterialOutput    Category = "material-output"
	PrincipledSurface Category = "principled-surface"
	DiffuseBSDF       Category = "diffuse-bsdf"
	Emission          Category = "emission"
	MixShader         Category = "mix-shader"
	AddShader         Category = "add-shader"

	ImageTexture    Category = "image-texture"
	NoiseTexture    Category = "noise-texture"
	CheckerTexture  Category = "checker-texture"
	GradientTexture Category = "gradient-texture"
	VoronoiTexture  Category = "voronoi-texture"
	WaveTexture     Category = "wave-texture"
	MusgraveTexture Category = "musgrave-texture"
	BrickTexture    Category = "brick-texture"
	TexCoord        Category = "texture-coordinate"
	Geometry        Category = "geometry"
	Mapping         Category = "mapping"

	Math       Category = "math"
	VectorMath Category = "vector-math"
	Mix        Category = "mix"
	Invert     Category = "invert"
	Clamp      Category = "clamp"
	MapRange   Category = "map-range"
	RGB        Category = "rgb"
	Value      Category = "value"

	SeparateColor Category = "separate-color"
	CombineColor  Category = "combine-color"
	SeparateXYZ   Category = "separate-xyz"
	CombineXYZ    Category = "combine-xyz"
	RGBToBW       Category = "rgb-to-bw"
	HSVToRGB      Category = "hsv-to-rgb"

	NormalMap Category = "normal-map"
	Bump      Category = "bump"

	CurveRGB    Category = "curve-rgb"
	FloatCurve  Category = "float-curve"
	VectorCurve Category = "vector-curve"
	ColorRamp   Category = "color-ramp"
)
