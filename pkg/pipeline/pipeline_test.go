package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/mtlxport/pkg/cache"
	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/observability"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/translate"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// texturedMaterial builds image → principled → material output.
func texturedMaterial(t *testing.T, name string) source.Material {
	t.Helper()
	g := source.New()
	must := func(id source.NodeID, err error) source.NodeID {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return id
	}
	tex := must(g.AddNode(source.Node{
		Name: "Albedo", Category: source.ImageTexture,
		Props:   source.Props{"image": "albedo.png"},
		Outputs: []source.Output{{Name: "Color", Type: types.Color4}},
	}))
	shader := must(g.AddNode(source.Node{
		Name: "Surface", Category: source.PrincipledSurface,
		Inputs:  []source.Input{{Name: "Base Color", Type: types.Color4}, {Name: "Roughness", Type: types.Float, Value: 0.4}},
		Outputs: []source.Output{{Name: "BSDF", Type: types.SurfaceShader}},
	}))
	out := must(g.AddNode(source.Node{
		Name: "Output", Category: source.MaterialOutput,
		Inputs: []source.Input{{Name: "Surface", Type: types.SurfaceShader}},
	}))
	if err := g.Connect(tex, "Color", shader, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(shader, "BSDF", out, 0); err != nil {
		t.Fatal(err)
	}
	return source.Material{Name: name, Graph: g, Root: out}
}

// unsupportedMaterial feeds an unknown node into the shader.
func unsupportedMaterial(t *testing.T, name string) source.Material {
	t.Helper()
	g := source.New()
	sky, _ := g.AddNode(source.Node{
		Name: "Sky", Category: "sky-texture",
		Outputs: []source.Output{{Name: "Color", Type: types.Color4}},
	})
	shader, _ := g.AddNode(source.Node{
		Name: "Surface", Category: source.PrincipledSurface,
		Inputs:  []source.Input{{Name: "Base Color", Type: types.Color4}},
		Outputs: []source.Output{{Name: "BSDF", Type: types.SurfaceShader}},
	})
	if err := g.Connect(sky, "Color", shader, 0); err != nil {
		t.Fatal(err)
	}
	return source.Material{Name: name, Graph: g, Root: shader}
}

func newRunner(t *testing.T, c cache.Cache, strict bool) *Runner {
	t.Helper()
	tr, err := translate.New(translate.Options{Strict: strict})
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil, tr)
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"mtlx", false},
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"MTLX", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats(" MTLX, svg,,mtlx ")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != "mtlx,svg" {
		t.Errorf("ParseFormats = %v", got)
	}
	if _, err := ParseFormats("mtlx,pdf"); err == nil {
		t.Error("unsupported format accepted")
	}
}

func TestExtension(t *testing.T) {
	for format, want := range map[string]string{
		FormatMTLX: ".mtlx",
		FormatJSON: ".mtlx.json",
		FormatDOT:  ".dot",
		FormatSVG:  ".svg",
	} {
		if got := Extension(format); got != want {
			t.Errorf("Extension(%s) = %s, want %s", format, got, want)
		}
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{Materials: []source.Material{{Name: "m"}}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatMTLX || opts.Logger == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}

	if err := (&Options{}).ValidateAndSetDefaults(); err == nil {
		t.Error("empty material list accepted")
	}
	bad := Options{Materials: []source.Material{{Name: "m"}}, Formats: []string{"png"}}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("invalid format accepted")
	}
}

func TestExecute(t *testing.T) {
	r := newRunner(t, nil, false)
	res, err := r.Execute(context.Background(), Options{
		Materials: []source.Material{texturedMaterial(t, "brick")},
		Formats:   []string{FormatMTLX, FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.RunID == "" || len(res.Materials) != 1 {
		t.Fatalf("result = %+v", res)
	}
	m := res.Materials[0]
	if m.Err != nil || !m.Success || m.Key == "" {
		t.Fatalf("material = %+v", m)
	}
	if !bytes.Contains(m.Artifacts[FormatMTLX], []byte(`<surfacematerial name="brick"`)) {
		t.Errorf("mtlx artifact:\n%s", m.Artifacts[FormatMTLX])
	}
	if !bytes.Contains(m.Artifacts[FormatJSON], []byte(`"category": "surfacematerial"`)) {
		t.Errorf("json artifact:\n%s", m.Artifacts[FormatJSON])
	}
	if !bytes.HasPrefix(m.Artifacts[FormatDOT], []byte("digraph G {")) {
		t.Errorf("dot artifact:\n%s", m.Artifacts[FormatDOT])
	}
	if res.Stats.Materials != 1 || res.Stats.Failed != 0 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestExecuteIsolatesFailures(t *testing.T) {
	r := newRunner(t, nil, true)
	res, err := r.Execute(context.Background(), Options{
		Materials: []source.Material{
			texturedMaterial(t, "good"),
			unsupportedMaterial(t, "bad"),
		},
		Workers: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	good, bad := res.Materials[0], res.Materials[1]
	if good.Err != nil || len(good.Artifacts) != 1 {
		t.Errorf("good = %+v", good)
	}
	if bad.Err == nil || !errs.Is(bad.Err, errs.ErrCodeUnsupportedCategory) {
		t.Errorf("bad.Err = %v", bad.Err)
	}
	if bad.FailedNode != "Sky" || len(bad.Artifacts) != 0 {
		t.Errorf("bad = %+v", bad)
	}
	if len(res.Failed()) != 1 || res.Stats.Failed != 1 {
		t.Errorf("failed = %d, stats = %+v", len(res.Failed()), res.Stats)
	}
}

func TestExecuteDegraded(t *testing.T) {
	r := newRunner(t, nil, false)
	res, err := r.Execute(context.Background(), Options{
		Materials: []source.Material{unsupportedMaterial(t, "wave")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if m := res.Materials[0]; m.Err != nil || !m.Degraded() {
		t.Errorf("material = %+v", m)
	}
	if res.Stats.Degraded != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newRunner(t, c, false)
	opts := Options{
		Materials: []source.Material{texturedMaterial(t, "brick")},
		Formats:   []string{FormatMTLX, FormatDOT},
	}
	ctx := context.Background()

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if info := first.Materials[0].CacheInfo; info.TranslateHit || info.RenderHit {
		t.Errorf("first run hit the cache: %+v", info)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	m := second.Materials[0]
	if !m.CacheInfo.TranslateHit || !m.CacheInfo.RenderHit {
		t.Errorf("second run missed the cache: %+v", m.CacheInfo)
	}
	if !bytes.Equal(m.Artifacts[FormatMTLX], first.Materials[0].Artifacts[FormatMTLX]) {
		t.Error("cached artifact differs")
	}
	if m.Report == nil || !m.Report.Valid || m.Stats != first.Materials[0].Stats {
		t.Errorf("cached result lost data: %+v", m.Result)
	}

	opts.Refresh = true
	third, _ := r.Execute(ctx, opts)
	if third.Materials[0].CacheInfo.TranslateHit {
		t.Error("refresh served a cached document")
	}

	// Strict mode changes the key.
	strict := newRunner(t, c, true)
	opts.Refresh = false
	fourth, _ := strict.Execute(ctx, opts)
	if fourth.Materials[0].CacheInfo.TranslateHit {
		t.Error("strict run reused a lenient document")
	}
}

func TestExecuteEmitsHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetTranslateHooks(h)
	t.Cleanup(observability.Reset)

	r := newRunner(t, nil, false)
	_, err := r.Execute(context.Background(), Options{
		Materials: []source.Material{texturedMaterial(t, "a"), unsupportedMaterial(t, "b")},
	})
	if err != nil {
		t.Fatal(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started != 2 || h.completed != 2 || h.rendered != 1 {
		t.Errorf("hooks = %+v", h)
	}
	if !h.degraded["b"] || h.degraded["a"] {
		t.Errorf("degraded = %v", h.degraded)
	}
}

func TestExecuteRejects(t *testing.T) {
	r := newRunner(t, nil, false)
	if _, err := r.Execute(context.Background(), Options{}); err == nil {
		t.Error("no materials accepted")
	}
	if _, err := NewRunner(nil, nil, nil, nil).Execute(context.Background(), Options{
		Materials: []source.Material{texturedMaterial(t, "a")},
	}); err == nil {
		t.Error("runner without translator accepted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Execute(ctx, Options{Materials: []source.Material{texturedMaterial(t, "a")}}); err == nil {
		t.Error("cancelled run returned no error")
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering skipped in short mode")
	}
	r := newRunner(t, nil, false)
	res, err := r.Execute(context.Background(), Options{
		Materials: []source.Material{texturedMaterial(t, "brick")},
		Formats:   []string{FormatSVG},
	})
	if err != nil {
		t.Fatal(err)
	}
	if svg := res.Materials[0].Artifacts[FormatSVG]; !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("svg artifact: %.200s", svg)
	}
}

func TestRenderNilDocument(t *testing.T) {
	if _, err := Render(context.Background(), nil, []string{FormatMTLX}, false); err == nil {
		t.Error("nil document rendered")
	}
}

func TestSelect(t *testing.T) {
	f := &source.File{Materials: []source.Material{
		texturedMaterial(t, "brick"),
		texturedMaterial(t, "wood"),
	}}

	all, err := Select(f, "", "")
	if err != nil || len(all) != 2 {
		t.Fatalf("Select all = %d, %v", len(all), err)
	}

	one, err := Select(f, "wood", "Surface")
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := one[0].Graph.Node(one[0].Root); one[0].Name != "wood" || n.Name != "Surface" {
		t.Errorf("Select = %+v", one[0])
	}
	if f.Materials[1].Root == one[0].Root {
		t.Error("Select modified the file's material")
	}

	tests := []struct {
		name, material, root string
		code                 errs.Code
	}{
		{"unknown material", "stone", "", errs.ErrCodeNotFound},
		{"root needs one material", "", "Surface", errs.ErrCodeInvalidInput},
		{"unknown root", "brick", "Nope", errs.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Select(f, tt.material, tt.root)
			if !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

type recordingHooks struct {
	observability.NoopTranslateHooks
	mu        sync.Mutex
	started   int
	completed int
	rendered  int
	degraded  map[string]bool
}

func (h *recordingHooks) OnTranslateStart(context.Context, string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started++
}

func (h *recordingHooks) OnTranslateComplete(_ context.Context, material string, o observability.Outcome, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed++
	if h.degraded == nil {
		h.degraded = map[string]bool{}
	}
	h.degraded[material] = o.Degraded
}

func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rendered++
}
