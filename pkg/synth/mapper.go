package synth

import (
	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/mapper"
	"github.com/matzehuels/mtlxport/pkg/source"
)

// RecipeMapper adapts a [Synthesizer] to [mapper.Mapper], so recipe
// categories are translated exactly like registered ones.
type RecipeMapper struct {
	s *Synthesizer
}

// Mapper returns the recipe mapper backed by s.
func (s *Synthesizer) Mapper() *RecipeMapper {
	return &RecipeMapper{s: s}
}

// CanHandle reports whether n's category has a recipe.
func (m *RecipeMapper) CanHandle(n *source.Node) bool {
	return Has(n.Category)
}

// Map synthesizes the category's definition if needed and instantiates it.
// A definition conflict is reported as a warning and the existing
// signature is used.
func (m *RecipeMapper) Map(n *source.Node, ctx mapper.Context) (mapper.Emitted, error) {
	r, ok := recipes[n.Category]
	if !ok {
		return mapper.Emitted{}, errs.New(errs.ErrCodeUnsupportedCategory, "no definition recipe for %s", n.Category)
	}
	h, err := m.s.Synthesize(n.Category, r.outType)
	if err != nil {
		if h == nil || !errs.Is(err, errs.ErrCodeDefinitionConflict) {
			return mapper.Emitted{}, err
		}
		ctx.Warnf("%s: %s", n.Name, errs.UserMessage(err))
	}

	node := ctx.NewNode(h.Node, h.Type, h.Node+"_"+n.Name)
	node.NodeDef = h.Name
	for _, p := range h.Inputs {
		if p.Source == "" {
			continue
		}
		b := ctx.Input(n, p.Source)
		if p.GeomProp != "" && !b.Connected {
			continue
		}
		ctx.Bind(node, p.Name, p.Type, b)
	}
	if r.literals != nil {
		for _, l := range r.literals(n, ctx.Warnf) {
			ctx.BindValue(node, l.input, l.value)
		}
	}

	if len(h.Outputs) == 0 {
		return mapper.Single(node), nil
	}
	em := mapper.Emitted{Node: node, Outputs: make(map[string]mapper.Ref, len(h.Outputs))}
	for src := range h.Outputs {
		em.Outputs[src] = mapper.RefTo(node)
	}
	return em, nil
}
