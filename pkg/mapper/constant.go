package mapper

import (
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// ConstantMapper maps input-less value nodes (rgb, value) onto constant
// nodes. The value is read from the "value" property, or from the first
// output's declared default when a graph stores it there as an input.
type ConstantMapper struct {
	category source.Category
	typ      types.Type
}

// NewRGBMapper maps rgb nodes onto color3 constants.
func NewRGBMapper() *ConstantMapper {
	return &ConstantMapper{category: source.RGB, typ: types.Color3}
}

// NewValueMapper maps value nodes onto float constants.
func NewValueMapper() *ConstantMapper {
	return &ConstantMapper{category: source.Value, typ: types.Float}
}

// CanHandle accepts nodes of the mapper's category.
func (m *ConstantMapper) CanHandle(n *source.Node) bool {
	return n.Category == m.category
}

// Map emits a constant node.
func (m *ConstantMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	node := ctx.NewNode("constant", m.typ, nodeName("constant", n))

	var b Binding
	if raw, ok := n.Props["value"]; ok {
		v, err := types.FromRaw(raw, m.typ)
		if err != nil {
			ctx.Warnf("%s: %v", n.Name, err)
		}
		b = Literal(v)
	} else if len(n.Inputs) > 0 {
		b = ctx.InputAt(n, 0)
	}
	if !b.Present {
		b = Literal(types.Default(m.typ))
	}
	ctx.Bind(node, "value", m.typ, b)
	return Single(node), nil
}
