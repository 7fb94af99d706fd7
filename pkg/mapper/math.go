package mapper

import (
	"strings"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// operation describes one math operation. Operands are taken positionally:
// slot i of the target receives the source input at index operands[i],
// regardless of socket names.
type operation struct {
	target   string
	slots    []string
	operands []int
	// slotTypes overrides the node type for individual slots.
	slotTypes map[string]types.Type
	// constants are fixed literals, for comparisons producing 1 or 0.
	constants []slotValue
	// out overrides the node type, for reductions like dot products.
	out types.Type
}

type slotValue struct {
	slot  string
	value float64
}

// oneOrZero selects 1 when the comparison holds and 0 otherwise.
var oneOrZero = []slotValue{{"in1", 1}, {"in2", 0}}

func binary(target string) operation {
	return operation{target: target, slots: []string{"in1", "in2"}, operands: []int{0, 1}}
}

func unary(target string) operation {
	return operation{target: target, slots: []string{"in"}, operands: []int{0}}
}

var mathOps = map[string]operation{
	"ADD":          binary("add"),
	"SUBTRACT":     binary("subtract"),
	"MULTIPLY":     binary("multiply"),
	"DIVIDE":       binary("divide"),
	"POWER":        binary("power"),
	"MINIMUM":      binary("min"),
	"MAXIMUM":      binary("max"),
	"MODULO":       binary("modulo"),
	"ARCTAN2":      {target: "atan2", slots: []string{"iny", "inx"}, operands: []int{0, 1}},
	"LOGARITHM":    unary("ln"),
	"EXPONENT":     unary("exp"),
	"SQRT":         unary("sqrt"),
	"ABSOLUTE":     unary("absval"),
	"SINE":         unary("sin"),
	"COSINE":       unary("cos"),
	"TANGENT":      unary("tan"),
	"ARCSINE":      unary("asin"),
	"ARCCOSINE":    unary("acos"),
	"FLOOR":        unary("floor"),
	"CEIL":         unary("ceil"),
	"ROUND":        unary("round"),
	"SIGN":         unary("sign"),
	"GREATER_THAN": {target: "ifgreater", slots: []string{"value1", "value2"}, operands: []int{0, 1}, constants: oneOrZero},
	"LESS_THAN":    {target: "ifgreater", slots: []string{"value1", "value2"}, operands: []int{1, 0}, constants: oneOrZero},
	"COMPARE":      {target: "ifequal", slots: []string{"value1", "value2"}, operands: []int{0, 1}, constants: oneOrZero},
}

var vectorOps = map[string]operation{
	"ADD":           binary("add"),
	"SUBTRACT":      binary("subtract"),
	"MULTIPLY":      binary("multiply"),
	"DIVIDE":        binary("divide"),
	"MINIMUM":       binary("min"),
	"MAXIMUM":       binary("max"),
	"MODULO":        binary("modulo"),
	"CROSS_PRODUCT": binary("crossproduct"),
	"DOT_PRODUCT":   {target: "dotproduct", slots: []string{"in1", "in2"}, operands: []int{0, 1}, out: types.Float},
	"DISTANCE":      {target: "distance", slots: []string{"in1", "in2"}, operands: []int{0, 1}, out: types.Float},
	"LENGTH":        {target: "magnitude", slots: []string{"in"}, operands: []int{0}, out: types.Float},
	"NORMALIZE":     unary("normalize"),
	"ABSOLUTE":      unary("absval"),
	"FLOOR":         unary("floor"),
	"CEIL":          unary("ceil"),
	"SINE":          unary("sin"),
	"COSINE":        unary("cos"),
	"TANGENT":       unary("tan"),
	"SCALE":         {target: "multiply", slots: []string{"in1", "in2"}, operands: []int{0, 3}},
	"REFLECT":       {target: "reflect", slots: []string{"in", "normal"}, operands: []int{0, 1}},
	"REFRACT": {target: "refract", slots: []string{"in", "normal", "ior"}, operands: []int{0, 1, 3},
		slotTypes: map[string]types.Type{"ior": types.Float}},
}

// MathMapper maps scalar and vector math nodes. The operation comes from
// the "operation" property; "use_clamp" clamps the result to [0, 1].
type MathMapper struct {
	category source.Category
	typ      types.Type
	ops      map[string]operation
}

// NewMathMapper returns the scalar math mapper.
func NewMathMapper() *MathMapper {
	return &MathMapper{category: source.Math, typ: types.Float, ops: mathOps}
}

// NewVectorMathMapper returns the vector math mapper.
func NewVectorMathMapper() *MathMapper {
	return &MathMapper{category: source.VectorMath, typ: types.Vector3, ops: vectorOps}
}

func (m *MathMapper) operation(n *source.Node) (operation, bool) {
	op := strings.ToUpper(n.Props.String("operation"))
	if op == "" {
		op = "ADD"
	}
	o, ok := m.ops[op]
	return o, ok
}

// CanHandle accepts nodes whose operation is in the table.
func (m *MathMapper) CanHandle(n *source.Node) bool {
	if n.Category != m.category {
		return false
	}
	_, ok := m.operation(n)
	return ok
}

// Map emits the operation node, plus a clamp when requested.
func (m *MathMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	op, ok := m.operation(n)
	if !ok {
		return Emitted{}, errs.New(errs.ErrCodeUnsupported, "unsupported operation %q", n.Props.String("operation"))
	}
	out := m.typ
	if op.out != "" {
		out = op.out
	}

	// Signatures are looked up by output type; reductions are keyed by
	// their result.
	def, ok := ctx.Catalog().Lookup(op.target, out)
	if !ok {
		return Emitted{}, errs.New(errs.ErrCodeUnsupported, "no %s signature producing %s", op.target, out)
	}
	node := ctx.NewNode(op.target, def.Type, nodeName(op.target, n))
	for i, slot := range op.slots {
		t := m.typ
		if in, ok := def.Input(slot); ok {
			t = in.Type
		}
		if st, ok := op.slotTypes[slot]; ok {
			t = st
		}
		ctx.Bind(node, slot, t, ctx.InputAt(n, op.operands[i]))
	}
	for _, c := range op.constants {
		ctx.BindValue(node, c.slot, types.FloatValue(c.value))
	}

	if !n.Props.Bool("use_clamp") {
		return Single(node), nil
	}
	clamp := ctx.NewNode("clamp", node.Type, "clamp_"+n.Name)
	ctx.Bind(clamp, "in", node.Type, Connection(RefTo(node)))
	return Single(clamp), nil
}
