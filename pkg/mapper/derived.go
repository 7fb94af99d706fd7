package mapper

import (
	"github.com/matzehuels/mtlxport/pkg/types"
)

// derivation computes a target parameter from a scalar source parameter as
// "constant op x". A literal driver is evaluated up front; a connected
// driver gets an arithmetic node instead. Never both.
type derivation struct {
	op       string  // Target arithmetic category: divide or subtract
	constant float64 // Left operand
	label    string  // Base name of the arithmetic node
}

var (
	// frequency is the inverse of scale.
	frequency = derivation{op: "divide", constant: 1, label: "frequency"}
	// diminish is the complement of roughness.
	diminish = derivation{op: "subtract", constant: 1, label: "diminish"}
)

func (d derivation) eval(x float64) (float64, bool) {
	switch d.op {
	case "divide":
		if x == 0 {
			return 0, false
		}
		return d.constant / x, true
	case "subtract":
		return d.constant - x, true
	}
	return 0, false
}

// derive turns driver b into a binding of the derived parameter. An absent
// driver yields an absent binding so the target default applies.
func derive(ctx Context, b Binding, d derivation, owner string) Binding {
	if !b.Present {
		return b
	}
	if !b.Connected {
		x := types.MustCoerce(b.Value, types.Float).Scalar()
		v, ok := d.eval(x)
		if !ok {
			ctx.Warnf("%s: cannot derive %s from %s = %s, using default", owner, d.label, b.Name, types.FormatFloat(x))
			return Binding{Name: b.Name}
		}
		return Binding{Name: b.Name, Present: true, Value: types.FloatValue(v)}
	}

	node := ctx.NewNode(d.op, types.Float, d.label+"_"+owner)
	ctx.BindValue(node, "in1", types.FloatValue(d.constant))
	ctx.Bind(node, "in2", types.Float, b)
	return Binding{Name: b.Name, Present: true, Connected: true, Ref: RefTo(node)}
}
