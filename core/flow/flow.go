// Package flow resolves node inputs and outputs on demand. Resolution is
// pull based and uncached: source nodes are cheap parameter generators,
// so each call simply walks one hop upstream per input.
package flow

import (
	"github.com/ingyamilmolinar/patchbay/core/model"
	"github.com/ingyamilmolinar/patchbay/core/node"
)

// ResolveInputs computes the effective value of every sink port of n.
// Unconnected sinks, sinks whose upstream node or port has vanished, and
// sinks that would re-enter a node already being computed (cyclic
// wiring) are simply absent from the result.
func ResolveInputs(g *model.Graph, n model.Node) node.Inputs {
	return resolveInputs(g, n, map[model.NodeID]bool{n.ID: true})
}

// ComputeOutputs runs the node type's pure output function over the
// node's own properties and its resolved inputs.
func ComputeOutputs(g *model.Graph, n model.Node) node.Outputs {
	return computeOutputs(g, n, map[model.NodeID]bool{n.ID: true})
}

func resolveInputs(g *model.Graph, n model.Node, visiting map[model.NodeID]bool) node.Inputs {
	t, err := g.Types().Resolve(n.Type)
	if err != nil {
		return node.Inputs{}
	}
	inputs := node.Inputs{}
	for portID, p := range t.Ports(n.Props) {
		if p.Dir != node.Sink {
			continue
		}
		conn, ok := g.ConnInto(model.PortRef{Node: n.ID, Port: portID})
		if !ok {
			continue
		}
		// Cycle guard: a connection looping back into a node already on
		// this call stack reads as absent instead of recursing.
		if visiting[conn.From.Node] {
			continue
		}
		src, ok := g.NodeByID(conn.From.Node)
		if !ok {
			continue // stale edge, upstream node gone
		}
		visiting[src.ID] = true
		outs := computeOutputs(g, src, visiting)
		delete(visiting, src.ID)
		if v, ok := outs[conn.From.Port]; ok {
			inputs[portID] = v
		}
	}
	return inputs
}

func computeOutputs(g *model.Graph, n model.Node, visiting map[model.NodeID]bool) node.Outputs {
	t, err := g.Types().Resolve(n.Type)
	if err != nil {
		return node.Outputs{}
	}
	return t.ComputeOutputs(n.Props, resolveInputs(g, n, visiting))
}
