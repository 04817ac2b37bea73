package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ingyamilmolinar/patchbay/core/node"
	game_log "github.com/ingyamilmolinar/patchbay/internal/log"
)

// ErrStaleRef reports an operation against a node or port that no longer
// exists. Callers scheduled before a topology change treat it as "input
// absent", not as a failure.
var ErrStaleRef = errors.New("stale reference")

type NodeID string

// Node is one placed instance. Props is replaced wholesale on update so
// holders of an old Node value never observe a partial mutation.
type Node struct {
	ID    NodeID
	Type  string
	Props node.Props
}

// PortRef addresses a port on a specific node.
type PortRef struct {
	Node NodeID
	Port node.PortID
}

// Conn is a directed edge from a source port to a sink port.
type Conn struct {
	From PortRef
	To   PortRef
}

// Graph holds the nodes and connections of one patch. It is not
// goroutine safe: the engine serializes every mutation on its own loop.
// Connections keep insertion order, which is also the order pattern
// playback walks a trigger's downstream set in.
type Graph struct {
	nodes  map[NodeID]Node
	conns  []Conn
	types  *node.Registry
	logger *game_log.Logger
}

func NewGraph(types *node.Registry, logger *game_log.Logger) *Graph {
	return &Graph{
		nodes:  map[NodeID]Node{},
		types:  types,
		logger: logger.With("[GRAPH]"),
	}
}

// Types exposes the registry the graph validates against.
func (g *Graph) Types() *node.Registry { return g.types }

// AddNode places a new node of the given type with default properties.
func (g *Graph) AddNode(typeTag string) (Node, error) {
	t, err := g.types.Resolve(typeTag)
	if err != nil {
		return Node{}, err
	}
	n := Node{ID: NodeID(uuid.NewString()), Type: typeTag, Props: t.Defaults()}
	g.nodes[n.ID] = n
	g.logger.Debugf("added node %s type=%s", n.ID, typeTag)
	return n, nil
}

// addNodeWithID restores a node from a patch document, keeping its id.
func (g *Graph) addNodeWithID(id NodeID, typeTag string, props node.Props) {
	g.nodes[id] = Node{ID: id, Type: typeTag, Props: props}
}

// RemoveNode deletes a node and every connection touching it.
func (g *Graph) RemoveNode(id NodeID) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	kept := g.conns[:0]
	for _, c := range g.conns {
		if c.From.Node != id && c.To.Node != id {
			kept = append(kept, c)
		}
	}
	g.conns = kept
	g.logger.Debugf("removed node %s", id)
}

func (g *Graph) NodeByID(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node. Order is unspecified.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// ConnsFor returns the connections touching either side of id, in
// insertion order.
func (g *Graph) ConnsFor(id NodeID) []Conn {
	var out []Conn
	for _, c := range g.conns {
		if c.From.Node == id || c.To.Node == id {
			out = append(out, c)
		}
	}
	return out
}

// ConnInto returns the single connection feeding the given sink, if any.
func (g *Graph) ConnInto(to PortRef) (Conn, bool) {
	for _, c := range g.conns {
		if c.To == to {
			return c, true
		}
	}
	return Conn{}, false
}

// Downstream lists the nodes wired to the given source port, in
// connection insertion order.
func (g *Graph) Downstream(id NodeID, port node.PortID) []NodeID {
	var out []NodeID
	for _, c := range g.conns {
		if c.From.Node == id && c.From.Port == port {
			out = append(out, c.To.Node)
		}
	}
	return out
}

// Connect wires a source port to a sink port. A sink holds at most one
// incoming connection; wiring an occupied sink replaces the old edge.
func (g *Graph) Connect(from, to PortRef) error {
	fromPorts, err := g.portsOf(from.Node)
	if err != nil {
		return err
	}
	toPorts, err := g.portsOf(to.Node)
	if err != nil {
		return err
	}
	fp, ok := fromPorts[from.Port]
	if !ok || fp.Dir != node.Source {
		return fmt.Errorf("%w: %s has no source port %q", ErrStaleRef, from.Node, from.Port)
	}
	tp, ok := toPorts[to.Port]
	if !ok || tp.Dir != node.Sink {
		return fmt.Errorf("%w: %s has no sink port %q", ErrStaleRef, to.Node, to.Port)
	}
	g.Disconnect(to)
	g.conns = append(g.conns, Conn{From: from, To: to})
	g.logger.Debugf("connected %s:%s -> %s:%s", from.Node, from.Port, to.Node, to.Port)
	return nil
}

// Disconnect removes the connection into the given sink, if present.
func (g *Graph) Disconnect(to PortRef) bool {
	for i, c := range g.conns {
		if c.To == to {
			g.conns = append(g.conns[:i], g.conns[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateProps applies updater to a copy of the node's property bag,
// validates the result and installs it. On validation failure the node
// keeps its previous properties. A layout change (the updated props may
// grow or shrink the port set) prunes connections left pointing at ports
// that no longer exist.
func (g *Graph) UpdateProps(id NodeID, updater func(node.Props) node.Props) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %s", ErrStaleRef, id)
	}
	next := updater(n.Props.Clone())
	validated, err := g.types.Validate(n.Type, next)
	if err != nil {
		return err
	}
	n.Props = validated
	g.nodes[id] = n
	g.pruneStale(id)
	return nil
}

// pruneStale drops connections whose endpoint on id no longer exists in
// the node's current port layout.
func (g *Graph) pruneStale(id NodeID) {
	ports, err := g.portsOf(id)
	if err != nil {
		return
	}
	kept := g.conns[:0]
	for _, c := range g.conns {
		stale := (c.From.Node == id && !hasPort(ports, c.From.Port)) ||
			(c.To.Node == id && !hasPort(ports, c.To.Port))
		if stale {
			g.logger.Debugf("pruned stale connection %s:%s -> %s:%s",
				c.From.Node, c.From.Port, c.To.Node, c.To.Port)
			continue
		}
		kept = append(kept, c)
	}
	g.conns = kept
}

func hasPort(ports map[node.PortID]node.Port, id node.PortID) bool {
	_, ok := ports[id]
	return ok
}

func (g *Graph) portsOf(id NodeID) (map[node.PortID]node.Port, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: node %s", ErrStaleRef, id)
	}
	t, err := g.types.Resolve(n.Type)
	if err != nil {
		return nil, err
	}
	return t.Ports(n.Props), nil
}

// PortsOf returns the derived port set for a node.
func (g *Graph) PortsOf(id NodeID) (map[node.PortID]node.Port, error) {
	return g.portsOf(id)
}

// Adopt replaces this graph's contents with other's, in place, so
// components holding a *Graph keep a valid reference across a patch
// load. The donor graph must not be used afterwards.
func (g *Graph) Adopt(other *Graph) {
	g.nodes = other.nodes
	g.conns = other.conns
}
