package model

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ingyamilmolinar/patchbay/core/node"
	game_log "github.com/ingyamilmolinar/patchbay/internal/log"
)

// Patch documents are plain JSON so patches survive schema growth: a
// property added after a document was written simply takes its default
// on load.
type patchDoc struct {
	Nodes []patchNode `json:"nodes"`
	Conns []patchConn `json:"connections"`
}

type patchNode struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

type patchConn struct {
	FromNode string `json:"from_node"`
	FromPort string `json:"from_port"`
	ToNode   string `json:"to_node"`
	ToPort   string `json:"to_port"`
}

// SavePatch writes the graph as JSON. Nodes are sorted by id for a
// stable encoding; connections keep their insertion order.
func (g *Graph) SavePatch(w io.Writer) error {
	doc := patchDoc{}
	for _, n := range g.nodes {
		doc.Nodes = append(doc.Nodes, patchNode{ID: string(n.ID), Type: n.Type, Props: n.Props})
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })
	for _, c := range g.conns {
		doc.Conns = append(doc.Conns, patchConn{
			FromNode: string(c.From.Node), FromPort: string(c.From.Port),
			ToNode: string(c.To.Node), ToPort: string(c.To.Port),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// LoadPatch reads a JSON patch document into a fresh graph. Every
// property bag goes back through schema validation, and connections are
// re-checked against the loaded port layouts, so a document referencing
// removed ports or unknown fields is rejected as a whole.
func LoadPatch(r io.Reader, types *node.Registry, logger *game_log.Logger) (*Graph, error) {
	var doc patchDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	g := NewGraph(types, logger)
	for _, pn := range doc.Nodes {
		props, err := types.Validate(pn.Type, pn.Props)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", pn.ID, err)
		}
		g.addNodeWithID(NodeID(pn.ID), pn.Type, props)
	}
	for _, pc := range doc.Conns {
		from := PortRef{Node: NodeID(pc.FromNode), Port: node.PortID(pc.FromPort)}
		to := PortRef{Node: NodeID(pc.ToNode), Port: node.PortID(pc.ToPort)}
		if err := g.Connect(from, to); err != nil {
			return nil, fmt.Errorf("connection %s:%s -> %s:%s: %w",
				pc.FromNode, pc.FromPort, pc.ToNode, pc.ToPort, err)
		}
	}
	return g, nil
}
