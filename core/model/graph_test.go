package model

import (
	"errors"
	"os"
	"testing"

	"github.com/ingyamilmolinar/patchbay/core/node"
	game_log "github.com/ingyamilmolinar/patchbay/internal/log"
)

var testLogger *game_log.Logger

func init() {
	testLogger = game_log.New(os.Stdout, game_log.LevelNone)
}

func newTestGraph() *Graph {
	return NewGraph(node.Builtins(), testLogger)
}

func TestAddNodeAppliesDefaults(t *testing.T) {
	g := newTestGraph()
	n, err := g.AddNode("osc")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if n.Props.Num("freq") != 440 || n.Props.Str("wave") != "sine" {
		t.Fatalf("expected defaults, got %v", n.Props)
	}
	if _, err := g.AddNode("nope"); !errors.Is(err, node.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType")
	}
}

func TestConnectValidatesEndpoints(t *testing.T) {
	g := newTestGraph()
	c, _ := g.AddNode("const")
	o, _ := g.AddNode("osc")

	err := g.Connect(PortRef{c.ID, "out"}, PortRef{o.ID, "freq"})
	if err != nil {
		t.Fatalf("valid connect failed: %v", err)
	}

	// Sink-to-sink, missing ports and missing nodes all fail.
	if err := g.Connect(PortRef{o.ID, "freq"}, PortRef{c.ID, "out"}); err == nil {
		t.Fatal("expected error wiring sink as source")
	}
	if err := g.Connect(PortRef{c.ID, "zap"}, PortRef{o.ID, "freq"}); !errors.Is(err, ErrStaleRef) {
		t.Fatalf("expected ErrStaleRef, got %v", err)
	}
	if err := g.Connect(PortRef{"ghost", "out"}, PortRef{o.ID, "freq"}); !errors.Is(err, ErrStaleRef) {
		t.Fatalf("expected ErrStaleRef, got %v", err)
	}
}

func TestSinkAcceptsAtMostOneIncoming(t *testing.T) {
	g := newTestGraph()
	a, _ := g.AddNode("const")
	b, _ := g.AddNode("const")
	o, _ := g.AddNode("osc")

	if err := g.Connect(PortRef{a.ID, "out"}, PortRef{o.ID, "freq"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(PortRef{b.ID, "out"}, PortRef{o.ID, "freq"}); err != nil {
		t.Fatal(err)
	}
	conn, ok := g.ConnInto(PortRef{o.ID, "freq"})
	if !ok || conn.From.Node != b.ID {
		t.Fatalf("expected replacement edge from %s, got %+v", b.ID, conn)
	}
	if len(g.ConnsFor(o.ID)) != 1 {
		t.Fatalf("expected exactly one incoming connection")
	}
}

func TestRemoveNodeCascadesConnections(t *testing.T) {
	g := newTestGraph()
	c, _ := g.AddNode("const")
	o, _ := g.AddNode("osc")
	if err := g.Connect(PortRef{c.ID, "out"}, PortRef{o.ID, "freq"}); err != nil {
		t.Fatal(err)
	}

	g.RemoveNode(o.ID)

	if conns := g.ConnsFor(c.ID); len(conns) != 0 {
		t.Fatalf("expected no connections after destination removal, got %v", conns)
	}
	if conns := g.ConnsFor(o.ID); len(conns) != 0 {
		t.Fatalf("removed node still has connections: %v", conns)
	}
}

func TestUpdatePropsRejectionKeepsPriorState(t *testing.T) {
	g := newTestGraph()
	o, _ := g.AddNode("osc")

	err := g.UpdateProps(o.ID, func(p node.Props) node.Props {
		p["freq"] = -1.0
		return p
	})
	var verr *node.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	n, _ := g.NodeByID(o.ID)
	if n.Props.Num("freq") != 440 {
		t.Fatalf("prior props not kept: %v", n.Props)
	}
}

func TestUpdatePropsOnMissingNode(t *testing.T) {
	g := newTestGraph()
	err := g.UpdateProps("ghost", func(p node.Props) node.Props { return p })
	if !errors.Is(err, ErrStaleRef) {
		t.Fatalf("expected ErrStaleRef, got %v", err)
	}
}

func TestShrinkingLayoutPrunesConnections(t *testing.T) {
	g := newTestGraph()
	a, _ := g.AddNode("const")
	b, _ := g.AddNode("const")
	m, _ := g.AddNode("mix")
	if err := g.UpdateProps(m.ID, func(p node.Props) node.Props {
		p["inputs"] = 3.0
		return p
	}); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(PortRef{a.ID, "out"}, PortRef{m.ID, "in1"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(PortRef{b.ID, "out"}, PortRef{m.ID, "in3"}); err != nil {
		t.Fatal(err)
	}

	// Dropping the input count removes in3; its connection must go too.
	if err := g.UpdateProps(m.ID, func(p node.Props) node.Props {
		p["inputs"] = 2.0
		return p
	}); err != nil {
		t.Fatal(err)
	}
	conns := g.ConnsFor(m.ID)
	if len(conns) != 1 || conns[0].To.Port != "in1" {
		t.Fatalf("expected only the in1 connection to survive, got %v", conns)
	}
}

func TestDownstreamKeepsInsertionOrder(t *testing.T) {
	g := newTestGraph()
	trig, _ := g.AddNode("trig")
	var want []NodeID
	for i := 0; i < 3; i++ {
		o, _ := g.AddNode("osc")
		if err := g.Connect(PortRef{trig.ID, "trig"}, PortRef{o.ID, "trig"}); err != nil {
			t.Fatal(err)
		}
		want = append(want, o.ID)
	}
	got := g.Downstream(trig.ID, "trig")
	if len(got) != len(want) {
		t.Fatalf("expected %d downstream nodes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: %v vs %v", i, got, want)
		}
	}
}
