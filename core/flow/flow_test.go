package flow

import (
	"os"
	"testing"

	"github.com/ingyamilmolinar/patchbay/core/model"
	"github.com/ingyamilmolinar/patchbay/core/node"
	game_log "github.com/ingyamilmolinar/patchbay/internal/log"
)

var testLogger = game_log.New(os.Stdout, game_log.LevelNone)

func newTestGraph() *model.Graph {
	return model.NewGraph(node.Builtins(), testLogger)
}

func setProp(t *testing.T, g *model.Graph, id model.NodeID, key string, v any) {
	t.Helper()
	if err := g.UpdateProps(id, func(p node.Props) node.Props {
		p[key] = v
		return p
	}); err != nil {
		t.Fatal(err)
	}
}

func TestResolveInputsUnconnectedAreAbsent(t *testing.T) {
	g := newTestGraph()
	o, _ := g.AddNode("osc")
	n, _ := g.NodeByID(o.ID)

	in := ResolveInputs(g, n)
	if len(in) != 0 {
		t.Fatalf("expected no resolved inputs, got %v", in)
	}
}

func TestResolveInputsPullsUpstreamOutput(t *testing.T) {
	g := newTestGraph()
	c, _ := g.AddNode("const")
	setProp(t, g, c.ID, "value", 523.25)
	o, _ := g.AddNode("osc")
	if err := g.Connect(model.PortRef{Node: c.ID, Port: "out"}, model.PortRef{Node: o.ID, Port: "freq"}); err != nil {
		t.Fatal(err)
	}

	n, _ := g.NodeByID(o.ID)
	in := ResolveInputs(g, n)
	if got := in["freq"]; got != 523.25 {
		t.Fatalf("expected 523.25, got %v", got)
	}
	if _, ok := in["gain"]; ok {
		t.Fatalf("gain is unconnected and must be absent: %v", in)
	}
}

func TestResolveWalksMultipleHops(t *testing.T) {
	// const(110) -> scale(x2 +10) -> osc.freq
	g := newTestGraph()
	c, _ := g.AddNode("const")
	setProp(t, g, c.ID, "value", 110.0)
	s, _ := g.AddNode("scale")
	setProp(t, g, s.ID, "mul", 2.0)
	setProp(t, g, s.ID, "add", 10.0)
	o, _ := g.AddNode("osc")
	if err := g.Connect(model.PortRef{Node: c.ID, Port: "out"}, model.PortRef{Node: s.ID, Port: "in"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(model.PortRef{Node: s.ID, Port: "out"}, model.PortRef{Node: o.ID, Port: "freq"}); err != nil {
		t.Fatal(err)
	}

	n, _ := g.NodeByID(o.ID)
	if got := ResolveInputs(g, n)["freq"]; got != 230 {
		t.Fatalf("expected 230, got %v", got)
	}
}

func TestComputeOutputsIsRepeatable(t *testing.T) {
	g := newTestGraph()
	c, _ := g.AddNode("const")
	setProp(t, g, c.ID, "value", 3.0)
	n, _ := g.NodeByID(c.ID)
	for i := 0; i < 3; i++ {
		if out := ComputeOutputs(g, n); out["out"] != 3 {
			t.Fatalf("call %d: expected 3, got %v", i, out["out"])
		}
	}
}

func TestCycleGuardSelfLoop(t *testing.T) {
	g := newTestGraph()
	s, _ := g.AddNode("scale")
	setProp(t, g, s.ID, "add", 5.0)
	if err := g.Connect(model.PortRef{Node: s.ID, Port: "out"}, model.PortRef{Node: s.ID, Port: "in"}); err != nil {
		t.Fatal(err)
	}

	n, _ := g.NodeByID(s.ID)
	in := ResolveInputs(g, n)
	if _, ok := in["in"]; ok {
		t.Fatalf("self-loop input must read as absent, got %v", in)
	}
	if out := ComputeOutputs(g, n); out["out"] != 5 {
		t.Fatalf("expected offset only, got %v", out["out"])
	}
}

func TestCycleGuardTwoNodeLoop(t *testing.T) {
	g := newTestGraph()
	a, _ := g.AddNode("scale")
	setProp(t, g, a.ID, "add", 1.0)
	b, _ := g.AddNode("scale")
	setProp(t, g, b.ID, "add", 2.0)
	if err := g.Connect(model.PortRef{Node: a.ID, Port: "out"}, model.PortRef{Node: b.ID, Port: "in"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(model.PortRef{Node: b.ID, Port: "out"}, model.PortRef{Node: a.ID, Port: "in"}); err != nil {
		t.Fatal(err)
	}

	// a's input comes from b, whose own input re-enters a and is cut.
	n, _ := g.NodeByID(a.ID)
	if out := ComputeOutputs(g, n); out["out"] != 3 {
		t.Fatalf("expected b's offset plus a's, got %v", out["out"])
	}
}

func TestMixSumsPresentInputsOnly(t *testing.T) {
	g := newTestGraph()
	m, _ := g.AddNode("mix")
	setProp(t, g, m.ID, "inputs", 3.0)
	c, _ := g.AddNode("const")
	setProp(t, g, c.ID, "value", 4.0)
	if err := g.Connect(model.PortRef{Node: c.ID, Port: "out"}, model.PortRef{Node: m.ID, Port: "in2"}); err != nil {
		t.Fatal(err)
	}

	n, _ := g.NodeByID(m.ID)
	if out := ComputeOutputs(g, n); out["out"] != 4 {
		t.Fatalf("expected 4, got %v", out["out"])
	}
}
