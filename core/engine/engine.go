// Package engine ties the graph, propagation, audio bridge and pattern
// scheduler together. All mutation runs on one loop goroutine: public
// methods enqueue closures, the ticker drives pattern firings in between,
// so graph edits and pattern ticks never interleave mid-operation.
package engine

import (
	"context"
	"io"
	"time"

	"github.com/ingyamilmolinar/patchbay/core/flow"
	"github.com/ingyamilmolinar/patchbay/core/model"
	"github.com/ingyamilmolinar/patchbay/core/node"
	"github.com/ingyamilmolinar/patchbay/core/pattern"
	"github.com/ingyamilmolinar/patchbay/internal/audio"
	game_log "github.com/ingyamilmolinar/patchbay/internal/log"
)

// DefaultTickInterval is how often the loop polls the pattern scheduler.
// It bounds pattern timing resolution, so keep it under the shortest
// pattern period in use.
var DefaultTickInterval = 5 * time.Millisecond

// TrigPort is the source port pattern playback fans out from.
const TrigPort = node.PortID("trig")

// Event reports a voice-node play-state change, for whatever front end
// wants to light nodes up.
type Event struct {
	Node    model.NodeID
	Playing bool
}

type Engine struct {
	Events chan Event

	graph  *model.Graph
	types  *node.Registry
	bridge *audio.Bridge
	sched  *pattern.Scheduler
	logger *game_log.Logger

	tickInterval time.Duration
	cmds         chan func()
	running      bool
	ctx          context.Context
	cancel       context.CancelFunc
	stopped      chan struct{}
}

// New builds an engine over the given backend with the stock node
// vocabulary. The loop is not running yet; call Start, or drive tick
// manually (tests do).
func New(backend audio.Backend, logger *game_log.Logger) *Engine {
	types := node.Builtins()
	graph := model.NewGraph(types, logger)
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		Events:       make(chan Event, 64),
		graph:        graph,
		types:        types,
		bridge:       audio.NewBridge(backend, logger),
		logger:       logger.With("[ENGINE]"),
		tickInterval: DefaultTickInterval,
		cmds:         make(chan func(), 16),
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
	}
	e.sched = pattern.NewScheduler(graph, e.schedSetPlaying, logger)
	return e
}

// Start launches the serializing loop goroutine.
func (e *Engine) Start() {
	if e.running {
		return
	}
	e.running = true
	go e.run()
}

func (e *Engine) run() {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	defer close(e.stopped)
	for {
		select {
		case fn := <-e.cmds:
			fn()
		case <-ticker.C:
			e.sched.Tick()
		case <-e.ctx.Done():
			return
		}
	}
}

// Close stops the loop and releases every live audio resource.
func (e *Engine) Close() {
	e.cancel()
	if e.running {
		<-e.stopped
		e.running = false
	}
	for _, n := range e.graph.Nodes() {
		e.sched.Stop(n.ID)
	}
	if err := e.bridge.Close(); err != nil {
		e.logger.Debugf("bridge close: %v", err)
	}
}

// do serializes fn with the loop when it is running, and runs it inline
// otherwise so a not-yet-started engine is usable synchronously.
func (e *Engine) do(fn func()) {
	if !e.running {
		fn()
		return
	}
	done := make(chan struct{})
	e.cmds <- func() {
		fn()
		close(done)
	}
	<-done
}

// AddNode places a node of the given registered type with defaults.
func (e *Engine) AddNode(typeTag string) (model.Node, error) {
	var n model.Node
	var err error
	e.do(func() { n, err = e.graph.AddNode(typeTag) })
	return n, err
}

// RemoveNode drops a node, its connections, its pattern and its voice.
func (e *Engine) RemoveNode(id model.NodeID) {
	e.do(func() {
		e.graph.RemoveNode(id)
		e.sched.Stop(id)
		if e.bridge.Deactivate(id) {
			e.emit(id, false)
		}
	})
}

// Connect wires a source port to a sink port.
func (e *Engine) Connect(from, to model.PortRef) error {
	var err error
	e.do(func() {
		if err = e.graph.Connect(from, to); err == nil {
			e.reconcileFrom(to.Node)
		}
	})
	return err
}

// Disconnect removes the connection into a sink.
func (e *Engine) Disconnect(to model.PortRef) {
	e.do(func() {
		if e.graph.Disconnect(to) {
			e.reconcileFrom(to.Node)
		}
	})
}

// SetProps runs updater over a node's property bag, validates, and
// reconciles the node and everything fed by it. A validation error
// leaves graph and audio state untouched.
func (e *Engine) SetProps(id model.NodeID, updater func(node.Props) node.Props) error {
	var err error
	e.do(func() {
		if err = e.graph.UpdateProps(id, updater); err == nil {
			e.reconcileFrom(id)
		}
	})
	return err
}

// SetPlaying toggles a node's playing flag.
func (e *Engine) SetPlaying(id model.NodeID, playing bool) error {
	return e.SetProps(id, func(p node.Props) node.Props {
		p["playing"] = playing
		return p
	})
}

// NodeByID reads a node snapshot.
func (e *Engine) NodeByID(id model.NodeID) (model.Node, bool) {
	var n model.Node
	var ok bool
	e.do(func() { n, ok = e.graph.NodeByID(id) })
	return n, ok
}

// ActiveVoices reports which nodes currently hold a live audio handle.
func (e *Engine) ActiveVoices() []model.NodeID {
	var ids []model.NodeID
	e.do(func() { ids = e.bridge.ActiveIDs() })
	return ids
}

// Outputs computes a node's current output values on demand.
func (e *Engine) Outputs(id model.NodeID) (node.Outputs, bool) {
	var out node.Outputs
	var ok bool
	e.do(func() {
		var n model.Node
		if n, ok = e.graph.NodeByID(id); ok {
			out = flow.ComputeOutputs(e.graph, n)
		}
	})
	return out, ok
}

// LoadPatch replaces the whole graph with a saved document and
// reconciles every node in it, so a patch saved mid-playback resumes.
func (e *Engine) LoadPatch(r io.Reader) error {
	var err error
	e.do(func() {
		var loaded *model.Graph
		loaded, err = model.LoadPatch(r, e.types, e.logger)
		if err != nil {
			return
		}
		for _, n := range e.graph.Nodes() {
			e.sched.Stop(n.ID)
			e.bridge.Deactivate(n.ID)
		}
		e.graph.Adopt(loaded)
		for _, n := range e.graph.Nodes() {
			e.reconcile(n.ID)
		}
	})
	return err
}

// SavePatch writes the current graph as JSON.
func (e *Engine) SavePatch(w io.Writer) error {
	var err error
	e.do(func() { err = e.graph.SavePatch(w) })
	return err
}

// schedSetPlaying is the scheduler's write path: a pattern firing flips
// the downstream node's flag and re-enters the same reconciliation any
// user toggle takes.
func (e *Engine) schedSetPlaying(id model.NodeID, playing bool) {
	err := e.graph.UpdateProps(id, func(p node.Props) node.Props {
		p["playing"] = playing
		return p
	})
	if err != nil {
		e.logger.Debugf("pattern toggle %s: %v", id, err)
		return
	}
	e.reconcile(id)
}

// reconcileFrom reconciles id and, breadth first, every node reachable
// through its outgoing connections, so editing an upstream parameter
// node reaches the voices it feeds. The visited set doubles as a cycle
// guard.
func (e *Engine) reconcileFrom(id model.NodeID) {
	visited := map[model.NodeID]bool{}
	queue := []model.NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		e.reconcile(cur)
		for _, c := range e.graph.ConnsFor(cur) {
			if c.From.Node == cur {
				queue = append(queue, c.To.Node)
			}
		}
	}
}

// reconcile brings one node's backend-facing state in line with the
// graph. Dispatch is by the registered type's role.
func (e *Engine) reconcile(id model.NodeID) {
	n, ok := e.graph.NodeByID(id)
	if !ok {
		e.sched.Stop(id)
		e.bridge.Deactivate(id)
		return
	}
	t, err := e.types.Resolve(n.Type)
	if err != nil {
		return
	}
	switch t.Role {
	case node.RoleVoice:
		e.reconcileVoice(n)
	case node.RoleTrigger:
		e.reconcileTrigger(n)
	}
}

func (e *Engine) reconcileVoice(n model.Node) {
	if !n.Props.Bool("playing") {
		if e.bridge.Deactivate(n.ID) {
			e.emit(n.ID, false)
		}
		return
	}
	p := e.voiceParams(n)
	cur, live := e.bridge.ParamsFor(n.ID)
	switch {
	case !live || cur.Wave != p.Wave:
		// Wave changes need a fresh voice; Activate tears the old one
		// down first, so a re-toggle is an idempotent restart.
		e.bridge.Activate(n.ID, p)
		e.emit(n.ID, true)
	case cur.Freq != p.Freq || cur.Gain != p.Gain:
		e.bridge.UpdateParams(n.ID, p)
	}
}

// voiceParams resolves a voice node's effective parameters: a connected
// freq or gain sink overrides the local property.
func (e *Engine) voiceParams(n model.Node) audio.Params {
	inputs := flow.ResolveInputs(e.graph, n)
	freq := n.Props.Num("freq")
	if v, ok := inputs["freq"]; ok {
		freq = v
	}
	gain := n.Props.Num("gain")
	if v, ok := inputs["gain"]; ok {
		gain = v
	}
	wave, err := audio.ParseWaveform(n.Props.Str("wave"))
	if err != nil {
		wave = audio.Sine
	}
	return audio.Params{Freq: freq, Gain: gain, Wave: wave}
}

func (e *Engine) reconcileTrigger(n model.Node) {
	if !n.Props.Bool("playing") {
		e.sched.Stop(n.ID)
		return
	}
	mode, err := pattern.ParseMode(n.Props.Str("mode"))
	if err != nil {
		e.logger.Warnf("trigger %s: %v", n.ID, err)
		return
	}
	period := time.Duration(n.Props.Num("period") * float64(time.Millisecond))
	if m, p, running := e.sched.Running(n.ID); running && m == mode && p == period {
		return
	}
	e.sched.Start(n.ID, TrigPort, mode, period)
}

func (e *Engine) emit(id model.NodeID, playing bool) {
	select {
	case e.Events <- Event{Node: id, Playing: playing}:
	default:
	}
}

// tick advances the pattern scheduler once. Tests drive it directly
// instead of starting the loop.
func (e *Engine) tick() { e.sched.Tick() }
