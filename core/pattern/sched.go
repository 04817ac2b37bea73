// Package pattern drives timed playback patterns over the nodes wired to
// a trigger's output. The scheduler owns no goroutines: the engine loop
// calls Tick, so pattern firings interleave with graph mutations on one
// logical thread.
package pattern

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ingyamilmolinar/patchbay/core/model"
	"github.com/ingyamilmolinar/patchbay/core/node"
	game_log "github.com/ingyamilmolinar/patchbay/internal/log"
)

type Mode string

const (
	ModeChord  Mode = "chord"
	ModeArp    Mode = "arp"
	ModeRandom Mode = "random"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeChord, ModeArp, ModeRandom:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown pattern mode %q", s)
}

// SetPlayingFunc flips a downstream node's play state. The engine wires
// this to its reconcile path so every activation reaches the audio
// bridge the same way a user toggle does.
type SetPlayingFunc func(model.NodeID, bool)

// Scheduler runs at most one pattern per owning node. A generation
// counter per owner detects firings scheduled before a cancel/restart:
// a state whose generation no longer matches is discarded, never acted on.
type Scheduler struct {
	// Now and Rand are overridable for tests; both default in New.
	Now  func() time.Time
	Rand *rand.Rand

	graph      *model.Graph
	setPlaying SetPlayingFunc
	logger     *game_log.Logger

	active map[model.NodeID]*state
	gen    map[model.NodeID]uint64
}

type state struct {
	owner  model.NodeID
	port   node.PortID
	mode   Mode
	period time.Duration
	gen    uint64
	cursor int
	due    time.Time
	// lit tracks what this pattern activated, so exit can put it back.
	lit map[model.NodeID]bool
}

func NewScheduler(g *model.Graph, setPlaying SetPlayingFunc, logger *game_log.Logger) *Scheduler {
	return &Scheduler{
		Now:        time.Now,
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		graph:      g,
		setPlaying: setPlaying,
		logger:     logger.With("[PATTERN]"),
		active:     map[model.NodeID]*state{},
		gen:        map[model.NodeID]uint64{},
	}
}

// Start arms a pattern for owner over the nodes wired to its port
// output. Any pattern already running for owner is cancelled first, so a
// mode change while playing is Stop+Start with the toggle kept on.
// Chord fires once, synchronously, and never ticks; arp and random fire
// on the next Tick and then every period.
func (s *Scheduler) Start(owner model.NodeID, port node.PortID, mode Mode, period time.Duration) {
	s.Stop(owner)
	s.gen[owner]++
	st := &state{
		owner:  owner,
		port:   port,
		mode:   mode,
		period: period,
		gen:    s.gen[owner],
		lit:    map[model.NodeID]bool{},
	}
	s.logger.Debugf("start %s mode=%s period=%s", owner, mode, period)
	if mode == ModeChord {
		for _, id := range s.graph.Downstream(owner, port) {
			s.setPlaying(id, true)
			st.lit[id] = true
		}
		s.active[owner] = st
		return
	}
	st.due = s.Now()
	s.active[owner] = st
}

// Stop cancels owner's pattern and deactivates everything it activated.
// Stopping an idle owner is a no-op. The generation bump happens before
// any cleanup so a firing racing with the cancel sees itself stale.
func (s *Scheduler) Stop(owner model.NodeID) {
	s.gen[owner]++
	st, ok := s.active[owner]
	if !ok {
		return
	}
	delete(s.active, owner)
	s.logger.Debugf("stop %s mode=%s", owner, st.mode)
	for id := range st.lit {
		s.setPlaying(id, false)
	}
}

// ModeOf reports the running mode for owner, or "" when idle.
func (s *Scheduler) ModeOf(owner model.NodeID) Mode {
	if st, ok := s.active[owner]; ok {
		return st.mode
	}
	return ""
}

// Running reports the mode and period of owner's active pattern. The
// engine uses it to decide whether a property edit needs a restart.
func (s *Scheduler) Running(owner model.NodeID) (Mode, time.Duration, bool) {
	st, ok := s.active[owner]
	if !ok {
		return "", 0, false
	}
	return st.mode, st.period, true
}

// Tick fires every due pattern once. Call it more often than the
// shortest period in use; a pattern that misses a boundary fires on the
// next call.
func (s *Scheduler) Tick() {
	now := s.Now()
	for _, st := range s.active {
		if st.mode == ModeChord {
			continue
		}
		if st.gen != s.gen[st.owner] {
			// Cancelled or restarted while we were iterating.
			continue
		}
		if now.Before(st.due) {
			continue
		}
		s.fire(st)
		st.due = now.Add(st.period)
	}
}

func (s *Scheduler) fire(st *state) {
	owner, ok := s.graph.NodeByID(st.owner)
	if !ok || !owner.Props.Bool("playing") {
		// Owner vanished or was toggled off through some other path;
		// the timer cancels itself.
		s.logger.Debugf("self-cancel %s", st.owner)
		s.Stop(st.owner)
		return
	}

	// The downstream set is re-read every firing so wiring changes made
	// during playback take effect on the next tick.
	downstream := s.graph.Downstream(st.owner, st.port)

	// Deactivate-all strictly before activating the chosen one: no node
	// may hold two live handles, and dropped connections go silent here.
	for id := range st.lit {
		s.setPlaying(id, false)
		delete(st.lit, id)
	}
	for _, id := range downstream {
		s.setPlaying(id, false)
	}

	n := len(downstream)
	if n == 0 {
		return // nothing wired right now; keep ticking
	}
	var idx int
	switch st.mode {
	case ModeArp:
		idx = st.cursor % n
		st.cursor = (idx + 1) % n
	case ModeRandom:
		idx = s.Rand.Intn(n)
	}
	chosen := downstream[idx]
	s.setPlaying(chosen, true)
	st.lit[chosen] = true
	s.logger.Debugf("fire %s mode=%s idx=%d of %d", st.owner, st.mode, idx, n)
}
