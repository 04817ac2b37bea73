package audio

import (
	"errors"

	"github.com/ingyamilmolinar/patchbay/core/model"
	game_log "github.com/ingyamilmolinar/patchbay/internal/log"
)

// Bridge owns the backend context and the registry from node id to live
// voice. The context is created lazily on first activation and resumed on
// every activation, since some backends start suspended until a
// user-initiated call.
//
// A handle lives exactly from an Activate to the next Deactivate or
// re-Activate of the same id; there is never more than one per id. All
// methods tolerate being re-entered while one of their backend calls is
// in flight: the registry is brought to its final shape before any
// backend call that could call back in.
type Bridge struct {
	backend Backend
	ctx     Context
	ctxErr  bool
	handles map[model.NodeID]*handle
	logger  *game_log.Logger
}

type handle struct {
	voice  Voice
	params Params
}

func NewBridge(b Backend, logger *game_log.Logger) *Bridge {
	return &Bridge{
		backend: b,
		handles: map[model.NodeID]*handle{},
		logger:  logger.With("[AUDIO]"),
	}
}

// context lazily creates the backend context. A failed creation is
// remembered and the bridge degrades to a silent no-op, matching how the
// rest of the system treats a machine with no audio device.
func (b *Bridge) context() Context {
	if b.ctx != nil || b.ctxErr {
		return b.ctx
	}
	ctx, err := b.backend.NewContext()
	if err != nil {
		b.logger.Errorf("audio context unavailable: %v", err)
		b.ctxErr = true
		return nil
	}
	b.ctx = ctx
	return ctx
}

// Activate (re)starts rendering for id with the given params. Any prior
// handle for id is torn down first, so calling twice leaves exactly one
// voice configured by the second call.
func (b *Bridge) Activate(id model.NodeID, p Params) {
	b.Deactivate(id)
	ctx := b.context()
	if ctx == nil {
		return
	}
	if err := ctx.Resume(); err != nil {
		b.logger.Debugf("resume: %v", err)
	}
	voice, err := ctx.NewVoice(p)
	if err != nil {
		b.logger.Errorf("voice for %s: %v", id, err)
		return
	}
	b.handles[id] = &handle{voice: voice, params: p}
	voice.Start()
	b.logger.Debugf("activated %s freq=%.1f wave=%s gain=%.2f", id, p.Freq, p.Wave, p.Gain)
}

// UpdateParams pushes the live-settable parameters (freq, gain) onto
// id's running voice. A wave change does not take effect here: the
// caller re-Activates for that. No-op when id has no handle, which can
// happen when an update races a stop.
func (b *Bridge) UpdateParams(id model.NodeID, p Params) {
	h, ok := b.handles[id]
	if !ok {
		return
	}
	h.voice.SetFreq(p.Freq)
	h.voice.SetGain(p.Gain)
	h.params.Freq = p.Freq
	h.params.Gain = p.Gain
}

// Deactivate stops and releases id's voice, reporting whether a handle
// existed. Missing handles and already-stopped voices are both fine.
func (b *Bridge) Deactivate(id model.NodeID) bool {
	h, ok := b.handles[id]
	if !ok {
		return false
	}
	delete(b.handles, id)
	if err := h.voice.Stop(); err != nil && !errors.Is(err, ErrAlreadyStopped) {
		b.logger.Debugf("stop %s: %v", id, err)
	}
	b.logger.Debugf("deactivated %s", id)
	return true
}

// ParamsFor reports the parameters last pushed to id's live voice.
func (b *Bridge) ParamsFor(id model.NodeID) (Params, bool) {
	h, ok := b.handles[id]
	if !ok {
		return Params{}, false
	}
	return h.params, true
}

// ActiveIDs returns the ids with a live handle. Order is unspecified.
func (b *Bridge) ActiveIDs() []model.NodeID {
	ids := make([]model.NodeID, 0, len(b.handles))
	for id := range b.handles {
		ids = append(ids, id)
	}
	return ids
}

// Close tears down every voice and the context.
func (b *Bridge) Close() error {
	for id := range b.handles {
		b.Deactivate(id)
	}
	if b.ctx != nil {
		err := b.ctx.Close()
		b.ctx = nil
		return err
	}
	return nil
}
