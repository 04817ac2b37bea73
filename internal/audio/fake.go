package audio

import "fmt"

// FakeBackend is an injectable in-memory backend for tests, in the same
// spirit as ratelord's provider mock: it records every call so tests can
// assert ordering and lifetimes without touching an audio device.
type FakeBackend struct {
	ContextErr error
	Ctx        *FakeContext
	Contexts   int
}

func NewFakeBackend() *FakeBackend { return &FakeBackend{} }

func (b *FakeBackend) NewContext() (Context, error) {
	if b.ContextErr != nil {
		return nil, b.ContextErr
	}
	b.Contexts++
	b.Ctx = &FakeContext{}
	return b.Ctx, nil
}

type FakeContext struct {
	Resumes int
	Voices  []*FakeVoice
	Calls   []string
	Closed  bool
}

func (c *FakeContext) Resume() error {
	c.Resumes++
	return nil
}

func (c *FakeContext) NewVoice(p Params) (Voice, error) {
	v := &FakeVoice{ctx: c, P: p}
	c.Voices = append(c.Voices, v)
	return v, nil
}

func (c *FakeContext) Close() error {
	c.Closed = true
	return nil
}

// Live returns the voices that are started and not yet stopped.
func (c *FakeContext) Live() []*FakeVoice {
	var out []*FakeVoice
	for _, v := range c.Voices {
		if v.Started && !v.Stopped {
			out = append(out, v)
		}
	}
	return out
}

type FakeVoice struct {
	ctx *FakeContext

	P       Params
	Started bool
	Stopped bool
	StopErr error
	Freqs   []float64
	Gains   []float64
}

func (v *FakeVoice) Start() {
	v.Started = true
	v.ctx.Calls = append(v.ctx.Calls, fmt.Sprintf("start %.0f", v.P.Freq))
}

func (v *FakeVoice) SetFreq(f float64) {
	v.P.Freq = f
	v.Freqs = append(v.Freqs, f)
}

func (v *FakeVoice) SetGain(g float64) {
	v.P.Gain = g
	v.Gains = append(v.Gains, g)
}

func (v *FakeVoice) Stop() error {
	if v.Stopped {
		return ErrAlreadyStopped
	}
	v.Stopped = true
	v.ctx.Calls = append(v.ctx.Calls, fmt.Sprintf("stop %.0f", v.P.Freq))
	if v.StopErr != nil {
		return v.StopErr
	}
	return nil
}
