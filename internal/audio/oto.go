package audio

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
)

const (
	defaultSampleRate = 44100
	// 10ms of buffered 16-bit mono keeps trigger patterns feeling tight.
	bufferSizeBytes10ms = defaultSampleRate / 100 * 2
)

// OtoBackend renders through ebitengine/oto. The zero value is not
// usable; call NewOtoBackend.
type OtoBackend struct {
	SampleRate int
}

func NewOtoBackend() *OtoBackend {
	return &OtoBackend{SampleRate: defaultSampleRate}
}

func (b *OtoBackend) NewContext() (Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   b.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready
	mix := newMixer(b.SampleRate)
	player := ctx.NewPlayer(mix)
	player.SetBufferSize(bufferSizeBytes10ms)
	player.Play()
	return &otoContext{ctx: ctx, player: player, mix: mix}, nil
}

type otoContext struct {
	ctx    *oto.Context
	player *oto.Player
	mix    *mixer
}

func (c *otoContext) Resume() error { return c.ctx.Resume() }

func (c *otoContext) NewVoice(p Params) (Voice, error) {
	return newOscVoice(c.mix, p), nil
}

func (c *otoContext) Close() error {
	return c.player.Close()
}
