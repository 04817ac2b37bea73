//go:build portaudio

package audio

import (
	"fmt"

	pa "github.com/gordonklaus/portaudio"
)

// PortAudioBackend renders through a cgo portaudio stream. Built only
// with the portaudio tag since it needs the system library.
type PortAudioBackend struct {
	SampleRate      int
	FramesPerBuffer int
}

func NewPortAudioBackend() *PortAudioBackend {
	return &PortAudioBackend{SampleRate: defaultSampleRate, FramesPerBuffer: 512}
}

func (b *PortAudioBackend) NewContext() (Context, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	mix := newMixer(b.SampleRate)
	stream, err := pa.OpenDefaultStream(0, 1, float64(b.SampleRate), b.FramesPerBuffer,
		func(out []float32) { mix.readFloats(out) })
	if err != nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = pa.Terminate()
		return nil, fmt.Errorf("portaudio start: %w", err)
	}
	return &paContext{stream: stream, mix: mix}, nil
}

type paContext struct {
	stream *pa.Stream
	mix    *mixer
}

// Resume is a no-op: a started portaudio stream keeps running.
func (c *paContext) Resume() error { return nil }

func (c *paContext) NewVoice(p Params) (Voice, error) {
	return newOscVoice(c.mix, p), nil
}

func (c *paContext) Close() error {
	err := c.stream.Close()
	if terr := pa.Terminate(); err == nil {
		err = terr
	}
	return err
}
