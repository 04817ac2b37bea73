// Package audio mirrors graph state into live synthesis resources. The
// Bridge is the only component allowed to touch voice handles; everything
// else asks it.
package audio

import (
	"errors"
	"fmt"
)

// ErrAlreadyStopped is returned by a Voice stopped twice. Callers inside
// this package swallow it: a stop racing a stop is not a failure.
var ErrAlreadyStopped = errors.New("voice already stopped")

type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Saw      Waveform = "saw"
	Triangle Waveform = "triangle"
)

func ParseWaveform(s string) (Waveform, error) {
	switch Waveform(s) {
	case Sine, Square, Saw, Triangle:
		return Waveform(s), nil
	case "":
		return Sine, nil
	}
	return "", fmt.Errorf("unknown waveform %q", s)
}

// Params configures one voice. Freq and Gain are live-settable on a
// running voice; changing Wave requires a new voice.
type Params struct {
	Freq float64
	Gain float64
	Wave Waveform
}

// Backend produces rendering contexts. Implementations: oto (default),
// portaudio (build tag), fake (tests).
type Backend interface {
	NewContext() (Context, error)
}

// Context is a live rendering context. Creation may leave it suspended;
// Resume is safe to call repeatedly.
type Context interface {
	Resume() error
	NewVoice(Params) (Voice, error)
	Close() error
}

// Voice is one running periodic-waveform generator with a gain stage.
type Voice interface {
	Start()
	SetFreq(float64)
	SetGain(float64)
	Stop() error
}
