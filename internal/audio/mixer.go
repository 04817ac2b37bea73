package audio

import (
	"math"
	"sync"
)

// releaseSeconds is the linear fade applied when a voice stops, long
// enough to avoid an audible click.
const releaseSeconds = 0.005

// mixer sums running voices into one mono PCM stream. The render
// goroutine pulls samples while the engine thread starts/stops voices
// and pushes parameter changes, so this is the one place in the system
// that genuinely needs a lock.
type mixer struct {
	mu     sync.Mutex
	voices []*oscVoice
	sr     float64
}

func newMixer(sampleRate int) *mixer {
	return &mixer{sr: float64(sampleRate)}
}

func (m *mixer) add(v *oscVoice) {
	m.mu.Lock()
	m.voices = append(m.voices, v)
	m.mu.Unlock()
}

// next produces one clipped sample and drops finished voices.
// Caller must hold m.mu.
func (m *mixer) next() float64 {
	var sum float64
	for i := 0; i < len(m.voices); i++ {
		v, done := m.voices[i].sample()
		sum += v
		if done {
			m.voices = append(m.voices[:i], m.voices[i+1:]...)
			i--
		}
	}
	if sum > 1 {
		sum = 1
	} else if sum < -1 {
		sum = -1
	}
	return sum
}

// Read implements io.Reader producing 16-bit little-endian mono PCM, the
// shape oto's player consumes.
func (m *mixer) Read(p []byte) (int, error) {
	samples := len(p) / 2
	m.mu.Lock()
	for i := 0; i < samples; i++ {
		v := int16(m.next() * 32767)
		p[2*i] = byte(v)
		p[2*i+1] = byte(v >> 8)
	}
	m.mu.Unlock()
	return len(p), nil
}

// readFloats fills a float32 buffer, the shape portaudio consumes.
func (m *mixer) readFloats(out []float32) {
	m.mu.Lock()
	for i := range out {
		out[i] = float32(m.next())
	}
	m.mu.Unlock()
}

// oscVoice renders one periodic waveform through a gain stage. Freq and
// gain are live-settable; stopping begins a short release ramp after
// which the mixer discards the voice.
type oscVoice struct {
	mix *mixer

	mu        sync.Mutex
	freq      float64
	gain      float64
	wave      Waveform
	phase     float64
	releasing bool
	release   float64
	stopped   bool
}

func newOscVoice(m *mixer, p Params) *oscVoice {
	return &oscVoice{mix: m, freq: p.Freq, gain: p.Gain, wave: p.Wave, release: 1}
}

func (v *oscVoice) Start() { v.mix.add(v) }

func (v *oscVoice) SetFreq(f float64) {
	v.mu.Lock()
	v.freq = f
	v.mu.Unlock()
}

func (v *oscVoice) SetGain(g float64) {
	v.mu.Lock()
	v.gain = g
	v.mu.Unlock()
}

func (v *oscVoice) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopped {
		return ErrAlreadyStopped
	}
	v.stopped = true
	v.releasing = true
	return nil
}

func (v *oscVoice) sample() (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.release <= 0 {
		return 0, true
	}
	v.phase += v.freq / v.mix.sr
	if v.phase >= 1 {
		v.phase -= math.Floor(v.phase)
	}
	var raw float64
	switch v.wave {
	case Square:
		if v.phase < 0.5 {
			raw = 1
		} else {
			raw = -1
		}
	case Saw:
		raw = 2*v.phase - 1
	case Triangle:
		raw = 1 - 4*math.Abs(v.phase-0.5)
	default: // sine
		raw = math.Sin(2 * math.Pi * v.phase)
	}
	if v.releasing {
		v.release -= 1 / (releaseSeconds * v.mix.sr)
		if v.release < 0 {
			v.release = 0
		}
	}
	return raw * v.gain * v.release, v.release <= 0 && v.releasing
}
