package node

import "math"

// Note converts a MIDI note number (plus detune in cents) to an
// equal-tempered frequency in Hz. 69 is A4 = 440Hz.
func Note() Type {
	return Type{
		Tag: "note",
		Schema: map[string]Field{
			"note":   {Kind: Number, Default: 69.0, Min: 0, Max: 127},
			"detune": {Kind: Number, Default: 0.0, Min: -1200, Max: 1200},
		},
		PortLayout: func(Props) map[PortID]Port {
			return map[PortID]Port{"out": sourcePort(0.5)}
		},
		ComputeOutputs: func(p Props, _ Inputs) Outputs {
			semis := p.Num("note") - 69 + p.Num("detune")/100
			return Outputs{"out": 440 * math.Pow(2, semis/12)}
		},
	}
}
