package node

// Waveform names accepted by the osc node and understood by the audio
// backends.
var Waveforms = []string{"sine", "square", "saw", "triangle"}

// Osc is the audible leaf node. It produces no port values; when its
// playing flag is set the engine hands its effective parameters to the
// audio bridge. Connected freq/gain sinks override the local properties.
func Osc() Type {
	return Type{
		Tag:  "osc",
		Role: RoleVoice,
		Schema: map[string]Field{
			"freq":    {Kind: Number, Default: 440.0, Min: 20, Max: 20000},
			"wave":    {Kind: String, Default: "sine", Enum: Waveforms},
			"gain":    {Kind: Number, Default: 0.8, Min: 0, Max: 1},
			"playing": {Kind: Bool, Default: false},
		},
		PortLayout: func(Props) map[PortID]Port {
			return map[PortID]Port{
				"freq": sinkPort(0.25),
				"gain": sinkPort(0.5),
				"trig": sinkPort(0.75),
			}
		},
		ComputeOutputs: func(Props, Inputs) Outputs {
			return Outputs{}
		},
	}
}
