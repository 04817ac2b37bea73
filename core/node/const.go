package node

// Const is a fixed-value source, typically wired into an oscillator's
// freq or gain sink.
func Const() Type {
	return Type{
		Tag: "const",
		Schema: map[string]Field{
			"value": {Kind: Number, Default: 1.0, Min: -20000, Max: 20000},
		},
		PortLayout: func(Props) map[PortID]Port {
			return map[PortID]Port{"out": sourcePort(0.5)}
		},
		ComputeOutputs: func(p Props, _ Inputs) Outputs {
			return Outputs{"out": p.Num("value")}
		},
	}
}
