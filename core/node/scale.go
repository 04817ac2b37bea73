package node

// Scale is a modulator: out = in*mul + add. An unconnected input reads
// as zero, so a bare scale node emits its offset.
func Scale() Type {
	return Type{
		Tag: "scale",
		Schema: map[string]Field{
			"mul": {Kind: Number, Default: 1.0, Min: -10000, Max: 10000},
			"add": {Kind: Number, Default: 0.0, Min: -20000, Max: 20000},
		},
		PortLayout: func(Props) map[PortID]Port {
			return map[PortID]Port{
				"in":  sinkPort(0.5),
				"out": sourcePort(0.5),
			}
		},
		ComputeOutputs: func(p Props, in Inputs) Outputs {
			return Outputs{"out": in["in"]*p.Num("mul") + p.Num("add")}
		},
	}
}
