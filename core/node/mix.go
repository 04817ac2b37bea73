package node

import "fmt"

// Mix sums a configurable number of inputs. Its port layout depends on
// the "inputs" property: lowering the count removes sink ports, and the
// graph prunes any connection still referencing them.
func Mix() Type {
	return Type{
		Tag: "mix",
		Schema: map[string]Field{
			"inputs": {Kind: Number, Default: 2.0, Min: 2, Max: 8},
		},
		PortLayout: func(p Props) map[PortID]Port {
			n := int(p.Num("inputs"))
			ports := make(map[PortID]Port, n+1)
			for i := 1; i <= n; i++ {
				ports[MixInPort(i)] = sinkPort(float64(i) / float64(n+1))
			}
			ports["out"] = sourcePort(0.5)
			return ports
		},
		ComputeOutputs: func(p Props, in Inputs) Outputs {
			var sum float64
			n := int(p.Num("inputs"))
			for i := 1; i <= n; i++ {
				sum += in[MixInPort(i)]
			}
			return Outputs{"out": sum}
		},
	}
}

// MixInPort names the i-th (1-based) mix sink.
func MixInPort(i int) PortID {
	return PortID(fmt.Sprintf("in%d", i))
}
