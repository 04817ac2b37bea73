package node

// Pattern mode names accepted by the trig node.
var TrigModes = []string{"chord", "arp", "random"}

// Trig arms a playback pattern over the oscillators wired to its trig
// output. The pattern scheduler owns the timing; this type only carries
// the configuration.
func Trig() Type {
	return Type{
		Tag:  "trig",
		Role: RoleTrigger,
		Schema: map[string]Field{
			"playing": {Kind: Bool, Default: false},
			"mode":    {Kind: String, Default: "chord", Enum: TrigModes},
			"period":  {Kind: Number, Default: DefaultTrigPeriod, Min: 10, Max: 10000},
		},
		PortLayout: func(Props) map[PortID]Port {
			return map[PortID]Port{"trig": sourcePort(0.5)}
		},
		ComputeOutputs: func(p Props, _ Inputs) Outputs {
			v := 0.0
			if p.Bool("playing") {
				v = 1
			}
			return Outputs{"trig": v}
		},
	}
}
