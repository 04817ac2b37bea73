package node

// DefaultTrigPeriod is the period, in milliseconds, a fresh trigger node
// ticks at. Exposed as a variable so embedders can tune it.
var DefaultTrigPeriod = 250.0

// Builtins returns a registry preloaded with the stock node vocabulary.
func Builtins() *Registry {
	r := NewRegistry()
	for _, t := range []Type{Const(), Note(), Scale(), Mix(), Osc(), Trig()} {
		if err := r.Register(t); err != nil {
			// Stock tags are unique by construction.
			panic(err)
		}
	}
	return r
}

func sourcePort(y float64) Port { return Port{X: 1, Y: y, Dir: Source} }
func sinkPort(y float64) Port   { return Port{X: 0, Y: y, Dir: Sink} }
