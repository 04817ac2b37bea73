package node

// Value is what flows across a connection. The current node vocabulary is
// numeric only; waveform and mode selections travel as properties, not
// port values.
type Value = float64

// PortID names a port within one node ("out", "freq", "in1", ...).
type PortID string

// Dir tells whether a port produces or consumes a value.
type Dir int

const (
	Source Dir = iota
	Sink
)

// Port describes one connection point. X and Y are normalized [0,1]
// placement hints for whatever renders the node; the core only cares
// about Dir.
type Port struct {
	X, Y float64
	Dir  Dir
}

// Props is a node's validated property bag. Treat as immutable: updates
// go through Clone so older references stay stable.
type Props map[string]any

// Inputs maps a sink port to its resolved upstream value. A missing key
// means the port is unconnected (or its upstream went away) and the node
// substitutes its own default.
type Inputs map[PortID]Value

// Outputs maps a source port to its computed value.
type Outputs map[PortID]Value

func (p Props) Clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Num returns the named property as a float64, or 0 if absent.
func (p Props) Num(key string) float64 {
	if v, ok := p[key].(float64); ok {
		return v
	}
	return 0
}

// Str returns the named property as a string, or "" if absent.
func (p Props) Str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns the named property as a bool, or false if absent.
func (p Props) Bool(key string) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return false
}

// FieldKind is the wire type of a schema field.
type FieldKind int

const (
	Number FieldKind = iota
	String
	Bool
)

// Field is one entry in a node type's property schema. Number fields with
// Min == Max == 0 are unbounded. String fields with a non-empty Enum only
// accept listed values.
type Field struct {
	Kind     FieldKind
	Default  any
	Min, Max float64
	Enum     []string
}

// Role tells the engine how a node participates in rendering. Dispatch
// is a single registry lookup; nothing downstream switches on type tags.
type Role int

const (
	// RoleValue nodes only feed values to other nodes.
	RoleValue Role = iota
	// RoleVoice nodes render sound while their playing flag is set.
	RoleVoice
	// RoleTrigger nodes arm playback patterns over their downstream set.
	RoleTrigger
)

// Type is an immutable node-type descriptor. Registered once at startup.
type Type struct {
	Tag    string
	Role   Role
	Schema map[string]Field

	// PortLayout derives the node's port set from its current properties.
	// It is called again after every property update, so layouts may vary
	// with props (see the mix node's input count).
	PortLayout func(Props) map[PortID]Port

	// ComputeOutputs is the node's pure output function: own props plus
	// resolved inputs in, source-port values out. Must not mutate either
	// argument and must be safe to call repeatedly.
	ComputeOutputs func(Props, Inputs) Outputs
}

// Defaults returns a fresh property bag holding every schema default.
func (t Type) Defaults() Props {
	p := make(Props, len(t.Schema))
	for name, f := range t.Schema {
		p[name] = f.Default
	}
	return p
}

// Ports returns the port layout for the given properties.
func (t Type) Ports(p Props) map[PortID]Port {
	return t.PortLayout(p)
}
