package node

import (
	"fmt"
	"slices"
)

// Registry maps a type tag to its descriptor. Construct one per engine;
// there is no package-level instance.
type Registry struct {
	types map[string]Type
}

func NewRegistry() *Registry {
	return &Registry{types: map[string]Type{}}
}

// Register adds a descriptor. Registering a tag twice is a programming
// error and fails immediately.
func (r *Registry) Register(t Type) error {
	if _, exists := r.types[t.Tag]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, t.Tag)
	}
	r.types[t.Tag] = t
	return nil
}

// Resolve returns the descriptor for tag.
func (r *Registry) Resolve(tag string) (Type, error) {
	t, ok := r.types[tag]
	if !ok {
		return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	return t, nil
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.types))
	for tag := range r.types {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Validate checks a raw property bag against the schema for tag and
// returns a normalized Props. Missing fields take their schema default,
// so documents written before a field existed still validate. Unknown
// fields, wrong kinds, out-of-range numbers and off-enum strings are
// rejected with the prior state left intact.
func (r *Registry) Validate(tag string, raw map[string]any) (Props, error) {
	t, err := r.Resolve(tag)
	if err != nil {
		return nil, err
	}
	props := make(Props, len(t.Schema))
	for name := range raw {
		if _, ok := t.Schema[name]; !ok {
			return nil, &ValidationError{Type: tag, Field: name, Reason: "unknown field"}
		}
	}
	for name, f := range t.Schema {
		v, present := raw[name]
		if !present {
			props[name] = f.Default
			continue
		}
		norm, err := normalize(tag, name, f, v)
		if err != nil {
			return nil, err
		}
		props[name] = norm
	}
	return props, nil
}

func normalize(tag, name string, f Field, v any) (any, error) {
	switch f.Kind {
	case Number:
		n, ok := asNumber(v)
		if !ok {
			return nil, &ValidationError{Type: tag, Field: name, Reason: "expected a number"}
		}
		if f.Min != 0 || f.Max != 0 {
			if n < f.Min || n > f.Max {
				return nil, &ValidationError{
					Type: tag, Field: name,
					Reason: fmt.Sprintf("%v out of range [%v, %v]", n, f.Min, f.Max),
				}
			}
		}
		return n, nil
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, &ValidationError{Type: tag, Field: name, Reason: "expected a string"}
		}
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
			return nil, &ValidationError{
				Type: tag, Field: name,
				Reason: fmt.Sprintf("%q not one of %v", s, f.Enum),
			}
		}
		return s, nil
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, &ValidationError{Type: tag, Field: name, Reason: "expected a bool"}
		}
		return b, nil
	default:
		return nil, &ValidationError{Type: tag, Field: name, Reason: "unsupported field kind"}
	}
}

// asNumber widens the numeric types a JSON decoder or caller may hand us.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
