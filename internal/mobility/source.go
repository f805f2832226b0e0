package mobility

import (
	"context"
	"fmt"
	"strconv"
)

// Params is a flat parameter bag passed through to a source's Fetch call.
type Params map[string]string

// Get returns the value for key, or def when the key is absent or empty.
func (p Params) Get(key, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}

// Float returns the value for key parsed as a float, or def when the key is
// absent or unparsable.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Merge returns a copy of p with entries from other overriding same keys.
// Neither receiver nor argument is mutated.
func (p Params) Merge(other Params) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Source is an external collaborator producing a PartialResult for a location.
// Fetch may return any error to signal failure and must not retry internally
// beyond its own transport-level resilience.
type Source interface {
	Name() string
	Fetch(ctx context.Context, location string, params Params) (PartialResult, error)
}

// Registration pairs a source with the parameter bag it is always called
// with. Registrations are fixed for an aggregator's lifetime.
type Registration struct {
	Source Source
	Params Params
}

// SourceName resolves a source's identifier, falling back to a type-derived
// name if Name misbehaves. Naming must never abort an aggregation.
func SourceName(src Source) (name string) {
	defer func() {
		if recover() != nil || name == "" {
			name = fmt.Sprintf("%T", src)
		}
	}()
	return src.Name()
}

// CallSource invokes a source's Fetch, converting a panic into an error so
// callers only ever deal with the (PartialResult, error) outcome.
func CallSource(ctx context.Context, src Source, location string, params Params) (partial PartialResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			partial = PartialResult{}
			err = fmt.Errorf("source %s panicked: %v", SourceName(src), r)
		}
	}()
	return src.Fetch(ctx, location, params)
}
