package param

import (
	"fmt"
	"sync/atomic"
)

// Registry is an ordered, fixed set of parameters with name lookup.
//
// The parameter list never changes after construction, so lookups need no
// locking. Only values and automation flags are mutable.
type Registry struct {
	params  []*Parameter
	index   map[string]int
	version atomic.Uint64
}

// NewRegistry builds a registry from specs in declaration order.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{
		params: make([]*Parameter, 0, len(specs)),
		index:  make(map[string]int, len(specs)),
	}
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.index[s.Name]; dup {
			return nil, fmt.Errorf("param: duplicate name %q", s.Name)
		}
		r.index[s.Name] = len(r.params)
		r.params = append(r.params, newParameter(s, &r.version))
	}
	return r, nil
}

// Len returns the number of parameters.
func (r *Registry) Len() int { return len(r.params) }

// Index returns the position of name, or -1.
func (r *Registry) Index(name string) int {
	if i, ok := r.index[name]; ok {
		return i
	}
	return -1
}

// At returns the parameter at position i, or nil.
func (r *Registry) At(i int) *Parameter {
	if i < 0 || i >= len(r.params) {
		return nil
	}
	return r.params[i]
}

// Lookup returns the named parameter, or nil.
func (r *Registry) Lookup(name string) *Parameter {
	return r.At(r.Index(name))
}

// Set stores v (clamped) and reports whether name exists.
func (r *Registry) Set(name string, v float64) bool {
	p := r.Lookup(name)
	if p == nil {
		return false
	}
	p.Set(v)
	return true
}

// SetIndex stores v (clamped) at position i.
func (r *Registry) SetIndex(i int, v float64) bool {
	p := r.At(i)
	if p == nil {
		return false
	}
	p.Set(v)
	return true
}

// Get returns the named value, or 0 for an unknown name.
func (r *Registry) Get(name string) float64 {
	p := r.Lookup(name)
	if p == nil {
		return 0
	}
	return p.Value()
}

// SetAutomated flags the named parameter and reports whether it exists.
func (r *Registry) SetAutomated(name string, on bool) bool {
	p := r.Lookup(name)
	if p == nil {
		return false
	}
	p.SetAutomated(on)
	return true
}

// IsAutomated reports the automation flag, false for an unknown name.
func (r *Registry) IsAutomated(name string) bool {
	p := r.Lookup(name)
	return p != nil && p.Automated()
}

// Version increments on every value change.
func (r *Registry) Version() uint64 { return r.version.Load() }

// Snapshot copies all values into dst in declaration order and returns the
// number written. It does not allocate.
func (r *Registry) Snapshot(dst []float64) int {
	n := min(len(dst), len(r.params))
	for i := 0; i < n; i++ {
		dst[i] = r.params[i].Value()
	}
	return n
}

// Values returns the current values in declaration order.
func (r *Registry) Values() []float64 {
	out := make([]float64, len(r.params))
	r.Snapshot(out)
	return out
}

// Infos returns host views in declaration order.
func (r *Registry) Infos() []Info {
	out := make([]Info, len(r.params))
	for i, p := range r.params {
		out[i] = p.Info()
	}
	return out
}

// Specs returns the parameter descriptions in declaration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, len(r.params))
	for i, p := range r.params {
		out[i] = p.spec
	}
	return out
}

// ResetDefaults restores every parameter to its default value.
func (r *Registry) ResetDefaults() {
	for _, p := range r.params {
		p.Set(p.spec.Default)
	}
}
