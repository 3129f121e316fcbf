package morph

import (
	"log/slog"
	"slices"
)

type target struct {
	surface Surface
	index   int
}

// Registry resolves morph target names to blend shape indices on the base body
// surface and any attached equipment surfaces. The first surface that has a
// name is its primary binding; writes go to every surface sharing the name.
type Registry struct {
	base     Surface
	equipped []Surface
	tracked  map[string]struct{}
	bindings map[string][]target
	warned   map[string]bool
	logger   *slog.Logger
}

// NewRegistry creates a registry over the base surface.
// A nil base surface leaves the registry disabled: every name is inert.
func NewRegistry(base Surface, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		base:     base,
		tracked:  make(map[string]struct{}),
		bindings: make(map[string][]target),
		warned:   make(map[string]bool),
		logger:   logger,
	}
	if base == nil {
		logger.Error("No base surface assigned, morph targets disabled")
	}
	return r
}

// Disabled reports whether the registry has no base surface
func (r *Registry) Disabled() bool {
	return r.base == nil
}

// Track registers names to be resolved now and on every rebuild
func (r *Registry) Track(names ...string) {
	for _, name := range names {
		if _, ok := r.tracked[name]; ok {
			continue
		}
		r.tracked[name] = struct{}{}
		r.bind(name)
	}
}

// Resolve returns the primary binding for name
func (r *Registry) Resolve(name string) (int, Surface, bool) {
	if _, ok := r.tracked[name]; !ok {
		r.Track(name)
	}
	targets := r.bindings[name]
	if len(targets) == 0 {
		return -1, nil, false
	}
	return targets[0].index, targets[0].surface, true
}

// Attach adds an equipped surface and rebuilds all bindings
func (r *Registry) Attach(s Surface) {
	if s == nil || slices.Contains(r.equipped, s) {
		return
	}
	r.equipped = append(r.equipped, s)
	r.Rebuild()
}

// Detach removes an equipped surface and rebuilds all bindings
func (r *Registry) Detach(s Surface) {
	idx := slices.Index(r.equipped, s)
	if idx < 0 {
		return
	}
	r.equipped = slices.Delete(r.equipped, idx, idx+1)
	r.Rebuild()
}

// Surfaces returns the base surface followed by equipped surfaces
func (r *Registry) Surfaces() []Surface {
	if r.base == nil {
		return nil
	}
	return append([]Surface{r.base}, r.equipped...)
}

// Rebuild rescans every tracked name against the current surface set
func (r *Registry) Rebuild() {
	clear(r.bindings)
	for name := range r.tracked {
		r.bind(name)
	}
}

func (r *Registry) bind(name string) {
	var targets []target
	for _, s := range r.Surfaces() {
		if idx := s.BlendShapeIndex(name); idx >= 0 {
			targets = append(targets, target{surface: s, index: idx})
		}
	}
	if len(targets) == 0 {
		delete(r.bindings, name)
		if !r.warned[name] && r.base != nil {
			r.logger.Warn("Morph target not found on any surface", "morph", name)
			r.warned[name] = true
		}
		return
	}
	r.bindings[name] = targets
}

// Value reads the rendered weight of name from its primary binding (0 if inert)
func (r *Registry) Value(name string) float64 {
	idx, s, ok := r.Resolve(name)
	if !ok {
		return 0
	}
	return s.BlendShapeWeight(idx)
}

// Set writes the weight to every surface bound to name
func (r *Registry) Set(name string, value float64) {
	if _, ok := r.tracked[name]; !ok {
		r.Track(name)
	}
	for _, t := range r.bindings[name] {
		t.surface.SetBlendShapeWeight(t.index, value)
	}
}

// SetOn writes the weight to a single surface if it has the shape
func (r *Registry) SetOn(s Surface, name string, value float64) {
	if s == nil {
		return
	}
	if idx := s.BlendShapeIndex(name); idx >= 0 {
		s.SetBlendShapeWeight(idx, value)
	}
}
