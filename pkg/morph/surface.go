package morph

import "sync"

// Surface is a mesh-deformation target carrying named blend shapes.
// The character body is one surface; equipped meshes are others.
type Surface interface {
	Name() string
	// BlendShapeIndex returns -1 when the surface has no shape with that name
	BlendShapeIndex(name string) int
	BlendShapeWeight(index int) float64
	SetBlendShapeWeight(index int, weight float64)
}

// MemorySurface is an in-process Surface backed by a slice of weights
type MemorySurface struct {
	mu      sync.RWMutex
	name    string
	indices map[string]int
	names   []string
	weights []float64
}

var _ Surface = (*MemorySurface)(nil)

// NewMemorySurface creates a surface with the given blend shapes, all at 0
func NewMemorySurface(name string, shapes ...string) *MemorySurface {
	s := &MemorySurface{
		name:    name,
		indices: make(map[string]int, len(shapes)),
	}
	for _, shape := range shapes {
		if _, exists := s.indices[shape]; exists {
			continue
		}
		s.indices[shape] = len(s.names)
		s.names = append(s.names, shape)
		s.weights = append(s.weights, 0)
	}
	return s
}

func (s *MemorySurface) Name() string {
	return s.name
}

func (s *MemorySurface) BlendShapeIndex(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.indices[name]; ok {
		return idx
	}
	return -1
}

func (s *MemorySurface) BlendShapeWeight(index int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.weights) {
		return 0
	}
	return s.weights[index]
}

func (s *MemorySurface) SetBlendShapeWeight(index int, weight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.weights) {
		return
	}
	s.weights[index] = weight
}

// Weight returns the weight of a shape by name (0 when absent)
func (s *MemorySurface) Weight(name string) float64 {
	return s.BlendShapeWeight(s.BlendShapeIndex(name))
}

// Shapes returns the blend shape names in index order
func (s *MemorySurface) Shapes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
