package morph

import (
	"maps"
	"slices"
)

const (
	MinValue = 0.0
	MaxValue = 100.0
)

// Table holds per-morph-target contributions keyed by category
type Table struct {
	entries map[string]map[Category]float64
}

// NewTable creates an empty contribution table
func NewTable() *Table {
	return &Table{entries: make(map[string]map[Category]float64)}
}

// Set stores value under category for name, overwriting any prior value for
// that category. Values are not range-checked here.
func (t *Table) Set(name string, c Category, value float64) {
	entry, ok := t.entries[name]
	if !ok {
		entry = make(map[Category]float64, 2)
		t.entries[name] = entry
	}
	entry[c] = value
}

// Delete removes a category's contribution from name
func (t *Table) Delete(name string, c Category) {
	entry, ok := t.entries[name]
	if !ok {
		return
	}
	delete(entry, c)
	if len(entry) == 0 {
		delete(t.entries, name)
	}
}

// Contribution returns the stored value for a category
func (t *Table) Contribution(name string, c Category) (float64, bool) {
	v, ok := t.entries[name][c]
	return v, ok
}

// Has reports whether name has any stored value for category
func (t *Table) Has(name string, c Category) bool {
	_, ok := t.entries[name][c]
	return ok
}

// Effective returns clamp(sum of contributions, 0, 100). Contributions are
// summed in category order so the result is stable.
func (t *Table) Effective(name string) float64 {
	entry := t.entries[name]
	sum := 0.0
	for c := range CategoryCount {
		sum += entry[c]
	}
	return Clamp(sum)
}

// Contributions returns a copy of name's contributions
func (t *Table) Contributions(name string) map[Category]float64 {
	return maps.Clone(t.entries[name])
}

// Names returns every morph name with at least one contribution, sorted
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.entries))
}

// Clamp limits a morph weight to [MinValue, MaxValue]
func Clamp(v float64) float64 {
	return min(max(v, MinValue), MaxValue)
}
