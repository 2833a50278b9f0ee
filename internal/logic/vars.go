package logic

import "sort"

// varTable holds the logical value of every output variable. Overlapping
// variable ranges are not detected; the last definition wins the name.
type varTable struct {
	values map[int]bool
	names  map[int]string
}

func newVarTable() *varTable {
	return &varTable{
		values: make(map[int]bool),
		names:  make(map[int]string),
	}
}

func (t *varTable) define(v int, name string, initial bool) {
	t.names[v] = name
	t.values[v] = initial
}

func (t *varTable) set(v int, val bool) {
	t.values[v] = val
}

func (t *varTable) get(v int) bool {
	return t.values[v]
}

// indexes returns the defined variable indexes in ascending order.
func (t *varTable) indexes() []int {
	out := make([]int, 0, len(t.values))
	for v := range t.values {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
