package entity

import "sort"

// InitFunc prepares a freshly created state, for example seeding ratings.
type InitFunc func(*State)

// Table owns every State of one pass. It is not safe for concurrent use; each
// pass drives its own table.
type Table struct {
	states map[string]*State
	order  []string
	inits  []InitFunc
}

// Option configures a Table.
type Option func(*Table)

// WithInit registers a hook run once when a state is first created.
func WithInit(fn InitFunc) Option {
	return func(t *Table) {
		if fn != nil {
			t.inits = append(t.inits, fn)
		}
	}
}

// NewTable returns an empty table.
func NewTable(opts ...Option) *Table {
	t := &Table{states: make(map[string]*State)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Ensure returns the state for id, creating and initialising it on first sight.
func (t *Table) Ensure(id string) *State {
	if st, ok := t.states[id]; ok {
		return st
	}
	st := newState(id)
	for _, fn := range t.inits {
		fn(st)
	}
	t.states[id] = st
	t.order = append(t.order, id)
	return st
}

// Get returns the state for id if it exists.
func (t *Table) Get(id string) (*State, bool) {
	st, ok := t.states[id]
	return st, ok
}

// Len returns the number of entities seen.
func (t *Table) Len() int { return len(t.states) }

// IDs returns every entity id in lexical order.
func (t *Table) IDs() []string {
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	sort.Strings(ids)
	return ids
}

// FirstSeen returns entity ids in order of first appearance.
func (t *Table) FirstSeen() []string {
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	return ids
}
