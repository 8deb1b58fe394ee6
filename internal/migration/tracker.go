package migration

// Tracker remembers repository names accepted during one run.
type Tracker struct {
	seen map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Accept records name and returns true the first time it is seen. Later calls with the
// same name return false and leave the tracker unchanged.
func (t *Tracker) Accept(name string) bool {
	if _, exists := t.seen[name]; exists {
		return false
	}
	t.seen[name] = struct{}{}
	return true
}

// Len returns the number of accepted names.
func (t *Tracker) Len() int {
	return len(t.seen)
}

// Reset forgets every name.
func (t *Tracker) Reset() {
	t.seen = make(map[string]struct{})
}
