package logic

// Arbiter grants the display to at most one (slot, index) pair at a time.
// A single Arbiter is shared by every slot of an engine.
type Arbiter struct {
	owner Owner
	held  bool
}

// NewArbiter creates an arbiter with no owner.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// TryClaim makes o the owner if nobody owns the display.
func (a *Arbiter) TryClaim(o Owner) bool {
	if a.held {
		return false
	}
	a.owner = o
	a.held = true
	return true
}

// Release clears ownership if o is the current owner.
func (a *Arbiter) Release(o Owner) {
	if a.held && a.owner == o {
		a.held = false
		a.owner = Owner{}
	}
}

// Owner returns the current owner, if any.
func (a *Arbiter) Owner() (Owner, bool) {
	return a.owner, a.held
}

// HeldByOther reports whether someone other than o owns the display.
func (a *Arbiter) HeldByOther(o Owner) bool {
	return a.held && a.owner != o
}
