package logic

import "time"

// ControllerConfig places the four controller variables.
type ControllerConfig struct {
	BaseVar int
}

// EngineConfig describes every slot and the optional controller block.
type EngineConfig struct {
	Slots      []SlotConfig
	Controller *ControllerConfig // nil: slots drive their variables directly
	Timings    Timings
	Debounce   time.Duration // trigger input debounce
}

// Engine evaluates all slots once per tick, in configuration order, and
// reports the resulting events and output variable changes.
type Engine struct {
	slots      []*Slot
	debouncers []*Debouncer
	arbiter    *Arbiter
	seq        *Sequencer
	vars       *varTable
	slotOfVar  map[int]*Slot

	published map[int]bool // nil until the first tick has been reported
	disabled  bool
	now       Tick

	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewEngine builds the slots and their shared arbiter and sequencer.
// start is the tick at construction; startTime is used for calculating
// uptime in heartbeat events.
func NewEngine(cfg EngineConfig, rnd Rand, start Tick, startTime time.Time) *Engine {
	e := &Engine{
		arbiter:       NewArbiter(),
		vars:          newVarTable(),
		slotOfVar:     make(map[int]*Slot),
		now:           start,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}

	if cfg.Controller != nil {
		e.seq = newSequencer(cfg.Controller.BaseVar, cfg.Timings.ControllerDelay, e.arbiter, e.vars)
	}

	for i, sc := range cfg.Slots {
		s := newSlot(i, sc, cfg.Timings, e.arbiter, e.seq, e.vars, rnd, start)
		e.slots = append(e.slots, s)
		e.debouncers = append(e.debouncers, NewDebouncer(cfg.Debounce))
		for j := range s.catalog {
			e.slotOfVar[s.baseVar+j] = s
		}
	}
	return e
}

// Process takes a new input sample and returns the events and variable
// changes it caused. The first call reports every variable.
func (e *Engine) Process(input Input) Result {
	e.now = input.Tick
	e.disabled = input.Disable

	var res Result
	for i, s := range e.slots {
		raw := i < len(input.Triggers) && input.Triggers[i]
		level, _ := e.debouncers[i].Process(raw, input.Tick)

		sev := s.evaluate(input.Tick, input.Date, level)
		e.eventCounts.Rearmed += sev.rearmed
		for _, se := range sev.events {
			res.Events = append(res.Events, Event{
				Timestamp: input.Time,
				Type:      se.typ,
				Slot:      s.name,
				Index:     se.index,
				Occasion:  s.catalog[se.index],
			})
		}
	}

	if e.seq != nil {
		e.seq.poll(input.Tick)
	}

	// Count events
	for _, ev := range res.Events {
		switch ev.Type {
		case EventActivated:
			e.eventCounts.Activated++
		case EventDeactivated:
			e.eventCounts.Deactivated++
		case EventTriggered:
			e.eventCounts.Triggered++
		case EventDeferred:
			e.eventCounts.Deferred++
		}
	}

	res.Changes = e.diff()
	return res
}

// diff returns the variables whose presented value differs from what was
// last reported. A release and a claim within one tick therefore cancel
// out on shared controller variables.
func (e *Engine) diff() []Change {
	if e.published == nil {
		e.published = make(map[int]bool)
	}

	var changes []Change
	for _, v := range e.vars.indexes() {
		val := e.present(v)
		if old, ok := e.published[v]; ok && old == val {
			continue
		}
		e.published[v] = val
		changes = append(changes, Change{Var: v, Name: e.vars.names[v], Value: val})
	}
	return changes
}

// present applies the disabled sentinel to slot variables.
func (e *Engine) present(v int) bool {
	if s, ok := e.slotOfVar[v]; ok && e.disabled {
		return s.disVal
	}
	return e.vars.get(v)
}

// Vars returns the presented value of every output variable.
func (e *Engine) Vars() []Change {
	idx := e.vars.indexes()
	out := make([]Change, 0, len(idx))
	for _, v := range idx {
		out = append(out, Change{Var: v, Name: e.vars.names[v], Value: e.present(v)})
	}
	return out
}

// Owner returns the pair currently holding the display.
func (e *Engine) Owner() (Owner, bool) {
	return e.arbiter.Owner()
}

// Signals returns the controller outputs and whether a controller block
// is configured.
func (e *Engine) Signals() (Signals, bool) {
	if e.seq == nil {
		return Signals{}, false
	}
	return e.seq.Signals(), true
}

// Disabled reports whether outputs were disabled on the last tick.
func (e *Engine) Disabled() bool {
	return e.disabled
}

// Slots returns a view of every slot as of the last tick.
func (e *Engine) Slots() []SlotView {
	out := make([]SlotView, len(e.slots))
	for i, s := range e.slots {
		out[i] = s.view(e.now)
	}
	return out
}

// EventCountsSnapshot returns a copy of the event counts.
func (e *Engine) EventCountsSnapshot() EventCounts {
	return e.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (e *Engine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(e.lastHeartbeat) < interval {
		return nil
	}

	e.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(e.startTime),
		Counts:    e.eventCounts,
	}
}
