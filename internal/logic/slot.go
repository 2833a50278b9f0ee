package logic

import (
	"strconv"
	"time"
)

// SlotConfig configures one independently scheduled catalog.
type SlotConfig struct {
	Name          string
	Dates         string // e.g. "8.8. 9.8. 0.0."
	BaseVar       int    // output variable of occasion 0
	Capacity      int    // maximum catalog size; 0 means DefaultCapacity, negative unbounded
	DisabledValue bool   // value presented on every variable while outputs are disabled
}

// Slot schedules the occasions of one catalog.
type Slot struct {
	id      int
	name    string
	baseVar int
	disVal  bool
	catalog Catalog
	timing  []Timing // resolved per occasion at construction

	arbiter *Arbiter
	seq     *Sequencer // nil without a controller block
	vars    *varTable
	rnd     Rand

	deadline  []Tick
	wasActive []bool

	nextExternal int
	prevTrigger  bool
	forced       bool // a manual trigger made every occasion of this slot eligible
}

func newSlot(id int, cfg SlotConfig, timings Timings, arbiter *Arbiter, seq *Sequencer, vars *varTable, rnd Rand, start Tick) *Slot {
	cat, n := SlotCatalog(cfg.Dates, cfg.Capacity)

	s := &Slot{
		id:        id,
		name:      cfg.Name,
		baseVar:   cfg.BaseVar,
		disVal:    cfg.DisabledValue,
		catalog:   cat,
		timing:    make([]Timing, n),
		arbiter:   arbiter,
		seq:       seq,
		vars:      vars,
		rnd:       rnd,
		deadline:  make([]Tick, n),
		wasActive: make([]bool, n),
	}

	for i, occ := range cat {
		s.timing[i] = timings.For(occ.Kind)
		vars.define(s.baseVar+i, varName(cfg.Name, i), false)

		// Dated occasions show up shortly after power-on; daily ones wait
		// a full period so the daily message is not the first thing seen.
		if occ.Kind == KindDaily {
			s.deadline[i] = start.Add(between(rnd, timings.Daily.PeriodMin, timings.Daily.PeriodMax))
		} else {
			s.deadline[i] = start.Add(timings.FirstDisplay + between(rnd, 0, timings.FirstDisplayJitter))
		}
	}
	return s
}

// slotEvent is one transition of one occasion, in the order it happened.
type slotEvent struct {
	typ   EventType
	index int
}

// slotEvents collects what one evaluation did, for the engine to report.
type slotEvents struct {
	events  []slotEvent
	rearmed int
}

func (e *slotEvents) add(typ EventType, i int) {
	e.events = append(e.events, slotEvent{typ: typ, index: i})
}

// evaluate runs one tick of the scheduler. trigger is the debounced
// trigger level; the slot detects the rising edge itself.
func (s *Slot) evaluate(now Tick, date Date, trigger bool) slotEvents {
	var ev slotEvents

	edge := trigger && !s.prevTrigger
	s.prevTrigger = trigger

	for i, occ := range s.catalog {
		self := Owner{Slot: s.id, Index: i}
		val := false
		manual := edge && i == s.nextExternal

		candidate := occ.Kind == KindDaily || occ.On(date) || manual || s.forced
		if !candidate {
			// Idle deadlines follow now so Reached stays within its
			// 2^31 ms range; the first eligible tick still re-arms.
			if now.Reached(s.deadline[i].Add(s.timing[i].Duration)) {
				s.deadline[i] = now.Add(-s.timing[i].Duration)
			}
		} else {
			if manual {
				if _, held := s.arbiter.Owner(); !held {
					s.forced = true
					s.deadline[i] = now
					ev.add(EventTriggered, i)
				} else {
					// Something else is showing: reserve this occasion for later.
					s.forced = false
					s.rearm(i, now)
					ev.add(EventDeferred, i)
				}
			}

			if now.Reached(s.deadline[i]) {
				if now.Reached(s.deadline[i].Add(s.timing[i].Duration)) || s.arbiter.HeldByOther(self) {
					s.rearm(i, now)
					ev.rearmed++
					if owner, held := s.arbiter.Owner(); held && owner == self {
						s.forced = false
					}
				} else {
					val = true
				}
			}
		}

		if s.wasActive[i] == val {
			continue
		}
		s.wasActive[i] = val
		v := s.baseVar + i

		if val {
			s.arbiter.TryClaim(self)
			if s.seq != nil {
				s.seq.activate(now, v, occ.Kind == KindDated)
			} else {
				s.vars.set(v, true)
			}
			ev.add(EventActivated, i)
			continue
		}

		if s.seq != nil {
			s.seq.deactivate(v)
		} else {
			s.vars.set(v, false)
		}
		s.arbiter.Release(self)
		s.nextExternal = (i + 1) % len(s.catalog)
		ev.add(EventDeactivated, i)
	}
	return ev
}

func (s *Slot) rearm(i int, now Tick) {
	t := s.timing[i]
	s.deadline[i] = now.Add(between(s.rnd, t.PeriodMin, t.PeriodMax))
}

// SlotView is a read-only description of a slot for status consumers.
type SlotView struct {
	Name         string
	BaseVar      int
	Catalog      Catalog
	Active       int // displaying index, -1 when idle
	NextExternal int
	Forced       bool
	NextDue      []time.Duration // time until each occasion's deadline; negative when passed
}

func (s *Slot) view(now Tick) SlotView {
	v := SlotView{
		Name:         s.name,
		BaseVar:      s.baseVar,
		Catalog:      append(Catalog(nil), s.catalog...),
		Active:       -1,
		NextExternal: s.nextExternal,
		Forced:       s.forced,
		NextDue:      make([]time.Duration, len(s.deadline)),
	}
	for i, d := range s.deadline {
		if s.wasActive[i] {
			v.Active = i
		}
		v.NextDue[i] = time.Duration(int32(d-now)) * time.Millisecond
	}
	return v
}

// Catalog returns the slot's parsed occasions.
func (s *Slot) Catalog() Catalog {
	return s.catalog
}

func varName(slot string, i int) string {
	return slot + "." + strconv.Itoa(i)
}
