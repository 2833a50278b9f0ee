package logic

import "time"

// Controller variable offsets from the controller's base variable.
const (
	VarTimeOff = iota
	VarTimeOn
	VarTimeOnDelayed
	VarFlash

	ControllerVars
)

// ControllerVarNames are the names of the four controller variables, in
// offset order.
var ControllerVarNames = [ControllerVars]string{"TimeOff", "TimeOn", "TimeOnDelayed", "Flash"}

// Signals is the state of the four controller outputs.
//
//	owner held     ____/‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾\____
//	TimeOff        ____/‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾\____
//	TimeOn         ‾‾‾‾\________________/‾‾‾‾
//	TimeOnDelayed  ‾‾‾‾‾‾‾‾‾\___________/‾‾‾‾   (after ControllerDelay)
//	Flash          _________/‾‾‾‾‾‾‾‾‾‾‾\____   (dated occasions only)
//	occasion var   _________/‾‾‾‾‾‾‾‾‾‾‾\____
type Signals struct {
	TimeOff       bool
	TimeOn        bool
	TimeOnDelayed bool
	Flash         bool
}

// IdleSignals is the controller state while the normal clock is shown.
var IdleSignals = Signals{TimeOn: true, TimeOnDelayed: true}

// Sequencer drives the dim-out/dim-in handshake between the clock display
// and a special display.
type Sequencer struct {
	base    int
	delay   time.Duration
	arbiter *Arbiter
	vars    *varTable

	signals Signals

	pending  bool
	deadline Tick
	target   int // output variable of the occasion being brought in
	dated    bool
}

func newSequencer(base int, delay time.Duration, arbiter *Arbiter, vars *varTable) *Sequencer {
	s := &Sequencer{
		base:    base,
		delay:   delay,
		arbiter: arbiter,
		vars:    vars,
	}
	for i, name := range ControllerVarNames {
		vars.define(base+i, name, false)
	}
	s.apply(IdleSignals)
	return s
}

// activate dims out the clock. The occasion variable v is switched on by
// poll once the delay has passed.
func (s *Sequencer) activate(now Tick, v int, dated bool) {
	sig := s.signals
	sig.TimeOff = true
	sig.TimeOn = false
	s.apply(sig)

	s.pending = true
	s.deadline = now.Add(s.delay)
	s.target = v
	s.dated = dated
}

// poll completes a pending activation once its deadline is reached.
func (s *Sequencer) poll(now Tick) {
	if !s.pending || !now.Reached(s.deadline) {
		return
	}
	if _, held := s.arbiter.Owner(); !held {
		return
	}
	s.pending = false

	sig := s.signals
	sig.TimeOnDelayed = false
	sig.Flash = s.dated
	s.apply(sig)
	s.vars.set(s.target, true)
}

// deactivate brings the clock back immediately and switches v off.
func (s *Sequencer) deactivate(v int) {
	s.pending = false
	s.apply(IdleSignals)
	s.vars.set(v, false)
}

func (s *Sequencer) apply(sig Signals) {
	s.signals = sig
	s.vars.set(s.base+VarTimeOff, sig.TimeOff)
	s.vars.set(s.base+VarTimeOn, sig.TimeOn)
	s.vars.set(s.base+VarTimeOnDelayed, sig.TimeOnDelayed)
	s.vars.set(s.base+VarFlash, sig.Flash)
}

// Signals returns the current controller outputs.
func (s *Sequencer) Signals() Signals {
	return s.signals
}

// Pending reports whether an activation is waiting for its delay.
func (s *Sequencer) Pending() bool {
	return s.pending
}
