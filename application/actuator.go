package application

import (
	"fmt"
	"sort"
)

type ActuatorID int

type ActuatorState int

const (
	StateOff ActuatorState = iota
	StateOn
)

const (
	StatusFlagOn  = "1"
	StatusFlagOff = "0"
)

// Flag returns the status flag carried in status records.
func (s ActuatorState) Flag() string {
	if s == StateOn {
		return StatusFlagOn
	}
	return StatusFlagOff
}

func (s ActuatorState) String() string {
	if s == StateOn {
		return "on"
	}
	return "off"
}

type Level int

const (
	LevelLow Level = iota
	LevelHigh
)

func (l Level) String() string {
	if l == LevelHigh {
		return "high"
	}
	return "low"
}

// LevelFor maps a logical state to the line level. Relays are active-low.
func LevelFor(state ActuatorState) Level {
	if state == StateOn {
		return LevelLow
	}
	return LevelHigh
}

type OutputLine interface {
	SetLevel(level Level) error
	Close() error
}

var ErrUnknownActuator = fmt.Errorf("unknown actuator")

type ActuatorBank struct {
	lines  map[ActuatorID]OutputLine
	states map[ActuatorID]ActuatorState
}

func NewActuatorBank(lines map[ActuatorID]OutputLine) (*ActuatorBank, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("at least one actuator line is required")
	}

	states := make(map[ActuatorID]ActuatorState, len(lines))
	for id, line := range lines {
		if line == nil {
			return nil, fmt.Errorf("actuator %d: line is nil", id)
		}
		states[id] = StateOff
	}

	return &ActuatorBank{lines: lines, states: states}, nil
}

// IDs returns actuator ids in ascending order.
func (b *ActuatorBank) IDs() []ActuatorID {
	ids := make([]ActuatorID, 0, len(b.lines))
	for id := range b.lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (b *ActuatorBank) Set(id ActuatorID, state ActuatorState) error {
	line, ok := b.lines[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownActuator, id)
	}

	if err := line.SetLevel(LevelFor(state)); err != nil {
		return fmt.Errorf("actuator %d: set level %s: %w", id, LevelFor(state), err)
	}

	b.states[id] = state
	return nil
}

func (b *ActuatorBank) State(id ActuatorID) (ActuatorState, error) {
	state, ok := b.states[id]
	if !ok {
		return StateOff, fmt.Errorf("%w: %d", ErrUnknownActuator, id)
	}
	return state, nil
}

// Reset switches every actuator off.
func (b *ActuatorBank) Reset() error {
	for _, id := range b.IDs() {
		if err := b.Set(id, StateOff); err != nil {
			return err
		}
	}
	return nil
}

func (b *ActuatorBank) Close() error {
	var firstErr error
	for _, id := range b.IDs() {
		if err := b.lines[id].Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("actuator %d: close: %w", id, err)
		}
	}
	return firstErr
}
