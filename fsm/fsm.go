// Package fsm implements the 11-state trading state machine. All lifecycle
// changes flow through Transition; the table below is the single source of
// truth for what is legal.
package fsm

import (
	"github.com/evdnx/goicc/logger"
)

// State is one of the 11 machine states.
type State string

const (
	Flat             State = "FLAT"
	IndicationUp     State = "INDICATION_UP"
	IndicationDown   State = "INDICATION_DOWN"
	CorrectionUp     State = "CORRECTION_UP"
	CorrectionDown   State = "CORRECTION_DOWN"
	ContinuationUp   State = "CONTINUATION_UP"
	ContinuationDown State = "CONTINUATION_DOWN"
	InTradeUp        State = "IN_TRADE_UP"
	InTradeDown      State = "IN_TRADE_DOWN"
	Exit             State = "EXIT"
	RiskBlocked      State = "RISK_BLOCKED"
)

// Action names the trigger of a transition.
type Action string

const (
	ActionIndicationUp     Action = "indication_up"
	ActionIndicationDown   Action = "indication_down"
	ActionCorrectionUp     Action = "correction_up"
	ActionCorrectionDown   Action = "correction_down"
	ActionContinuationUp   Action = "continuation_up"
	ActionContinuationDown Action = "continuation_down"
	ActionEnterLong        Action = "enter_long"
	ActionEnterShort       Action = "enter_short"
	ActionExit             Action = "exit"
	ActionStopHit          Action = "stop_hit"
	ActionTargetHit        Action = "target_hit"
	ActionTimeoutExit      Action = "timeout_exit"
	ActionTimeout          Action = "timeout"
	ActionInvalidate       Action = "invalidate"
	ActionRiskBlock        Action = "risk_block"
	ActionReset            Action = "reset"
	ActionForce            Action = "force"
	ActionNone             Action = "none"
)

// transitionTable maps (from, action) to the next state. risk_block is not
// listed: it is legal from every state.
var transitionTable = map[State]map[Action]State{
	Flat: {
		ActionIndicationUp:   IndicationUp,
		ActionIndicationDown: IndicationDown,
	},
	IndicationUp: {
		ActionCorrectionUp: CorrectionUp,
		ActionTimeout:      Flat,
		ActionInvalidate:   Flat,
	},
	IndicationDown: {
		ActionCorrectionDown: CorrectionDown,
		ActionTimeout:        Flat,
		ActionInvalidate:     Flat,
	},
	CorrectionUp: {
		ActionContinuationUp: ContinuationUp,
		ActionTimeout:        Flat,
		ActionInvalidate:     Flat,
	},
	CorrectionDown: {
		ActionContinuationDown: ContinuationDown,
		ActionTimeout:          Flat,
		ActionInvalidate:       Flat,
	},
	ContinuationUp: {
		ActionEnterLong:  InTradeUp,
		ActionTimeout:    Flat,
		ActionInvalidate: Flat,
	},
	ContinuationDown: {
		ActionEnterShort: InTradeDown,
		ActionTimeout:    Flat,
		ActionInvalidate: Flat,
	},
	InTradeUp: {
		ActionExit:        Exit,
		ActionStopHit:     Exit,
		ActionTargetHit:   Exit,
		ActionTimeoutExit: Exit,
	},
	InTradeDown: {
		ActionExit:        Exit,
		ActionStopHit:     Exit,
		ActionTargetHit:   Exit,
		ActionTimeoutExit: Exit,
	},
	Exit: {
		ActionReset: Flat,
	},
	RiskBlocked: {
		ActionReset: Flat,
	},
}

// Listener observes successful transitions, including forced ones.
// Listeners must not call back into the machine.
type Listener func(old State, action Action, new State)

// Machine holds the current state and its listeners. It is not safe for
// concurrent use; the trading loop is single-threaded by contract.
type Machine struct {
	state     State
	listeners []Listener
	log       logger.Logger
}

// New returns a machine in FLAT.
func New(log logger.Logger) *Machine {
	return &Machine{state: Flat, log: log}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// AddListener registers a transition observer.
func (m *Machine) AddListener(fn Listener) {
	m.listeners = append(m.listeners, fn)
}

// Transition applies an action. Unknown (state, action) pairs log a warning
// and leave the state unchanged. The resulting state is returned either way.
func (m *Machine) Transition(action Action) State {
	// Risk block is legal from any state.
	if action == ActionRiskBlock {
		old := m.state
		m.state = RiskBlocked
		m.notify(old, action, m.state)
		return m.state
	}

	next, ok := transitionTable[m.state][action]
	if !ok {
		if m.log != nil {
			m.log.Warn("invalid fsm transition",
				logger.String("state", string(m.state)),
				logger.String("action", string(action)))
		}
		return m.state
	}

	old := m.state
	m.state = next
	m.notify(old, action, next)
	return m.state
}

// ForceState bypasses the table. Used by the kill-switch path.
func (m *Machine) ForceState(s State) {
	old := m.state
	m.state = s
	m.notify(old, ActionForce, s)
}

// Reset forces the machine back to FLAT.
func (m *Machine) Reset() {
	old := m.state
	m.state = Flat
	m.notify(old, ActionReset, Flat)
}

func (m *Machine) notify(old State, action Action, new State) {
	if m.log != nil {
		m.log.Debug("fsm transition",
			logger.String("from", string(old)),
			logger.String("action", string(action)),
			logger.String("to", string(new)))
	}
	for _, fn := range m.listeners {
		fn(old, action, new)
	}
}
