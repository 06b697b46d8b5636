package fsm

import "testing"

func TestInitialState(t *testing.T) {
	m := New(nil)
	if m.State() != Flat {
		t.Fatalf("initial state = %s", m.State())
	}
}

func TestLongPath(t *testing.T) {
	m := New(nil)
	steps := []struct {
		action Action
		want   State
	}{
		{ActionIndicationUp, IndicationUp},
		{ActionCorrectionUp, CorrectionUp},
		{ActionContinuationUp, ContinuationUp},
		{ActionEnterLong, InTradeUp},
		{ActionTargetHit, Exit},
		{ActionReset, Flat},
	}
	for _, s := range steps {
		if got := m.Transition(s.action); got != s.want {
			t.Fatalf("after %s: got %s want %s", s.action, got, s.want)
		}
	}
}

func TestShortPath(t *testing.T) {
	m := New(nil)
	steps := []struct {
		action Action
		want   State
	}{
		{ActionIndicationDown, IndicationDown},
		{ActionCorrectionDown, CorrectionDown},
		{ActionContinuationDown, ContinuationDown},
		{ActionEnterShort, InTradeDown},
		{ActionStopHit, Exit},
		{ActionReset, Flat},
	}
	for _, s := range steps {
		if got := m.Transition(s.action); got != s.want {
			t.Fatalf("after %s: got %s want %s", s.action, got, s.want)
		}
	}
}

func TestRiskBlockFromAnyState(t *testing.T) {
	all := []State{Flat, IndicationUp, IndicationDown, CorrectionUp, CorrectionDown,
		ContinuationUp, ContinuationDown, InTradeUp, InTradeDown, Exit, RiskBlocked}
	for _, start := range all {
		m := New(nil)
		m.ForceState(start)
		if got := m.Transition(ActionRiskBlock); got != RiskBlocked {
			t.Fatalf("risk_block from %s: got %s", start, got)
		}
		if got := m.Transition(ActionReset); got != Flat {
			t.Fatalf("reset from RISK_BLOCKED: got %s", got)
		}
	}
}

func TestInvalidTransitionIsNoOp(t *testing.T) {
	m := New(nil)
	if got := m.Transition(ActionEnterLong); got != Flat {
		t.Fatalf("invalid action changed state to %s", got)
	}
	m.Transition(ActionIndicationUp)
	if got := m.Transition(ActionEnterShort); got != IndicationUp {
		t.Fatalf("invalid action changed state to %s", got)
	}
}

func TestFullTable(t *testing.T) {
	// Every entry of the table, exactly as specified.
	for from, actions := range transitionTable {
		for action, want := range actions {
			m := New(nil)
			m.ForceState(from)
			if got := m.Transition(action); got != want {
				t.Fatalf("%s -[%s]-> %s, want %s", from, action, got, want)
			}
		}
	}
}

func TestTimeoutResets(t *testing.T) {
	m := New(nil)
	m.Transition(ActionIndicationUp)
	if got := m.Transition(ActionTimeout); got != Flat {
		t.Fatalf("timeout: got %s", got)
	}
}

func TestForceState(t *testing.T) {
	m := New(nil)
	m.ForceState(RiskBlocked)
	if m.State() != RiskBlocked {
		t.Fatalf("force: got %s", m.State())
	}
}

func TestListenerCalled(t *testing.T) {
	m := New(nil)
	var calls []struct {
		old    State
		action Action
		new    State
	}
	m.AddListener(func(old State, action Action, new State) {
		calls = append(calls, struct {
			old    State
			action Action
			new    State
		}{old, action, new})
	})
	m.Transition(ActionIndicationUp)
	if len(calls) != 1 {
		t.Fatalf("listener calls = %d", len(calls))
	}
	if calls[0].old != Flat || calls[0].action != ActionIndicationUp || calls[0].new != IndicationUp {
		t.Fatalf("listener args = %+v", calls[0])
	}
	// Invalid transitions must not notify.
	m.Transition(ActionEnterShort)
	if len(calls) != 1 {
		t.Fatal("listener fired for a no-op transition")
	}
	// Forced changes do notify.
	m.ForceState(RiskBlocked)
	if len(calls) != 2 {
		t.Fatal("listener missed ForceState")
	}
}

func TestReset(t *testing.T) {
	m := New(nil)
	m.Transition(ActionIndicationUp)
	m.Reset()
	if m.State() != Flat {
		t.Fatalf("reset: got %s", m.State())
	}
}
