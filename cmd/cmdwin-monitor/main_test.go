package main

import (
	"testing"
)

func applyMsg(t *testing.T, m model, msg interface{}) model {
	t.Helper()
	next, _ := m.Update(msg)
	got, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return got
}

func TestUpdate_DropsStaleFramesWithinConnection(t *testing.T) {
	m := newModel()
	m = applyMsg(t, m, stateMsg{Seq: 5, State: "visible"})
	m = applyMsg(t, m, stateMsg{Seq: 3, State: "hidden"})

	if m.state != "visible" {
		t.Errorf("state = %q, stale frame was applied", m.state)
	}
}

func TestUpdate_AcceptsFreshFramesAfterOwnerRestart(t *testing.T) {
	m := newModel()
	m = applyMsg(t, m, stateMsg{Seq: 40, State: "visible"})

	// Owner goes away and comes back; its counter starts over near 1.
	m = applyMsg(t, m, disconnectMsg{})
	if m.connected {
		t.Fatal("still connected after disconnect")
	}
	m = applyMsg(t, m, stateMsg{Seq: 1, State: "hidden"})

	if !m.connected {
		t.Error("frame from restarted owner not accepted")
	}
	if m.state != "hidden" {
		t.Errorf("state = %q, restarted owner's frames are being dropped", m.state)
	}
}
