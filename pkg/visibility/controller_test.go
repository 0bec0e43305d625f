package visibility

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zomem/alacritty-mac/pkg/engine"
)

type fakeRef struct {
	exited chan error
}

func (r *fakeRef) Exited() <-chan error { return r.exited }

func (r *fakeRef) die(err error) {
	r.exited <- err
	close(r.exited)
}

// fakeEngine records every operation and can fail or stall on demand.
type fakeEngine struct {
	mu         sync.Mutex
	ops        []string
	createErrs []error       // consumed one per Create call
	opErrs     map[string]error
	gate       chan struct{} // when set, Create blocks until the gate closes

	refs []*fakeRef
}

func (e *fakeEngine) record(op string) {
	e.mu.Lock()
	e.ops = append(e.ops, op)
	e.mu.Unlock()
}

func (e *fakeEngine) Ops() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ops...)
}

func (e *fakeEngine) Create(ctx context.Context) (engine.Ref, error) {
	e.record("create")
	e.mu.Lock()
	gate := e.gate
	var err error
	if len(e.createErrs) > 0 {
		err = e.createErrs[0]
		e.createErrs = e.createErrs[1:]
	}
	e.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, &engine.CreateError{Err: err}
	}
	ref := &fakeRef{exited: make(chan error, 1)}
	e.mu.Lock()
	e.refs = append(e.refs, ref)
	e.mu.Unlock()
	return ref, nil
}

func (e *fakeEngine) op(name string) error {
	e.record(name)
	e.mu.Lock()
	err := e.opErrs[name]
	e.mu.Unlock()
	if err != nil {
		return &engine.OpError{Op: name, Err: err}
	}
	return nil
}

func (e *fakeEngine) Reveal(engine.Ref) error  { return e.op("reveal") }
func (e *fakeEngine) Conceal(engine.Ref) error { return e.op("conceal") }
func (e *fakeEngine) Focus(engine.Ref) error   { return e.op("focus") }
func (e *fakeEngine) Destroy(engine.Ref) error { return e.op("destroy") }

// manualTimer lets tests deliver animation-complete exactly when they choose.
type manualTimer struct {
	mu    sync.Mutex
	fires []func()
}

func (m *manualTimer) schedule(_ time.Duration, fire func()) {
	m.mu.Lock()
	m.fires = append(m.fires, fire)
	m.mu.Unlock()
}

func (m *manualTimer) fire(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		m.mu.Lock()
		if len(m.fires) > 0 {
			f := m.fires[0]
			m.fires = m.fires[1:]
			m.mu.Unlock()
			f()
			return
		}
		m.mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatal("no animation timer armed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) Notify(title, body string) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

type harness struct {
	eng         *fakeEngine
	timer       *manualTimer
	notifier    *countingNotifier
	transitions chan [2]State
	ctl         *Controller
}

func newHarness(t *testing.T, eng *fakeEngine) *harness {
	t.Helper()
	h := &harness{
		eng:         eng,
		timer:       &manualTimer{},
		notifier:    &countingNotifier{},
		transitions: make(chan [2]State, 64),
	}
	h.ctl = New(eng, Options{
		Notifier: h.notifier,
		Timer:    h.timer.schedule,
		OnTransition: func(old, new State) {
			h.transitions <- [2]State{old, new}
		},
	})
	t.Cleanup(h.ctl.Close)
	return h
}

func (h *harness) expectTransition(t *testing.T, old, new State) {
	t.Helper()
	select {
	case tr := <-h.transitions:
		if tr[0] != old || tr[1] != new {
			t.Fatalf("transition %s->%s, want %s->%s", tr[0], tr[1], old, new)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no transition, want %s->%s (state=%s)", old, new, h.ctl.State())
	}
}

func (h *harness) expectNoTransition(t *testing.T) {
	t.Helper()
	select {
	case tr := <-h.transitions:
		t.Fatalf("unexpected transition %s->%s", tr[0], tr[1])
	case <-time.After(100 * time.Millisecond):
	}
}

func TestToggle_HiddenToVisible(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)

	ops := h.eng.Ops()
	want := []string{"create", "reveal", "focus"}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v", ops, want)
		}
	}
}

func TestToggle_FullCycleKeepsEngine(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)

	h.ctl.Toggle()
	h.expectTransition(t, Visible, Hiding)
	h.timer.fire(t)
	h.expectTransition(t, Hiding, Hidden)

	// Second reveal reuses the instance: exactly one create.
	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)

	creates := 0
	for _, op := range h.eng.Ops() {
		if op == "create" {
			creates++
		}
	}
	if creates != 1 {
		t.Errorf("create called %d times, want 1", creates)
	}
}

func TestDoubleToggleDuringShowing_QueuesThenHides(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.ctl.Toggle() // queued, not dropped, not applied mid-animation

	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)
	h.expectTransition(t, Visible, Hiding)
	h.timer.fire(t)
	h.expectTransition(t, Hiding, Hidden)

	if got := h.ctl.State(); got != Hidden {
		t.Errorf("final state = %s, want hidden", got)
	}
}

func TestTripleToggleDuringShowing_PairCancels(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.ctl.Toggle() // queued
	h.ctl.Toggle() // cancels the queued toggle

	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)
	h.expectNoTransition(t)

	if got := h.ctl.State(); got != Visible {
		t.Errorf("final state = %s, want visible", got)
	}
}

func TestHideQueuedDuringSlowCreate(t *testing.T) {
	eng := &fakeEngine{gate: make(chan struct{})}
	h := newHarness(t, eng)

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)

	// Create is still in flight; the hide must be queued, not dropped, and
	// the queue must stay responsive.
	h.ctl.Hide()
	close(eng.gate)

	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)
	h.expectTransition(t, Visible, Hiding)
	h.timer.fire(t)
	h.expectTransition(t, Hiding, Hidden)
}

func TestCreateFailure_RetryThenSingleNotification(t *testing.T) {
	boom := errors.New("renderer init failed")
	eng := &fakeEngine{createErrs: []error{boom, boom}}
	h := newHarness(t, eng)

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.expectTransition(t, Showing, Hidden)

	creates := 0
	for _, op := range eng.Ops() {
		if op == "create" {
			creates++
		}
	}
	if creates != 2 {
		t.Errorf("create attempts = %d, want 2 (one retry)", creates)
	}
	if got := h.notifier.Count(); got != 1 {
		t.Errorf("notifications = %d, want exactly 1", got)
	}
	if got := h.ctl.State(); got != Hidden {
		t.Errorf("state after failure = %s, want hidden", got)
	}
}

func TestCreateFailure_RetrySucceeds(t *testing.T) {
	eng := &fakeEngine{createErrs: []error{errors.New("transient")}}
	h := newHarness(t, eng)

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)

	if got := h.notifier.Count(); got != 0 {
		t.Errorf("notifications = %d, want 0", got)
	}
}

func TestRevealFailure_DestroysAndNotifies(t *testing.T) {
	eng := &fakeEngine{opErrs: map[string]error{"reveal": errors.New("no surface")}}
	h := newHarness(t, eng)

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.expectTransition(t, Showing, Hidden)

	ops := eng.Ops()
	if ops[len(ops)-1] != "destroy" {
		t.Errorf("ops = %v, want trailing destroy", ops)
	}
	if got := h.notifier.Count(); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
}

func TestShowWhileVisible_RefocusesOnly(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	h.ctl.Show()
	h.expectTransition(t, Hidden, Showing)
	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)

	h.ctl.Show()
	h.expectNoTransition(t)

	ops := h.eng.Ops()
	if ops[len(ops)-1] != "focus" {
		t.Errorf("ops = %v, want trailing focus", ops)
	}
}

func TestHideWhileHidden_Noop(t *testing.T) {
	h := newHarness(t, &fakeEngine{})
	h.ctl.Hide()
	h.expectNoTransition(t)
	if len(h.eng.Ops()) != 0 {
		t.Errorf("ops = %v, want none", h.eng.Ops())
	}
}

func TestEngineExitWhileVisible(t *testing.T) {
	eng := &fakeEngine{}
	h := newHarness(t, eng)

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)

	eng.mu.Lock()
	ref := eng.refs[0]
	eng.mu.Unlock()
	ref.die(errors.New("engine crashed"))

	h.expectTransition(t, Visible, Hidden)
	if got := h.notifier.Count(); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}

	// The next toggle recreates a fresh instance.
	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)
}

// TestTransitionTable drives a long toggle sequence with an immediate timer
// and verifies every observed transition is an edge of the documented table.
func TestTransitionTable(t *testing.T) {
	var recording atomic.Bool
	recording.Store(true)
	transitions := make(chan [2]State, 256)
	ctl := New(&fakeEngine{}, Options{
		Timer: func(_ time.Duration, fire func()) { go fire() },
		OnTransition: func(old, new State) {
			if recording.Load() {
				transitions <- [2]State{old, new}
			}
		},
	})

	for i := 0; i < 20; i++ {
		ctl.Toggle()
		if i%3 == 0 {
			ctl.Show()
		}
		if i%5 == 0 {
			ctl.Hide()
		}
	}
	// Let the machine settle, then stop observing before the shutdown edge.
	time.Sleep(300 * time.Millisecond)
	recording.Store(false)
	ctl.Close()
	close(transitions)

	allowed := map[string]bool{
		"hidden->showing":  true,
		"showing->visible": true,
		"visible->hiding":  true,
		"hiding->hidden":   true,
	}
	for tr := range transitions {
		key := fmt.Sprintf("%s->%s", tr[0], tr[1])
		if !allowed[key] {
			t.Fatalf("illegal transition %s", key)
		}
	}
	if got := ctl.State(); got != Hidden {
		t.Errorf("state after Close = %s, want hidden", got)
	}
}

func TestClose_DestroysEngine(t *testing.T) {
	eng := &fakeEngine{}
	h := &harness{
		eng:         eng,
		timer:       &manualTimer{},
		notifier:    &countingNotifier{},
		transitions: make(chan [2]State, 64),
	}
	h.ctl = New(eng, Options{
		Notifier: h.notifier,
		Timer:    h.timer.schedule,
		OnTransition: func(old, new State) {
			h.transitions <- [2]State{old, new}
		},
	})

	h.ctl.Toggle()
	h.expectTransition(t, Hidden, Showing)
	h.timer.fire(t)
	h.expectTransition(t, Showing, Visible)

	h.ctl.Close()

	ops := eng.Ops()
	if ops[len(ops)-1] != "destroy" {
		t.Errorf("ops = %v, want trailing destroy", ops)
	}
	if got := h.ctl.State(); got != Hidden {
		t.Errorf("state after Close = %s, want hidden", got)
	}
}
