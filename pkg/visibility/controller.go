// Package visibility owns the show/hide state machine for the command
// window. All activation sources (hotkey, menu, relayed launches, CLI) funnel
// into one serialized queue; a single goroutine owns the state and drives the
// engine, so toggles are processed one at a time in arrival order.
package visibility

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zomem/alacritty-mac/pkg/engine"
)

var errEngineExited = errors.New("engine instance exited")

// Notifier surfaces user-visible failures. Implementations must not block.
type Notifier interface {
	Notify(title, body string)
}

type reqKind int

const (
	reqToggle reqKind = iota
	reqShow
	reqHide
)

func (k reqKind) String() string {
	switch k {
	case reqShow:
		return "show"
	case reqHide:
		return "hide"
	}
	return "toggle"
}

type evKind int

const (
	evRequest evKind = iota
	evAnimDone
	evCreateDone
	evEngineExit
	evClose
)

type event struct {
	kind evKind
	req  reqKind
	seq  uint64 // transition guard for evAnimDone
	gen  int    // engine generation for evCreateDone/evEngineExit
	ref  engine.Ref
	err  error
}

// Options configures a Controller. Zero values are usable: no animation
// delay, no notifications, no hooks.
type Options struct {
	// Animation is the reveal/hide animation duration. The controller stays
	// in Showing/Hiding for this long before settling.
	Animation time.Duration

	// Notifier receives user-visible failure notifications.
	Notifier Notifier

	// OnTransition observes every state change, in order, from the
	// controller goroutine. Used to broadcast state to subscribers.
	OnTransition func(old, new State)

	// OnFailure observes terminal failures (create retry exhausted, engine
	// operation failed, engine died). Runs on the controller goroutine.
	OnFailure func(err error)

	// Timer schedules the animation-complete callback. Tests inject a manual
	// trigger; nil means time.AfterFunc.
	Timer func(d time.Duration, fire func())

	// Logf, when set, receives debug trace lines.
	Logf func(format string, args ...interface{})
}

// Controller is the sole owner of the WindowState and of the engine instance
// lifetime. Create, reveal, conceal and destroy all happen on its goroutine;
// nothing else touches the engine.
type Controller struct {
	eng  engine.Engine
	opts Options

	events chan event
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	stateMu sync.RWMutex
	state   State

	// Loop-owned. Never read or written outside run().
	ref            engine.Ref
	gen            int
	transSeq       uint64
	pending        *reqKind
	createAttempts int
	createInFlight bool
}

// New creates the controller and starts its event loop in Hidden.
func New(eng engine.Engine, opts Options) *Controller {
	if opts.Timer == nil {
		opts.Timer = func(d time.Duration, fire func()) { time.AfterFunc(d, fire) }
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...interface{}) {}
	}
	c := &Controller{
		eng:    eng,
		opts:   opts,
		events: make(chan event, 16),
		done:   make(chan struct{}),
		state:  Hidden,
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// Toggle requests the opposite of the current stable state.
func (c *Controller) Toggle() { c.enqueue(event{kind: evRequest, req: reqToggle}) }

// Show requests the window become visible. No-op when already visible.
func (c *Controller) Show() { c.enqueue(event{kind: evRequest, req: reqShow}) }

// Hide requests the window be concealed. No-op when already hidden.
func (c *Controller) Hide() { c.enqueue(event{kind: evRequest, req: reqHide}) }

// State returns a snapshot of the current window state.
func (c *Controller) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Close destroys the engine instance and stops the loop. The machine always
// lands in Hidden.
func (c *Controller) Close() {
	c.once.Do(func() {
		c.enqueue(event{kind: evClose})
		close(c.done)
	})
	c.wg.Wait()
}

func (c *Controller) enqueue(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) run() {
	defer c.wg.Done()
	for ev := range c.events {
		switch ev.kind {
		case evRequest:
			c.handleRequest(ev.req)
		case evAnimDone:
			c.handleAnimDone(ev.seq)
		case evCreateDone:
			c.handleCreateDone(ev)
		case evEngineExit:
			c.handleEngineExit(ev.gen)
		case evClose:
			c.shutdown()
			return
		}
	}
}

// handleRequest applies the transition table. Requests arriving during a
// transition go through queueWhileBusy, never directly into the engine.
func (c *Controller) handleRequest(req reqKind) {
	state := c.State()
	c.opts.Logf("request %s in state %s", req, state)

	if state.transitioning() {
		c.queueWhileBusy(req)
		return
	}

	switch state {
	case Hidden:
		if req == reqHide {
			return
		}
		c.beginShow()
	case Visible:
		if req == reqShow {
			// Already visible: just re-assert focus.
			if err := c.eng.Focus(c.ref); err != nil {
				c.failToHidden(err)
			}
			return
		}
		c.beginHide()
	}
}

// queueWhileBusy is the resolved coalescing rule for activations during an
// in-flight transition: a single pending slot, last request wins, and a
// toggle queued on top of a pending toggle cancels both. The slot is applied
// only after the transition completes; nothing is dropped and nothing
// interrupts an animation.
func (c *Controller) queueWhileBusy(req reqKind) {
	if req == reqToggle && c.pending != nil && *c.pending == reqToggle {
		c.opts.Logf("paired toggles cancel")
		c.pending = nil
		return
	}
	r := req
	c.pending = &r
}

// applyPending dispatches the queued request after a transition settles.
func (c *Controller) applyPending() {
	if c.pending == nil {
		return
	}
	req := *c.pending
	c.pending = nil
	c.handleRequest(req)
}

func (c *Controller) beginShow() {
	c.setState(Showing)
	if c.ref == nil {
		c.startCreate()
		return
	}
	c.revealAndAnimate()
}

// startCreate runs the engine create on its own goroutine so a slow create
// never blocks event delivery; "create in progress" is part of Showing, and a
// concurrent hide lands in the pending slot.
func (c *Controller) startCreate() {
	if c.createInFlight {
		return
	}
	c.createInFlight = true
	c.createAttempts++
	gen := c.gen
	go func() {
		ref, err := c.eng.Create(context.Background())
		c.enqueue(event{kind: evCreateDone, gen: gen, ref: ref, err: err})
	}()
}

func (c *Controller) handleCreateDone(ev event) {
	if ev.gen != c.gen {
		// Result of a create that was superseded by a failure reset.
		if ev.ref != nil {
			c.eng.Destroy(ev.ref)
		}
		return
	}
	c.createInFlight = false

	if ev.err != nil {
		if c.createAttempts < 2 {
			c.opts.Logf("engine create failed, retrying once: %v", ev.err)
			c.startCreate()
			return
		}
		c.createAttempts = 0
		c.notify("Command window failed to open", ev.err)
		c.fail(ev.err)
		return
	}

	c.createAttempts = 0
	c.ref = ev.ref
	c.watchExit(ev.ref, c.gen)
	c.revealAndAnimate()
}

func (c *Controller) watchExit(ref engine.Ref, gen int) {
	go func() {
		err, ok := <-ref.Exited()
		if !ok {
			err = nil
		}
		c.enqueue(event{kind: evEngineExit, gen: gen, err: err})
	}()
}

func (c *Controller) revealAndAnimate() {
	if err := c.eng.Reveal(c.ref); err != nil {
		c.failToHidden(err)
		return
	}
	if err := c.eng.Focus(c.ref); err != nil {
		c.failToHidden(err)
		return
	}
	c.startAnimation()
}

func (c *Controller) beginHide() {
	c.setState(Hiding)
	if err := c.eng.Conceal(c.ref); err != nil {
		c.failToHidden(err)
		return
	}
	c.startAnimation()
}

func (c *Controller) startAnimation() {
	seq := c.transSeq
	c.opts.Timer(c.opts.Animation, func() {
		c.enqueue(event{kind: evAnimDone, seq: seq})
	})
}

func (c *Controller) handleAnimDone(seq uint64) {
	if seq != c.transSeq {
		// Timer from a transition that was already aborted.
		return
	}
	switch c.State() {
	case Showing:
		c.setState(Visible)
	case Hiding:
		c.setState(Hidden)
	default:
		return
	}
	c.applyPending()
}

func (c *Controller) notify(title string, err error) {
	if c.opts.Notifier == nil {
		return
	}
	body := ""
	if err != nil {
		body = err.Error()
	}
	c.opts.Notifier.Notify(title, body)
}

// failToHidden handles an engine operation failure: notify, destroy the
// instance so the next toggle recreates it, land in Hidden.
func (c *Controller) failToHidden(err error) {
	c.notify("Command window error", err)
	if c.ref != nil {
		c.eng.Destroy(c.ref)
		c.ref = nil
	}
	c.fail(err)
}

// fail resets to Hidden after a terminal failure. Every failure path in this
// controller ends here; no error leaves the machine outside the four states.
func (c *Controller) fail(err error) {
	c.gen++
	c.pending = nil
	c.setState(Hidden)
	if c.opts.OnFailure != nil {
		c.opts.OnFailure(err)
	}
}

func (c *Controller) handleEngineExit(gen int) {
	if gen != c.gen {
		return
	}
	c.ref = nil
	c.gen++
	if c.State() == Hidden {
		// Died quietly in the background; next toggle recreates it.
		return
	}
	c.notify("Command window closed", errEngineExited)
	c.pending = nil
	c.setState(Hidden)
	if c.opts.OnFailure != nil {
		c.opts.OnFailure(errEngineExited)
	}
}

func (c *Controller) shutdown() {
	if c.ref != nil {
		c.eng.Destroy(c.ref)
		c.ref = nil
	}
	c.gen++
	c.pending = nil
	c.setState(Hidden)
}

func (c *Controller) setState(next State) {
	c.stateMu.Lock()
	old := c.state
	c.state = next
	c.transSeq++
	c.stateMu.Unlock()
	if old != next {
		c.opts.Logf("state %s -> %s", old, next)
		if c.opts.OnTransition != nil {
			c.opts.OnTransition(old, next)
		}
	}
}
