package engine

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
)

// ProcessEngine runs the terminal engine as a child process under a pty and
// drives its window through the JSON-line session protocol on that pty.
type ProcessEngine struct {
	Command      string
	Args         []string
	Policy       WindowPolicy
	AnimationMS  int
	Theme        string
	ReadyTimeout time.Duration

	// DestroyGrace is how long Destroy waits for a clean exit before killing.
	DestroyGrace time.Duration
}

type processRef struct {
	cmd    *exec.Cmd
	tty    *os.File
	sess   *session
	exited chan error

	killOnce sync.Once
}

func (r *processRef) Exited() <-chan error { return r.exited }

func (r *processRef) kill() {
	r.killOnce.Do(func() {
		if r.cmd.Process != nil {
			_ = r.cmd.Process.Kill()
		}
	})
}

// Create spawns the engine, sends the init policy, and waits for the ready
// handshake. The context only scopes process startup; a created engine
// outlives it.
func (e *ProcessEngine) Create(ctx context.Context) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CreateError{Err: err}
	}

	cmd := exec.Command(e.Command, e.Args...)
	tty, err := pty.Start(cmd)
	if err != nil {
		return nil, &CreateError{Err: err}
	}

	ref := &processRef{
		cmd:    cmd,
		tty:    tty,
		sess:   newSession(tty),
		exited: make(chan error, 1),
	}
	go func() {
		err := cmd.Wait()
		tty.Close()
		ref.exited <- err
		close(ref.exited)
	}()

	init := command{
		Op:          "init",
		Window:      &e.Policy,
		AnimationMS: e.AnimationMS,
		Theme:       e.Theme,
	}
	if err := ref.sess.send(init); err != nil {
		ref.kill()
		return nil, &CreateError{Err: err}
	}

	timeout := e.ReadyTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if err := ref.sess.awaitReady(timeout); err != nil {
		ref.kill()
		return nil, &CreateError{Err: err}
	}
	return ref, nil
}

func (e *ProcessEngine) Reveal(ref Ref) error  { return e.op(ref, "reveal") }
func (e *ProcessEngine) Conceal(ref Ref) error { return e.op(ref, "conceal") }
func (e *ProcessEngine) Focus(ref Ref) error   { return e.op(ref, "focus") }

func (e *ProcessEngine) op(ref Ref, op string) error {
	r, ok := ref.(*processRef)
	if !ok {
		return &OpError{Op: op, Err: errForeignRef}
	}
	if err := r.sess.send(command{Op: op}); err != nil {
		return &OpError{Op: op, Err: err}
	}
	return nil
}

// Destroy asks the engine to quit, then kills it after the grace period.
// Safe on an already-dead instance.
func (e *ProcessEngine) Destroy(ref Ref) error {
	r, ok := ref.(*processRef)
	if !ok {
		return &OpError{Op: "destroy", Err: errForeignRef}
	}

	_ = r.sess.send(command{Op: "quit"})

	grace := e.DestroyGrace
	if grace == 0 {
		grace = 2 * time.Second
	}
	select {
	case <-r.exited:
		return nil
	case <-time.After(grace):
		r.kill()
		<-r.exited
		return nil
	}
}
