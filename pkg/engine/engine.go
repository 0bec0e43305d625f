// Package engine wraps the terminal engine's window lifecycle behind a small
// session API. The engine itself (grid, VT parser, renderer, PTY shell) is a
// black box; nothing here touches terminal content.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrHandshake means the engine process started but never reported ready
// within the handshake deadline.
var ErrHandshake = errors.New("engine never reported ready")

// errForeignRef guards against a Ref that did not come from this engine.
var errForeignRef = errors.New("ref does not belong to this engine")

// CreateError wraps any failure to bring up an engine instance.
type CreateError struct {
	Err error
}

func (e *CreateError) Error() string { return fmt.Sprintf("engine create failed: %v", e.Err) }
func (e *CreateError) Unwrap() error { return e.Err }

// OpError wraps a failed window operation on a live engine instance.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return fmt.Sprintf("engine %s failed: %v", e.Op, e.Err) }
func (e *OpError) Unwrap() error { return e.Err }

// Ref is an opaque reference to one running engine instance.
type Ref interface {
	// Exited delivers the exit error when the engine instance dies, whether
	// asked to or not, then closes. Multiple receivers all unblock.
	Exited() <-chan error
}

// Engine is the external collaborator contract consumed by the visibility
// controller. Implementations must tolerate Destroy on an already-dead Ref.
type Engine interface {
	Create(ctx context.Context) (Ref, error)
	Reveal(Ref) error
	Conceal(Ref) error
	Focus(Ref) error
	Destroy(Ref) error
}

// WindowPolicy is the anchor/position policy handed to the engine at create
// time. The engine owns the actual geometry math.
type WindowPolicy struct {
	Anchor        string `json:"anchor"`
	SizePercent   int    `json:"size_percent"`
	Margin        int    `json:"margin"`
	FollowsCursor bool   `json:"follows_cursor"`
}
