package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// maxSessionLineBytes bounds a single control line from the engine.
const maxSessionLineBytes = 64 * 1024

// command is one control operation sent to the engine on its session stream.
type command struct {
	Op          string        `json:"op"` // "init", "reveal", "conceal", "focus", "quit"
	Window      *WindowPolicy `json:"window,omitempty"`
	AnimationMS int           `json:"animation_ms,omitempty"`
	Theme       string        `json:"theme,omitempty"`
}

// event is a control message from the engine. Non-event lines (the pty may
// echo, the engine may log) are skipped.
type event struct {
	Event string `json:"event"`
}

// session is the JSON-line codec over the engine's control stream.
type session struct {
	rw      io.ReadWriter
	scanner *bufio.Scanner
	mu      sync.Mutex
}

func newSession(rw io.ReadWriter) *session {
	scanner := bufio.NewScanner(rw)
	scanner.Buffer(make([]byte, 4096), maxSessionLineBytes)
	return &session{rw: rw, scanner: scanner}
}

func (s *session) send(cmd command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.rw.Write(append(data, '\n'))
	return err
}

// awaitReady consumes the stream until the engine reports ready or the
// deadline passes.
func (s *session) awaitReady(timeout time.Duration) error {
	type deadliner interface {
		SetReadDeadline(time.Time) error
	}
	if d, ok := s.rw.(deadliner); ok {
		d.SetReadDeadline(time.Now().Add(timeout))
		defer d.SetReadDeadline(time.Time{})
	}

	for s.scanner.Scan() {
		var ev event
		if err := json.Unmarshal(s.scanner.Bytes(), &ev); err != nil {
			continue
		}
		switch ev.Event {
		case "ready":
			return nil
		case "error":
			return fmt.Errorf("engine reported startup error")
		}
	}
	if err := s.scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	return ErrHandshake
}
