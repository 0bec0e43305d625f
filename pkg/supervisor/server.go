// Package supervisor guarantees at most one running command-window owner and
// routes activation requests from later launch attempts into it.
//
// The singleton lock is a pidfile plus the control socket. The pidfile is the
// claim arbiter (O_EXCL create), the socket round-trip is the liveness check:
// a lock whose owner no longer answers a ping is stale and gets reclaimed, so
// a crashed instance never permanently prevents relaunch.
package supervisor

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

var (
	// ErrAlreadyRunning means a live owner holds the lock. The caller should
	// relay its launch token and exit 0.
	ErrAlreadyRunning = errors.New("another instance already owns the command window")
	// ErrLockContention means the lock could not be acquired and was not
	// provably stale within the bounded attempts.
	ErrLockContention = errors.New("could not acquire singleton lock")
)

const (
	claimAttempts = 3
	probeTimeout  = 500 * time.Millisecond
	claimBackoff  = 150 * time.Millisecond
)

// Server owns the singleton lock and the control socket.
type Server struct {
	socketPath string
	pidPath    string
	listener   net.Listener
	done       chan struct{}
	closeOnce  sync.Once

	subsMu sync.Mutex
	subs   map[net.Conn]struct{}

	seqMu sync.Mutex
	seq   uint64

	// OnActivate receives every toggle/show/hide request arriving over the
	// socket, including relayed launch tokens. Kind is MsgToggle, MsgShow or
	// MsgHide (relaunch tokens are delivered as MsgToggle). The callback must
	// hand off quickly; it runs on the connection goroutine.
	OnActivate func(kind MessageType, token LaunchToken)

	// OnQuit is invoked when a client asks the owner to shut down.
	OnQuit func()

	// StateFn reports the current window state for status and subscribe.
	StateFn func() string
}

// NewServer creates a supervisor for the given socket and pidfile paths.
func NewServer(socketPath, pidPath string) *Server {
	return &Server{
		socketPath: socketPath,
		pidPath:    pidPath,
		done:       make(chan struct{}),
		subs:       make(map[net.Conn]struct{}),
	}
}

// Acquire claims the singleton lock and starts serving the control socket.
// Returns ErrAlreadyRunning when a live owner answers on the socket, and
// ErrLockContention when the lock stays contended without a live owner for
// the whole bounded claim window.
func (s *Server) Acquire() error {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(claimBackoff)
		}

		if probeAlive(s.socketPath) {
			return ErrAlreadyRunning
		}

		// An owner mid-startup holds the pidfile before its socket listens,
		// so a live pid defers to the next probe. Once the socket has stayed
		// dead through the whole claim window the pid is a recycled one from
		// a crashed owner; evict it rather than lock out relaunch forever.
		evict := attempt == claimAttempts-1

		if err := s.claimPid(evict); err != nil {
			continue
		}

		// Socket path is ours now; anything left there is stale.
		os.Remove(s.socketPath)
		listener, err := net.Listen("unix", s.socketPath)
		if err != nil {
			os.Remove(s.pidPath)
			return fmt.Errorf("failed to listen on socket: %w", err)
		}
		s.listener = listener
		go s.acceptLoop()
		return nil
	}
	return ErrLockContention
}

// claimPid takes the pidfile, removing it first if its owner is dead. With
// evict set the liveness check is skipped: the socket probe has already
// failed for the whole claim window, so whatever holds the pid is not an
// owner.
func (s *Server) claimPid(evict bool) error {
	if data, err := os.ReadFile(s.pidPath); err == nil {
		if !evict {
			pidStr := strings.TrimSpace(string(data))
			if pid, err := strconv.Atoi(pidStr); err == nil && pid > 0 {
				if process, err := os.FindProcess(pid); err == nil {
					// FindProcess always succeeds on Unix; signal 0 is the probe.
					if err := process.Signal(syscall.Signal(0)); err == nil {
						return fmt.Errorf("pidfile held by live process %d", pid)
					}
				}
			}
		}
		os.Remove(s.pidPath)
	}

	f, err := os.OpenFile(s.pidPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to claim pidfile: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		os.Remove(s.pidPath)
		return fmt.Errorf("failed to write pidfile: %w", err)
	}
	return nil
}

// probeAlive is the documented liveness check: dial the socket and require a
// pong within the probe deadline. A bound-but-dead endpoint fails here and is
// treated as stale.
func probeAlive(socketPath string) bool {
	conn, err := net.DialTimeout("unix", socketPath, probeTimeout)
	if err != nil {
		return false
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(probeTimeout))
	data, err := json.Marshal(Message{Type: MsgPing})
	if err != nil {
		return false
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return false
	}
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return false
	}
	var msg Message
	if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
		return false
	}
	return msg.Type == MsgPong
}

// Close releases the lock and disconnects all clients.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.subsMu.Lock()
		for conn := range s.subs {
			conn.Close()
			delete(s.subs, conn)
		}
		s.subsMu.Unlock()
		os.Remove(s.socketPath)
		os.Remove(s.pidPath)
	})
}

func (s *Server) acceptLoop() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}

		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		s.subsMu.Lock()
		delete(s.subs, conn)
		s.subsMu.Unlock()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}

		switch msg.Type {
		case MsgPing:
			s.sendMessage(conn, Message{Type: MsgPong})

		case MsgStatus:
			s.sendMessage(conn, Message{Type: MsgState, Payload: s.statePayload()})

		case MsgSubscribe:
			s.subsMu.Lock()
			s.subs[conn] = struct{}{}
			s.subsMu.Unlock()
			s.sendMessage(conn, Message{Type: MsgState, Payload: s.statePayload()})

		case MsgRelaunch, MsgToggle, MsgShow, MsgHide:
			var token LaunchToken
			if msg.Payload != nil {
				if err := decodePayload(msg.Payload, &token); err != nil {
					token = LaunchToken{}
				}
			}
			if token.Source == "" {
				token = NewToken(SourceCLI)
			}
			kind := msg.Type
			if kind == MsgRelaunch {
				kind = MsgToggle
			}
			if s.OnActivate != nil {
				s.OnActivate(kind, token)
			}
			s.sendMessage(conn, Message{Type: MsgOK})

		case MsgQuit:
			s.sendMessage(conn, Message{Type: MsgOK})
			if s.OnQuit != nil {
				s.OnQuit()
			}
			return
		}
	}
}

func (s *Server) statePayload() StatePayload {
	state := ""
	if s.StateFn != nil {
		state = s.StateFn()
	}
	s.seqMu.Lock()
	s.seq++
	seq := s.seq
	s.seqMu.Unlock()
	return StatePayload{Seq: seq, State: state}
}

// BroadcastState pushes a state transition to every subscriber. Dead
// connections are dropped.
func (s *Server) BroadcastState(state string) {
	s.seqMu.Lock()
	s.seq++
	payload := StatePayload{Seq: s.seq, State: state}
	s.seqMu.Unlock()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for conn := range s.subs {
		if err := s.sendMessage(conn, Message{Type: MsgState, Payload: payload}); err != nil {
			conn.Close()
			delete(s.subs, conn)
		}
	}
}

// SubscriberCount returns the number of connected state subscribers.
func (s *Server) SubscriberCount() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

func (s *Server) sendMessage(conn net.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, err = conn.Write(append(data, '\n'))
	return err
}
