package supervisor

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrNoOwner means no live owner answered on the control socket.
var ErrNoOwner = errors.New("no running instance")

// Client talks to the running owner over the control socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the given socket path.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 2 * time.Second}
}

// Relay forwards this process's launch token to the existing owner. Used by a
// second launch attempt right before it exits.
func (c *Client) Relay(token LaunchToken) error {
	_, err := c.roundTrip(Message{Type: MsgRelaunch, Payload: token})
	return err
}

// Send issues a toggle/show/hide/quit request.
func (c *Client) Send(kind MessageType, token LaunchToken) error {
	_, err := c.roundTrip(Message{Type: kind, Payload: token})
	return err
}

// Status returns the owner's current window state.
func (c *Client) Status() (string, error) {
	reply, err := c.roundTrip(Message{Type: MsgStatus})
	if err != nil {
		return "", err
	}
	if reply.Type != MsgState {
		return "", fmt.Errorf("unexpected reply %q", reply.Type)
	}
	var payload StatePayload
	if err := decodePayload(reply.Payload, &payload); err != nil {
		return "", err
	}
	return payload.State, nil
}

// Subscribe opens a long-lived connection streaming state transitions. The
// returned connection delivers one StatePayload line per transition, starting
// with the current state; the caller owns the connection.
func (c *Client) Subscribe() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoOwner, err)
	}
	data, err := json.Marshal(Message{Type: MsgSubscribe})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Client) roundTrip(msg Message) (*Message, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoOwner, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.timeout))

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return nil, fmt.Errorf("owner closed connection without reply")
	}
	var reply Message
	if err := json.Unmarshal(scanner.Bytes(), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
