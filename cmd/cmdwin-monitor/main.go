// cmdwin-monitor is a small terminal dashboard showing the command window's
// state live. It subscribes to the owner's control socket and renders each
// transition as it happens; mostly useful when debugging hotkey plumbing.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zomem/alacritty-mac/pkg/paths"
	"github.com/zomem/alacritty-mac/pkg/supervisor"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stateStyles = map[string]lipgloss.Style{
		"hidden":  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		"showing": lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		"visible": lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		"hiding":  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	}
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type stateMsg supervisor.StatePayload

type disconnectMsg struct{ err error }

type model struct {
	state     string
	seq       uint64
	connected bool
	lastErr   error
	spin      spinner.Model
	history   []string
}

func newModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	return model{state: "unknown", spin: s}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "t":
			go sendControl(supervisor.MsgToggle)
		case "s":
			go sendControl(supervisor.MsgShow)
		case "h":
			go sendControl(supervisor.MsgHide)
		}
		return m, nil

	case stateMsg:
		// Frames can arrive out of order around a reconnect; drop stale ones.
		if msg.Seq != 0 && msg.Seq < m.seq {
			return m, nil
		}
		m.seq = msg.Seq
		m.connected = true
		m.lastErr = nil
		if msg.State != m.state {
			m.history = append(m.history, fmt.Sprintf("%s  %s", time.Now().Format("15:04:05"), msg.State))
			if len(m.history) > 8 {
				m.history = m.history[len(m.history)-8:]
			}
		}
		m.state = msg.State
		return m, nil

	case disconnectMsg:
		m.connected = false
		m.lastErr = msg.err
		// A restarted owner numbers its frames from 1 again.
		m.seq = 0
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b []byte
	b = append(b, titleStyle.Render("cmdwin monitor")...)
	b = append(b, '\n', '\n')

	if !m.connected {
		b = append(b, errStyle.Render("disconnected")...)
		if m.lastErr != nil {
			b = append(b, dimStyle.Render("  "+m.lastErr.Error())...)
		}
		b = append(b, '\n')
	} else {
		style, ok := stateStyles[m.state]
		if !ok {
			style = lipgloss.NewStyle()
		}
		line := "  " + style.Render(m.state)
		if m.state == "showing" || m.state == "hiding" {
			line = m.spin.View() + style.Render(m.state)
		}
		b = append(b, line...)
		b = append(b, '\n')
	}

	if len(m.history) > 0 {
		b = append(b, '\n')
		for _, h := range m.history {
			b = append(b, dimStyle.Render(h)...)
			b = append(b, '\n')
		}
	}

	b = append(b, '\n')
	b = append(b, dimStyle.Render("t toggle · s show · h hide · q quit")...)
	return string(b)
}

func sendControl(kind supervisor.MessageType) {
	client := supervisor.NewClient(paths.SocketPath())
	_ = client.Send(kind, supervisor.NewToken(supervisor.SourceCLI))
}

// subscribeLoop keeps one subscription alive, feeding transitions into the
// program and retrying after the owner goes away.
func subscribeLoop(p *tea.Program) {
	client := supervisor.NewClient(paths.SocketPath())
	for {
		conn, err := client.Subscribe()
		if err != nil {
			p.Send(disconnectMsg{err: err})
			time.Sleep(time.Second)
			continue
		}
		readStates(p, conn)
		p.Send(disconnectMsg{})
	}
}

func readStates(p *tea.Program, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg supervisor.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Type != supervisor.MsgState {
			continue
		}
		data, err := json.Marshal(msg.Payload)
		if err != nil {
			continue
		}
		var payload supervisor.StatePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			continue
		}
		p.Send(stateMsg(payload))
	}
}

func main() {
	lipgloss.SetColorProfile(termenv.ANSI256)

	p := tea.NewProgram(newModel(), tea.WithAltScreen())
	go subscribeLoop(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
