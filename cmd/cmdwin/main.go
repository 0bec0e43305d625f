// cmdwin is the menu-bar launcher for the command window: a single
// hotkey-summonable drop-down terminal backed by the terminal engine.
//
// Launched with no arguments it becomes the singleton owner, or relays its
// activation to the existing owner and exits. Subcommands talk to the owner.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/zomem/alacritty-mac/pkg/config"
	"github.com/zomem/alacritty-mac/pkg/paths"
	"github.com/zomem/alacritty-mac/pkg/supervisor"
)

var (
	configPath = flag.String("config", "", "config file path (default: standard location)")
	debugMode  = flag.Bool("debug", false, "enable debug logging to stderr")
)

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()
	initDebugLog(*debugMode)

	args := flag.Args()
	if len(args) == 0 {
		os.Exit(runOwnerOrRelay())
	}

	switch args[0] {
	case "toggle", "show", "hide":
		os.Exit(runControl(supervisor.MessageType(args[0])))
	case "status":
		os.Exit(runStatus())
	case "quit":
		os.Exit(runControl(supervisor.MsgQuit))
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage(os.Stderr)
		os.Exit(2)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: cmdwin [flags] [command]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Without a command, cmdwin becomes the command-window owner, or forwards")
	fmt.Fprintln(w, "the activation to the running owner and exits.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  toggle    Show or hide the command window")
	fmt.Fprintln(w, "  show      Reveal the command window")
	fmt.Fprintln(w, "  hide      Conceal the command window")
	fmt.Fprintln(w, "  status    Print the current window state")
	fmt.Fprintln(w, "  quit      Shut down the running owner")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config PATH   config file (default ~/.config/cmdwin/config.yaml)")
	fmt.Fprintln(w, "  -debug         debug logging to stderr")
}

func loadConfig() (*config.Config, string, error) {
	path := *configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	return cfg, path, err
}

func runControl(kind supervisor.MessageType) int {
	client := supervisor.NewClient(paths.SocketPath())
	err := client.Send(kind, supervisor.NewToken(supervisor.SourceCLI))
	if err != nil {
		if errors.Is(err, supervisor.ErrNoOwner) {
			fmt.Fprintln(os.Stderr, "cmdwin is not running")
		} else {
			fmt.Fprintf(os.Stderr, "cmdwin: %v\n", err)
		}
		return 1
	}
	return 0
}

var stateStyles = map[string]lipgloss.Style{
	"hidden":  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	"showing": lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	"visible": lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	"hiding":  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
}

func runStatus() int {
	client := supervisor.NewClient(paths.SocketPath())
	state, err := client.Status()
	if err != nil {
		if errors.Is(err, supervisor.ErrNoOwner) {
			fmt.Fprintln(os.Stderr, "cmdwin is not running")
		} else {
			fmt.Fprintf(os.Stderr, "cmdwin: %v\n", err)
		}
		return 1
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		style, ok := stateStyles[state]
		if !ok {
			style = lipgloss.NewStyle()
		}
		fmt.Println(style.Render("● " + state))
	} else {
		fmt.Println(state)
	}
	return 0
}
