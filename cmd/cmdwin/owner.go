package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"

	"fyne.io/systray"

	"github.com/zomem/alacritty-mac/pkg/config"
	"github.com/zomem/alacritty-mac/pkg/engine"
	"github.com/zomem/alacritty-mac/pkg/hotkey"
	"github.com/zomem/alacritty-mac/pkg/menu"
	"github.com/zomem/alacritty-mac/pkg/notify"
	"github.com/zomem/alacritty-mac/pkg/paths"
	"github.com/zomem/alacritty-mac/pkg/supervisor"
	"github.com/zomem/alacritty-mac/pkg/visibility"
)

// owner is the singleton process: menu-bar item, hotkey registration, the
// visibility controller, and the control socket all live here.
type owner struct {
	cfgPath string

	cfgMu sync.Mutex
	cfg   *config.Config

	sup    *supervisor.Server
	holder *engineHolder
	ctl    *visibility.Controller
	bar    *menu.Bar
	keys   *hotkey.Listener

	stopWatch func()

	// startingUp is set while a show_on_start reveal is in flight; a failure
	// during that window aborts the process with a nonzero exit.
	startingUp    atomic.Bool
	startupFailed atomic.Bool
}

func runOwnerOrRelay() int {
	initCrashLog()
	initEventLog()
	defer recoverAndLog("owner")

	cfg, cfgPath, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cmdwin: %v\n", err)
		return 1
	}

	o := &owner{
		cfgPath: cfgPath,
		cfg:     cfg,
		holder:  &engineHolder{eng: buildEngine(cfg)},
		bar:     &menu.Bar{},
		keys:    hotkey.NewListener(hotkey.SystemRegistrar()),
	}

	notifier := notify.Notifier(notify.Discard)
	if !cfg.Notify.Silent {
		notifier = notify.System()
	}
	o.ctl = visibility.New(o.holder, visibility.Options{
		Animation: cfg.Animation.Duration(),
		Notifier: notify.Func(func(title, body string) {
			logEvent("notify: %s: %s", title, body)
			notifier.Notify(title, body)
		}),
		OnTransition: o.onTransition,
		OnFailure:    o.onFailure,
		Logf:         debugLog.Printf,
	})

	o.sup = supervisor.NewServer(paths.SocketPath(), paths.PidPath())
	o.sup.OnActivate = o.onActivate
	o.sup.OnQuit = func() {
		logEvent("quit requested over socket")
		systray.Quit()
	}
	o.sup.StateFn = func() string { return o.ctl.State().String() }

	if err := o.sup.Acquire(); err != nil {
		o.ctl.Close()
		switch {
		case errors.Is(err, supervisor.ErrAlreadyRunning):
			return relayToOwner()
		case errors.Is(err, supervisor.ErrLockContention):
			fmt.Fprintln(os.Stderr, "cmdwin: another instance holds the lock and is not responding")
			return 1
		default:
			fmt.Fprintf(os.Stderr, "cmdwin: %v\n", err)
			return 1
		}
	}

	logEvent("owner started, pid %d, socket %s", os.Getpid(), paths.SocketPath())
	systray.Run(o.onReady, o.onExit)

	if o.startupFailed.Load() {
		return 1
	}
	return 0
}

// relayToOwner forwards this launch to the live owner and exits cleanly. This
// is the whole job of a second click on the app.
func relayToOwner() int {
	client := supervisor.NewClient(paths.SocketPath())
	if err := client.Relay(supervisor.NewToken(supervisor.SourceRelaunch)); err != nil {
		fmt.Fprintf(os.Stderr, "cmdwin: could not reach running instance: %v\n", err)
		return 1
	}
	logEvent("relayed launch to running owner")
	return 0
}

func (o *owner) onReady() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		logEvent("signal %v, shutting down", s)
		systray.Quit()
	}()

	cfg := o.config()

	themes, err := menu.ListThemes(paths.ThemeDir())
	if err != nil {
		logEvent("theme listing failed: %v", err)
	}
	o.bar.OnToggle = func() { o.activate(supervisor.NewToken(supervisor.SourceMenu), supervisor.MsgToggle) }
	o.bar.OnNewWindow = o.openNewWindow
	o.bar.OnTheme = o.selectTheme
	o.bar.OnOpenConfig = func() { openPath(o.cfgPath) }
	o.bar.OnQuit = func() {
		logEvent("quit from menu")
		systray.Quit()
	}
	o.bar.Install(cfg.MenuLabel, themes)

	o.bindHotkey(cfg.Hotkey)

	stop, err := config.Watch(o.cfgPath, o.applyConfig)
	if err != nil {
		logEvent("config watch unavailable: %v", err)
	} else {
		o.stopWatch = stop
	}

	if cfg.ShowOnStart {
		o.startingUp.Store(true)
		o.ctl.Show()
	}
}

func (o *owner) onExit() {
	if o.stopWatch != nil {
		o.stopWatch()
	}
	o.keys.Stop()
	o.bar.Close()
	o.ctl.Close()
	o.sup.Close()
	logEvent("owner stopped")
}

func (o *owner) config() *config.Config {
	o.cfgMu.Lock()
	defer o.cfgMu.Unlock()
	return o.cfg
}

// onActivate is the single funnel for every socket request, including relayed
// launch tokens from second instances.
func (o *owner) onActivate(kind supervisor.MessageType, token supervisor.LaunchToken) {
	o.activate(token, kind)
}

func (o *owner) activate(token supervisor.LaunchToken, kind supervisor.MessageType) {
	logEvent("activate %s from %s", kind, token.Source)
	switch kind {
	case supervisor.MsgShow:
		o.ctl.Show()
	case supervisor.MsgHide:
		o.ctl.Hide()
	default:
		o.ctl.Toggle()
	}
}

func (o *owner) onTransition(old, new visibility.State) {
	logEvent("window %s -> %s", old, new)
	if new == visibility.Visible {
		o.startingUp.Store(false)
	}
	o.sup.BroadcastState(new.String())
}

func (o *owner) onFailure(err error) {
	logEvent("window failure: %v", err)
	if o.startingUp.Load() {
		o.startupFailed.Store(true)
		systray.Quit()
	}
}

// bindHotkey registers the configured combination. Registration failure is
// never fatal; the menu item still works.
func (o *owner) bindHotkey(spec string) {
	if spec == "" {
		o.keys.Stop()
		return
	}
	b, err := hotkey.Parse(spec)
	if err != nil {
		logEvent("hotkey %q rejected: %v", spec, err)
		return
	}
	onPress := func() { o.activate(supervisor.NewToken(supervisor.SourceHotkey), supervisor.MsgToggle) }
	if err := o.keys.Rebind(b, onPress); err != nil {
		logEvent("hotkey %s unavailable, menu-only: %v", b, err)
		return
	}
	logEvent("hotkey bound: %s", b)
}

// applyConfig is the hot-reload path. The menu label and hotkey take effect
// immediately; engine settings apply to the next create.
func (o *owner) applyConfig(cfg *config.Config) {
	o.cfgMu.Lock()
	o.cfg = cfg
	o.cfgMu.Unlock()

	o.bar.SetLabel(cfg.MenuLabel)
	o.bindHotkey(cfg.Hotkey)
	o.holder.Swap(buildEngine(cfg))
	logEvent("config reloaded from %s", paths.ShortenHome(o.cfgPath))
}

// openNewWindow starts a plain terminal window, detached from the command
// window lifecycle.
func (o *owner) openNewWindow() {
	cfg := o.config()
	cmd := exec.Command(cfg.Engine.Command, cfg.Engine.Args...)
	if err := cmd.Start(); err != nil {
		logEvent("new window failed: %v", err)
		return
	}
	logEvent("new window pid %d", cmd.Process.Pid)
	go cmd.Wait()
}

// selectTheme persists the chosen theme; the config watcher applies it. The
// snapshot is taken under the lock so a racing second click cannot mutate
// the struct mid-save.
func (o *owner) selectTheme(path string) {
	o.cfgMu.Lock()
	o.cfg.Engine.Theme = path
	snapshot := *o.cfg
	o.cfgMu.Unlock()
	if err := config.SaveConfig(o.cfgPath, &snapshot); err != nil {
		logEvent("theme save failed: %v", err)
		return
	}
	logEvent("theme selected: %s", paths.ShortenHome(path))
}

func openPath(path string) {
	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	if err := exec.Command(opener, path).Start(); err != nil {
		logEvent("open %s failed: %v", path, err)
	}
}

func buildEngine(cfg *config.Config) *engine.ProcessEngine {
	return &engine.ProcessEngine{
		Command: cfg.Engine.Command,
		Args:    cfg.Engine.Args,
		Policy: engine.WindowPolicy{
			Anchor:        cfg.Window.Anchor,
			SizePercent:   cfg.Window.SizePercent,
			Margin:        cfg.Window.Margin,
			FollowsCursor: cfg.Window.FollowsCursor,
		},
		AnimationMS:  cfg.Animation.DurationMS,
		Theme:        cfg.Engine.Theme,
		ReadyTimeout: cfg.Engine.ReadyTimeout(),
	}
}

// engineHolder lets a config reload swap in a rebuilt engine without
// disturbing the running instance; refs created by the old engine stay valid.
type engineHolder struct {
	mu  sync.RWMutex
	eng engine.Engine
}

func (h *engineHolder) Swap(eng engine.Engine) {
	h.mu.Lock()
	h.eng = eng
	h.mu.Unlock()
}

func (h *engineHolder) current() engine.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.eng
}

func (h *engineHolder) Create(ctx context.Context) (engine.Ref, error) { return h.current().Create(ctx) }

func (h *engineHolder) Reveal(ref engine.Ref) error  { return h.current().Reveal(ref) }
func (h *engineHolder) Conceal(ref engine.Ref) error { return h.current().Conceal(ref) }
func (h *engineHolder) Focus(ref engine.Ref) error   { return h.current().Focus(ref) }
func (h *engineHolder) Destroy(ref engine.Ref) error { return h.current().Destroy(ref) }
