package menu

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/systray"
)

// fakeHooks records the systray calls Install makes and hands out items with
// live click channels.
func fakeHooks(built *[]string, items map[string]*systray.MenuItem) *barHooks {
	newItem := func(key string) *systray.MenuItem {
		it := &systray.MenuItem{ClickedCh: make(chan struct{}, 1)}
		if items != nil {
			items[key] = it
		}
		return it
	}
	return &barHooks{
		setTitle:   func(string) {},
		setTooltip: func(string) {},
		item: func(title, _ string) *systray.MenuItem {
			*built = append(*built, title)
			return newItem(title)
		},
		subItem: func(_ *systray.MenuItem, title, _ string) *systray.MenuItem {
			*built = append(*built, "theme:"+title)
			return newItem("theme:" + title)
		},
		separator: func() {
			*built = append(*built, "separator")
		},
	}
}

func TestBuildItems_Order(t *testing.T) {
	items := BuildItems("Command Window", []string{"/themes/nord.toml", "/themes/solarized.toml"})

	wantActions := []Action{
		ActionToggle, ActionNewWindow, ActionTheme, ActionTheme,
		ActionOpenConfig, ActionQuit,
	}
	if len(items) != len(wantActions) {
		t.Fatalf("len(items) = %d, want %d", len(items), len(wantActions))
	}
	for i, want := range wantActions {
		if items[i].Action != want {
			t.Errorf("items[%d].Action = %v, want %v", i, items[i].Action, want)
		}
	}
	if items[0].Label != "Command Window" {
		t.Errorf("toggle label = %q", items[0].Label)
	}
	if items[2].Label != "nord" || items[2].Theme != "/themes/nord.toml" {
		t.Errorf("theme item = %+v", items[2])
	}
}

func TestBuildItems_NoThemes(t *testing.T) {
	items := BuildItems("X", nil)
	if len(items) != 4 {
		t.Fatalf("len(items) = %d, want 4", len(items))
	}
}

func TestTruncateLabel(t *testing.T) {
	if got := TruncateLabel("short", 24); got != "short" {
		t.Errorf("TruncateLabel(short) = %q", got)
	}
	long := "A Very Long Menu Label That Never Ends"
	got := TruncateLabel(long, 10)
	if len([]rune(got)) > 10 {
		t.Errorf("TruncateLabel did not truncate: %q", got)
	}
	if got[len(got)-len("…"):] != "…" {
		t.Errorf("TruncateLabel missing ellipsis: %q", got)
	}
}

func TestBarTitle_TrimsAndTruncates(t *testing.T) {
	if got := BarTitle("  Command Window  "); got != "Command Window" {
		t.Errorf("BarTitle = %q", got)
	}
}

func TestListThemes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta.toml", "alpha.yaml", "notes.txt", "beta.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.toml"), 0755); err != nil {
		t.Fatal(err)
	}

	themes, err := ListThemes(dir)
	if err != nil {
		t.Fatalf("ListThemes() error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "alpha.yaml"),
		filepath.Join(dir, "beta.yml"),
		filepath.Join(dir, "zeta.toml"),
	}
	if len(themes) != len(want) {
		t.Fatalf("themes = %v, want %v", themes, want)
	}
	for i := range want {
		if themes[i] != want[i] {
			t.Errorf("themes[%d] = %q, want %q", i, themes[i], want[i])
		}
	}
}

// The installed systray menu is built from BuildItems; the construction
// sequence must match the item model exactly.
func TestBar_InstallFollowsItemModel(t *testing.T) {
	var built []string
	b := &Bar{sys: fakeHooks(&built, nil)}
	b.Install("Command Window", []string{"/themes/nord.toml", "/themes/zenburn.yaml"})
	defer b.Close()

	want := []string{
		"Command Window", "New Window",
		"Theme", "theme:nord", "theme:zenburn",
		"separator", "Open Config", "Quit",
	}
	if len(built) != len(want) {
		t.Fatalf("construction = %v, want %v", built, want)
	}
	for i := range want {
		if built[i] != want[i] {
			t.Errorf("construction[%d] = %q, want %q", i, built[i], want[i])
		}
	}
}

func TestBar_ClickDispatch(t *testing.T) {
	var built []string
	items := map[string]*systray.MenuItem{}
	clicked := make(chan string, 8)

	b := &Bar{sys: fakeHooks(&built, items)}
	b.OnToggle = func() { clicked <- "toggle" }
	b.OnTheme = func(path string) { clicked <- "theme " + path }
	b.OnQuit = func() { clicked <- "quit" }
	b.Install("X", []string{"/themes/nord.toml"})
	defer b.Close()

	expect := func(item, want string) {
		t.Helper()
		items[item].ClickedCh <- struct{}{}
		select {
		case got := <-clicked:
			if got != want {
				t.Fatalf("click on %q dispatched %q, want %q", item, got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("click on %q never dispatched", item)
		}
	}

	expect("X", "toggle")
	expect("theme:nord", "theme /themes/nord.toml")
	expect("Quit", "quit")
}

func TestListThemes_MissingDir(t *testing.T) {
	themes, err := ListThemes(filepath.Join(t.TempDir(), "absent"))
	if err != nil || themes != nil {
		t.Fatalf("ListThemes(absent) = %v, %v", themes, err)
	}
}
