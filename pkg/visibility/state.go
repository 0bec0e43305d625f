package visibility

// State is the command window's visibility state. Exactly one State exists
// per process and only the Controller mutates it.
type State int

const (
	Hidden State = iota
	Showing
	Visible
	Hiding
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Showing:
		return "showing"
	case Visible:
		return "visible"
	case Hiding:
		return "hiding"
	}
	return "unknown"
}

// transitioning reports whether a reveal/hide animation (or an engine create)
// is in flight.
func (s State) transitioning() bool {
	return s == Showing || s == Hiding
}
