package deviation

// State is the route adherence state of a watcher.
type State int

const (
	OnRoute State = iota
	OffRoute
)

func (s State) String() string {
	switch s {
	case OnRoute:
		return "on_route"
	case OffRoute:
		return "off_route"
	default:
		return "unknown"
	}
}

// AlertEvent is the outcome of feeding one sample into the hysteresis.
type AlertEvent int

const (
	NoAlert AlertEvent = iota
	Triggered
)

func (e AlertEvent) String() string {
	if e == Triggered {
		return "triggered"
	}
	return "none"
}

// Hysteresis fires once per off-route episode: only the OnRoute -> OffRoute edge
// produces Triggered. Returning to the route is silent.
type Hysteresis struct {
	state State
}

// NewHysteresis starts in OnRoute.
func NewHysteresis() *Hysteresis {
	return &Hysteresis{state: OnRoute}
}

// Update consumes one threshold comparison.
func (h *Hysteresis) Update(exceeds bool) AlertEvent {
	switch {
	case h.state == OnRoute && exceeds:
		h.state = OffRoute
		return Triggered
	case h.state == OffRoute && !exceeds:
		h.state = OnRoute
	}
	return NoAlert
}

// State returns the current state.
func (h *Hysteresis) State() State {
	return h.state
}

// Reset puts the machine back to OnRoute so the next deviation alerts again.
func (h *Hysteresis) Reset() {
	h.state = OnRoute
}
