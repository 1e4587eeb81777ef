package window

import (
	"time"

	"golang.org/x/time/rate"
)

// Direction is the expansion a scroll position asks for.
type Direction string

const (
	None Direction = ""
	Up   Direction = "up"
	Down Direction = "down"
)

const (
	defaultInterval = 500 * time.Millisecond
	nearTop         = 0.1
	nearBottom      = 0.9
)

// Trigger turns scroll positions into expansion requests. A fraction strictly
// below 0.1 asks for Up and one strictly above 0.9 asks for Down. Requests
// closer together than the interval are dropped.
type Trigger struct {
	limiter *rate.Limiter
}

// NewTrigger creates a trigger allowing at most one request per interval.
func NewTrigger(interval time.Duration) *Trigger {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Trigger{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// OnScroll classifies fraction (0 at the top, 1 at the bottom) observed at now.
func (t *Trigger) OnScroll(fraction float64, now time.Time) Direction {
	var dir Direction
	switch {
	case fraction < nearTop:
		dir = Up
	case fraction > nearBottom:
		dir = Down
	default:
		return None
	}
	if !t.limiter.AllowN(now, 1) {
		return None
	}
	return dir
}

// Scroller applies debounced scroll input to a Manager.
type Scroller struct {
	trigger *Trigger
	mgr     *Manager
}

// NewScroller wires a trigger to a manager.
func NewScroller(mgr *Manager, trigger *Trigger) *Scroller {
	return &Scroller{trigger: trigger, mgr: mgr}
}

// Scroll expands the window when the trigger fires. A boundary or debounced
// request returns a zero Delta.
func (s *Scroller) Scroll(fraction float64, now time.Time) (Direction, Delta) {
	dir := s.trigger.OnScroll(fraction, now)
	return dir, Expand(s.mgr, dir)
}

// Expand runs the expansion named by dir.
func Expand(m *Manager, dir Direction) Delta {
	switch dir {
	case Up:
		return m.ExpandUp()
	case Down:
		return m.ExpandDown()
	}
	return Delta{}
}
