package plugin

import (
	"fmt"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/tracking"
)

// EventType names a pointer event.
type EventType string

const (
	// EventSelectStart fires when a hand starts touching: it pinches with a
	// valid ray.
	EventSelectStart EventType = "select_start"
	// EventSelectEnd fires when a touch ends.
	EventSelectEnd EventType = "select_end"
	// EventSystemGesture fires when a hand starts the system gesture.
	EventSystemGesture EventType = "system_gesture"
	// EventRecentered fires on the update that applies a recenter.
	EventRecentered EventType = "recentered"
	// EventTrackingLost fires when a hand's ray stops being valid.
	EventTrackingLost EventType = "tracking_lost"
)

// EventTypes lists every event a manifest may subscribe to.
var EventTypes = []EventType{
	EventSelectStart,
	EventSelectEnd,
	EventSystemGesture,
	EventRecentered,
	EventTrackingLost,
}

// ParseEventType validates s as an event name.
func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event %q", s)
}

// Event is one pointer event of one hand.
type Event struct {
	Type EventType
	Hand hand.Handedness
	Time float64
	Pose geom.Pose
}

// Diff returns the events implied by going from prev to cur, right hand
// first. t stamps every event.
func Diff(prev, cur [2]tracking.ControllerState, t float64) []Event {
	var events []Event
	for _, h := range hand.Both {
		p, c := prev[h], cur[h]
		add := func(typ EventType) {
			events = append(events, Event{Type: typ, Hand: h, Time: t, Pose: c.Pose})
		}

		if c.Recentered {
			add(EventRecentered)
		}
		if c.Gesture == hand.GestureSystem && p.Gesture != hand.GestureSystem {
			add(EventSystemGesture)
		}
		switch {
		case c.Touching && !p.Touching:
			add(EventSelectStart)
		case !c.Touching && p.Touching:
			add(EventSelectEnd)
		}
		if p.Valid && !c.Valid {
			add(EventTrackingLost)
		}
	}
	return events
}
