// Package schedule decides which subscribers receive a digest at a given instant
// and drives composing and sending it.
package schedule

import (
	"time"

	"github.com/crehub/news-digest/internal/domain"
)

// State is where a subscriber stands for the slot being evaluated.
type State int

const (
	Idle State = iota
	Due
	Sent
)

func (s State) String() string {
	switch s {
	case Due:
		return "due"
	case Sent:
		return "sent"
	default:
		return "idle"
	}
}

// MatchSlot returns the preferred slot matching at in the subscriber's own timezone.
func MatchSlot(sub domain.Subscriber, at time.Time) (domain.SendTime, bool) {
	local := at.In(sub.Location())
	for _, slot := range domain.NormalizeSendTimes(sub.PreferredSendTimes) {
		if slot.DayOfWeek == int(local.Weekday()) && slot.Hour == local.Hour() {
			return slot, true
		}
	}
	return domain.SendTime{}, false
}

// IsDue reports whether the local (weekday, hour) of at matches one of the subscriber's slots.
func IsDue(sub domain.Subscriber, at time.Time) bool {
	_, ok := MatchSlot(sub, at)
	return ok
}

// AlreadySent reports whether the last send falls in the same local date and hour as at.
func AlreadySent(sub domain.Subscriber, at time.Time) bool {
	if sub.LastSentAt == nil {
		return false
	}
	loc := sub.Location()
	last := sub.LastSentAt.In(loc)
	now := at.In(loc)

	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()
	return ly == ny && lm == nm && ld == nd && last.Hour() == now.Hour()
}

// Evaluate moves a subscriber through Idle -> Due -> Sent for the slot containing at.
func Evaluate(sub domain.Subscriber, at time.Time) (State, domain.SendTime) {
	slot, ok := MatchSlot(sub, at)
	if !ok {
		return Idle, domain.SendTime{}
	}
	if AlreadySent(sub, at) {
		return Sent, slot
	}
	return Due, slot
}
