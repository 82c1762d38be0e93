package notification

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/njitshpe/shpe-app-sub007/core/checkin"
	"github.com/njitshpe/shpe-app-sub007/core/member"
)

var (
	ErrEventRequired = errors.New("this notification type requires an event")
	ErrEventEnded    = errors.New("event has already ended")
	ErrUnknownKind   = errors.New("unknown notification type")
)

// CopyContext holds what the copy of a notification may depend on.
type CopyContext struct {
	Event      *checkin.Event
	Member     member.Member
	Points     int
	RSVPStatus string
	Title      string
	Body       string
	Data       map[string]string
	Now        time.Time
	Location   *time.Location
}

// Compose renders the title and body of a notification of the given kind.
func Compose(kind Kind, c CopyContext) (Message, error) {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if kind.NeedsEvent() && c.Event == nil {
		return Message{}, ErrEventRequired
	}

	var msg Message
	switch kind {
	case KindEventReminder:
		ev := c.Event
		if !c.Now.Before(ev.EndsAt) {
			return Message{}, ErrEventEnded
		}
		msg.Title = "Reminder: " + ev.Name
		until := ev.StartsAt.Sub(c.Now)
		switch {
		case until <= 0:
			msg.Body = "Happening now"
		case until < time.Hour:
			mins := int(math.Ceil(until.Minutes()))
			msg.Body = "Starts in " + plural(mins, "minute")
		default:
			msg.Body = "Starts " + when(ev.StartsAt, c.Now, c.Location)
		}
		msg.Body += at(ev.Location) + "."

	case KindNewEvent:
		ev := c.Event
		msg.Title = "New event: " + ev.Name
		msg.Body = capitalize(when(ev.StartsAt, c.Now, c.Location)) + at(ev.Location) + "."
		if ev.Points > 0 {
			msg.Body += fmt.Sprintf(" Check in to earn %s.", plural(ev.Points, "point"))
		}

	case KindCheckIn:
		msg.Title = "You're checked in!"
		msg.Body = fmt.Sprintf("Welcome to %s.", c.Event.Name)
		if c.Points > 0 {
			msg.Body += fmt.Sprintf(" You earned %s and now have %d.", plural(c.Points, "point"), c.Member.Points)
		}

	case KindRankUp:
		tier := member.TierFor(c.Member.Points)
		msg.Title = fmt.Sprintf("You reached %s!", tier.Name)
		msg.Body = fmt.Sprintf("You now have %s.", plural(c.Member.Points, "point"))
		if next, ok := member.NextTier(c.Member.Points); ok {
			msg.Body += fmt.Sprintf(" %d more to reach %s.", next.MinPoints-c.Member.Points, next.Name)
		} else {
			msg.Body += " That's the top tier!"
		}

	case KindRSVPConfirmation:
		ev := c.Event
		switch checkin.RSVPStatus(c.RSVPStatus) {
		case checkin.RSVPWaitlist:
			msg.Title = "You're on the waitlist"
			msg.Body = fmt.Sprintf("We'll let you know if a spot opens up for %s.", ev.Name)
		case checkin.RSVPNotGoing:
			msg.Title = "RSVP updated"
			msg.Body = fmt.Sprintf("You're no longer going to %s.", ev.Name)
		default:
			msg.Title = "You're going to " + ev.Name
			msg.Body = "See you " + when(ev.StartsAt, c.Now, c.Location) + at(ev.Location) + "."
		}

	case KindAnnouncement:
		msg.Title = strings.TrimSpace(c.Title)
		msg.Body = strings.TrimSpace(c.Body)

	default:
		return Message{}, ErrUnknownKind
	}

	msg.Data = make(map[string]string, len(c.Data)+2)
	for k, v := range c.Data {
		msg.Data[k] = v
	}
	msg.Data["type"] = string(kind)
	if c.Event != nil {
		msg.Data["event_id"] = c.Event.ID
	}
	return msg, nil
}

// when renders t relative to now: "today at 3:04 PM", "tomorrow at 3:04 PM" or "on Mon, Jan 2 at 3:04 PM".
func when(t, now time.Time, loc *time.Location) string {
	t, now = t.In(loc), now.In(loc)
	clock := t.Format("3:04 PM")
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	tomorrow := now.AddDate(0, 0, 1)
	switch {
	case ty == ny && tm == nm && td == nd:
		return "today at " + clock
	case t.Year() == tomorrow.Year() && t.YearDay() == tomorrow.YearDay():
		return "tomorrow at " + clock
	default:
		return "on " + t.Format("Mon, Jan 2") + " at " + clock
	}
}

func at(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	return " at " + location
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
