package checkin

import (
	"time"

	"github.com/njitshpe/shpe-app-sub007/core/member"
)

type Event struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Location     string    `json:"location" db:"location"`
	StartsAt     time.Time `json:"starts_at" db:"starts_at"`
	EndsAt       time.Time `json:"ends_at" db:"ends_at"`
	Points       int       `json:"points" db:"points"`
	RequiresRSVP bool      `json:"requires_rsvp" db:"requires_rsvp"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CheckInWindow returns when check-in opens and closes for the event.
func (e Event) CheckInWindow(early, grace time.Duration) (opens, closes time.Time) {
	return e.StartsAt.Add(-early), e.EndsAt.Add(grace)
}

type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "going"
	RSVPNotGoing RSVPStatus = "not_going"
	RSVPWaitlist RSVPStatus = "waitlist"
)

type RSVP struct {
	EventID   string     `json:"event_id" db:"event_id"`
	MemberID  string     `json:"user_id" db:"member_id"`
	Status    RSVPStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type Attendance struct {
	ID            string    `json:"id" db:"id"`
	EventID       string    `json:"event_id" db:"event_id"`
	MemberID      string    `json:"user_id" db:"member_id"`
	CheckedInAt   time.Time `json:"checked_in_at" db:"checked_in_at"`
	PointsAwarded int       `json:"points_awarded" db:"points_awarded"`
}

// NewEvent is the payload used by operators to create an event.
type NewEvent struct {
	Name         string    `json:"name" validate:"required,notblank,max=200"`
	Location     string    `json:"location" validate:"max=200"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
	EndsAt       time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Points       int       `json:"points" validate:"min=0,max=1000"`
	RequiresRSVP bool      `json:"requires_rsvp"`
}

// Token is a signed check-in token ready to be rendered as a QR code.
type Token struct {
	Token     string    `json:"token"`
	EventID   string    `json:"event_id"`
	ExpiresAt time.Time `json:"expires_at"`
	QRPayload string    `json:"qr_payload"`
}

// Result is the outcome of a check-in attempt.
type Result struct {
	Attendance       Attendance  `json:"attendance"`
	Event            Event       `json:"event"`
	AlreadyCheckedIn bool        `json:"already_checked_in"`
	PointsAwarded    int         `json:"points_awarded"`
	Balance          int         `json:"balance"`
	Tier             member.Tier `json:"tier"`
	RankedUp         bool        `json:"ranked_up"`
}
