package member

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

type Member struct {
	ID                   string      `json:"id" db:"id"`
	Email                string      `json:"email" db:"email"`
	FirstName            string      `json:"first_name" db:"first_name"`
	LastName             string      `json:"last_name" db:"last_name"`
	AvatarURL            string      `json:"avatar_url" db:"avatar_url"`
	Points               int         `json:"points" db:"points"`
	PushToken            null.String `json:"-" db:"push_token"`
	NotificationsEnabled bool        `json:"notifications_enabled" db:"notifications_enabled"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" db:"updated_at"`
}

// Name is the display name, falling back to the email's local part.
func (m Member) Name() string {
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if name == "" {
		if i := strings.Index(m.Email, "@"); i > 0 {
			return m.Email[:i]
		}
		return m.Email
	}
	return name
}

// HasPushToken reports whether the member registered a usable push token.
func (m Member) HasPushToken() bool {
	return m.PushToken.Valid && IsPushToken(m.PushToken.String)
}

// LedgerEntry is one movement of a member's points balance.
type LedgerEntry struct {
	ID        string      `json:"id" db:"id"`
	MemberID  string      `json:"member_id" db:"member_id"`
	EventID   null.String `json:"event_id" db:"event_id"`
	Amount    int         `json:"amount" db:"amount"`
	Reason    string      `json:"reason" db:"reason"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

const ReasonCheckIn = "check_in"

// QueryFilter narrows QueryMembers. Zero values are ignored.
type QueryFilter struct {
	IDs                  []string
	NotificationsEnabled *bool
}

type Profile struct {
	Member
	Rank     int      `json:"rank"`
	Progress Progress `json:"progress"`
}

// PushTokenUpdate is the payload of a push token registration.
type PushTokenUpdate struct {
	PushToken            string `json:"push_token" validate:"omitempty,expo_push_token"`
	NotificationsEnabled *bool  `json:"notifications_enabled"`
}
