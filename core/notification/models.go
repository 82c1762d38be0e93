package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/volatiletech/null/v8"
)

type Kind string

const (
	KindEventReminder    Kind = "event_reminder"
	KindNewEvent         Kind = "new_event"
	KindCheckIn          Kind = "check_in"
	KindRankUp           Kind = "rank_up"
	KindRSVPConfirmation Kind = "rsvp_confirmation"
	KindAnnouncement     Kind = "announcement"
)

var Kinds = []Kind{
	KindEventReminder,
	KindNewEvent,
	KindCheckIn,
	KindRankUp,
	KindRSVPConfirmation,
	KindAnnouncement,
}

func (k Kind) Valid() bool {
	for _, kind := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// NeedsEvent reports whether the copy of this kind is built from an event.
func (k Kind) NeedsEvent() bool {
	switch k {
	case KindEventReminder, KindNewEvent, KindCheckIn, KindRSVPConfirmation:
		return true
	}
	return false
}

// Request asks for a notification to be sent to a set of members.
// With no MemberIDs, reminders go to the members going to the event and everything else
// to every member with notifications enabled.
type Request struct {
	Kind          Kind              `json:"type" validate:"required,notification_kind"`
	MemberIDs     []string          `json:"user_ids" validate:"omitempty,max=1000,dive,required"`
	EventID       string            `json:"event_id"`
	Title         string            `json:"title" validate:"max=120"`
	Body          string            `json:"body" validate:"max=1000"`
	Points        int               `json:"points" validate:"min=0"`
	RSVPStatus    string            `json:"rsvp_status" validate:"omitempty,oneof=going waitlist not_going"`
	Data          map[string]string `json:"data"`
	EmailFallback bool              `json:"email_fallback"`
}

// Message is the rendered copy of a notification.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notification is the in-app copy of a sent notification.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	MemberID  string    `json:"user_id" db:"member_id"`
	Kind      Kind      `json:"type" db:"kind"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	Data      string    `json:"-" db:"data"` // JSON object
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ReadAt    null.Time `json:"read_at" db:"read_at"`
}

// DataMap decodes the stored data object. Invalid data yields an empty map.
func (n Notification) DataMap() map[string]string {
	data := make(map[string]string)
	_ = json.Unmarshal([]byte(n.Data), &data)
	return data
}

// Ticket statuses
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
	StatusEmailed = "emailed"

	ErrDeviceNotRegistered = "DeviceNotRegistered"
)

type Ticket struct {
	MemberID string `json:"user_id"`
	Status   string `json:"status"`
	ID       string `json:"id,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Report struct {
	Kind       Kind     `json:"type"`
	Recipients int      `json:"recipients"`
	Sent       int      `json:"sent"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Emailed    int      `json:"emailed"`
	Tickets    []Ticket `json:"tickets"`
}

type (
	PushMessage struct {
		To        string            `json:"to"`
		Title     string            `json:"title,omitempty"`
		Body      string            `json:"body,omitempty"`
		Data      map[string]string `json:"data,omitempty"`
		Sound     string            `json:"sound,omitempty"`
		Priority  string            `json:"priority,omitempty"`
		ChannelID string            `json:"channelId,omitempty"`
	}

	// PushTicket is the push service answer for one PushMessage.
	PushTicket struct {
		Status  string
		ID      string
		Message string
		Error   string
	}

	// Pusher forwards messages to a push service. The returned tickets match msgs by index.
	Pusher interface {
		Push(ctx context.Context, msgs []PushMessage) ([]PushTicket, error)
	}
)
