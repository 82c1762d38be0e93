package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/checkin"
	"github.com/njitshpe/shpe-app-sub007/core/member"
)

const emailTemplate = "notification"

type (
	Repository interface {
		CreateNotifications(ctx context.Context, ns []Notification, exec ...core.DBExecutor) error
		QueryNotifications(ctx context.Context, memberID string, limit int, exec ...core.DBExecutor) ([]Notification, error)
	}

	MemberRepository interface {
		QueryMembers(ctx context.Context, filter member.QueryFilter, exec ...core.DBExecutor) ([]member.Member, error)
		ClearPushToken(ctx context.Context, token string, exec ...core.DBExecutor) error
	}

	EventRepository interface {
		GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (checkin.Event, error)
		QueryRSVPMemberIDs(ctx context.Context, eventID string, status checkin.RSVPStatus, exec ...core.DBExecutor) ([]string, error)
	}

	Deps struct {
		Repo     Repository
		Members  MemberRepository
		Events   EventRepository
		Pusher   Pusher
		MailSvc  core.EmailService
		Logger   core.Logger
		Validate *validator.Validate
		Location *time.Location
	}

	Service struct {
		Deps
		now func() time.Time
	}
)

var _ checkin.Notifier = (*Service)(nil) // interface compliance check

func NewService(deps Deps) *Service {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &Service{Deps: deps, now: time.Now}
}

// Send renders the requested notification for every recipient, pushes it to those with a
// registered device and records it in their in-app feed.
func (svc *Service) Send(ctx context.Context, req Request) (Report, error) {
	req.EventID = core.CleanString(req.EventID)
	if err := svc.Validate.Struct(req); err != nil {
		return Report{}, err
	}

	var ev *checkin.Event
	if req.EventID != "" {
		e, err := svc.Events.GetEvent(ctx, req.EventID)
		if err != nil {
			return Report{}, err
		}
		ev = &e
	}

	recipients, err := svc.recipients(ctx, req)
	if err != nil {
		return Report{}, errors.Wrap(err, "resolving recipients")
	}
	report := Report{Kind: req.Kind, Recipients: len(recipients), Tickets: make([]Ticket, 0, len(recipients))}
	if len(recipients) == 0 {
		return report, nil
	}

	now := svc.now()
	var (
		pushMsgs   []PushMessage
		pushOwners []string // member ID per push message
		emails     []*core.EmailMessage
		inApp      = make([]Notification, 0, len(recipients))
	)
	for _, mbr := range recipients {
		msg, err := Compose(req.Kind, CopyContext{
			Event:      ev,
			Member:     mbr,
			Points:     req.Points,
			RSVPStatus: req.RSVPStatus,
			Title:      req.Title,
			Body:       req.Body,
			Data:       req.Data,
			Now:        now,
			Location:   svc.Location,
		})
		if err != nil {
			if err == ErrEventEnded {
				return Report{}, core.NewValidationError(err, core.FieldError{Field: "event_id", Error: err.Error()})
			}
			return Report{}, err
		}

		data, err := json.Marshal(msg.Data)
		if err != nil {
			return Report{}, errors.Wrap(err, "encoding notification data")
		}
		inApp = append(inApp, Notification{
			ID:        uuid.New().String(),
			MemberID:  mbr.ID,
			Kind:      req.Kind,
			Title:     msg.Title,
			Body:      msg.Body,
			Data:      string(data),
			CreatedAt: now.UTC(),
		})

		switch {
		case !mbr.NotificationsEnabled:
			report.Tickets = append(report.Tickets, Ticket{MemberID: mbr.ID, Status: StatusSkipped, Message: "notifications disabled"})
		case mbr.HasPushToken():
			pushMsgs = append(pushMsgs, PushMessage{
				To:        mbr.PushToken.String,
				Title:     msg.Title,
				Body:      msg.Body,
				Data:      msg.Data,
				Sound:     "default",
				Priority:  "high",
				ChannelID: "default",
			})
			pushOwners = append(pushOwners, mbr.ID)
		case req.EmailFallback && mbr.Email != "":
			emails = append(emails, &core.EmailMessage{
				To:           []mail.Address{{Name: mbr.Name(), Address: mbr.Email}},
				Subject:      msg.Title,
				TemplateName: emailTemplate,
				TemplateData: msg,
			})
			report.Tickets = append(report.Tickets, Ticket{MemberID: mbr.ID, Status: StatusEmailed})
		default:
			report.Tickets = append(report.Tickets, Ticket{MemberID: mbr.ID, Status: StatusSkipped, Message: "no push token"})
		}
	}

	if err = svc.Repo.CreateNotifications(ctx, inApp); err != nil {
		return Report{}, errors.Wrap(err, "storing notifications")
	}
	if len(emails) > 0 && svc.MailSvc != nil {
		svc.MailSvc.SendMessages(emails...)
	}

	if len(pushMsgs) > 0 {
		tickets, err := svc.Pusher.Push(ctx, pushMsgs)
		if err != nil {
			return Report{}, errors.Wrap(err, "pushing notifications")
		}
		for i, pt := range tickets {
			report.Tickets = append(report.Tickets, Ticket{
				MemberID: pushOwners[i],
				Status:   pt.Status,
				ID:       pt.ID,
				Message:  pt.Message,
				Error:    pt.Error,
			})
			if pt.Error == ErrDeviceNotRegistered {
				if err := svc.Members.ClearPushToken(ctx, pushMsgs[i].To); err != nil {
					svc.Logger.Error(fmt.Sprintf("clearing unregistered push token: %v", err), err)
				}
			}
		}
	}

	for _, t := range report.Tickets {
		switch t.Status {
		case StatusOK:
			report.Sent++
		case StatusEmailed:
			report.Emailed++
		case StatusSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	return report, nil
}

func (svc *Service) recipients(ctx context.Context, req Request) ([]member.Member, error) {
	if len(req.MemberIDs) > 0 {
		return svc.Members.QueryMembers(ctx, member.QueryFilter{IDs: req.MemberIDs})
	}
	if req.Kind == KindEventReminder {
		going, err := svc.Events.QueryRSVPMemberIDs(ctx, req.EventID, checkin.RSVPGoing)
		if err != nil {
			return nil, err
		}
		if len(going) == 0 {
			return nil, nil
		}
		return svc.Members.QueryMembers(ctx, member.QueryFilter{IDs: going})
	}
	// broadcast: opted-out members are left out entirely
	enabled := true
	return svc.Members.QueryMembers(ctx, member.QueryFilter{NotificationsEnabled: &enabled})
}

// NotifyCheckIn confirms a check-in to the member, and congratulates them when they reached a new tier.
func (svc *Service) NotifyCheckIn(ctx context.Context, memberID string, res checkin.Result) {
	reqs := []Request{{
		Kind:      KindCheckIn,
		MemberIDs: []string{memberID},
		EventID:   res.Event.ID,
		Points:    res.PointsAwarded,
	}}
	if res.RankedUp {
		reqs = append(reqs, Request{
			Kind:      KindRankUp,
			MemberIDs: []string{memberID},
			Data:      map[string]string{"tier": res.Tier.Name},
		})
	}
	for _, req := range reqs {
		if _, err := svc.Send(ctx, req); err != nil {
			svc.Logger.Error(fmt.Sprintf("sending %s notification: %v", req.Kind, err), err, core.Person{ID: memberID})
		}
	}
}

// Feed returns the latest in-app notifications of a member.
func (svc *Service) Feed(ctx context.Context, memberID string, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return svc.Repo.QueryNotifications(ctx, memberID, limit)
}
