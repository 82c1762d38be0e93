package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/member"
)

var (
	// errors
	ErrEventNotFound      = errors.New("event not found")
	ErrAttendanceNotFound = errors.New("attendance not found")
	ErrRSVPNotFound       = errors.New("rsvp not found")
	ErrCheckInNotOpen     = errors.New("check-in is not open yet")
	ErrCheckInClosed      = errors.New("check-in has closed")
	ErrRSVPRequired       = errors.New("an RSVP is required to check in to this event")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, ev Event, exec ...core.DBExecutor) (Event, error)
		GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (Event, error)
		UpsertRSVP(ctx context.Context, rsvp RSVP, exec ...core.DBExecutor) (RSVP, error)
		GetRSVP(ctx context.Context, eventID, memberID string, exec ...core.DBExecutor) (RSVP, error)
		QueryRSVPMemberIDs(ctx context.Context, eventID string, status RSVPStatus, exec ...core.DBExecutor) ([]string, error)
		GetAttendance(ctx context.Context, eventID, memberID string, exec ...core.DBExecutor) (Attendance, error)
		// InsertAttendance inserts att unless the member already checked in to the event.
		// created is false when the (event, member) pair already exists.
		InsertAttendance(ctx context.Context, att Attendance, exec ...core.DBExecutor) (created bool, err error)
	}

	// Notifier is told about every new check-in.
	Notifier interface {
		NotifyCheckIn(ctx context.Context, memberID string, res Result)
	}

	Options struct {
		TokenTTL    time.Duration
		EarlyWindow time.Duration
		GracePeriod time.Duration
	}

	Service struct {
		db       core.DB
		repo     Repository
		members  *member.Service
		signer   *Signer
		notifier Notifier
		logger   core.Logger
		opts     Options
		now      func() time.Time
		goFunc   func(func()) // runs notifications; mockable
	}
)

func NewService(db core.DB, repo Repository, members *member.Service, signer *Signer, notifier Notifier, logger core.Logger, opts Options) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		members:  members,
		signer:   signer,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		goFunc:   func(f func()) { go f() },
	}
}

func (svc *Service) GetEvent(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *Service) CreateEvent(ctx context.Context, ne NewEvent, validate *validator.Validate) (Event, error) {
	ne.Name = core.CleanString(ne.Name)
	ne.Location = core.CleanString(ne.Location)
	if err := validate.Struct(ne); err != nil {
		return Event{}, err
	}
	return svc.repo.CreateEvent(ctx, Event{
		ID:           uuid.New().String(),
		Name:         ne.Name,
		Location:     ne.Location,
		StartsAt:     ne.StartsAt.UTC(),
		EndsAt:       ne.EndsAt.UTC(),
		Points:       ne.Points,
		RequiresRSVP: ne.RequiresRSVP,
		CreatedAt:    svc.now().UTC(),
	})
}

// IssueToken signs a check-in token for the event. The token never outlives the check-in window.
func (svc *Service) IssueToken(ctx context.Context, eventID string) (Token, error) {
	ev, err := svc.repo.GetEvent(ctx, eventID)
	if err != nil {
		return Token{}, err
	}
	now := svc.now()
	_, closes := ev.CheckInWindow(svc.opts.EarlyWindow, svc.opts.GracePeriod)
	if !now.Before(closes) {
		return Token{}, ErrCheckInClosed
	}
	expiresAt := now.Add(svc.opts.TokenTTL)
	if expiresAt.After(closes) {
		expiresAt = closes
	}
	return svc.signer.Sign(ev.ID, expiresAt)
}

// ValidateCheckIn exchanges a check-in token for an attendance record.
// Checking in twice to the same event is not an error: the existing record is returned
// with AlreadyCheckedIn set and no points are awarded.
func (svc *Service) ValidateCheckIn(ctx context.Context, memberID, rawToken string) (Result, error) {
	claims, err := svc.signer.Verify(rawToken)
	if err != nil {
		return Result{}, err
	}

	ev, err := svc.repo.GetEvent(ctx, claims.EventID)
	if err != nil {
		return Result{}, err
	}
	now := svc.now()
	opens, closes := ev.CheckInWindow(svc.opts.EarlyWindow, svc.opts.GracePeriod)
	if now.Before(opens) {
		return Result{}, ErrCheckInNotOpen
	}
	if now.After(closes) {
		return Result{}, ErrCheckInClosed
	}

	mbr, err := svc.members.GetByID(ctx, memberID)
	if err != nil {
		return Result{}, err
	}

	if ev.RequiresRSVP {
		rsvp, err := svc.repo.GetRSVP(ctx, ev.ID, mbr.ID)
		if err != nil && err != ErrRSVPNotFound {
			return Result{}, err
		}
		if err == ErrRSVPNotFound || rsvp.Status != RSVPGoing {
			return Result{}, ErrRSVPRequired
		}
	}

	if att, err := svc.repo.GetAttendance(ctx, ev.ID, mbr.ID); err == nil {
		return svc.alreadyCheckedIn(ctx, ev, mbr, att)
	} else if err != ErrAttendanceNotFound {
		return Result{}, err
	}

	att := Attendance{
		ID:            uuid.New().String(),
		EventID:       ev.ID,
		MemberID:      mbr.ID,
		CheckedInAt:   now.UTC(),
		PointsAwarded: ev.Points,
	}
	before := mbr.Points
	var created bool
	err = core.WithTx(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if created, err = svc.repo.InsertAttendance(ctx, att, tx); err != nil || !created {
			return err
		}
		if ev.Points > 0 {
			mbr, err = svc.members.AwardPoints(ctx, mbr.ID, ev.ID, ev.Points, member.ReasonCheckIn, tx)
		}
		return err
	})
	if err != nil {
		return Result{}, pkgerrors.Wrap(err, "recording attendance")
	}

	if !created { // lost a race against a concurrent check-in
		existing, err := svc.repo.GetAttendance(ctx, ev.ID, mbr.ID)
		if err != nil {
			return Result{}, err
		}
		return svc.alreadyCheckedIn(ctx, ev, mbr, existing)
	}

	res := Result{
		Attendance:    att,
		Event:         ev,
		PointsAwarded: att.PointsAwarded,
		Balance:       mbr.Points,
		Tier:          member.TierFor(mbr.Points),
		RankedUp:      member.RankedUp(before, mbr.Points),
	}
	svc.logger.Debug(fmt.Sprintf("member %s checked in to event %s (+%d points)", mbr.ID, ev.ID, att.PointsAwarded))
	if svc.notifier != nil {
		svc.goFunc(func() {
			svc.notifier.NotifyCheckIn(context.Background(), mbr.ID, res)
		})
	}
	return res, nil
}

// alreadyCheckedIn reports an existing attendance. The balance is reloaded since a concurrent
// check-in may have credited it after mbr was read.
func (svc *Service) alreadyCheckedIn(ctx context.Context, ev Event, mbr member.Member, att Attendance) (Result, error) {
	mbr, err := svc.members.GetByID(ctx, mbr.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Attendance:       att,
		Event:            ev,
		AlreadyCheckedIn: true,
		Balance:          mbr.Points,
		Tier:             member.TierFor(mbr.Points),
	}, nil
}
