package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/checkin"
)

type eventRepository struct {
	baseRepository
}

var _ checkin.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(exec core.DBExecutor) *eventRepository {
	return &eventRepository{baseRepository{exec: exec}}
}

const eventColumns = "id, name, location, starts_at, ends_at, points, requires_rsvp, created_at"

func (repo eventRepository) CreateEvent(ctx context.Context, ev checkin.Event, exec ...core.DBExecutor) (checkin.Event, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := ex.ExecContext(ctx, q,
		ev.ID, ev.Name, ev.Location, ev.StartsAt.UTC(), ev.EndsAt.UTC(), ev.Points, ev.RequiresRSVP, ev.CreatedAt.UTC())
	if err != nil {
		return checkin.Event{}, errors.Wrap(err, "inserting event")
	}
	return repo.GetEvent(ctx, ev.ID, ex)
}

func (repo eventRepository) GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (checkin.Event, error) {
	ex := repo.getExec(exec)
	var ev checkin.Event
	err := ex.GetContext(ctx, &ev, ex.Rebind(`SELECT `+eventColumns+` FROM events WHERE id = ?`), id)
	if err != nil {
		return checkin.Event{}, trapNoRowsErr(err, checkin.ErrEventNotFound, "getting event")
	}
	return ev, nil
}

func (repo eventRepository) UpsertRSVP(ctx context.Context, rsvp checkin.RSVP, exec ...core.DBExecutor) (checkin.RSVP, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`
		INSERT INTO event_rsvps (event_id, member_id, status, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (event_id, member_id) DO UPDATE SET status = excluded.status`)
	if _, err := ex.ExecContext(ctx, q, rsvp.EventID, rsvp.MemberID, rsvp.Status, rsvp.CreatedAt.UTC()); err != nil {
		return checkin.RSVP{}, errors.Wrap(err, "upserting rsvp")
	}
	return repo.GetRSVP(ctx, rsvp.EventID, rsvp.MemberID, ex)
}

func (repo eventRepository) GetRSVP(ctx context.Context, eventID, memberID string, exec ...core.DBExecutor) (checkin.RSVP, error) {
	ex := repo.getExec(exec)
	var rsvp checkin.RSVP
	q := ex.Rebind(`SELECT event_id, member_id, status, created_at FROM event_rsvps WHERE event_id = ? AND member_id = ?`)
	if err := ex.GetContext(ctx, &rsvp, q, eventID, memberID); err != nil {
		return checkin.RSVP{}, trapNoRowsErr(err, checkin.ErrRSVPNotFound, "getting rsvp")
	}
	return rsvp, nil
}

func (repo eventRepository) QueryRSVPMemberIDs(ctx context.Context, eventID string, status checkin.RSVPStatus, exec ...core.DBExecutor) ([]string, error) {
	ex := repo.getExec(exec)
	ids := make([]string, 0)
	q := ex.Rebind(`SELECT member_id FROM event_rsvps WHERE event_id = ? AND status = ? ORDER BY created_at`)
	if err := ex.SelectContext(ctx, &ids, q, eventID, status); err != nil {
		return nil, errors.Wrap(err, "querying rsvps")
	}
	return ids, nil
}

func (repo eventRepository) GetAttendance(ctx context.Context, eventID, memberID string, exec ...core.DBExecutor) (checkin.Attendance, error) {
	ex := repo.getExec(exec)
	var att checkin.Attendance
	q := ex.Rebind(`
		SELECT id, event_id, member_id, checked_in_at, points_awarded
		FROM event_attendance WHERE event_id = ? AND member_id = ?`)
	if err := ex.GetContext(ctx, &att, q, eventID, memberID); err != nil {
		return checkin.Attendance{}, trapNoRowsErr(err, checkin.ErrAttendanceNotFound, "getting attendance")
	}
	return att, nil
}

func (repo eventRepository) InsertAttendance(ctx context.Context, att checkin.Attendance, exec ...core.DBExecutor) (bool, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`
		INSERT INTO event_attendance (id, event_id, member_id, checked_in_at, points_awarded) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (event_id, member_id) DO NOTHING`)
	res, err := ex.ExecContext(ctx, q, att.ID, att.EventID, att.MemberID, att.CheckedInAt.UTC(), att.PointsAwarded)
	if err != nil {
		return false, errors.Wrap(err, "inserting attendance")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "inserting attendance")
	}
	return n == 1, nil
}
