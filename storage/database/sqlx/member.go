package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/member"
)

type memberRepository struct {
	baseRepository
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(exec core.DBExecutor) *memberRepository {
	return &memberRepository{baseRepository{exec: exec}}
}

const memberColumns = "id, email, first_name, last_name, avatar_url, points, push_token, notifications_enabled, created_at, updated_at"

var leaderboardOrdering = []core.DBOrdering{
	{Field: "points", Ascending: false},
	{Field: "created_at", Ascending: true},
	{Field: "id", Ascending: true},
}

func (repo memberRepository) GetMember(ctx context.Context, id string, exec ...core.DBExecutor) (member.Member, error) {
	ex := repo.getExec(exec)
	var mbr member.Member
	err := ex.GetContext(ctx, &mbr, ex.Rebind(`SELECT `+memberColumns+` FROM profiles WHERE id = ?`), id)
	if err != nil {
		return member.Member{}, trapNoRowsErr(err, member.ErrNotFound, "getting member")
	}
	return mbr, nil
}

func (repo memberRepository) CreateMember(ctx context.Context, mbr member.Member, exec ...core.DBExecutor) (member.Member, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO profiles (` + memberColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := ex.ExecContext(ctx, q,
		mbr.ID, mbr.Email, mbr.FirstName, mbr.LastName, mbr.AvatarURL, mbr.Points,
		mbr.PushToken, mbr.NotificationsEnabled, mbr.CreatedAt.UTC(), mbr.UpdatedAt.UTC())
	if err != nil {
		return member.Member{}, errors.Wrap(err, "inserting member")
	}
	return repo.GetMember(ctx, mbr.ID, ex)
}

func (repo memberRepository) QueryMembers(ctx context.Context, filter member.QueryFilter, exec ...core.DBExecutor) ([]member.Member, error) {
	ex := repo.getExec(exec)

	var (
		where []string
		args  []interface{}
	)
	if len(filter.IDs) > 0 {
		where = append(where, "id IN (?)")
		args = append(args, filter.IDs)
	}
	if filter.NotificationsEnabled != nil {
		where = append(where, "notifications_enabled = ?")
		args = append(args, *filter.NotificationsEnabled)
	}

	q := `SELECT ` + memberColumns + ` FROM profiles`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at"

	if len(filter.IDs) > 0 {
		var err error
		if q, args, err = sqlx.In(q, args...); err != nil {
			return nil, errors.Wrap(err, "expanding member ids")
		}
	}

	members := make([]member.Member, 0)
	if err := ex.SelectContext(ctx, &members, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	return members, nil
}

func (repo memberRepository) QueryLeaderboard(ctx context.Context, limit, offset int, exec ...core.DBExecutor) ([]member.Member, error) {
	ex := repo.getExec(exec)
	orderBy := make([]string, len(leaderboardOrdering))
	for i, ord := range leaderboardOrdering {
		orderBy[i] = ord.String()
	}
	q := `SELECT ` + memberColumns + ` FROM profiles ORDER BY ` + strings.Join(orderBy, ", ") + ` LIMIT ? OFFSET ?`

	members := make([]member.Member, 0, limit)
	if err := ex.SelectContext(ctx, &members, ex.Rebind(q), limit, offset); err != nil {
		return nil, errors.Wrap(err, "querying leaderboard")
	}
	return members, nil
}

func (repo memberRepository) CountMembersAbove(ctx context.Context, points int, exec ...core.DBExecutor) (int, error) {
	ex := repo.getExec(exec)
	var count int
	if err := ex.GetContext(ctx, &count, ex.Rebind(`SELECT COUNT(*) FROM profiles WHERE points > ?`), points); err != nil {
		return 0, errors.Wrap(err, "counting members")
	}
	return count, nil
}

func (repo memberRepository) AddPoints(ctx context.Context, entry member.LedgerEntry, exec ...core.DBExecutor) (member.Member, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO points_ledger (id, member_id, event_id, amount, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := ex.ExecContext(ctx, q, entry.ID, entry.MemberID, entry.EventID, entry.Amount, entry.Reason, entry.CreatedAt.UTC())
	if err != nil {
		return member.Member{}, errors.Wrap(err, "inserting ledger entry")
	}

	q = ex.Rebind(`UPDATE profiles SET points = points + ?, updated_at = ? WHERE id = ?`)
	res, err := ex.ExecContext(ctx, q, entry.Amount, entry.CreatedAt.UTC(), entry.MemberID)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "updating points balance")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return member.Member{}, member.ErrNotFound
	}
	return repo.GetMember(ctx, entry.MemberID, ex)
}

func (repo memberRepository) SetPushToken(ctx context.Context, id string, token null.String, enabled *bool, exec ...core.DBExecutor) (member.Member, error) {
	ex := repo.getExec(exec)
	set := []string{"push_token = ?", "updated_at = ?"}
	args := []interface{}{token, member.NowFunc().UTC()}
	if enabled != nil {
		set = append(set, "notifications_enabled = ?")
		args = append(args, *enabled)
	}
	args = append(args, id)

	q := ex.Rebind(`UPDATE profiles SET ` + strings.Join(set, ", ") + ` WHERE id = ?`)
	res, err := ex.ExecContext(ctx, q, args...)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "updating push token")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return member.Member{}, member.ErrNotFound
	}
	return repo.GetMember(ctx, id, ex)
}

func (repo memberRepository) ClearPushToken(ctx context.Context, token string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	q := ex.Rebind(`UPDATE profiles SET push_token = NULL, updated_at = ? WHERE push_token = ?`)
	if _, err := ex.ExecContext(ctx, q, member.NowFunc().UTC(), token); err != nil {
		return errors.Wrap(err, "clearing push token")
	}
	return nil
}
