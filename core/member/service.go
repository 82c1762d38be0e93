package member

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/njitshpe/shpe-app-sub007/core"
)

var (
	// errors
	ErrNotFound = errors.New("member profile not found")

	NowFunc = time.Now // mockable
)

const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

type (
	Repository interface {
		GetMember(ctx context.Context, id string, exec ...core.DBExecutor) (Member, error)
		CreateMember(ctx context.Context, mbr Member, exec ...core.DBExecutor) (Member, error)
		// QueryMembers applies AND operation on available QueryFilter fields.
		QueryMembers(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Member, error)
		QueryLeaderboard(ctx context.Context, limit, offset int, exec ...core.DBExecutor) ([]Member, error)
		CountMembersAbove(ctx context.Context, points int, exec ...core.DBExecutor) (int, error)
		// AddPoints records the ledger entry and applies it to the member's balance.
		AddPoints(ctx context.Context, entry LedgerEntry, exec ...core.DBExecutor) (Member, error)
		SetPushToken(ctx context.Context, id string, token null.String, enabled *bool, exec ...core.DBExecutor) (Member, error)
		ClearPushToken(ctx context.Context, token string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByID(ctx context.Context, id string, exec ...core.DBExecutor) (Member, error) {
	return svc.repo.GetMember(ctx, id, exec...)
}

func (svc *Service) Create(ctx context.Context, mbr Member) (Member, error) {
	now := NowFunc().UTC()
	if mbr.ID == "" {
		mbr.ID = uuid.New().String()
	}
	mbr.Email = core.CleanString(mbr.Email, true /* lower */)
	mbr.CreatedAt = now
	mbr.UpdatedAt = now
	return svc.repo.CreateMember(ctx, mbr)
}

// Profile returns the member with their leaderboard rank and tier progress.
func (svc *Service) Profile(ctx context.Context, id string) (Profile, error) {
	mbr, err := svc.repo.GetMember(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	above, err := svc.repo.CountMembersAbove(ctx, mbr.Points)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Member: mbr, Rank: above + 1, Progress: ProgressFor(mbr.Points)}, nil
}

func (svc *Service) Leaderboard(ctx context.Context, limit, offset int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	} else if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	if offset < 0 {
		offset = 0
	}
	members, err := svc.repo.QueryLeaderboard(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []LeaderboardEntry{}, nil
	}
	above, err := svc.repo.CountMembersAbove(ctx, members[0].Points)
	if err != nil {
		return nil, err
	}
	return rankMembers(members, offset, above+1), nil
}

// AwardPoints credits amount to the member. exec lets callers run it inside their transaction.
func (svc *Service) AwardPoints(ctx context.Context, memberID, eventID string, amount int, reason string, exec ...core.DBExecutor) (Member, error) {
	entry := LedgerEntry{
		ID:        uuid.New().String(),
		MemberID:  memberID,
		EventID:   null.NewString(eventID, eventID != ""),
		Amount:    amount,
		Reason:    reason,
		CreatedAt: NowFunc().UTC(),
	}
	return svc.repo.AddPoints(ctx, entry, exec...)
}

// RegisterPushToken sets (or clears, when empty) the member's push token.
func (svc *Service) RegisterPushToken(ctx context.Context, memberID string, data PushTokenUpdate, validate *validator.Validate) (Member, error) {
	data.PushToken = core.CleanString(data.PushToken)
	if err := validate.Struct(data); err != nil {
		return Member{}, err
	}
	if _, err := svc.repo.GetMember(ctx, memberID); err != nil {
		return Member{}, err
	}
	token := null.NewString(data.PushToken, data.PushToken != "")
	if token.Valid {
		// a device belongs to a single member at a time
		if err := svc.repo.ClearPushToken(ctx, token.String); err != nil {
			return Member{}, err
		}
	}
	return svc.repo.SetPushToken(ctx, memberID, token, data.NotificationsEnabled)
}

