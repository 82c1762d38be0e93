package checkin_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njitshpe/shpe-app-sub007/core/checkin"
	"github.com/njitshpe/shpe-app-sub007/core/member"
	"github.com/njitshpe/shpe-app-sub007/tests"
)

type notifierSpy struct {
	mu      sync.Mutex
	results []checkin.Result
}

func (n *notifierSpy) NotifyCheckIn(_ context.Context, _ string, res checkin.Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, res)
}

func setup(t *testing.T, now time.Time, opts checkin.Options) (*checkin.Service, *sqlx.DB, testutil.Repos, *notifierSpy) {
	db := testutil.OpenDB(t)
	repos := testutil.NewRepos(db)
	spy := new(notifierSpy)
	svc := checkin.NewServiceMock(
		db, repos.Events, member.NewService(repos.Members),
		checkin.NewSigner("secret", "SHPE", "shpe"),
		spy, testutil.NewLogger(), opts,
		func() time.Time { return now },
	)
	return svc, db, repos, spy
}

var defaultOpts = checkin.Options{TokenTTL: 15 * time.Minute, EarlyWindow: 30 * time.Minute, GracePeriod: time.Hour}

func TestService_IssueToken(t *testing.T) {
	now := time.Now()
	svc, _, repos, _ := setup(t, now, checkin.Options{TokenTTL: 15 * time.Minute, EarlyWindow: 30 * time.Minute})
	ctx := context.Background()

	long := testutil.CreateEvent(t, repos.Events, "Career Fair", now.Add(-time.Hour), 3*time.Hour, 20, false)
	endingSoon := testutil.CreateEvent(t, repos.Events, "GBM", now.Add(-time.Hour), 65*time.Minute, 10, false)
	ended := testutil.CreateEvent(t, repos.Events, "Kickoff", now.Add(-2*time.Hour), time.Hour, 10, false)

	tok, err := svc.IssueToken(ctx, long.ID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute).Unix(), tok.ExpiresAt.Unix())

	// never outlives the check-in window
	tok, err = svc.IssueToken(ctx, endingSoon.ID)
	require.NoError(t, err)
	assert.Equal(t, endingSoon.EndsAt.Unix(), tok.ExpiresAt.Unix())

	_, err = svc.IssueToken(ctx, ended.ID)
	assert.Equal(t, checkin.ErrCheckInClosed, err)

	_, err = svc.IssueToken(ctx, "nope")
	assert.Equal(t, checkin.ErrEventNotFound, err)
}

func TestService_ValidateCheckIn_window(t *testing.T) {
	now := time.Now()
	svc, _, repos, _ := setup(t, now, defaultOpts)
	ctx := context.Background()
	mbr := testutil.CreateMember(t, repos.Members, "member@njit.edu", 0, "")

	tests := []struct {
		name     string
		startsIn time.Duration
		duration time.Duration
		wantErr  error
	}{
		{name: "too early", startsIn: 31 * time.Minute, duration: time.Hour, wantErr: checkin.ErrCheckInNotOpen},
		{name: "early window", startsIn: 29 * time.Minute, duration: time.Hour},
		{name: "ongoing", startsIn: -time.Minute, duration: time.Hour},
		{name: "grace period", startsIn: -2 * time.Hour, duration: 61 * time.Minute},
		{name: "closed", startsIn: -3 * time.Hour, duration: time.Hour, wantErr: checkin.ErrCheckInClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := testutil.CreateEvent(t, repos.Events, tt.name, now.Add(tt.startsIn), tt.duration, 5, false)
			tok, err := checkin.NewSigner("secret", "SHPE", "shpe").Sign(ev.ID, now.Add(time.Minute))
			require.NoError(t, err)

			_, err = svc.ValidateCheckIn(ctx, mbr.ID, tok.Token)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestService_ValidateCheckIn_concurrent(t *testing.T) {
	now := time.Now()
	svc, db, repos, spy := setup(t, now, defaultOpts)
	ctx := context.Background()

	mbr := testutil.CreateMember(t, repos.Members, "member@njit.edu", 0, "")
	ev := testutil.CreateEvent(t, repos.Events, "GBM", now.Add(-time.Minute), time.Hour, 25, false)
	tok, err := checkin.NewSigner("secret", "SHPE", "shpe").Sign(ev.ID, now.Add(time.Minute))
	require.NoError(t, err)

	const attempts = 8
	results := make([]checkin.Result, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ValidateCheckIn(ctx, mbr.ID, tok.Token)
		}(i)
	}
	wg.Wait()

	var created int
	for i := range results {
		require.NoError(t, errs[i])
		if !results[i].AlreadyCheckedIn {
			created++
			assert.Equal(t, 25, results[i].PointsAwarded)
		} else {
			assert.Zero(t, results[i].PointsAwarded)
		}
		assert.Equal(t, 25, results[i].Balance)
	}
	assert.Equal(t, 1, created)
	assert.Len(t, spy.results, 1)

	var rows, ledger int
	require.NoError(t, db.GetContext(ctx, &rows, "SELECT COUNT(*) FROM event_attendance WHERE event_id = ?", ev.ID))
	require.NoError(t, db.GetContext(ctx, &ledger, "SELECT COUNT(*) FROM points_ledger WHERE member_id = ?", mbr.ID))
	assert.Equal(t, 1, rows)
	assert.Equal(t, 1, ledger)
}

func TestService_ValidateCheckIn_noPoints(t *testing.T) {
	now := time.Now()
	svc, db, repos, spy := setup(t, now, defaultOpts)
	ctx := context.Background()

	mbr := testutil.CreateMember(t, repos.Members, "member@njit.edu", 49, "")
	ev := testutil.CreateEvent(t, repos.Events, "Social", now, time.Hour, 0, false)
	tok, err := checkin.NewSigner("secret", "SHPE", "shpe").Sign(ev.ID, now.Add(time.Minute))
	require.NoError(t, err)

	res, err := svc.ValidateCheckIn(ctx, mbr.ID, tok.Token)
	require.NoError(t, err)
	assert.False(t, res.AlreadyCheckedIn)
	assert.Zero(t, res.PointsAwarded)
	assert.Equal(t, 49, res.Balance)
	assert.False(t, res.RankedUp)
	assert.Equal(t, "Bronze", res.Tier.Name)
	require.Len(t, spy.results, 1)

	var ledger int
	require.NoError(t, db.GetContext(ctx, &ledger, "SELECT COUNT(*) FROM points_ledger"))
	assert.Zero(t, ledger)
}

func TestService_CreateEvent(t *testing.T) {
	now := time.Now()
	svc, _, _, _ := setup(t, now, defaultOpts)
	validate := testutil.NewValidator()

	_, err := svc.CreateEvent(context.Background(), checkin.NewEvent{Name: "GBM", StartsAt: now, EndsAt: now.Add(-time.Hour)}, validate)
	assert.Error(t, err)

	ev, err := svc.CreateEvent(context.Background(), checkin.NewEvent{
		Name:     "  GBM ",
		StartsAt: now,
		EndsAt:   now.Add(time.Hour),
		Points:   10,
	}, validate)
	require.NoError(t, err)
	assert.Equal(t, "GBM", ev.Name)
	assert.NotEmpty(t, ev.ID)
}
