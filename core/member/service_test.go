package member_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njitshpe/shpe-app-sub007/core/member"
	"github.com/njitshpe/shpe-app-sub007/tests"
)

func TestService_RegisterPushToken(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := testutil.NewRepos(db)
	svc := member.NewService(repos.Members)
	validate := testutil.NewValidator()
	ctx := context.Background()

	mbr := testutil.CreateMember(t, repos.Members, "member@njit.edu", 0, "")

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "random string", token: "abc", wantErr: true},
		{name: "missing brackets", token: "ExponentPushToken", wantErr: true},
		{name: "empty brackets", token: "ExponentPushToken[]", wantErr: true},
		{name: "whitespace inside", token: "ExponentPushToken[ab cd]", wantErr: true},
		{name: "exponent", token: "ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]"},
		{name: "expo", token: "ExpoPushToken[xxxxxxxxxxxxxxxxxxxxxx]"},
		{name: "padded", token: "  ExpoPushToken[yyyy]  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.RegisterPushToken(ctx, mbr.ID, member.PushTokenUpdate{PushToken: tt.token}, validate)
			if tt.wantErr {
				var vErrs validator.ValidationErrors
				assert.ErrorAs(t, err, &vErrs)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.HasPushToken())
		})
	}
}

func TestService_RegisterPushToken_unknownMember(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := testutil.NewRepos(db)
	svc := member.NewService(repos.Members)
	ctx := context.Background()

	const device = "ExpoPushToken[shared-device]"
	owner := testutil.CreateMember(t, repos.Members, "owner@njit.edu", 0, device)

	_, err := svc.RegisterPushToken(ctx, "no-such-member", member.PushTokenUpdate{PushToken: device}, testutil.NewValidator())
	assert.Equal(t, member.ErrNotFound, err)

	got, err := repos.Members.GetMember(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, device, got.PushToken.String, "the device must stay with its owner")
}

func TestService_RegisterPushToken_movesDevice(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := testutil.NewRepos(db)
	svc := member.NewService(repos.Members)
	ctx := context.Background()

	const device = "ExpoPushToken[shared-device]"
	previous := testutil.CreateMember(t, repos.Members, "previous@njit.edu", 0, device)
	current := testutil.CreateMember(t, repos.Members, "current@njit.edu", 0, "")

	got, err := svc.RegisterPushToken(ctx, current.ID, member.PushTokenUpdate{PushToken: device}, testutil.NewValidator())
	require.NoError(t, err)
	assert.Equal(t, device, got.PushToken.String)

	prev, err := repos.Members.GetMember(ctx, previous.ID)
	require.NoError(t, err)
	assert.False(t, prev.PushToken.Valid)
}

func TestService_Leaderboard(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := testutil.NewRepos(db)
	svc := member.NewService(repos.Members)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < member.MaxLeaderboardLimit+5; i++ {
		testutil.CreateMember(t, repos.Members, "m@njit.edu", i%7, "", now.Add(time.Duration(i)*time.Second))
	}

	entries, err := svc.Leaderboard(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, member.DefaultLeaderboardLimit)
	assert.Equal(t, 1, entries[0].Position)

	entries, err = svc.Leaderboard(ctx, 1000, -3)
	require.NoError(t, err)
	assert.Len(t, entries, member.MaxLeaderboardLimit)

	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Points, entries[i].Points)
		assert.LessOrEqual(t, entries[i-1].Position, entries[i].Position)
	}
}

func TestService_AwardPoints(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := testutil.NewRepos(db)
	svc := member.NewService(repos.Members)
	ctx := context.Background()

	mbr := testutil.CreateMember(t, repos.Members, "member@njit.edu", 10, "")
	got, err := svc.AwardPoints(ctx, mbr.ID, "", 5, "bonus")
	require.NoError(t, err)
	assert.Equal(t, 15, got.Points)

	prof, err := svc.Profile(ctx, mbr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, prof.Rank)
	assert.Equal(t, 15, prof.Points)

	_, err = svc.Profile(ctx, "nope")
	assert.Equal(t, member.ErrNotFound, err)
}
