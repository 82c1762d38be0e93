package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njitshpe/shpe-app-sub007/core/member"
	"github.com/njitshpe/shpe-app-sub007/tests"
)

func Test_memberApi_profile(t *testing.T) {
	env := setup(t)

	now := time.Now()
	testutil.CreateMember(t, env.repos.Members, "top@njit.edu", 320, "", now)
	mbr := testutil.CreateMember(t, env.repos.Members, "member@njit.edu", 100, "", now.Add(time.Minute))
	testutil.CreateMember(t, env.repos.Members, "low@njit.edu", 5, "", now.Add(2*time.Minute))

	req, rec := newRequest(http.MethodGet, "/v1/me")
	env.serve(req, rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/me", env.getToken(mbr))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var prof member.Profile
	unmarchallObj(t, rec.Body.Bytes(), &prof)
	assert.Equal(t, mbr.ID, prof.ID)
	assert.Equal(t, 2, prof.Rank)
	assert.Equal(t, "Silver", prof.Progress.Tier.Name)
	require.NotNil(t, prof.Progress.NextTier)
	assert.Equal(t, "Gold", prof.Progress.NextTier.Name)
	assert.Equal(t, 50, prof.Progress.PointsToNext)
	assert.Equal(t, 50.0, prof.Progress.Percent)
	assert.NotContains(t, rec.Body.String(), "push_token")
}

func Test_memberApi_registerPushToken(t *testing.T) {
	env := setup(t)

	mbr := testutil.CreateMember(t, env.repos.Members, "member@njit.edu", 0, "")
	other := testutil.CreateMember(t, env.repos.Members, "other@njit.edu", 0, testPushToken)
	token := env.getToken(mbr)

	tests := []httpTest{
		{
			name:     "invalid token",
			method:   http.MethodPut,
			path:     "/v1/me/push-token",
			body:     []byte(`{"push_token":"not-a-token"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"push_token":"invalid push token"}`),
		},
		{
			name:     "register",
			method:   http.MethodPut,
			path:     "/v1/me/push-token",
			body:     []byte(`{"push_token":"` + testPushToken + `"}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"registered":true,"notifications_enabled":true}`),
		},
		{
			name:     "opt out",
			method:   http.MethodPut,
			path:     "/v1/me/push-token",
			body:     []byte(`{"push_token":"` + testPushToken + `","notifications_enabled":false}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"registered":true,"notifications_enabled":false}`),
		},
		{
			name:     "unregister",
			method:   http.MethodPut,
			path:     "/v1/me/push-token",
			body:     []byte(`{"push_token":""}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"registered":false,"notifications_enabled":false}`),
		},
	}
	env.run(t, tests)

	// the device moved from other to mbr
	got, err := env.repos.Members.GetMember(t.Context(), other.ID)
	require.NoError(t, err)
	assert.False(t, got.PushToken.Valid)
}

func Test_memberApi_leaderboard(t *testing.T) {
	env := setup(t)

	now := time.Now()
	a := testutil.CreateMember(t, env.repos.Members, "a@njit.edu", 200, "", now)
	b := testutil.CreateMember(t, env.repos.Members, "b@njit.edu", 60, "", now.Add(time.Minute))
	c := testutil.CreateMember(t, env.repos.Members, "c@njit.edu", 60, "", now.Add(2*time.Minute))
	d := testutil.CreateMember(t, env.repos.Members, "d@njit.edu", 10, "", now.Add(3*time.Minute))
	token := env.getToken(d)

	entry := func(m member.Member, pos int) member.LeaderboardEntry {
		return member.LeaderboardEntry{
			Position: pos,
			MemberID: m.ID,
			Name:     m.Name(),
			Points:   m.Points,
			Tier:     member.TierFor(m.Points),
		}
	}

	tests := []httpTest{
		{
			name:     "all",
			method:   http.MethodGet,
			path:     "/v1/leaderboard",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []member.LeaderboardEntry{entry(a, 1), entry(b, 2), entry(c, 2), entry(d, 4)}),
		},
		{
			name:     "page starting in a tie",
			method:   http.MethodGet,
			path:     "/v1/leaderboard?limit=2&offset=2",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []member.LeaderboardEntry{entry(c, 2), entry(d, 4)}),
		},
		{
			name:     "past the end",
			method:   http.MethodGet,
			path:     "/v1/leaderboard?offset=10",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	}
	env.run(t, tests)
}
