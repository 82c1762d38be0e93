package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njitshpe/shpe-app-sub007/apps/api/echo"
	"github.com/njitshpe/shpe-app-sub007/core/checkin"
	"github.com/njitshpe/shpe-app-sub007/core/member"
	"github.com/njitshpe/shpe-app-sub007/core/notification"
	"github.com/njitshpe/shpe-app-sub007/tests"
)

const (
	checkInPath   = "/functions/v1/validate-check-in"
	testPushToken = "ExponentPushToken[checkin-device]"
)

func checkInBody(t *testing.T, token string) []byte {
	return marchallObj(t, echoapi.CheckInRequest{Token: token})
}

func Test_checkInApi_validateCheckIn_errors(t *testing.T) {
	env := setup(t)

	mbr := testutil.CreateMember(t, env.repos.Members, "member@njit.edu", 0, "")
	ongoing := testutil.CreateEvent(t, env.repos.Events, "GBM", env.now.Add(-10*time.Minute), 2*time.Hour, 10, false)
	rsvpOnly := testutil.CreateEvent(t, env.repos.Events, "Company Tour", env.now.Add(-10*time.Minute), 2*time.Hour, 10, true)
	upcoming := testutil.CreateEvent(t, env.repos.Events, "Gala", env.now.Add(3*time.Hour), 2*time.Hour, 10, false)
	past := testutil.CreateEvent(t, env.repos.Events, "Kickoff", env.now.Add(-6*time.Hour), 2*time.Hour, 10, false)
	testutil.CreateRSVP(t, env.repos.Events, rsvpOnly.ID, mbr.ID, checkin.RSVPWaitlist)

	token := env.getToken(mbr)
	ghostToken := env.getToken(member.Member{ID: uuid.New().String(), Email: "ghost@njit.edu"})
	validFor := func(eventID string) string { return env.checkInToken(eventID, env.now.Add(10*time.Minute)) }

	tests := []httpTest{
		{
			name:     "no jwt",
			method:   http.MethodPost,
			path:     checkInPath,
			body:     checkInBody(t, validFor(ongoing.ID)),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "missing token",
			method:   http.MethodPost,
			path:     checkInPath,
			body:     []byte(`{}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"token":"this field is required"}`),
		},
		{
			name:     "malformed token",
			method:   http.MethodPost,
			path:     checkInPath,
			body:     checkInBody(t, "not.a.token"),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: checkin.ErrInvalidToken.Error()}),
		},
		{
			name:     "expired token",
			method:   http.MethodPost,
			path:     checkInPath,
			body:     checkInBody(t, env.checkInToken(ongoing.ID, env.now.Add(-time.Minute))),
			token:    token,
			wantCode: http.StatusGone,
			wantData: marchallObj(t, httpErr{Error: checkin.ErrTokenExpired.Error()}),
		},
		{
			name:     "unknown event",
			method:   http.MethodPost,
			path:     checkInPath,
			body:     checkInBody(t, validFor(uuid.New().String())),
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: checkin.ErrEventNotFound.Error()}),
		},
		{
			name:     "not open yet",
			method:   http.MethodPost,
			path:     checkInPath,
			body:     checkInBody(t, validFor(upcoming.ID)),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: checkin.ErrCheckInNotOpen.Error()}),
		},
		{
			name:     "closed",
			method:   http.MethodPost,
			path:     checkInPath,
			body:     checkInBody(t, validFor(past.ID)),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: checkin.ErrCheckInClosed.Error()}),
		},
		{
			name:     "no profile",
			method:   http.MethodPost,
			path:     checkInPath,
			body:     checkInBody(t, validFor(ongoing.ID)),
			token:    ghostToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: member.ErrNotFound.Error()}),
		},
		{
			name:     "rsvp required",
			method:   http.MethodPost,
			path:     checkInPath,
			body:     checkInBody(t, validFor(rsvpOnly.ID)),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: checkin.ErrRSVPRequired.Error()}),
		},
	}
	env.run(t, tests)

	var count int
	require.NoError(t, env.db.GetContext(context.Background(), &count, "SELECT COUNT(*) FROM event_attendance"))
	assert.Zero(t, count)
}

func Test_checkInApi_validateCheckIn(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	mbr := testutil.CreateMember(t, env.repos.Members, "member@njit.edu", 40, testPushToken)
	ev := testutil.CreateEvent(t, env.repos.Events, "Resume Workshop", env.now.Add(-10*time.Minute), time.Hour, 15, true)
	testutil.CreateRSVP(t, env.repos.Events, ev.ID, mbr.ID, checkin.RSVPGoing)
	token := env.getToken(mbr)

	// the QR deep link is accepted as is
	tok, err := env.signer.Sign(ev.ID, env.now.Add(10*time.Minute))
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodPost, checkInPath, token, checkInBody(t, tok.QRPayload))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res checkin.Result
	unmarchallObj(t, rec.Body.Bytes(), &res)
	assert.False(t, res.AlreadyCheckedIn)
	assert.Equal(t, 15, res.PointsAwarded)
	assert.Equal(t, 55, res.Balance)
	assert.Equal(t, "Silver", res.Tier.Name)
	assert.True(t, res.RankedUp)
	assert.Equal(t, ev.ID, res.Attendance.EventID)
	assert.Equal(t, mbr.ID, res.Attendance.MemberID)

	// check-in & rank-up notifications were pushed and stored
	sent := env.pusher.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, testPushToken, sent[0].To)
	assert.Equal(t, string(notification.KindCheckIn), sent[0].Data["type"])
	assert.Equal(t, "You reached Silver!", sent[1].Title)
	feed, err := env.repos.Notifications.QueryNotifications(ctx, mbr.ID, 10)
	require.NoError(t, err)
	assert.Len(t, feed, 2)

	// checking in again is idempotent
	req, rec = newAuthRequest(http.MethodPost, checkInPath, token, checkInBody(t, tok.Token))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var again checkin.Result
	unmarchallObj(t, rec.Body.Bytes(), &again)
	assert.True(t, again.AlreadyCheckedIn)
	assert.Zero(t, again.PointsAwarded)
	assert.Equal(t, 55, again.Balance)
	assert.Equal(t, res.Attendance.ID, again.Attendance.ID)
	assert.Len(t, env.pusher.Sent(), 2)

	got, err := env.repos.Members.GetMember(ctx, mbr.ID)
	require.NoError(t, err)
	assert.Equal(t, 55, got.Points)

	var ledger int
	require.NoError(t, env.db.GetContext(ctx, &ledger, "SELECT COUNT(*) FROM points_ledger WHERE member_id = ?", mbr.ID))
	assert.Equal(t, 1, ledger)
}

func Test_checkInApi_issueToken(t *testing.T) {
	env := setup(t)

	mbr := testutil.CreateMember(t, env.repos.Members, "member@njit.edu", 0, "")
	officer := testutil.CreateMember(t, env.repos.Members, "officer@njit.edu", 0, "")
	ev := testutil.CreateEvent(t, env.repos.Events, "GBM", env.now.Add(-10*time.Minute), time.Hour, 10, false)
	ended := testutil.CreateEvent(t, env.repos.Events, "Kickoff", env.now.Add(-6*time.Hour), time.Hour, 10, false)

	path := func(id string) string { return "/v1/events/" + id + "/check-in-token" }

	tests := []httpTest{
		{name: "no jwt", method: http.MethodPost, path: path(ev.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name:     "not an officer",
			method:   http.MethodPost,
			path:     path(ev.ID),
			token:    env.getToken(mbr),
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error":"permission denied"}`),
		},
		{
			name:     "unknown event",
			method:   http.MethodPost,
			path:     path(uuid.New().String()),
			token:    env.getToken(officer, echoapi.RoleOfficer),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: checkin.ErrEventNotFound.Error()}),
		},
		{
			name:     "ended event",
			method:   http.MethodPost,
			path:     path(ended.ID),
			token:    env.getToken(officer, echoapi.RoleOfficer),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: checkin.ErrCheckInClosed.Error()}),
		},
	}
	env.run(t, tests)

	req, rec := newAuthRequest(http.MethodPost, path(ev.ID), env.getToken(officer, echoapi.RoleOfficer))
	env.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tok checkin.Token
	unmarchallObj(t, rec.Body.Bytes(), &tok)
	assert.Equal(t, ev.ID, tok.EventID)
	assert.Contains(t, tok.QRPayload, "shpe://check-in?token=")
	assert.WithinDuration(t, env.now.Add(env.conf.CheckIn.TokenTTL), tok.ExpiresAt, time.Second)

	claims, err := env.signer.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, claims.EventID)
}

func Test_checkInApi_createEvent(t *testing.T) {
	env := setup(t)

	officer := testutil.CreateMember(t, env.repos.Members, "officer@njit.edu", 0, "")
	token := env.getToken(officer, echoapi.RoleAdmin)
	startsAt := env.now.Add(24 * time.Hour).UTC().Truncate(time.Second)

	invalid := marchallObj(t, checkin.NewEvent{Name: "  ", StartsAt: startsAt, EndsAt: startsAt.Add(-time.Hour)})
	req, rec := newAuthRequest(http.MethodPost, "/v1/events", token, invalid)
	env.serve(req, rec)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var fldErrs map[string]string
	unmarchallObj(t, rec.Body.Bytes(), &fldErrs)
	assert.Equal(t, "this field is required", fldErrs["name"])
	assert.Contains(t, fldErrs, "ends_at")

	req, rec = newAuthRequest(http.MethodPost, "/v1/events", env.getToken(officer), invalid)
	env.serve(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := marchallObj(t, checkin.NewEvent{Name: "Resume Workshop", Location: "GITC 1400", StartsAt: startsAt, EndsAt: startsAt.Add(time.Hour), Points: 10})
	req, rec = newAuthRequest(http.MethodPost, "/v1/events", token, body)
	env.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ev checkin.Event
	unmarchallObj(t, rec.Body.Bytes(), &ev)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "Resume Workshop", ev.Name)
	assert.True(t, ev.StartsAt.Equal(startsAt))

	req, rec = newAuthRequest(http.MethodGet, "/v1/events/"+ev.ID, token)
	env.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
}
