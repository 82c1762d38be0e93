package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njitshpe/shpe-app-sub007/core/notification"
	"github.com/njitshpe/shpe-app-sub007/tests"
)

func TestNotificationRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := testutil.NewRepos(db)
	ctx := context.Background()

	mbr := testutil.CreateMember(t, repos.Members, "member@njit.edu", 0, "")
	other := testutil.CreateMember(t, repos.Members, "other@njit.edu", 0, "")

	now := time.Now().UTC().Truncate(time.Second)
	ns := []notification.Notification{
		{ID: uuid.New().String(), MemberID: mbr.ID, Kind: notification.KindNewEvent, Title: "older", Body: "b", CreatedAt: now.Add(-time.Minute)},
		{ID: uuid.New().String(), MemberID: mbr.ID, Kind: notification.KindCheckIn, Title: "newer", Body: "b", Data: `{"event_id":"1"}`, CreatedAt: now},
		{ID: uuid.New().String(), MemberID: other.ID, Kind: notification.KindCheckIn, Title: "other", Body: "b", CreatedAt: now},
	}
	require.NoError(t, repos.Notifications.CreateNotifications(ctx, ns))
	require.NoError(t, repos.Notifications.CreateNotifications(ctx, nil))

	got, err := repos.Notifications.QueryNotifications(ctx, mbr.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].Title)
	assert.Equal(t, map[string]string{"event_id": "1"}, got[0].DataMap())
	assert.Equal(t, map[string]string{}, got[1].DataMap())
	assert.False(t, got[1].ReadAt.Valid)

	got, err = repos.Notifications.QueryNotifications(ctx, mbr.ID, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
