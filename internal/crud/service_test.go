package crud

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/summarybot/internal/models"
	"github.com/desertthunder/summarybot/internal/schemas"
	th "github.com/desertthunder/summarybot/internal/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

func TestSessions(t *testing.T) {
	users, err := NewUsers(quiet())
	require.NoError(t, err)
	sessions, err := NewSessions(time.Hour, quiet())
	require.NoError(t, err)
	assert.True(t, sessions.HasCustomSelect())

	_, s := th.NewTestSession(t)
	now := time.Now().UTC().Truncate(time.Second)
	sessions.now = func() time.Time { return now }

	ada, err := users.Create(s, schemas.NewCreateUser("ada"))
	require.NoError(t, err)
	grace, err := users.Create(s, schemas.CreateUser{Username: "grace"})
	require.NoError(t, err)

	t.Run("inactive user", func(t *testing.T) {
		_, err := sessions.Open(s, grace)
		assert.ErrorIs(t, err, ErrUserInactive)
	})

	t.Run("open", func(t *testing.T) {
		got, err := sessions.Open(s, ada)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, got.ID)
		assert.NotEqual(t, uuid.Nil, got.RefreshUUID)
		assert.True(t, got.RefreshExp.Equal(now.Add(time.Hour)))
		require.NotNil(t, got.User)
		assert.Equal(t, "ada", got.User.Username)
		assert.Equal(t, ada.ID, got.User.ID)

		found, err := sessions.ByRefresh(s, got.RefreshUUID)
		require.NoError(t, err)
		assert.Equal(t, got.ID, found.ID)
		require.NotNil(t, found.User)

		_, err = sessions.ByRefresh(s, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := sessions.CreateFromMap(s, map[string]any{
			"user_id":      ada.ID,
			"refresh_uuid": uuid.New(),
			"refresh_exp":  now.Add(-time.Hour),
		})
		require.NoError(t, err)

		n, err := sessions.Expired(s, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		left, err := sessions.GetCount(s, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), left)
	})

	t.Run("cascade on user delete", func(t *testing.T) {
		_, err := users.Delete(s, nil, Fields{"id": ada.ID})
		require.NoError(t, err)

		left, err := sessions.GetCount(s, nil, nil)
		require.NoError(t, err)
		assert.Zero(t, left)
	})
}

func TestSchedules(t *testing.T) {
	schedules, err := NewSchedules(quiet())
	require.NoError(t, err)
	_, s := th.NewTestSession(t)

	now := time.Now().Truncate(time.Second)
	create := func(title string, start, stop time.Time) *models.Schedule {
		t.Helper()
		in := schemas.CreateSchedule{Title: title}
		in.StartTime = models.NewUnixTime(start)
		in.StopTime = models.NewUnixTime(stop)
		m, err := schedules.Create(s, in)
		require.NoError(t, err)
		return m
	}

	t.Run("bounds of empty table", func(t *testing.T) {
		b, err := schedules.Bounds(s, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, b.Min)
		assert.Nil(t, b.Max)
		assert.Empty(t, b.Headers())
	})

	open := create("open", time.Time{}, time.Time{})
	current := create("current", now.Add(-time.Hour), now.Add(time.Hour))
	create("past", now.Add(-2*time.Hour), now.Add(-time.Hour))
	create("future", now.Add(time.Hour), time.Time{})

	t.Run("active", func(t *testing.T) {
		order, err := schedules.OrderBy("id")
		require.NoError(t, err)

		got, err := schedules.Active(s, now, ListQuery{Order: []clause.OrderByColumn{order}})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, open.ID, got[0].ID)
		assert.Equal(t, current.ID, got[1].ID)
		assert.True(t, got[0].StartTime.IsZero())
		assert.Equal(t, now.Unix(), got[1].StopTime.Add(-time.Hour).Unix())
	})

	t.Run("active narrowed", func(t *testing.T) {
		got, err := schedules.Active(s, now, ListQuery{Fields: Fields{"title": "current"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "current", got[0].Title)
	})

	t.Run("patch", func(t *testing.T) {
		n, err := schedules.Patch(s, open.ID, schemas.PatchableSchedule{Note: th.Ptr("always")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := schedules.GetOne(s, nil, Fields{"id": open.ID})
		require.NoError(t, err)
		assert.Equal(t, "always", *got.Note)
		assert.Equal(t, "open", got.Title)
	})

	t.Run("bounds", func(t *testing.T) {
		b, err := schedules.Bounds(s, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, b.Min)
		require.NotNil(t, b.Max)
		assert.False(t, b.Max.Before(*b.Min))
		assert.Len(t, b.Headers(), 2)

		b, err = schedules.Bounds(s, nil, Fields{"title": "nothing"})
		require.NoError(t, err)
		assert.Nil(t, b.Min)
	})

	t.Run("not bounded", func(t *testing.T) {
		users, err := NewUsers(quiet())
		require.NoError(t, err)
		_, err = users.Bounds(s, nil, nil)
		assert.ErrorIs(t, err, ErrNotBounded)
	})
}

func TestIsIntegrityViolation(t *testing.T) {
	assert.False(t, IsIntegrityViolation(nil))
	assert.False(t, IsIntegrityViolation(errors.New("boom")))
	assert.False(t, IsIntegrityViolation(ErrNotFound))

	schedules, err := NewSchedules(quiet())
	require.NoError(t, err)
	_, s := th.NewTestSession(t)

	_, err = schedules.Create(s, schemas.CreateSchedule{Title: "orphan", UserID: th.Ptr(int64(404))})
	require.Error(t, err)
	assert.True(t, IsIntegrityViolation(err), "foreign key")
}
