package schemas

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/summarybot/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleUser() models.User {
	u := models.User{Username: "ada", Email: ptr("ada@example.com"), IsActive: true}
	u.ID = 3
	u.CreatedAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	u.LastModified = u.CreatedAt.Add(time.Hour)
	return u
}

func TestMapOne(t *testing.T) {
	t.Run("user", func(t *testing.T) {
		u := sampleUser()
		got, err := MapOne[GetUser](&u)
		require.NoError(t, err)

		assert.Equal(t, int64(3), got.ID)
		assert.Equal(t, "ada", got.Username)
		assert.Equal(t, u.Email, got.Email)
		assert.Nil(t, got.FullName)
		assert.True(t, got.IsActive)
		assert.Equal(t, u.CreatedAt, got.CreatedAt)
		assert.Equal(t, u.LastModified, got.LastModified)
	})

	t.Run("session with nested user", func(t *testing.T) {
		u := sampleUser()
		s := models.Session{UserID: u.ID, User: &u, RefreshUUID: uuid.New(), RefreshExp: time.Now().UTC()}
		s.ID = uuid.New()

		got, err := MapOne[GetSession](&s)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, s.RefreshUUID, got.RefreshUUID)
		require.NotNil(t, got.User)
		assert.Equal(t, "ada", got.User.Username)
		assert.Equal(t, int64(3), got.User.ID)
	})

	t.Run("session without user", func(t *testing.T) {
		s := models.Session{UserID: 1}
		got, err := MapOne[GetSession](&s)
		require.NoError(t, err)
		assert.Nil(t, got.User)
	})

	t.Run("schedule", func(t *testing.T) {
		start := models.UnixSeconds(1700000000)
		s := models.Schedule{Title: "standup", StartTime: start, UserID: ptr(int64(3))}
		s.ID = 11

		got, err := MapOne[GetSchedule](&s)
		require.NoError(t, err)
		assert.Equal(t, int32(11), got.ID)
		assert.Equal(t, "standup", got.Title)
		assert.Equal(t, start.Unix(), got.StartTime.Unix())
		assert.True(t, got.StopTime.IsZero())
		assert.Equal(t, int64(3), *got.UserID)
	})

	t.Run("nil", func(t *testing.T) {
		_, err := MapOne[GetUser, models.User](nil)
		assert.True(t, errors.Is(err, ErrNilEntity))
	})
}

func TestMapMany(t *testing.T) {
	a, b := sampleUser(), sampleUser()
	b.ID, b.Username = 4, "grace"

	got, err := MapMany[GetUser]([]models.User{a, b})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ada", got[0].Username)
	assert.Equal(t, "grace", got[1].Username)

	empty, err := MapMany[GetUser]([]models.User(nil))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestDump(t *testing.T) {
	t.Run("exclude none", func(t *testing.T) {
		got, err := Dump(CreateUser{Username: "ada", FullName: ptr("Ada L"), IsActive: true}, true)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"username":  "ada",
			"full_name": "Ada L",
			"is_active": true,
		}, got)
	})

	t.Run("keep none", func(t *testing.T) {
		got, err := Dump(&PatchableUser{IsActive: ptr(false)}, false)
		require.NoError(t, err)
		assert.Equal(t, false, got["is_active"])
		assert.Contains(t, got, "email")
		assert.Nil(t, got["email"])
	})

	t.Run("embedded", func(t *testing.T) {
		c := CreateSchedule{Title: "t", StartStop: StartStop{StartTime: models.UnixSeconds(10)}}
		got, err := Dump(c, true)
		require.NoError(t, err)
		assert.Equal(t, "t", got["title"])
		assert.Equal(t, models.UnixSeconds(10), got["start_time"])
		assert.NotContains(t, got, "user_id")
	})

	t.Run("map", func(t *testing.T) {
		got, err := Dump(map[string]any{"title": "x", "note": (*string)(nil)}, true)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "x"}, got)
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewCreateUser("ada").Validate())
	assert.ErrorIs(t, CreateUser{Username: "  "}.Validate(), ErrInvalidPayload)
	assert.ErrorIs(t, PatchableUser{Username: ptr("")}.Validate(), ErrInvalidPayload)
	assert.NoError(t, PatchableUser{}.Validate())

	window := CreateSchedule{Title: "t", StartStop: StartStop{StartTime: models.UnixSeconds(20), StopTime: models.UnixSeconds(10)}}
	assert.ErrorIs(t, window.Validate(), ErrInvalidPayload)

	patch := PatchableSchedule{StartTime: ptr(models.UnixSeconds(1)), StopTime: ptr(models.UnixSeconds(2))}
	assert.NoError(t, patch.Validate())
}

func TestScheduleJSON(t *testing.T) {
	s := GetSchedule{Title: "t", StartStop: StartStop{StartTime: models.UnixSeconds(1700000000)}}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2023-11-14T22:13:20Z", raw["start_time"])
	assert.Equal(t, float64(0), raw["stop_time"])
}

func TestDateBounds(t *testing.T) {
	assert.Empty(t, DateBounds{}.Headers())

	lo := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hi := lo.Add(48 * time.Hour)
	h := DateBounds{Min: &lo, Max: &hi}.Headers()
	assert.Equal(t, "2024-01-01T00:00:00Z", h[MinDateBoundHeader])
	assert.Equal(t, "2024-01-03T00:00:00Z", h[MaxDateBoundHeader])
}
