package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableName(t *testing.T) {
	tc := []struct {
		name string
		want string
	}{
		{name: "User", want: "mats_user"},
		{name: "UserSession", want: "mats_user_session"},
		{name: "HTTPServer", want: "mats_http_server"},
		{name: "ScheduleV2", want: "mats_schedule_v2"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TableName(tt.name))
		})
	}

	assert.Equal(t, "mats_user", User{}.TableName())
	assert.Equal(t, "mats_session", Session{}.TableName())
	assert.Equal(t, "mats_schedule", Schedule{}.TableName())
}

func TestIDColumn(t *testing.T) {
	got, err := IDColumn("User.id")
	require.NoError(t, err)
	assert.Equal(t, "mats_user.id", got)

	for _, bad := range []string{"User", "User.id.x", ".id", "User."} {
		_, err := IDColumn(bad)
		assert.Error(t, err, bad)
	}
}

func TestOrderFields(t *testing.T) {
	var _ Model = User{}
	var _ Model = Session{}
	var _ Model = Schedule{}
	var _ Bounded = Schedule{}

	assert.Equal(t, []string{"id", "created_at", "last_modified"}, User{}.OrderFields())
	assert.Equal(t, []string{"desc_id"}, User{}.DefaultOrderFields())

	assert.Equal(t, []string{"created_at"}, Session{}.OrderFields())
	assert.Equal(t, []string{"desc_created_at"}, Session{}.DefaultOrderFields())

	assert.Equal(t, []string{"created_at", "last_modified", "id"}, Schedule{}.OrderFields())
	assert.Equal(t, []string{"desc_created_at"}, Schedule{}.DefaultOrderFields())

	assert.Equal(t, "id", Session{}.PKName())
}

func TestAsMapFromMap(t *testing.T) {
	email := "ada@example.com"
	u := User{Username: "ada", Email: &email, IsActive: true}
	u.ID = 7

	values, err := AsMap(&u, "created_at", "last_modified")
	require.NoError(t, err)
	assert.Equal(t, int64(7), values["id"])
	assert.Equal(t, "ada", values["username"])
	assert.Equal(t, true, values["is_active"])
	assert.NotContains(t, values, "created_at")
	assert.NotContains(t, values, "last_modified")

	back, err := FromMap[User](map[string]any{
		"username": "ada",
		"Email":    email,
		"unknown":  "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada", back.Username)
	require.NotNil(t, back.Email)
	assert.Equal(t, email, *back.Email)
}

func TestUUIDPK(t *testing.T) {
	var s Session
	require.NoError(t, s.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, s.ID)

	id := s.ID
	require.NoError(t, s.BeforeCreate(nil))
	assert.Equal(t, id, s.ID, "an assigned id is kept")
}

func TestUnixTime(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 15, 500, time.UTC)

	t.Run("value", func(t *testing.T) {
		v, err := NewUnixTime(at).Value()
		require.NoError(t, err)
		assert.Equal(t, at.Unix(), v)

		v, err = UnixTime{}.Value()
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("scan", func(t *testing.T) {
		for _, src := range []any{at.Unix(), float64(at.Unix()), "1709296215", []byte("2024-03-01T12:30:15Z"), at} {
			var u UnixTime
			require.NoError(t, u.Scan(src), "%T", src)
			assert.Equal(t, at.Unix(), u.Unix(), "%T", src)
		}

		var u UnixTime
		require.NoError(t, u.Scan(nil))
		assert.True(t, u.IsZero())
		assert.Error(t, u.Scan(struct{}{}))
	})

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(NewUnixTime(at))
		require.NoError(t, err)
		assert.JSONEq(t, `"2024-03-01T12:30:15Z"`, string(data))

		data, err = json.Marshal(UnixTime{})
		require.NoError(t, err)
		assert.Equal(t, "0", string(data))

		var u UnixTime
		require.NoError(t, json.Unmarshal([]byte("1709296215"), &u))
		assert.Equal(t, at.Unix(), u.Unix())

		require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T12:30:15Z"`), &u))
		assert.Equal(t, at.Unix(), u.Unix())
	})
}

func TestScheduleContains(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Schedule{StartTime: NewUnixTime(start), StopTime: NewUnixTime(start.Add(time.Hour))}

	assert.False(t, s.Contains(start.Add(-time.Second)))
	assert.True(t, s.Contains(start))
	assert.True(t, s.Contains(start.Add(59*time.Minute)))
	assert.False(t, s.Contains(start.Add(time.Hour)))

	open := Schedule{StartTime: NewUnixTime(start)}
	assert.True(t, open.Contains(start.Add(1000*time.Hour)))
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := Session{RefreshExp: now}
	assert.True(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(-time.Second)))
}
