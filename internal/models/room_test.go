package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoom(t *testing.T) {
	cases := []struct {
		key     string
		groupID int
		userID  int
		ok      bool
	}{
		{"12", 12, 0, true},
		{"user_5", 0, 5, true},
		{"user_", 0, 0, false},
		{"user_x", 0, 0, false},
		{"lobby", 0, 0, false},
		{"0", 0, 0, false},
	}
	for _, tc := range cases {
		g, u, ok := ParseRoom(tc.key)
		require.Equal(t, tc.ok, ok, tc.key)
		require.Equal(t, tc.groupID, g, tc.key)
		require.Equal(t, tc.userID, u, tc.key)
	}
}

func TestRoomKeyHelpers(t *testing.T) {
	require.Equal(t, "9", GroupRoom(9))
	require.Equal(t, "user_9", UserRoom(9))
}

func TestRoomKeyDecode(t *testing.T) {
	key, ok := RoomKey(json.RawMessage(`"user_3"`))
	require.True(t, ok)
	require.Equal(t, "user_3", key)

	key, ok = RoomKey(json.RawMessage(`42`))
	require.True(t, ok)
	require.Equal(t, "42", key)

	_, ok = RoomKey(json.RawMessage(`{}`))
	require.False(t, ok)
}

func TestFullName(t *testing.T) {
	require.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	require.Equal(t, "Ada", User{FirstName: " Ada ", LastName: ""}.FullName())
	require.Equal(t, "", User{}.FullName())
}
