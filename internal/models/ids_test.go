package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDListCoercesAndDrops(t *testing.T) {
	var ids IDList
	err := json.Unmarshal([]byte(`[2, "3", " 4 ", "abc", null, true, 2.5, 5.0, -1, 0, 3]`), &ids)
	require.NoError(t, err)
	require.Equal(t, IDList{2, 3, 4, 5}, ids)
}

func TestIDListRejectsNonArray(t *testing.T) {
	var ids IDList
	require.Error(t, json.Unmarshal([]byte(`{"a":1}`), &ids))
}

func TestIDListWithout(t *testing.T) {
	ids := IDList{1, 2, 3}
	require.Equal(t, IDList{2, 3}, ids.Without(1))
	require.Empty(t, IDList{7}.Without(7))
}

func TestFlexibleID(t *testing.T) {
	var req SendMessageRequest
	require.NoError(t, json.Unmarshal([]byte(`{"groupId":"12","message":{"content":"hi","type":"text"}}`), &req))
	require.Equal(t, FlexibleID(12), req.GroupID)

	require.NoError(t, json.Unmarshal([]byte(`{"groupId":7}`), &req))
	require.Equal(t, FlexibleID(7), req.GroupID)

	require.Error(t, json.Unmarshal([]byte(`{"groupId":"x"}`), &req))
}

func TestIDListUnique(t *testing.T) {
	require.Equal(t, IDList{3, 1, 2}, IDList{3, 1, 3, 2, 1}.Unique())
	require.Empty(t, IDList(nil).Unique())
}
