package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// IDList is a batch of user ids decoded leniently from JSON: numbers and
// numeric strings are kept, anything else is dropped. Duplicates are removed
// while preserving first-seen order.
type IDList []int

func (l *IDList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	seen := make(map[int]struct{}, len(raw))
	out := make(IDList, 0, len(raw))
	for _, item := range raw {
		id, ok := coerceID(item)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	*l = out
	return nil
}

// Without returns the ids not equal to exclude.
func (l IDList) Without(exclude int) IDList {
	out := make(IDList, 0, len(l))
	for _, id := range l {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

// Unique drops repeated ids, keeping first-seen order.
func (l IDList) Unique() IDList {
	seen := make(map[int]struct{}, len(l))
	out := make(IDList, 0, len(l))
	for _, id := range l {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Ints converts the list to a plain slice.
func (l IDList) Ints() []int {
	return append([]int(nil), l...)
}

func coerceID(b []byte) (int, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, false
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(b)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f <= 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
