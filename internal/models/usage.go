package models

import "sort"

// UsageSnapshot is a read-only copy of the message counters.
// Messages always equals the sum of Users.
type UsageSnapshot struct {
	Users    map[int64]int64
	Messages int64
}

type UserUsage struct {
	UserID   int64
	Messages int64
}

func (s UsageSnapshot) DistinctUsers() int {
	return len(s.Users)
}

// Sorted returns per-user counts ordered by user id.
func (s UsageSnapshot) Sorted() []UserUsage {
	out := make([]UserUsage, 0, len(s.Users))
	for id, n := range s.Users {
		out = append(out, UserUsage{UserID: id, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// UsageFile is the on-disk layout of the stats file.
type UsageFile struct {
	Users    map[string]int64 `json:"users"`
	Messages int64            `json:"messages"`
}
