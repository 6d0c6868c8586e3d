package chathub

import "github.com/samber/lo"

// Roster returns the distinct, non-empty usernames of all sessions in
// first-seen order. Several connections under one name count once.
func Roster(r *Registry) []string {
	names := lo.FilterMap(r.conns, func(c Client, _ int) (string, bool) {
		s, ok := r.sessions[c]
		return s.Username, ok && s.Username != ""
	})
	return lo.Uniq(names)
}
