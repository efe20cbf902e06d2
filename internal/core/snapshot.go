package core

import (
	"cloudbox/internal/models"
)

// Snapshot returns a timestamped, grouped view of username's visible
// files. Issuing it twice without an intervening mutation yields an
// identical result; the timestamp strictly increases across any
// observable mutation of the user's tree, owned or shared-in.
func (s *Service) Snapshot(username string) (models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return models.Snapshot{}, ErrNotFound
	}

	groups := make(map[string]map[string]models.FileState)
	for p, e := range user.Paths {
		if p == "" || e.IsDir {
			continue
		}
		top := topSegment(p)
		group, ok := groups[top]
		if !ok {
			group = make(map[string]models.FileState)
			groups[top] = group
		}
		group[p] = models.FileState{MD5: e.MD5, Timestamp: e.Timestamp}
	}
	return models.Snapshot{Timestamp: user.Timestamp, Groups: groups}, nil
}
