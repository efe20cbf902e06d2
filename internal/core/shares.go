package core

import (
	"cloudbox/internal/models"
)

func shareKey(owner, path string) string {
	return owner + "/" + path
}

// CreateShare grants beneficiary read (or read-write) access to path and
// everything currently below it in owner's tree. Re-adding an existing
// beneficiary is a no-op. The access mode is fixed when the record is
// created; later grants on the same path inherit it.
func (s *Service) CreateShare(owner, rawPath, beneficiary string, writable bool) (int64, error) {
	p, err := NormalizePath(rawPath)
	if err != nil {
		return 0, err
	}
	if p == "" {
		return 0, ErrInvalidPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ownerUser, ok := s.users[owner]
	if !ok {
		return 0, ErrNotFound
	}
	entry, ok := ownerUser.Paths[p]
	if !ok {
		return 0, ErrNotFound
	}
	if entry.Kind == models.TargetSharedIn {
		// Only the owner of a resource can extend sharing on it.
		return 0, ErrForbidden
	}
	benUser, ok := s.users[beneficiary]
	if !ok || beneficiary == owner {
		return 0, ErrInvalidBeneficiary
	}

	key := shareKey(owner, p)
	rec, ok := s.shares[key]
	if !ok {
		rec = &models.ShareRecord{
			OwnerPath:    key,
			Participants: []string{owner},
			Writable:     writable,
		}
		s.shares[key] = rec
	}
	if rec.HasBeneficiary(beneficiary) {
		return ownerUser.Timestamp, nil
	}
	rec.Participants = append(rec.Participants, beneficiary)

	ts := s.stamp()
	for _, sub := range listUnder(ownerUser, p) {
		src := ownerUser.Paths[sub]
		benUser.Paths[shareRef(owner, sub)] = models.PathEntry{
			Kind:      models.TargetSharedIn,
			Target:    sub,
			Owner:     owner,
			IsDir:     src.IsDir,
			Writable:  rec.Writable,
			MD5:       src.MD5,
			Timestamp: ts,
		}
	}
	ownerUser.Timestamp = ts
	benUser.Timestamp = ts
	s.publishSync(map[string]bool{owner: true, beneficiary: true}, ts)
	return ts, nil
}

// RemoveBeneficiary revokes one user's access to a share. Revoking on a
// path that no longer resolves, or for a user who is not a beneficiary,
// is an error rather than a no-op. A record left with only the owner is
// deleted.
func (s *Service) RemoveBeneficiary(owner, rawPath, beneficiary string) (int64, error) {
	p, err := NormalizePath(rawPath)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ownerUser, ok := s.users[owner]
	if !ok {
		return 0, ErrNotFound
	}
	if _, ok := ownerUser.Paths[p]; !ok {
		return 0, ErrNotFound
	}
	key := shareKey(owner, p)
	rec, ok := s.shares[key]
	if !ok || !rec.HasBeneficiary(beneficiary) {
		return 0, ErrNotFound
	}

	ts := s.stamp()
	s.dropBeneficiary(rec, owner, p, beneficiary, ts)
	if len(rec.Participants) == 1 {
		delete(s.shares, key)
	}
	s.publishSync(map[string]bool{beneficiary: true}, ts)
	return ts, nil
}

// RemoveShare revokes every beneficiary of the share on path and deletes
// the record.
func (s *Service) RemoveShare(owner, rawPath string) (int64, error) {
	p, err := NormalizePath(rawPath)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ownerUser, ok := s.users[owner]
	if !ok {
		return 0, ErrNotFound
	}
	if _, ok := ownerUser.Paths[p]; !ok {
		return 0, ErrNotFound
	}
	key := shareKey(owner, p)
	rec, ok := s.shares[key]
	if !ok {
		return 0, ErrNotFound
	}

	ts := s.stamp()
	affected := make(map[string]bool)
	for _, ben := range rec.Beneficiaries() {
		s.dropBeneficiary(rec, owner, p, ben, ts)
		affected[ben] = true
	}
	delete(s.shares, key)
	s.publishSync(affected, ts)
	return ts, nil
}

func (s *Service) dropBeneficiary(rec *models.ShareRecord, owner, path, beneficiary string, ts int64) {
	for i, part := range rec.Participants {
		if i > 0 && part == beneficiary {
			rec.Participants = append(rec.Participants[:i], rec.Participants[i+1:]...)
			break
		}
	}
	benUser, ok := s.users[beneficiary]
	if !ok {
		return
	}
	ref := shareRef(owner, path)
	for p := range benUser.Paths {
		if isUnder(p, ref) {
			delete(benUser.Paths, p)
		}
	}
	benUser.Timestamp = ts
}

// propagate mirrors a mutation to owner's tree into every beneficiary
// registry whose share covers one of the changed paths, and settles the
// top-level timestamps: owner and every affected beneficiary observe the
// same completion time. Propagation is driven by these live events only;
// there is no retroactive rescan, so a shared path that is deleted and
// later recreated regains beneficiary visibility only through the
// recreation's own event.
func (s *Service) propagate(owner *models.User, changed []string, removed bool, ts int64) {
	affected := map[string]bool{owner.Username: true}
	owner.Timestamp = ts

	prefix := owner.Username + "/"
	for key, rec := range s.shares {
		if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		sharedPath := key[len(prefix):]
		for _, p := range changed {
			if !isUnder(p, sharedPath) {
				continue
			}
			ref := shareRef(owner.Username, p)
			for _, ben := range rec.Beneficiaries() {
				benUser, ok := s.users[ben]
				if !ok {
					continue
				}
				if removed {
					delete(benUser.Paths, ref)
				} else {
					src := owner.Paths[p]
					benUser.Paths[ref] = models.PathEntry{
						Kind:      models.TargetSharedIn,
						Target:    p,
						Owner:     owner.Username,
						IsDir:     src.IsDir,
						Writable:  rec.Writable,
						MD5:       src.MD5,
						Timestamp: ts,
					}
				}
				benUser.Timestamp = ts
				affected[ben] = true
			}
		}
	}
	s.publishSync(affected, ts)
}

// pruneShares deletes every ShareRecord of owner whose shared path no
// longer resolves. The beneficiaries' mirrored entries are removed by the
// propagation of the deletion itself.
func (s *Service) pruneShares(owner *models.User) {
	prefix := owner.Username + "/"
	for key := range s.shares {
		if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		if _, ok := owner.Paths[key[len(prefix):]]; !ok {
			delete(s.shares, key)
		}
	}
}

// ShareParticipants exposes the participant list for one of owner's
// shares.
func (s *Service) ShareParticipants(owner, rawPath string) ([]string, bool) {
	p, err := NormalizePath(rawPath)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.shares[shareKey(owner, p)]
	if !ok {
		return nil, false
	}
	out := make([]string, len(rec.Participants))
	copy(out, rec.Participants)
	return out, true
}
